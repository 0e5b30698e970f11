package field

// ReadOption configures how a field file is decoded.
type ReadOption func(*readOptions)

type readOptions struct {
	limits bool
}

// WithLimits parses the per-element min/max trailer of a 3-D file into
// aggregated per-component ranges (HexaData.Lims). Without this option
// the trailer is ignored. 2-D files never carry a trailer.
func WithLimits() ReadOption {
	return func(o *readOptions) {
		o.limits = true
	}
}

func applyReadOptions(opts []ReadOption) readOptions {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
