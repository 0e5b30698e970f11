package field

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cfdio/go-native-nek5000/nek/hexa"
)

const (
	headerSize   = 132
	headerMarker = "#std"
)

// Header is the decoded form of the 132-byte ASCII descriptor at the
// front of a field file. It is built either from the compact Variables
// string or from the per-group Counts tuple; the other representation
// and the shape fields below the comment are derived by normalize and
// the whole struct is treated as immutable afterwards.
type Header struct {
	WordSize   int // bytes per payload sample, 4 or 8
	Orders     [3]int
	NElems     int
	NElemsFile int
	Time       float64
	Step       int
	FileID     int
	NFiles     int

	// Exactly one of Variables ("X", "U", "P", "T", "S<NN>" tokens,
	// e.g. "XUPTS03") and Counts must be supplied; an all-zero Counts
	// tuple means "not supplied". When both are set the string wins and
	// Counts is rederived from it.
	Variables string
	Counts    [hexa.NumKinds]int

	// derived
	RealType string // "f" or "d"
	NPtsElem int
	NDim     int
}

// normalize derives the redundant header fields and checks the header
// invariants.
func (h *Header) normalize() error {
	switch h.WordSize {
	case 4:
		h.RealType = "f"
	case 8:
		h.RealType = "d"
	default:
		return fmt.Errorf("%w: %d bytes", ErrUnsupportedPrecision, h.WordSize)
	}

	for _, o := range h.Orders {
		if o < 1 {
			return fmt.Errorf("%w: non-positive order in %v",
				ErrMalformedHeader, h.Orders)
		}
	}
	h.NPtsElem = h.Orders[0] * h.Orders[1] * h.Orders[2]
	h.NDim = 2
	if h.Orders[2] > 1 {
		h.NDim = 3
	}

	switch {
	case h.Variables != "":
		counts, err := parseVariables(h.Variables, h.NDim)
		if err != nil {
			return err
		}
		h.Counts = counts
	case h.Counts != [hexa.NumKinds]int{}:
		if err := checkCounts(h.Counts, h.NDim); err != nil {
			return err
		}
		h.Variables = formatVariables(h.Counts)
	default:
		return ErrInvalidHeaderSpec
	}
	return nil
}

// parseVariables scans the compact variable spec for the presence of
// each group letter; the digits after "S" are the scalar count.
func parseVariables(vars string, ndim int) (counts [hexa.NumKinds]int, err error) {
	if strings.ContainsRune(vars, 'X') {
		counts[hexa.Geometry] = ndim
	}
	if strings.ContainsRune(vars, 'U') {
		counts[hexa.Velocity] = ndim
	}
	if strings.ContainsRune(vars, 'P') {
		counts[hexa.Pressure] = 1
	}
	if strings.ContainsRune(vars, 'T') {
		counts[hexa.Temperature] = 1
	}
	if i := strings.IndexRune(vars, 'S'); i >= 0 {
		n, aerr := strconv.Atoi(vars[i+1:])
		if aerr != nil || n < 0 {
			return counts, fmt.Errorf("%w: scalar count in variables %q",
				ErrMalformedHeader, vars)
		}
		counts[hexa.Scalar] = n
	}
	return counts, nil
}

// formatVariables renders the canonical spec string, letters in fixed
// X, U, P, T, S order, zero-count groups omitted.
func formatVariables(counts [hexa.NumKinds]int) string {
	var b strings.Builder
	if counts[hexa.Geometry] > 0 {
		b.WriteByte('X')
	}
	if counts[hexa.Velocity] > 0 {
		b.WriteByte('U')
	}
	if counts[hexa.Pressure] > 0 {
		b.WriteByte('P')
	}
	if counts[hexa.Temperature] > 0 {
		b.WriteByte('T')
	}
	if counts[hexa.Scalar] > 0 {
		fmt.Fprintf(&b, "S%02d", counts[hexa.Scalar])
	}
	return b.String()
}

func checkCounts(counts [hexa.NumKinds]int, ndim int) error {
	for _, k := range []hexa.FieldKind{hexa.Geometry, hexa.Velocity} {
		if n := counts[k]; n != 0 && n != ndim {
			return fmt.Errorf("%w: %s count %d with %d dimensions",
				ErrInvalidHeaderSpec, k, n, ndim)
		}
	}
	for _, k := range []hexa.FieldKind{hexa.Pressure, hexa.Temperature} {
		if n := counts[k]; n != 0 && n != 1 {
			return fmt.Errorf("%w: %s count %d", ErrInvalidHeaderSpec, k, n)
		}
	}
	if n := counts[hexa.Scalar]; n < 0 || n > 99 {
		return fmt.Errorf("%w: scalar count %d outside [0, 99]",
			ErrInvalidHeaderSpec, n)
	}
	return nil
}

// decodeHeader parses the 132-byte descriptor. Token roles, in order:
// marker, word size, the three orders, element count, element count in
// this file, time, step, file id, file count, variable spec.
func decodeHeader(b []byte) (*Header, error) {
	tokens := strings.Fields(string(b))
	if len(tokens) < 12 {
		return nil, fmt.Errorf("%w: %d tokens, need 12",
			ErrMalformedHeader, len(tokens))
	}
	if tokens[0] != headerMarker {
		logger.Infof("unexpected header marker %q", tokens[0])
	}

	var err error
	geti := func(tok, name string) int {
		n, aerr := strconv.Atoi(tok)
		if aerr != nil && err == nil {
			err = fmt.Errorf("%w: %s token %q", ErrMalformedHeader, name, tok)
		}
		return n
	}
	getf := func(tok, name string) float64 {
		f, aerr := strconv.ParseFloat(tok, 64)
		if aerr != nil && err == nil {
			err = fmt.Errorf("%w: %s token %q", ErrMalformedHeader, name, tok)
		}
		return f
	}

	h := &Header{
		WordSize:   geti(tokens[1], "word size"),
		Orders:     [3]int{geti(tokens[2], "order"), geti(tokens[3], "order"), geti(tokens[4], "order")},
		NElems:     geti(tokens[5], "element count"),
		NElemsFile: geti(tokens[6], "file element count"),
		Time:       getf(tokens[7], "time"),
		Step:       geti(tokens[8], "step"),
		FileID:     geti(tokens[9], "file id"),
		NFiles:     geti(tokens[10], "file count"),
		Variables:  tokens[11],
	}
	if err != nil {
		return nil, err
	}
	if err := h.normalize(); err != nil {
		return nil, err
	}
	return h, nil
}

// encode renders the header with the exact field widths other nek tools
// expect, left justified and space padded to 132 bytes.
func (h *Header) encode() ([]byte, error) {
	s := fmt.Sprintf("#std %1d %2d %2d %2d %10d %10d %20.13E %9d %6d %6d %s",
		h.WordSize, h.Orders[0], h.Orders[1], h.Orders[2],
		h.NElems, h.NElemsFile, h.Time, h.Step, h.FileID, h.NFiles,
		h.Variables)
	if len(s) > headerSize {
		return nil, fmt.Errorf("%w: rendered header needs %d bytes: %q",
			ErrMalformedHeader, len(s), s)
	}
	b := make([]byte, headerSize)
	copy(b, s)
	for i := len(s); i < headerSize; i++ {
		b[i] = ' '
	}
	return b, nil
}

// headerFromData derives a single-file header from the container's
// current shape and metadata.
func headerFromData(data *hexa.HexaData) (*Header, error) {
	h := &Header{
		WordSize:   data.WordSize,
		Orders:     data.Orders,
		NElems:     data.Len(),
		NElemsFile: data.Len(),
		Time:       data.Time,
		Step:       data.Step,
		FileID:     0,
		NFiles:     1,
		Counts:     data.Counts,
	}
	if err := h.normalize(); err != nil {
		return nil, err
	}
	return h, nil
}

// ReadHeader decodes the header and the endian tag at the front of a
// field file, leaving r positioned at the element map.
func ReadHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	var hb [headerSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	h, err := decodeHeader(hb[:])
	if err != nil {
		return nil, nil, err
	}

	var tag [4]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: endian tag: %v", ErrTruncatedPayload, err)
	}
	order, err := DetectByteOrder(tag)
	if err != nil {
		return nil, nil, err
	}
	return h, order, nil
}
