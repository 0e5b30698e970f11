// Package field reads and writes nek5000 binary field files (the "#std"
// layout): a 132-byte ASCII header, a 4-byte endian tag, an element map,
// the per-element payload and, for 3-D data, a min/max trailer.
package field

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/batchatco/go-thrower"

	"github.com/cfdio/go-native-nek5000/internal"
	"github.com/cfdio/go-native-nek5000/nek/hexa"
)

var (
	ErrMalformedHeader      = errors.New("malformed field file header")
	ErrInvalidHeaderSpec    = errors.New("header has neither variables nor counts")
	ErrUnsupportedPrecision = errors.New("unsupported word size")
	ErrUnknownByteOrder     = errors.New("could not interpret endianness")
	ErrTruncatedPayload     = errors.New("truncated field file")
	ErrCorruptedFile        = errors.New("corrupted field file")
)

var (
	logger = internal.NewLogger()
)

// SetLogLevel sets the logging level to the given level, and returns
// the old level. The lowest level is 0 (fatal errors only) and the
// highest level is 3 (errors, warnings and debug messages).
func SetLogLevel(level int) int {
	old := logger.LogLevel()
	switch level {
	case 0:
		logger.SetLogLevel(internal.LevelFatal)
	case 1:
		logger.SetLogLevel(internal.LevelError)
	case 2:
		logger.SetLogLevel(internal.LevelWarn)
	default:
		logger.SetLogLevel(internal.LevelInfo)
	}
	return int(old)
}

// ReadFile decodes the field file at fname into a freshly allocated
// container. The file handle is closed on every return path.
func ReadFile(fname string, opts ...ReadOption) (*hexa.HexaData, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(bufio.NewReader(file), opts...)
}

// Read decodes a field file from r. On any failure nothing is returned:
// a partially populated container never escapes.
func Read(r io.Reader, opts ...ReadOption) (*hexa.HexaData, error) {
	data, err := read(r, opts...)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func read(r io.Reader, opts ...ReadOption) (data *hexa.HexaData, err error) {
	defer thrower.RecoverError(&err)
	cfg := applyReadOptions(opts)

	h, order, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	logger.Infof("reading %s file: %s", orderName(order), h.Variables)

	elmap := readElementMap(r, order, h.NElemsFile)
	for _, iel := range elmap {
		if iel < 1 || int(iel) > h.NElems {
			return nil, fmt.Errorf("%w: element map entry %d outside [1, %d]",
				ErrCorruptedFile, iel, h.NElems)
		}
	}

	data = hexa.New(h.NDim, h.NElems, h.Orders, h.Counts)
	data.Time = h.Time
	data.Step = h.Step
	data.WordSize = h.WordSize
	data.Endian = orderName(order)
	data.ElMap = elmap

	readPayload(r, h, order, data)

	if cfg.limits && h.NDim == 3 {
		data.Lims = readLimits(r, order, data)
	}
	return data, nil
}

// WriteFile encodes data into the file at fname, truncating any
// existing file. The handle is closed on every return path.
func WriteFile(fname string, data *hexa.HexaData) (err error) {
	file, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		cerr := file.Close()
		if err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(file)
	if err := Write(bw, data); err != nil {
		return err
	}
	return bw.Flush()
}

// Write encodes data as a field file on w: header, endian tag, element
// map, payload and, for 3-D data, the min/max trailer.
func Write(w io.Writer, data *hexa.HexaData) (err error) {
	defer thrower.RecoverError(&err)

	h, err := headerFromData(data)
	if err != nil {
		return err
	}
	if len(data.ElMap) != data.Len() {
		return fmt.Errorf("%w: element map has %d entries for %d elements",
			ErrCorruptedFile, len(data.ElMap), data.Len())
	}
	for _, iel := range data.ElMap {
		if iel < 1 || int(iel) > data.Len() {
			return fmt.Errorf("%w: element map entry %d outside [1, %d]",
				ErrCorruptedFile, iel, data.Len())
		}
	}
	if h.WordSize == 4 {
		logger.Info("writing single-precision file")
	} else {
		logger.Info("writing double-precision file")
	}

	hb, err := h.encode()
	if err != nil {
		return err
	}
	writeBytes(w, hb)

	order := writeOrder(data.Endian)
	tag := EndianTag(order)
	writeBytes(w, tag[:])

	writeElementMap(w, order, data.ElMap)
	writePayload(w, h, order, data)
	if h.NDim == 3 {
		writeLimits(w, order, data)
	}
	return nil
}

func writeBytes(w io.Writer, b []byte) {
	_, err := w.Write(b)
	thrower.ThrowIfError(err)
}
