package field

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/batchatco/go-thrower"
	"gonum.org/v1/gonum/floats"

	"github.com/cfdio/go-native-nek5000/nek/hexa"
)

// readElementMap consumes the on-disk to logical element index table.
func readElementMap(r io.Reader, order binary.ByteOrder, n int) []int32 {
	elmap := make([]int32, n)
	if err := binary.Read(r, order, elmap); err != nil {
		thrower.Throw(fmt.Errorf("%w: element map: %v", ErrTruncatedPayload, err))
	}
	return elmap
}

func writeElementMap(w io.Writer, order binary.ByteOrder, elmap []int32) {
	err := binary.Write(w, order, elmap)
	thrower.ThrowIfError(err)
}

// readArray reads one element array at the declared word size into dst,
// widening to float64. scratch must have len(dst) when the word size
// is 4.
func readArray(r io.Reader, order binary.ByteOrder, wdsz int, scratch []float32, dst []float64) error {
	if wdsz == 4 {
		if err := binary.Read(r, order, scratch); err != nil {
			return err
		}
		for i, v := range scratch {
			dst[i] = float64(v)
		}
		return nil
	}
	return binary.Read(r, order, dst)
}

// writeArray emits one element array at the declared word size,
// narrowing to float32 when the word size is 4.
func writeArray(w io.Writer, order binary.ByteOrder, wdsz int, scratch []float32, src []float64) error {
	if wdsz == 4 {
		for i, v := range src {
			scratch[i] = float32(v)
		}
		return binary.Write(w, order, scratch)
	}
	return binary.Write(w, order, src)
}

// readPayload streams the five variable groups into data. Geometry,
// velocity, pressure and temperature are element-outer on disk; scalars
// are component-outer. The asymmetry is part of the format, not a bug.
func readPayload(r io.Reader, h *Header, order binary.ByteOrder, data *hexa.HexaData) {
	var scratch []float32
	if h.WordSize == 4 {
		scratch = make([]float32, h.NPtsElem)
	}

	fail := func(kind hexa.FieldKind, iel int32, comp int, err error) {
		thrower.Throw(fmt.Errorf("%w: %s component %d of element %d: %v",
			ErrTruncatedPayload, kind, comp, iel, err))
	}

	for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
		n := h.Counts[kind]
		if n == 0 {
			continue
		}
		if kind.ComponentOuter() {
			for comp := 0; comp < n; comp++ {
				for _, iel := range data.ElMap {
					dst := data.Elem(int(iel) - 1).Array(kind, comp)
					if err := readArray(r, order, h.WordSize, scratch, dst); err != nil {
						fail(kind, iel, comp, err)
					}
				}
			}
			continue
		}
		for _, iel := range data.ElMap {
			el := data.Elem(int(iel) - 1)
			for comp := 0; comp < n; comp++ {
				if err := readArray(r, order, h.WordSize, scratch, el.Array(kind, comp)); err != nil {
					fail(kind, iel, comp, err)
				}
			}
		}
	}
}

// writePayload is the mirror of readPayload, with the same nesting rules.
func writePayload(w io.Writer, h *Header, order binary.ByteOrder, data *hexa.HexaData) {
	var scratch []float32
	if h.WordSize == 4 {
		scratch = make([]float32, h.NPtsElem)
	}

	for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
		n := h.Counts[kind]
		if n == 0 {
			continue
		}
		if kind.ComponentOuter() {
			for comp := 0; comp < n; comp++ {
				for _, iel := range data.ElMap {
					src := data.Elem(int(iel) - 1).Array(kind, comp)
					err := writeArray(w, order, h.WordSize, scratch, src)
					thrower.ThrowIfError(err)
				}
			}
			continue
		}
		for _, iel := range data.ElMap {
			el := data.Elem(int(iel) - 1)
			for comp := 0; comp < n; comp++ {
				err := writeArray(w, order, h.WordSize, scratch, el.Array(kind, comp))
				thrower.ThrowIfError(err)
			}
		}
	}
}

// writeLimits appends the per-element min/max trailer of a 3-D file:
// for each group in payload order, element-outer (scalars included, the
// payload nesting quirk does not apply here), one float32 minimum and
// maximum per component array.
func writeLimits(w io.Writer, order binary.ByteOrder, data *hexa.HexaData) {
	for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
		n := data.Counts[kind]
		if n == 0 {
			continue
		}
		for _, iel := range data.ElMap {
			el := data.Elem(int(iel) - 1)
			for comp := 0; comp < n; comp++ {
				a := el.Array(kind, comp)
				pair := [2]float32{float32(floats.Min(a)), float32(floats.Max(a))}
				err := binary.Write(w, order, pair[:])
				thrower.ThrowIfError(err)
			}
		}
	}
}

// readLimits parses the trailer, aggregating the per-element pairs into
// per-component global ranges.
func readLimits(r io.Reader, order binary.ByteOrder, data *hexa.HexaData) *hexa.Lims {
	lims := hexa.NewLims(data.Counts)
	for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
		n := data.Counts[kind]
		if n == 0 {
			continue
		}
		for _, iel := range data.ElMap {
			for comp := 0; comp < n; comp++ {
				var pair [2]float32
				if err := binary.Read(r, order, pair[:]); err != nil {
					thrower.Throw(fmt.Errorf("%w: min/max of %s component %d of element %d: %v",
						ErrTruncatedPayload, kind, comp, iel, err))
				}
				lims.Update(kind, comp, float64(pair[0]), float64(pair[1]))
			}
		}
	}
	return lims
}
