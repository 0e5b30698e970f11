package field

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cfdio/go-native-nek5000/nek/hexa"
)

// sample gives every (element, group, component, point) slot a distinct
// value that survives a float32 round trip exactly.
func sample(iel int, kind hexa.FieldKind, comp, i int) float64 {
	return float64(iel+1)*1000 + float64(kind)*100 + float64(comp)*10 + float64(i) + 0.5
}

func makeData(ndim int, orders [3]int, counts [hexa.NumKinds]int, nel, wdsz int, endian string) *hexa.HexaData {
	data := hexa.New(ndim, nel, orders, counts)
	data.WordSize = wdsz
	data.Endian = endian
	data.Time = 2.5
	data.Step = 42
	for iel := 0; iel < nel; iel++ {
		el := data.Elem(iel)
		for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
			for comp := 0; comp < counts[kind]; comp++ {
				a := el.Array(kind, comp)
				for i := range a {
					a[i] = sample(iel, kind, comp, i)
				}
			}
		}
	}
	return data
}

func requireDataEqual(t *testing.T, want, got *hexa.HexaData) {
	t.Helper()
	require.Equal(t, want.NDim, got.NDim)
	require.Equal(t, want.Orders, got.Orders)
	require.Equal(t, want.Counts, got.Counts)
	require.Equal(t, want.Time, got.Time)
	require.Equal(t, want.Step, got.Step)
	require.Equal(t, want.WordSize, got.WordSize)
	require.Equal(t, want.ElMap, got.ElMap)
	require.Equal(t, want.Len(), got.Len())

	for iel := 0; iel < want.Len(); iel++ {
		for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
			for comp := 0; comp < want.Counts[kind]; comp++ {
				wa := want.Elem(iel).Array(kind, comp)
				ga := got.Elem(iel).Array(kind, comp)
				if want.WordSize == 4 {
					for i := range wa {
						require.Equal(t, float64(float32(wa[i])), ga[i],
							"%s comp %d elem %d point %d", kind, comp, iel, i)
					}
				} else {
					require.Equal(t, wa, ga, "%s comp %d elem %d", kind, comp, iel)
				}
			}
		}
	}
}

func TestRoundTripFile(t *testing.T) {
	cases := []struct {
		name   string
		ndim   int
		orders [3]int
		counts [hexa.NumKinds]int
	}{
		{"3d-full", 3, [3]int{3, 2, 2}, [hexa.NumKinds]int{3, 3, 1, 1, 2}},
		{"2d-no-temp", 2, [3]int{4, 3, 1}, [hexa.NumKinds]int{2, 2, 1, 0, 3}},
		{"3d-velocity-only", 3, [3]int{2, 2, 2}, [hexa.NumKinds]int{0, 3, 0, 0, 0}},
		{"2d-scalars-only", 2, [3]int{3, 3, 1}, [hexa.NumKinds]int{0, 0, 0, 0, 5}},
	}
	for _, tc := range cases {
		for _, wdsz := range []int{4, 8} {
			for _, endian := range []string{"little", "big"} {
				name := tc.name + "/" + endian
				if wdsz == 4 {
					name += "/single"
				} else {
					name += "/double"
				}
				t.Run(name, func(t *testing.T) {
					want := makeData(tc.ndim, tc.orders, tc.counts, 3, wdsz, endian)
					fname := filepath.Join(t.TempDir(), "out.fld")

					require.NoError(t, WriteFile(fname, want))
					got, err := ReadFile(fname)
					require.NoError(t, err)

					require.Equal(t, endian, got.Endian)
					requireDataEqual(t, want, got)
				})
			}
		}
	}
}

func TestRoundTripStream(t *testing.T) {
	want := makeData(3, [3]int{2, 2, 2}, [hexa.NumKinds]int{3, 3, 1, 1, 1}, 4, 8, "big")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	requireDataEqual(t, want, got)
}

func TestElementMapPermutation(t *testing.T) {
	want := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{2, 0, 1, 0, 0}, 3, 8, "little")
	want.ElMap = []int32{3, 1, 2}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []int32{3, 1, 2}, got.ElMap)
	requireDataEqual(t, want, got)
}

// TestScalarOrderingAsymmetry pins the on-disk nesting: geometry is
// element-outer while scalars are component-outer.
func TestScalarOrderingAsymmetry(t *testing.T) {
	counts := [hexa.NumKinds]int{2, 0, 0, 0, 2}
	data := makeData(2, [3]int{1, 1, 1}, counts, 2, 8, "little")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))
	raw := buf.Bytes()

	f64 := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(raw[off : off+8]))
	}

	geomOff := headerSize + 4 + 2*4 // header, tag, two-entry element map
	require.Equal(t, []float64{
		sample(0, hexa.Geometry, 0, 0), // element 1, component 0
		sample(0, hexa.Geometry, 1, 0), // element 1, component 1
		sample(1, hexa.Geometry, 0, 0), // element 2, component 0
		sample(1, hexa.Geometry, 1, 0), // element 2, component 1
	}, []float64{f64(geomOff), f64(geomOff + 8), f64(geomOff + 16), f64(geomOff + 24)})

	scalOff := geomOff + 4*8
	require.Equal(t, []float64{
		sample(0, hexa.Scalar, 0, 0), // component 0, element 1
		sample(1, hexa.Scalar, 0, 0), // component 0, element 2
		sample(0, hexa.Scalar, 1, 0), // component 1, element 1
		sample(1, hexa.Scalar, 1, 0), // component 1, element 2
	}, []float64{f64(scalOff), f64(scalOff + 8), f64(scalOff + 16), f64(scalOff + 24)})

	require.Len(t, raw, scalOff+4*8) // 2-D, so no trailer
}

func TestZeroComponentGroupsContributeNothing(t *testing.T) {
	// pressure and temperature absent: the payload must shrink by
	// exactly their share, with no placeholders
	nel, npts := 3, 12
	with := makeData(2, [3]int{4, 3, 1}, [hexa.NumKinds]int{2, 2, 1, 1, 0}, nel, 8, "little")
	without := makeData(2, [3]int{4, 3, 1}, [hexa.NumKinds]int{2, 2, 0, 0, 0}, nel, 8, "little")

	var bufWith, bufWithout bytes.Buffer
	require.NoError(t, Write(&bufWith, with))
	require.NoError(t, Write(&bufWithout, without))

	require.Equal(t, 2*nel*npts*8, bufWith.Len()-bufWithout.Len())

	got, err := Read(bytes.NewReader(bufWithout.Bytes()))
	require.NoError(t, err)
	require.Equal(t, [hexa.NumKinds]int{2, 2, 0, 0, 0}, got.Counts)
	requireDataEqual(t, without, got)
}

func TestTrailerOnlyFor3D(t *testing.T) {
	nel, npts := 2, 8
	counts := [hexa.NumKinds]int{3, 3, 1, 0, 2}
	ncomp := 3 + 3 + 1 + 2

	d3 := makeData(3, [3]int{2, 2, 2}, counts, nel, 8, "little")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, d3))

	base := headerSize + 4 + nel*4 + nel*ncomp*npts*8
	require.Equal(t, base+nel*ncomp*2*4, buf.Len())

	counts2 := [hexa.NumKinds]int{2, 2, 1, 0, 2}
	d2 := makeData(2, [3]int{2, 2, 1}, counts2, nel, 8, "little")
	buf.Reset()
	require.NoError(t, Write(&buf, d2))
	ncomp2 := 2 + 2 + 1 + 2
	require.Equal(t, headerSize+4+nel*4+nel*ncomp2*4*8, buf.Len())
}

func TestReadLimits(t *testing.T) {
	counts := [hexa.NumKinds]int{3, 0, 1, 0, 2}
	want := makeData(3, [3]int{2, 2, 2}, counts, 3, 8, "little")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(bytes.NewReader(buf.Bytes()), WithLimits())
	require.NoError(t, err)
	require.NotNil(t, got.Lims)

	for kind := hexa.Geometry; kind <= hexa.Scalar; kind++ {
		for comp := 0; comp < counts[kind]; comp++ {
			wantMin, wantMax := math.Inf(1), math.Inf(-1)
			for iel := 0; iel < want.Len(); iel++ {
				for _, v := range want.Elem(iel).Array(kind, comp) {
					wantMin = math.Min(wantMin, v)
					wantMax = math.Max(wantMax, v)
				}
			}
			min, max := got.Lims.Range(kind, comp)
			require.Equal(t, float64(float32(wantMin)), min, "%s comp %d", kind, comp)
			require.Equal(t, float64(float32(wantMax)), max, "%s comp %d", kind, comp)
		}
	}

	// without the option the trailer is ignored
	got, err = Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Nil(t, got.Lims)
}

func TestTruncatedPayload(t *testing.T) {
	want := makeData(2, [3]int{3, 2, 1}, [hexa.NumKinds]int{2, 2, 1, 0, 1}, 2, 8, "little")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))
	raw := buf.Bytes()

	// one byte short of the final array
	data, err := Read(bytes.NewReader(raw[:len(raw)-1]))
	require.ErrorIs(t, err, ErrTruncatedPayload)
	require.Nil(t, data)

	// cut mid element map
	data, err = Read(bytes.NewReader(raw[:headerSize+4+3]))
	require.ErrorIs(t, err, ErrTruncatedPayload)
	require.Nil(t, data)

	// cut inside the endian tag
	data, err = Read(bytes.NewReader(raw[:headerSize+2]))
	require.ErrorIs(t, err, ErrTruncatedPayload)
	require.Nil(t, data)

	// shorter than the header itself
	data, err = Read(bytes.NewReader(raw[:50]))
	require.ErrorIs(t, err, ErrMalformedHeader)
	require.Nil(t, data)
}

func TestTruncatedTrailer(t *testing.T) {
	want := makeData(3, [3]int{2, 2, 2}, [hexa.NumKinds]int{3, 0, 0, 0, 0}, 2, 8, "little")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))
	raw := buf.Bytes()

	data, err := Read(bytes.NewReader(raw[:len(raw)-1]), WithLimits())
	require.ErrorIs(t, err, ErrTruncatedPayload)
	require.Nil(t, data)
}

func TestCorruptElementMap(t *testing.T) {
	want := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{2, 0, 0, 0, 0}, 2, 8, "little")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))
	raw := buf.Bytes()

	// first element map entry points outside the mesh
	binary.LittleEndian.PutUint32(raw[headerSize+4:], 99)
	data, err := Read(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrCorruptedFile)
	require.Nil(t, data)
}

func TestWriteUnsupportedWordSize(t *testing.T) {
	data := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{2, 0, 0, 0, 0}, 1, 8, "little")
	data.WordSize = 2
	var buf bytes.Buffer
	require.ErrorIs(t, Write(&buf, data), ErrUnsupportedPrecision)
}

func TestWriteNoVariables(t *testing.T) {
	data := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{}, 1, 8, "little")
	var buf bytes.Buffer
	require.ErrorIs(t, Write(&buf, data), ErrInvalidHeaderSpec)
}

func TestWriteBadElementMap(t *testing.T) {
	data := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{2, 0, 0, 0, 0}, 2, 8, "little")
	data.ElMap = []int32{1}
	var buf bytes.Buffer
	require.ErrorIs(t, Write(&buf, data), ErrCorruptedFile)
}

func TestWriteUnknownEndianFallsBackToNative(t *testing.T) {
	want := makeData(2, [3]int{2, 2, 1}, [hexa.NumKinds]int{2, 0, 1, 0, 0}, 2, 8, "middle")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Contains(t, []string{"little", "big"}, got.Endian)
	requireDataEqual(t, want, got)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "no-such.fld"))
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

func TestReadHeaderOnly(t *testing.T) {
	want := makeData(3, [3]int{2, 3, 2}, [hexa.NumKinds]int{3, 3, 0, 1, 0}, 4, 4, "big")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, want))

	h, order, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, binary.ByteOrder(binary.BigEndian), order)
	require.Equal(t, 4, h.WordSize)
	require.Equal(t, [3]int{2, 3, 2}, h.Orders)
	require.Equal(t, 4, h.NElems)
	require.Equal(t, "XUT", h.Variables)
	require.Equal(t, [hexa.NumKinds]int{3, 3, 0, 1, 0}, h.Counts)
}
