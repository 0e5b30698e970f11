// Package hexa holds the in-memory form of a spectral-element field: a
// mesh of hexahedral (quadrilateral in 2-D) elements, each carrying its
// own local arrays for geometry, velocity, pressure, temperature and
// passive scalars.
package hexa

import (
	"fmt"
	"math"
)

// FieldKind names one of the five variable groups of a field file.
// The constant order is the on-disk payload order.
type FieldKind int

const (
	Geometry FieldKind = iota
	Velocity
	Pressure
	Temperature
	Scalar

	NumKinds = 5
)

var kindNames = []string{
	"geometry",
	"velocity",
	"pressure",
	"temperature",
	"scalar",
}

func (k FieldKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
	return kindNames[k]
}

// ComponentOuter reports whether the payload nests components outside
// elements for this group. Scalars are the lone group stored that way;
// every other group is element-outer.
func (k FieldKind) ComponentOuter() bool {
	return k == Scalar
}

// Elem is one spectral element. Each component array is stored flat in
// on-disk sample order, x fastest: index (iz, iy, ix) maps to
// (iz*orders[1]+iy)*orders[0]+ix.
type Elem struct {
	orders [3]int
	fields [NumKinds][][]float64
}

func newElem(orders [3]int, counts [NumKinds]int) *Elem {
	npts := orders[0] * orders[1] * orders[2]
	e := &Elem{orders: orders}
	for k := range e.fields {
		comps := make([][]float64, counts[k])
		for i := range comps {
			comps[i] = make([]float64, npts)
		}
		e.fields[k] = comps
	}
	return e
}

// Array returns the mutable flat array backing one component.
func (e *Elem) Array(kind FieldKind, comp int) []float64 {
	return e.fields[kind][comp]
}

// At returns the sample at (iz, iy, ix) of one component.
func (e *Elem) At(kind FieldKind, comp, iz, iy, ix int) float64 {
	return e.fields[kind][comp][(iz*e.orders[1]+iy)*e.orders[0]+ix]
}

// Set stores the sample at (iz, iy, ix) of one component.
func (e *Elem) Set(kind FieldKind, comp, iz, iy, ix int, v float64) {
	e.fields[kind][comp][(iz*e.orders[1]+iy)*e.orders[0]+ix] = v
}

// Lims accumulates per-component global minima and maxima, aggregated
// from the per-element min/max trailer of a 3-D file.
type Lims struct {
	ranges [NumKinds][][2]float64
}

// NewLims allocates limits for the given component counts, initialized
// so that the first Update wins.
func NewLims(counts [NumKinds]int) *Lims {
	l := &Lims{}
	for k := range l.ranges {
		l.ranges[k] = make([][2]float64, counts[k])
		for i := range l.ranges[k] {
			l.ranges[k][i] = [2]float64{math.Inf(1), math.Inf(-1)}
		}
	}
	return l
}

// Update widens the range of one component.
func (l *Lims) Update(kind FieldKind, comp int, min, max float64) {
	r := &l.ranges[kind][comp]
	if min < r[0] {
		r[0] = min
	}
	if max > r[1] {
		r[1] = max
	}
}

// Range returns the aggregated minimum and maximum of one component.
func (l *Lims) Range(kind FieldKind, comp int) (min, max float64) {
	r := l.ranges[kind][comp]
	return r[0], r[1]
}

// HexaData is the mesh container a field file is decoded into and
// encoded from. The codec never resizes it; element arrays are allocated
// once by New.
type HexaData struct {
	NDim     int
	Orders   [3]int
	Counts   [NumKinds]int
	Time     float64
	Step     int
	WordSize int     // 4 or 8 bytes per payload sample
	Endian   string  // "little" or "big"
	ElMap    []int32 // 1-based logical element indices in on-disk order
	Lims     *Lims   // nil unless the min/max trailer was parsed

	elems []*Elem
}

// New builds a container of nel elements with every component array
// allocated and zeroed, an identity element map, and double-precision
// little-endian defaults.
func New(ndim, nel int, orders [3]int, counts [NumKinds]int) *HexaData {
	d := &HexaData{
		NDim:     ndim,
		Orders:   orders,
		Counts:   counts,
		WordSize: 8,
		Endian:   "little",
		ElMap:    make([]int32, nel),
		elems:    make([]*Elem, nel),
	}
	for i := range d.elems {
		d.elems[i] = newElem(orders, counts)
		d.ElMap[i] = int32(i + 1)
	}
	return d
}

// Len returns the number of elements.
func (d *HexaData) Len() int {
	return len(d.elems)
}

// Elem returns the element at the given 0-based logical index.
func (d *HexaData) Elem(i int) *Elem {
	return d.elems[i]
}

// PointsPerElement returns the sample count of one component array.
func (d *HexaData) PointsPerElement() int {
	return d.Orders[0] * d.Orders[1] * d.Orders[2]
}
