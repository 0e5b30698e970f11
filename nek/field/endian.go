package field

// The byte order of a field file is self-described: a float32 tag with a
// known value sits right after the ASCII header, and whichever
// interpretation reproduces the value names the order.

import (
	"encoding/binary"
	"fmt"
	"math"
)

// endianTagValue is the magic float stored after the header. Detection
// truncates each interpretation to 5 decimal digits before comparing, so
// the inexact float32 representation of the constant does not matter.
const endianTagValue = 6.54321

func matchesTag(f float32) bool {
	return math.Trunc(float64(f)*1e5)/1e5 == endianTagValue
}

// DetectByteOrder interprets the 4-byte endian tag and reports the byte
// order it declares.
func DetectByteOrder(tag [4]byte) (binary.ByteOrder, error) {
	le := math.Float32frombits(binary.LittleEndian.Uint32(tag[:]))
	be := math.Float32frombits(binary.BigEndian.Uint32(tag[:]))
	switch {
	case matchesTag(le):
		return binary.LittleEndian, nil
	case matchesTag(be):
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: tag bytes % x", ErrUnknownByteOrder, tag)
}

// EndianTag serializes the magic tag in the given byte order.
func EndianTag(order binary.ByteOrder) [4]byte {
	var tag [4]byte
	order.PutUint32(tag[:], math.Float32bits(endianTagValue))
	return tag
}

func orderName(order binary.ByteOrder) string {
	if order == binary.ByteOrder(binary.BigEndian) {
		return "big"
	}
	return "little"
}

// writeOrder maps the container's declared endianness to a byte order.
// Anything but "little" or "big" falls back to the native order.
func writeOrder(endian string) binary.ByteOrder {
	switch endian {
	case "little":
		return binary.LittleEndian
	case "big":
		return binary.BigEndian
	}
	logger.Warnf("unrecognized endianness %q, writing native byte order", endian)
	return binary.NativeEndian
}
