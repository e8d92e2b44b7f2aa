package dtype

import (
	"encoding/binary"
	"math"
)

// PutFloat32s encodes values as big-endian single-precision floats.
func PutFloat32s(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// PutFloat64s encodes values as big-endian double-precision floats.
func PutFloat64s(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// PutUint32s encodes values as big-endian unsigned 32-bit integers.
func PutUint32s(values []uint32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
