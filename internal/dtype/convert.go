package dtype

import (
	"encoding/binary"
	"math"
)

// Float32s decodes a payload of big-endian IEEE 754 single-precision floats.
func Float32s(data []byte) ([]float32, error) {
	n, err := Count(Float32, len(data))
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// Float64s decodes a payload of big-endian IEEE 754 double-precision floats.
func Float64s(data []byte) ([]float64, error) {
	n, err := Count(Float64, len(data))
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(data[i*8:]))
	}
	return out, nil
}

// Uint32s decodes a payload of big-endian unsigned 32-bit integers.
func Uint32s(data []byte) ([]uint32, error) {
	n, err := Count(Uint32, len(data))
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(data[i*4:])
	}
	return out, nil
}
