package mcc

import (
	"strconv"
	"strings"
)

// Value is a decoded chunk payload. Type selects which field is populated.
type Value struct {
	Type    DataType
	Raw     []byte
	Floats  []float32
	Doubles []float64
	Uints   []uint32
	Text    string
}

// Len returns the number of decoded elements, or bytes for raw values.
func (v Value) Len() int {
	switch v.Type {
	case TypeFloat:
		return len(v.Floats)
	case TypeDouble:
		return len(v.Doubles)
	case TypeUint:
		return len(v.Uints)
	case TypeString:
		return len(v.Text)
	default:
		return len(v.Raw)
	}
}

// String renders numeric values space separated, strings quoted and raw
// bytes as printable ASCII.
func (v Value) String() string {
	var parts []string
	switch v.Type {
	case TypeFloat:
		for _, f := range v.Floats {
			parts = append(parts, strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
	case TypeDouble:
		for _, f := range v.Doubles {
			parts = append(parts, strconv.FormatFloat(f, 'g', -1, 64))
		}
	case TypeUint:
		for _, u := range v.Uints {
			parts = append(parts, strconv.FormatUint(uint64(u), 10))
		}
	case TypeString:
		return strconv.Quote(v.Text)
	default:
		return RawEncoder{}.Repr(v.Raw)
	}
	return strings.Join(parts, " ")
}
