package mcc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-mayacache/internal/dtype"
)

// Encoder splits and renders chunk payloads of one data type. Encoders are
// used for diagnostics; typed access goes through Chunk and Value.
type Encoder interface {
	// Split cuts raw into displayable pieces. sizeHint is the suggested
	// piece size; encoders with an implicit size of their own may ignore it.
	Split(raw []byte, sizeHint int) [][]byte

	// Repr renders one piece returned by Split.
	Repr(part []byte) string
}

// Unpacker is implemented by encoders that can decode a whole payload.
type Unpacker interface {
	Unpack(raw []byte) (Value, error)
}

func splitEvery(raw []byte, size int) [][]byte {
	if size <= 0 {
		size = len(raw)
	}
	var parts [][]byte
	for i := 0; i < len(raw); i += size {
		parts = append(parts, raw[i:min(i+size, len(raw))])
	}
	return parts
}

// RawEncoder renders bytes as printable ASCII with dots for everything else.
type RawEncoder struct{}

func (RawEncoder) Split(raw []byte, sizeHint int) [][]byte {
	return splitEvery(raw, sizeHint)
}

func (RawEncoder) Repr(part []byte) string {
	var b strings.Builder
	for _, c := range part {
		if c > 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func (RawEncoder) Unpack(raw []byte) (Value, error) {
	return Value{Type: TypeRaw, Raw: raw}, nil
}

// StringEncoder handles NUL-terminated strings.
type StringEncoder struct{}

// Split strips a single trailing NUL and splits the rest on NUL bytes.
func (StringEncoder) Split(raw []byte, _ int) [][]byte {
	raw = bytes.TrimSuffix(raw, []byte{0})
	return bytes.Split(raw, []byte{0})
}

func (StringEncoder) Repr(part []byte) string {
	return strconv.Quote(string(part))
}

func (StringEncoder) Unpack(raw []byte) (Value, error) {
	return Value{Type: TypeString, Text: trimNUL(raw)}, nil
}

// NumericEncoder handles packed big-endian numbers.
type NumericEncoder struct {
	kind dtype.Kind
	typ  DataType
}

// Built-in numeric encoders.
var (
	Float32Encoder = NumericEncoder{kind: dtype.Float32, typ: TypeFloat}
	Float64Encoder = NumericEncoder{kind: dtype.Float64, typ: TypeDouble}
	Uint32Encoder  = NumericEncoder{kind: dtype.Uint32, typ: TypeUint}
)

// ElementSize returns the size of one element in bytes.
func (e NumericEncoder) ElementSize() int {
	return e.kind.Size()
}

// Split rounds sizeHint down to a whole number of elements before splitting.
func (e NumericEncoder) Split(raw []byte, sizeHint int) [][]byte {
	size := e.kind.Size()
	sizeHint -= sizeHint % size
	if sizeHint < size {
		sizeHint = size
	}
	return splitEvery(raw, sizeHint)
}

// Unpack decodes raw, failing with a *DecodeError when its length is not a
// multiple of the element size.
func (e NumericEncoder) Unpack(raw []byte) (Value, error) {
	v := Value{Type: e.typ}
	var err error
	switch e.kind {
	case dtype.Float32:
		v.Floats, err = dtype.Float32s(raw)
	case dtype.Float64:
		v.Doubles, err = dtype.Float64s(raw)
	case dtype.Uint32:
		v.Uints, err = dtype.Uint32s(raw)
	}
	if err != nil {
		return Value{}, &DecodeError{Type: e.typ, Err: err}
	}
	return v, nil
}

// Repr joins the decoded values with spaces. Pieces that do not decode are
// rendered as raw bytes.
func (e NumericEncoder) Repr(part []byte) string {
	v, err := e.Unpack(part)
	if err != nil {
		return RawEncoder{}.Repr(part)
	}
	return v.String()
}

func trimNUL(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}
