package dtype

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a fixed-size element type.
type Kind int

const (
	Float32 Kind = iota + 1
	Float64
	Uint32
)

// ErrLength is the cause of every *LengthError.
var ErrLength = errors.New("payload length is not a multiple of the element size")

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case Float32, Uint32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint32:
		return "uint32"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// LengthError reports a payload that cannot be split into whole elements.
type LengthError struct {
	Kind      Kind
	Length    int
	Remainder int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("encoded length %d is not a multiple of %d (%s); %d remains",
		e.Length, e.Kind.Size(), e.Kind, e.Remainder)
}

// Unwrap returns ErrLength.
func (e *LengthError) Unwrap() error {
	return ErrLength
}

// Count returns the number of elements of kind k in a payload of n bytes.
func Count(k Kind, n int) (int, error) {
	size := k.Size()
	if size == 0 {
		return 0, errors.Errorf("unknown element kind %v", k)
	}
	if rem := n % size; rem != 0 {
		return 0, &LengthError{Kind: k, Length: n, Remainder: rem}
	}
	return n / size, nil
}
