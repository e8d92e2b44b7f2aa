package mcc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors
var (
	ErrBadMagic    = errors.New("invalid magic tag")
	ErrOrphanChunk = errors.New("data chunk outside of group")
	ErrTruncated   = errors.New("unexpected end of stream")
	ErrOverrun     = errors.New("node overruns its enclosing group")
	ErrNotFound    = errors.New("tag not found")
	ErrInvalidTag  = errors.New("invalid tag")
	ErrUnsupported = errors.New("unsupported file")
	ErrClosed      = errors.New("parser is closed")
)

// StructureError reports a stream that does not follow the chunked layout at
// the given offset. It is always fatal to the parse in progress.
type StructureError struct {
	Offset int64
	Tag    Tag
	Err    error
}

func (e *StructureError) Error() string {
	if e.Tag == (Tag{}) {
		return fmt.Sprintf("mcc: %v at 0x%x", e.Err, e.Offset)
	}
	return fmt.Sprintf("mcc: %v at 0x%x (tag %s)", e.Err, e.Offset, e.Tag.Display())
}

func (e *StructureError) Unwrap() error {
	return e.Err
}

// DecodeError reports a chunk whose bytes cannot be read as its nominal type.
// The chunk's raw Data is still valid.
type DecodeError struct {
	Tag  Tag
	Type DataType
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mcc: cannot decode %s chunk as %s: %v", e.Tag.Display(), e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ScanError reports that a file deviates from the layout the channel scanner
// expects. Callers use it to fall back to a slower, more tolerant reader.
type ScanError struct {
	Path   string
	Offset int64
	Msg    string
	Err    error
}

func (e *ScanError) Error() string {
	msg := fmt.Sprintf("mcc: scanning %s: %s @ 0x%x", e.Path, e.Msg, e.Offset)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsScanError reports whether err is, or wraps, a *ScanError.
func IsScanError(err error) bool {
	var se *ScanError
	return errors.As(err, &se)
}
