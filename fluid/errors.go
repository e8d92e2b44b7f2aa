// Package fluid models Maya fluid caches: an XML description plus one .mc
// file per frame. It can sample the density and velocity grids of each
// shape and synthesize blended frames to retime a simulation.
package fluid

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors
var (
	ErrOutOfBounds    = errors.New("point outside shape bounds")
	ErrShortChannel   = errors.New("channel holds less data than its grid")
	ErrNoFrames       = errors.New("no frames in cache")
	ErrMissingHeader  = errors.New("frame header not found")
	ErrUnknownShape   = errors.New("shape not described by cache")
	ErrUnknownChannel = errors.New("channel not described by cache")
	ErrNoSource       = errors.New("frame has no file")
)

// ValidationError reports an XML description outside the supported cache
// profile. It is returned before any frame file is read.
type ValidationError struct {
	Element string
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Element == "" {
		return "fluid: invalid cache description: " + e.Msg
	}
	return fmt.Sprintf("fluid: invalid cache description: %s: %s", e.Element, e.Msg)
}

func invalid(element, format string, args ...any) error {
	return &ValidationError{Element: element, Msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
