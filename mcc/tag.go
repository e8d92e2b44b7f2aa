package mcc

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// Tag is a four character identifier naming a group or chunk.
type Tag [4]byte

// Tags used by Maya cache files.
var (
	TagFOR4 = MustTag("FOR4")
	TagFOR8 = MustTag("FOR8")

	TagCACH = MustTag("CACH") // frame header group
	TagVRSN = MustTag("VRSN") // cache version
	TagSTIM = MustTag("STIM") // start time
	TagETIM = MustTag("ETIM") // end time

	TagMYCH = MustTag("MYCH") // channel data group
	TagCHNM = MustTag("CHNM") // channel name
	TagSIZE = MustTag("SIZE") // point count
	TagFBCA = MustTag("FBCA") // float array
	TagDBLA = MustTag("DBLA") // double array
	TagFVCA = MustTag("FVCA") // float vector array
	TagDVCA = MustTag("DVCA") // double vector array

	TagVERS = MustTag("VERS") // scene application version
)

// ParseTag converts s to a Tag, padding it with trailing spaces when it is
// shorter than four bytes.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) == 0 || len(s) > len(t) {
		return t, errors.Wrapf(ErrInvalidTag, "%q", s)
	}
	copy(t[:], "    ")
	copy(t[:], s)
	return t, nil
}

// MustTag is like ParseTag but panics on invalid input.
func MustTag(s string) Tag {
	t, err := ParseTag(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Tag) String() string {
	return string(t[:])
}

// IsAlnum reports whether every byte of the tag is an ASCII letter or digit.
func (t Tag) IsAlnum() bool {
	for _, c := range t {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// Display returns the tag text, or 0x-prefixed hex when the tag is not
// alphanumeric.
func (t Tag) Display() string {
	if t.IsAlnum() {
		return t.String()
	}
	return "0x" + hex.EncodeToString(t[:])
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	v, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
