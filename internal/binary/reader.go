// Package binary provides low-level binary I/O for the chunked cache format.
package binary

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Width is the byte width of a size field.
type Width int

const (
	Width32 Width = 4
	Width64 Width = 8
)

// ErrInvalidWidth is returned when a size field width other than 4 or 8 is requested.
var ErrInvalidWidth = errors.New("invalid size width: must be 4 or 8")

// TagSize is the number of meaningful bytes in a tag.
const TagSize = 4

// Valid reports whether w is a supported size width.
func (w Width) Valid() bool {
	return w == Width32 || w == Width64
}

// Reader reads big-endian cache data through an io.ReaderAt while tracking
// its own position. Size fields are read with the configured width.
type Reader struct {
	r     io.ReaderAt
	order binary.ByteOrder
	width Width
	pos   int64
	limit int64
}

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder binary.ByteOrder
	SizeWidth Width
	// Limit is the total stream length, or 0 when unknown.
	Limit int64
}

// DefaultConfig returns the configuration of a FOR4 stream: big-endian with
// 32-bit size fields.
func DefaultConfig() Config {
	return Config{
		ByteOrder: binary.BigEndian,
		SizeWidth: Width32,
	}
}

// NewReader creates a binary reader with the given configuration.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	if cfg.ByteOrder == nil {
		cfg.ByteOrder = binary.BigEndian
	}
	if !cfg.SizeWidth.Valid() {
		cfg.SizeWidth = Width32
	}
	return &Reader{
		r:     r,
		order: cfg.ByteOrder,
		width: cfg.SizeWidth,
		limit: cfg.Limit,
	}
}

// At returns a new reader positioned at the given offset.
// The new reader shares the underlying io.ReaderAt but has independent position.
func (r *Reader) At(offset int64) *Reader {
	c := *r
	c.pos = offset
	return &c
}

// SetWidth changes the size field width used by ReadSize.
func (r *Reader) SetWidth(w Width) error {
	if !w.Valid() {
		return ErrInvalidWidth
	}
	r.width = w
	return nil
}

// Width returns the configured size field width.
func (r *Reader) Width() Width {
	return r.width
}

// Pos returns the current read position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Remaining returns the number of bytes left before the configured limit.
// The second result is false when the limit is unknown.
func (r *Reader) Remaining() (int64, bool) {
	if r.limit <= 0 {
		return 0, false
	}
	return r.limit - r.pos, true
}

// eagerRead is the largest buffer ReadBytes allocates up front when the
// stream length is unknown. Longer reads grow as data arrives.
const eagerRead = 1 << 20

// ReadBytes reads exactly n bytes from the current position.
//
// io.EOF is returned only when no byte at all was available; a short read
// yields io.ErrUnexpectedEOF and leaves the position unchanged. A read past
// the configured limit fails without touching the underlying reader.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if rem, ok := r.Remaining(); ok && int64(n) > rem {
		if rem <= 0 {
			return nil, io.EOF
		}
		return nil, io.ErrUnexpectedEOF
	}
	if r.limit <= 0 && n > eagerRead {
		return r.readGrowing(n)
	}

	buf := make([]byte, n)
	got, err := r.r.ReadAt(buf, r.pos)
	if got == n {
		r.pos += int64(n)
		return buf, nil
	}
	return nil, shortRead(got, err)
}

func (r *Reader) readGrowing(n int) ([]byte, error) {
	buf, err := io.ReadAll(io.NewSectionReader(r.r, r.pos, int64(n)))
	if len(buf) == n {
		r.pos += int64(n)
		return buf, nil
	}
	return nil, shortRead(len(buf), err)
}

func shortRead(got int, err error) error {
	if got == 0 && (err == nil || err == io.EOF) {
		return io.EOF
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadTag reads a 4-byte tag.
func (r *Reader) ReadTag() ([TagSize]byte, error) {
	var tag [TagSize]byte
	buf, err := r.ReadBytes(TagSize)
	if err != nil {
		return tag, err
	}
	copy(tag[:], buf)
	return tag, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(buf), nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(buf), nil
}

// ReadSize reads a size field using the configured width.
func (r *Reader) ReadSize() (uint64, error) {
	if r.width == Width64 {
		return r.ReadUint64()
	}
	v, err := r.ReadUint32()
	return uint64(v), err
}

// Skip advances the position by n bytes without reading them.
func (r *Reader) Skip(n int64) {
	r.pos += n
}

// SkipPadding advances past the pad bytes that follow a payload of the given size.
func (r *Reader) SkipPadding(size uint64, alignment int) {
	r.pos += int64(Padding(size, alignment))
}

// Padding returns the number of pad bytes needed to bring size up to a
// multiple of alignment.
func Padding(size uint64, alignment int) int {
	if alignment <= 1 {
		return 0
	}
	if rem := size % uint64(alignment); rem != 0 {
		return alignment - int(rem)
	}
	return 0
}

// ByteOrder returns the configured byte order.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}
