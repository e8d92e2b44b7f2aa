package binary

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Writer writes big-endian cache data sequentially and tracks how many bytes
// have been written.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	width Width
	pos   int64
}

// NewWriter creates a binary writer with the given configuration.
func NewWriter(w io.Writer, cfg Config) *Writer {
	if cfg.ByteOrder == nil {
		cfg.ByteOrder = binary.BigEndian
	}
	if !cfg.SizeWidth.Valid() {
		cfg.SizeWidth = Width32
	}
	return &Writer{
		w:     w,
		order: cfg.ByteOrder,
		width: cfg.SizeWidth,
	}
}

// Pos returns the number of bytes written so far.
func (w *Writer) Pos() int64 {
	return w.pos
}

// Width returns the configured size field width.
func (w *Writer) Width() Width {
	return w.width
}

// WriteBytes writes the given bytes.
func (w *Writer) WriteBytes(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	n, err := w.w.Write(data)
	w.pos += int64(n)
	if err == nil && n != len(data) {
		err = io.ErrShortWrite
	}
	return err
}

// WriteTag writes a 4-byte tag. In 64-bit mode the tag is followed by four
// NUL bytes.
func (w *Writer) WriteTag(tag [TagSize]byte) error {
	if err := w.WriteBytes(tag[:]); err != nil {
		return err
	}
	if w.width == Width64 {
		return w.WriteZeros(TagSize)
	}
	return nil
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	buf := make([]byte, 4)
	w.order.PutUint32(buf, v)
	return w.WriteBytes(buf)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	buf := make([]byte, 8)
	w.order.PutUint64(buf, v)
	return w.WriteBytes(buf)
}

// WriteSize writes a size field using the configured width.
func (w *Writer) WriteSize(v uint64) error {
	if w.width == Width64 {
		return w.WriteUint64(v)
	}
	if v > 0xFFFFFFFF {
		return errors.Errorf("size %d does not fit a 32-bit size field", v)
	}
	return w.WriteUint32(uint32(v))
}

// WritePadding writes the NUL bytes that follow a payload of the given size.
func (w *Writer) WritePadding(size uint64, alignment int) error {
	return w.WriteZeros(Padding(size, alignment))
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// ByteOrder returns the configured byte order.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}
