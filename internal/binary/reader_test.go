package binary

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"testing"
)

func TestReaderReadUint32(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0x12345678))
	binary.Write(&buf, binary.BigEndian, uint32(0xDEADBEEF))

	r := NewReader(bytes.NewReader(buf.Bytes()), DefaultConfig())

	v, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("expected 0x12345678, got 0x%08x", v)
	}

	v, err = r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32 failed: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("expected 0xDEADBEEF, got 0x%08x", v)
	}
	if r.Pos() != 8 {
		t.Errorf("expected pos 8, got %d", r.Pos())
	}
}

func TestReaderReadSize(t *testing.T) {
	tests := []struct {
		name     string
		width    Width
		data     []byte
		expected uint64
	}{
		{"32-bit", Width32, []byte{0x00, 0x00, 0x01, 0x02}, 0x0102},
		{"64-bit", Width64, []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}, 0x100000002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SizeWidth = tt.width
			r := NewReader(bytes.NewReader(tt.data), cfg)

			v, err := r.ReadSize()
			if err != nil {
				t.Fatalf("ReadSize failed: %v", err)
			}
			if v != tt.expected {
				t.Errorf("expected 0x%x, got 0x%x", tt.expected, v)
			}
			if r.Pos() != int64(tt.width) {
				t.Errorf("expected pos %d, got %d", tt.width, r.Pos())
			}
		})
	}
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("FOR")), DefaultConfig())

	// A short read is not a clean end of stream.
	if _, err := r.ReadTag(); err != io.ErrUnexpectedEOF {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	if r.Pos() != 0 {
		t.Errorf("short read must not move the cursor, got %d", r.Pos())
	}

	r.Skip(3)
	if _, err := r.ReadTag(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReaderAt(t *testing.T) {
	data := []byte("ABCDEFGH")
	r := NewReader(bytes.NewReader(data), DefaultConfig())

	r2 := r.At(4)
	tag, err := r2.ReadTag()
	if err != nil {
		t.Fatalf("ReadTag failed: %v", err)
	}
	if string(tag[:]) != "EFGH" {
		t.Errorf("expected EFGH, got %q", tag[:])
	}

	// Original reader should be unaffected
	tag, err = r.ReadTag()
	if err != nil {
		t.Fatalf("ReadTag failed: %v", err)
	}
	if string(tag[:]) != "ABCD" {
		t.Errorf("expected ABCD, got %q", tag[:])
	}
}

func TestPadding(t *testing.T) {
	tests := []struct {
		size      uint64
		alignment int
		expected  int
	}{
		{0, 4, 0},
		{1, 4, 3},
		{3, 4, 1},
		{4, 4, 0},
		{5, 2, 1},
		{6, 2, 0},
		{9, 8, 7},
		{16, 8, 0},
		{3, 1, 0},
	}

	for _, tt := range tests {
		if got := Padding(tt.size, tt.alignment); got != tt.expected {
			t.Errorf("Padding(%d, %d): expected %d, got %d",
				tt.size, tt.alignment, tt.expected, got)
		}
	}
}

func TestReaderSkipPadding(t *testing.T) {
	r := NewReader(bytes.NewReader(make([]byte, 16)), DefaultConfig())
	r.Skip(3)
	r.SkipPadding(3, 4)
	if r.Pos() != 4 {
		t.Errorf("expected pos 4, got %d", r.Pos())
	}
}

func TestReaderRemaining(t *testing.T) {
	r := NewReader(bytes.NewReader(make([]byte, 10)), DefaultConfig())
	if _, ok := r.Remaining(); ok {
		t.Fatal("expected unknown limit")
	}

	cfg := DefaultConfig()
	cfg.Limit = 10
	r = NewReader(bytes.NewReader(make([]byte, 10)), cfg)
	r.Skip(4)
	n, ok := r.Remaining()
	if !ok || n != 6 {
		t.Errorf("expected 6 remaining, got %d (%v)", n, ok)
	}
}

func TestReaderOversizedRead(t *testing.T) {
	data := []byte("FOR4\x00\x00\x00\x08")
	cfg := DefaultConfig()
	cfg.Limit = int64(len(data))

	for name, r := range map[string]*Reader{
		"limit":    NewReader(bytes.NewReader(data), cfg),
		"no limit": NewReader(bytes.NewReader(data), DefaultConfig()),
	} {
		t.Run(name, func(t *testing.T) {
			r.Skip(4)
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			if _, err := r.ReadBytes(1 << 30); err != io.ErrUnexpectedEOF {
				t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
			}
			runtime.ReadMemStats(&after)
			if grown := after.TotalAlloc - before.TotalAlloc; grown > 64<<20 {
				t.Errorf("allocated %d bytes for a 4 byte tail", grown)
			}
			if r.Pos() != 4 {
				t.Errorf("failed read moved the cursor to %d", r.Pos())
			}

			r.Skip(4)
			if _, err := r.ReadBytes(1 << 30); err != io.EOF {
				t.Fatalf("expected io.EOF at the end, got %v", err)
			}
		})
	}
}

func TestReaderLargeRead(t *testing.T) {
	data := bytes.Repeat([]byte{7}, eagerRead+10)
	r := NewReader(bytes.NewReader(data), DefaultConfig())
	buf, err := r.ReadBytes(len(data))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, data) || r.Pos() != int64(len(data)) {
		t.Errorf("read %d bytes, cursor at %d", len(buf), r.Pos())
	}
}

func TestReaderSetWidth(t *testing.T) {
	r := NewReader(bytes.NewReader(nil), DefaultConfig())
	if err := r.SetWidth(Width(3)); err != ErrInvalidWidth {
		t.Errorf("expected ErrInvalidWidth, got %v", err)
	}
	if err := r.SetWidth(Width64); err != nil {
		t.Fatalf("SetWidth failed: %v", err)
	}
	if r.Width() != Width64 {
		t.Errorf("expected width 8, got %d", r.Width())
	}
}
