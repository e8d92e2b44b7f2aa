package mcc

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
)

// Open opens the named file for incremental parsing. The returned parser owns
// the file handle and must be closed.
func Open(path string, opts ...Option) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	// Caller options come last so an explicit limit wins.
	opts = append([]Option{WithLimit(info.Size())}, opts...)
	p := NewParser(f, opts...)
	p.closer = f
	return p, nil
}

// ParseFile parses a whole file and returns its root group.
func ParseFile(path string, opts ...Option) (*Group, error) {
	p, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if err := p.ParseAll(); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return p.Root(), nil
}

// Parse parses an in-memory stream and returns its root group.
func Parse(data []byte, opts ...Option) (*Group, error) {
	opts = append([]Option{WithLimit(int64(len(data)))}, opts...)
	p := NewParser(bytes.NewReader(data), opts...)
	if err := p.ParseAll(); err != nil {
		return nil, err
	}
	return p.Root(), nil
}
