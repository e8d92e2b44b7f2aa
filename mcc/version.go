package mcc

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var requiresMaya = regexp.MustCompile(`requires maya "(.+?)"`)

// asciiHeaderLen is how much of a .ma file is searched for the requirement.
const asciiHeaderLen = 1000

// DetectVersion returns the Maya version that saved a scene file. Binary
// scenes (.mb) are parsed only up to their VERS chunk. ASCII scenes (.ma)
// are searched for their `requires maya` statement.
func DetectVersion(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".ma":
		return detectASCIIVersion(path)
	case ".mb":
		return detectBinaryVersion(path)
	default:
		return "", errors.Wrapf(ErrUnsupported, "cannot detect version of %q file", ext)
	}
}

func detectASCIIVersion(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, asciiHeaderLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	m := requiresMaya.FindSubmatch(buf[:n])
	if m == nil {
		return "", errors.Wrapf(ErrNotFound, "no maya requirement in %s", path)
	}
	return string(m[1]), nil
}

func detectBinaryVersion(path string) (string, error) {
	p, err := Open(path)
	if err != nil {
		return "", err
	}
	defer p.Close()

	for {
		n, err := p.ParseNext()
		if err == io.EOF {
			return "", errors.Wrapf(ErrNotFound, "no VERS chunk in %s", path)
		}
		if err != nil {
			return "", errors.Wrapf(err, "parsing %s", path)
		}
		if c, ok := n.(*Chunk); ok && c.Tag == TagVERS {
			return c.Text(), nil
		}
	}
}
