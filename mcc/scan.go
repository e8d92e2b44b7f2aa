package mcc

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/internal/binary"
)

// ChannelInfo is one channel found by the scanner.
type ChannelInfo struct {
	Name   string
	Points uint32
}

// ScanChannels lists the channels of a single-frame cache file without
// building a tree. It expects exactly a header group followed by a MYCH group
// of CHNM, SIZE and data chunk triplets, and skips every payload it does not
// need.
//
// A file that deviates from that layout fails with a *ScanError. Failing to
// open the file returns the plain I/O error.
func ScanChannels(path string) ([]ChannelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return scanChannels(f, path, info.Size())
}

type channelScan struct {
	r    *binary.Reader
	path string
}

func (s *channelScan) fail(msg string, err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &ScanError{Path: s.path, Offset: s.r.Pos(), Msg: msg, Err: err}
}

func (s *channelScan) expect(want ...Tag) (Tag, error) {
	raw, err := s.r.ReadTag()
	if err != nil {
		return Tag{}, s.fail("reading "+want[0].String()+" tag", err)
	}
	tag := Tag(raw)
	if !slices.Contains(want, tag) {
		names := make([]string, len(want))
		for i, t := range want {
			names[i] = t.String()
		}
		return tag, s.fail("bad "+strings.Join(names, "/")+" tag "+tag.Display(), nil)
	}
	return tag, nil
}

func (s *channelScan) fits(n uint32, what string) error {
	if rem, ok := s.r.Remaining(); ok && int64(n) > rem {
		return s.fail(what+" runs past end of file", errors.Wrapf(io.ErrUnexpectedEOF, "%d bytes, %d left", n, rem))
	}
	return nil
}

func (s *channelScan) size(tag Tag) (uint32, error) {
	v, err := s.r.ReadUint32()
	if err != nil {
		return 0, s.fail("reading "+tag.String()+" size", err)
	}
	return v, nil
}

// scanChannels walks a frame of size bytes. Sizes read from the file are
// checked against the bytes left before anything is allocated or skipped.
func scanChannels(r io.ReaderAt, path string, size int64) ([]ChannelInfo, error) {
	cfg := binary.DefaultConfig()
	cfg.Limit = size
	s := &channelScan{r: binary.NewReader(r, cfg), path: path}

	// Header block.
	if _, err := s.expect(TagFOR4); err != nil {
		return nil, err
	}
	n, err := s.size(TagFOR4)
	if err != nil {
		return nil, err
	}
	if err := s.fits(n, "header block"); err != nil {
		return nil, err
	}
	s.r.Skip(int64(n))

	// Channel data block.
	if _, err := s.expect(TagFOR4); err != nil {
		return nil, err
	}
	if _, err := s.size(TagFOR4); err != nil {
		return nil, err
	}
	if _, err := s.expect(TagMYCH); err != nil {
		return nil, err
	}

	var channels []ChannelInfo
	for {
		raw, err := s.r.ReadTag()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.fail("reading CHNM tag", err)
		}
		if tag := Tag(raw); tag != TagCHNM {
			return nil, s.fail("bad CHNM tag "+tag.Display(), nil)
		}
		nameLen, err := s.size(TagCHNM)
		if err != nil {
			return nil, err
		}
		if err := s.fits(nameLen, "channel name"); err != nil {
			return nil, err
		}
		name, err := s.r.ReadBytes(int(nameLen))
		if err != nil {
			return nil, s.fail("reading channel name", err)
		}
		s.r.SkipPadding(uint64(nameLen), 4)

		if _, err := s.expect(TagSIZE); err != nil {
			return nil, err
		}
		sizeLen, err := s.size(TagSIZE)
		if err != nil {
			return nil, err
		}
		if sizeLen != 4 {
			return nil, s.fail("bad point count size", errors.Errorf("%d bytes", sizeLen))
		}
		points, err := s.r.ReadUint32()
		if err != nil {
			return nil, s.fail("reading point count", err)
		}
		channels = append(channels, ChannelInfo{Name: trimNUL(name), Points: points})

		tag, err := s.expect(TagFVCA, TagDVCA, TagFBCA, TagDBLA)
		if err != nil {
			return nil, err
		}
		dataLen, err := s.size(tag)
		if err != nil {
			return nil, err
		}
		if err := s.fits(dataLen, "channel data"); err != nil {
			return nil, err
		}
		s.r.Skip(int64(dataLen))
		s.r.SkipPadding(uint64(dataLen), 4)
	}
	return channels, nil
}

type scanEntry struct {
	size     int64
	modTime  time.Time
	channels []ChannelInfo
}

// ChannelScanner memoizes ScanChannels results. An entry is reused only while
// the file's size and modification time are unchanged. It is safe for
// concurrent use.
type ChannelScanner struct {
	cache *lru.Cache[string, scanEntry]
}

// NewChannelScanner returns a scanner remembering up to size files.
func NewChannelScanner(size int) (*ChannelScanner, error) {
	c, err := lru.New[string, scanEntry](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating scan cache")
	}
	return &ChannelScanner{cache: c}, nil
}

// Scan returns the channels of path, reusing an earlier result when the file
// is unchanged. The returned slice belongs to the caller.
func (s *ChannelScanner) Scan(path string) ([]ChannelInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if e, ok := s.cache.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return slices.Clone(e.channels), nil
	}

	channels, err := ScanChannels(path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(path, scanEntry{size: info.Size(), modTime: info.ModTime(), channels: channels})
	return slices.Clone(channels), nil
}

// ScanCache scans the first frame file of the cache described by xmlPath.
func (s *ChannelScanner) ScanCache(xmlPath string) ([]ChannelInfo, error) {
	path, err := FirstFrameFile(xmlPath)
	if err != nil {
		return nil, err
	}
	return s.Scan(path)
}

// Len returns the number of memoized files.
func (s *ChannelScanner) Len() int {
	return s.cache.Len()
}

// FirstFrameFile returns the first <base>Frame*.mc file beside xmlPath in
// name order. Finding none is a *ScanError.
func FirstFrameFile(xmlPath string) (string, error) {
	dir := filepath.Dir(xmlPath)
	base := strings.TrimSuffix(filepath.Base(xmlPath), filepath.Ext(xmlPath))
	matches, err := filepath.Glob(filepath.Join(dir, escapeGlob(base)+"Frame*.mc"))
	if err != nil {
		return "", errors.Wrapf(err, "listing frames of %s", xmlPath)
	}
	if len(matches) == 0 {
		return "", &ScanError{Path: xmlPath, Msg: "no frame files found"}
	}
	return matches[0], nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
