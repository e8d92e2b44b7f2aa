package fluid

import (
	"io"
	"sort"

	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/mcc"
)

const frameVersion = "0.1"

// Frame is one time step of a cache. Frames read from disk parse lazily:
// ParseHeaders reads only the start and end times, and Shapes or Channels
// read the rest of the file.
type Frame struct {
	cache *Cache
	path  string

	parser *mcc.Parser

	start, end         int
	haveStart, haveEnd bool

	shapes   map[string]*Shape
	channels map[string]*Channel
}

// Cache returns the cache the frame belongs to.
func (f *Frame) Cache() *Cache { return f.cache }

// Path returns the frame file, or "" for frames built in memory.
func (f *Frame) Path() string { return f.path }

// StartTime returns the start tick. It is valid after ParseHeaders or
// SetTimes.
func (f *Frame) StartTime() int { return f.start }

// EndTime returns the end tick. It is valid after ParseHeaders or SetTimes.
func (f *Frame) EndTime() int { return f.end }

// SetTimes sets the start and end ticks.
func (f *Frame) SetTimes(start, end int) {
	f.start, f.end = start, end
	f.haveStart, f.haveEnd = true, true
}

// HasHeaders reports whether both times are known.
func (f *Frame) HasHeaders() bool {
	return f.haveStart && f.haveEnd
}

func (f *Frame) open() error {
	if f.parser != nil {
		return nil
	}
	if f.path == "" {
		return ErrNoSource
	}
	p, err := mcc.Open(f.path, mcc.WithRegistry(f.cache.registry))
	if err != nil {
		return errors.Wrap(err, "opening frame")
	}
	f.parser = p
	return nil
}

// ParseHeaders reads the frame file just far enough to find its STIM and
// ETIM chunks. Calling it again once both are known does nothing.
func (f *Frame) ParseHeaders() error {
	if f.HasHeaders() {
		return nil
	}
	if err := f.open(); err != nil {
		return err
	}
	for !f.HasHeaders() {
		n, err := f.parser.ParseNext()
		if err == io.EOF {
			return errors.Wrapf(ErrMissingHeader, "%s", f.path)
		}
		if err != nil {
			return errors.Wrapf(err, "parsing headers of %s", f.path)
		}
		c, ok := n.(*mcc.Chunk)
		if !ok || (c.Tag != mcc.TagSTIM && c.Tag != mcc.TagETIM) {
			continue
		}
		v, err := c.Uints()
		if err != nil {
			return err
		}
		if len(v) == 0 {
			return errors.Wrapf(ErrMissingHeader, "empty %s in %s", c.Tag, f.path)
		}
		// Ticks are signed; the chunk stores their two's complement.
		if c.Tag == mcc.TagSTIM {
			f.start, f.haveStart = int(int32(v[0])), true
		} else {
			f.end, f.haveEnd = int(int32(v[0])), true
		}
	}
	return nil
}

func (f *Frame) initShapes() {
	f.shapes = make(map[string]*Shape, len(f.cache.ShapeSpecs))
	f.channels = make(map[string]*Channel)
	for name, spec := range f.cache.ShapeSpecs {
		f.shapes[name] = newShape(f, spec)
	}
}

// load parses the whole frame file and builds its shapes and channels.
func (f *Frame) load() error {
	if f.shapes != nil || f.path == "" {
		return nil
	}
	if err := f.ParseHeaders(); err != nil {
		return err
	}
	if err := f.open(); err != nil {
		return err
	}
	defer f.Close()

	if err := f.parser.ParseAll(); err != nil {
		return errors.Wrapf(err, "parsing %s", f.path)
	}
	mych, err := f.parser.FindGroup(mcc.TagMYCH)
	if err != nil {
		return errors.Wrapf(err, "frame %s", f.path)
	}

	f.initShapes()
	var names, data []*mcc.Chunk
	for c := range mych.FindChunks(mcc.TagCHNM) {
		names = append(names, c)
	}
	for c := range mych.FindChunks(mcc.TagFBCA) {
		data = append(data, c)
	}
	for i := range min(len(names), len(data)) {
		values, err := data[i].Floats()
		if err != nil {
			f.shapes, f.channels = nil, nil
			return err
		}
		if _, err := f.AddChannel(names[i].Text(), values); err != nil {
			f.shapes, f.channels = nil, nil
			return err
		}
	}
	for _, s := range f.shapes {
		s.finalize()
	}
	return nil
}

// AddChannel attaches data to the frame under a channel name described by
// the cache, and to the channel's shape.
func (f *Frame) AddChannel(name string, data []float32) (*Channel, error) {
	spec, ok := f.cache.ChannelSpecs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownChannel, "%s", name)
	}
	shape, ok := f.shapes[spec.Shape]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownShape, "%s of channel %s", spec.Shape, name)
	}
	ch := shape.setChannel(name, spec.Interpretation, data)
	return ch, nil
}

// Shapes returns the frame's shapes by name, loading the frame on first use.
func (f *Frame) Shapes() (map[string]*Shape, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	return f.shapes, nil
}

// Shape returns one shape by name.
func (f *Frame) Shape(name string) (*Shape, error) {
	shapes, err := f.Shapes()
	if err != nil {
		return nil, err
	}
	s, ok := shapes[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownShape, "%s", name)
	}
	return s, nil
}

// Channels returns the frame's channels by name, loading the frame on first
// use.
func (f *Frame) Channels() (map[string]*Channel, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	return f.channels, nil
}

// Close releases the frame file. Decoded data stays available.
func (f *Frame) Close() error {
	if f.parser == nil {
		return nil
	}
	err := f.parser.Close()
	f.parser = nil
	return err
}

// Free releases the frame file and drops the decoded data. File-backed
// frames load again on the next access.
func (f *Frame) Free() {
	f.Close()
	for _, ch := range f.channels {
		ch.Data = nil
	}
	f.shapes, f.channels = nil, nil
}

// Tree builds the file layout of the frame: a CACH header group and a MYCH
// group with one CHNM, SIZE and FBCA triplet per channel, in name order.
func (f *Frame) Tree() (*mcc.Group, error) {
	channels, err := f.Channels()
	if err != nil {
		return nil, err
	}

	root := mcc.NewRoot()
	header := root.AddGroup(mcc.TagCACH)
	header.AddChunk(mcc.TagVRSN, nil).SetText(frameVersion)
	header.AddChunk(mcc.TagSTIM, nil).SetUints(uint32(int32(f.start)))
	header.AddChunk(mcc.TagETIM, nil).SetUints(uint32(int32(f.end)))

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	mych := root.AddGroup(mcc.TagMYCH)
	for _, name := range names {
		ch := channels[name]
		mych.AddChunk(mcc.TagCHNM, nil).SetText(ch.Name)
		mych.AddChunk(mcc.TagSIZE, nil).SetUints(uint32(len(ch.Data)))
		mych.AddChunk(mcc.TagFBCA, nil).SetFloats(ch.Data...)
	}
	return root, nil
}

// WriteFile writes the frame to path.
func (f *Frame) WriteFile(path string) error {
	root, err := f.Tree()
	if err != nil {
		return err
	}
	return mcc.WriteFile(path, root)
}
