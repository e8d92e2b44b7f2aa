package fluid

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/mcc"
	"golang.org/x/sync/errgroup"
)

// Supported cache profile.
const (
	TimePerFrame   = 250
	CacheType      = "OneFilePerFrame"
	CacheFormat    = "mcc"
	DefaultWorkers = 8
)

var extraRe = regexp.MustCompile(`^([^.]+)\.(\w+)=(.+?)$`)

// Cache is a fluid cache: the XML description and the frames stored beside
// it. A Cache is not safe for concurrent use, except for LoadHeaders which
// works on frames in parallel.
type Cache struct {
	// TimePerFrame is the number of ticks in one frame.
	TimePerFrame int
	Type         string
	Format       string

	// Extra holds the recognised key=value pairs of the XML extra elements,
	// by shape name.
	Extra        map[string]map[string]float64
	ShapeSpecs   map[string]ShapeSpec
	ChannelSpecs map[string]ChannelSpec

	path string
	dir  string
	base string
	doc  *etree.Document

	registry *mcc.Registry
	logger   *slog.Logger

	mu         sync.Mutex
	frames     []*Frame
	discovered bool
}

// Open reads and validates the XML description at xmlPath.
func Open(xmlPath string, opts ...Option) (*Cache, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(xmlPath); err != nil {
		return nil, errors.Wrapf(err, "reading %s", xmlPath)
	}
	c, err := Parse(doc, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", xmlPath)
	}
	if err := c.SetPath(xmlPath); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse validates an XML description. The returned cache has no path until
// SetPath is called.
func Parse(doc *etree.Document, opts ...Option) (*Cache, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	c := &Cache{doc: doc, registry: o.registry, logger: o.logger}
	if err := c.parseXML(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) parseXML() error {
	root := c.doc.Root()
	if root == nil {
		return invalid("", "empty document")
	}

	tpf := root.SelectElement("cacheTimePerFrame")
	if tpf == nil {
		return invalid("cacheTimePerFrame", "missing")
	}
	v, err := strconv.Atoi(tpf.SelectAttrValue("TimePerFrame", ""))
	if err != nil {
		return invalid("cacheTimePerFrame", "bad TimePerFrame %q", tpf.SelectAttrValue("TimePerFrame", ""))
	}
	if v != TimePerFrame {
		return invalid("cacheTimePerFrame", "non-standard TimePerFrame %d", v)
	}
	c.TimePerFrame = v

	ct := root.SelectElement("cacheType")
	if ct == nil {
		return invalid("cacheType", "missing")
	}
	c.Type = ct.SelectAttrValue("Type", "")
	if c.Type != CacheType {
		return invalid("cacheType", "type %q is not %s", c.Type, CacheType)
	}
	c.Format = ct.SelectAttrValue("Format", "")
	if c.Format != CacheFormat {
		return invalid("cacheType", "format %q is not %s", c.Format, CacheFormat)
	}

	c.Extra = make(map[string]map[string]float64)
	for _, el := range root.SelectElements("extra") {
		m := extraRe.FindStringSubmatch(strings.TrimSpace(el.Text()))
		if m == nil || !isShapeKey(m[2]) {
			continue
		}
		name, key, raw := m[1], m[2], m[3]
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return invalid("extra", "%s.%s is not a number: %q", name, key, raw)
		}
		if c.Extra[name] == nil {
			c.Extra[name] = make(map[string]float64)
		}
		c.Extra[name][key] = value
	}

	c.ShapeSpecs = make(map[string]ShapeSpec, len(c.Extra))
	for name, extra := range c.Extra {
		spec, err := newShapeSpec(name, extra)
		if err != nil {
			return err
		}
		c.ShapeSpecs[name] = spec
	}

	c.ChannelSpecs = make(map[string]ChannelSpec)
	if channels := root.SelectElement("Channels"); channels != nil {
		for _, el := range channels.ChildElements() {
			spec, err := ParseChannelSpec(
				el.SelectAttrValue("ChannelName", ""),
				el.SelectAttrValue("ChannelInterpretation", ""),
			)
			if err != nil {
				return err
			}
			c.ChannelSpecs[spec.Name] = spec
		}
	}
	return nil
}

// SetPath sets the location of the XML description. Frames are looked up
// and written beside it.
func (c *Cache) SetPath(xmlPath string) error {
	abs, err := filepath.Abs(xmlPath)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", xmlPath)
	}
	c.path = abs
	c.dir = filepath.Dir(abs)
	c.base = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return nil
}

// Path returns the absolute path of the XML description.
func (c *Cache) Path() string { return c.path }

// Dir returns the directory holding the cache.
func (c *Cache) Dir() string { return c.dir }

// BaseName returns the XML file name without extension. Frame files start
// with it.
func (c *Cache) BaseName() string { return c.base }

// Document returns the XML document backing the cache.
func (c *Cache) Document() *etree.Document { return c.doc }

// Logger returns the cache's logger.
func (c *Cache) Logger() *slog.Logger { return c.logger }

// ShapeNames returns the shape names in sorted order.
func (c *Cache) ShapeNames() []string {
	names := make([]string, 0, len(c.ShapeSpecs))
	for name := range c.ShapeSpecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Frames discovers the frame files on first use. They are in file name
// order until SortFrames orders them by start time.
func (c *Cache) Frames() ([]*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discovered || c.dir == "" {
		return c.frames, nil
	}

	files, err := DiscoverFrames(c.dir, c.base)
	if err != nil {
		return nil, err
	}
	for _, ff := range files {
		c.frames = append(c.frames, c.openFrame(ff.Path))
	}
	c.discovered = true
	c.logger.Debug("discovered frames", "cache", c.base, "count", len(c.frames))
	return c.frames, nil
}

// LoadHeaders reads the start and end times of every frame, using up to
// workers goroutines. Each frame's file is closed once its headers are read.
func (c *Cache) LoadHeaders(ctx context.Context, workers int) error {
	frames, err := c.Frames()
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer f.Close()
			return f.ParseHeaders()
		})
	}
	return g.Wait()
}

// SortFrames loads every header and orders the frames by start time.
func (c *Cache) SortFrames(ctx context.Context) ([]*Frame, error) {
	if err := c.LoadHeaders(ctx, DefaultWorkers); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	slices.SortStableFunc(c.frames, func(a, b *Frame) int {
		return a.start - b.start
	})
	return c.frames, nil
}

// Close releases every open frame file and keeps decoded data.
func (c *Cache) Close() error {
	var first error
	for _, f := range c.frames {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Free releases every frame's file and decoded data.
func (c *Cache) Free() {
	for _, f := range c.frames {
		f.Free()
	}
}

// Clone returns a cache with a deep copy of the XML description and no
// path or frames.
func (c *Cache) Clone() *Cache {
	clone := &Cache{
		doc:      c.doc.Copy(),
		registry: c.registry,
		logger:   c.logger,
	}
	// The copy passed validation already.
	if err := clone.parseXML(); err != nil {
		panic(err)
	}
	return clone
}

// FramePath returns the file name of a frame starting at tick.
func (c *Cache) FramePath(tick int) string {
	return framePath(c.dir, c.base, tick, c.TimePerFrame)
}

// UpdateXML records a new time range and marks every channel as irregularly
// sampled over it.
func (c *Cache) UpdateXML(minTime, maxTime int) {
	root := c.doc.Root()
	t := root.SelectElement("time")
	if t == nil {
		t = root.CreateElement("time")
	}
	t.CreateAttr("Range", strconv.Itoa(minTime)+"-"+strconv.Itoa(maxTime))

	if channels := root.SelectElement("Channels"); channels != nil {
		for _, el := range channels.ChildElements() {
			el.CreateAttr("SamplingType", "Irregular")
			el.CreateAttr("StartTime", strconv.Itoa(minTime))
			el.CreateAttr("EndTime", strconv.Itoa(maxTime))
		}
	}
}

// WriteXML writes the XML description to path.
func (c *Cache) WriteXML(path string) error {
	if err := c.doc.WriteToFile(path); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ensureChannel registers a channel the XML does not list yet, so that
// frames written with it load again.
func (c *Cache) ensureChannel(shape, interpretation string) {
	name := shape + "_" + interpretation
	if _, ok := c.ChannelSpecs[name]; ok {
		return
	}
	c.ChannelSpecs[name] = ChannelSpec{Name: name, Shape: shape, Interpretation: interpretation}

	root := c.doc.Root()
	channels := root.SelectElement("Channels")
	if channels == nil {
		channels = root.CreateElement("Channels")
	}
	n := len(channels.ChildElements())
	el := channels.CreateElement("channel" + strconv.Itoa(n))
	el.CreateAttr("ChannelName", name)
	el.CreateAttr("ChannelType", "FloatArray")
	el.CreateAttr("ChannelInterpretation", interpretation)
}

func (c *Cache) openFrame(path string) *Frame {
	return &Frame{cache: c, path: path}
}

// NewFrame returns an empty in-memory frame covering [start, end] ticks.
func (c *Cache) NewFrame(start, end int) *Frame {
	f := &Frame{cache: c}
	f.SetTimes(start, end)
	f.initShapes()
	return f
}
