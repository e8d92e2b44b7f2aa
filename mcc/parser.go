package mcc

import (
	"io"
	"iter"
	"math"

	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/internal/binary"
)

// SizeWidth is the byte width of size fields in a stream.
type SizeWidth = binary.Width

const (
	Width32 SizeWidth = binary.Width32 // FOR4-style files
	Width64 SizeWidth = binary.Width64 // FOR8-style files
)

// Parser reads a chunked stream incrementally into a tree rooted at Root.
//
// ParseNext reads one group or chunk at a time, so a caller can stop as soon
// as it has what it needs and leave the rest of the stream unread.
type Parser struct {
	r        *binary.Reader
	registry *Registry
	root     *Group
	stack    []*Group
	forced   SizeWidth
	width    SizeWidth
	closer   io.Closer
	closed   bool
}

// NewParser returns a parser reading from r.
func NewParser(r io.ReaderAt, opts ...Option) *Parser {
	o := applyOptions(opts)
	cfg := binary.DefaultConfig()
	cfg.Limit = o.limit
	if o.width.Valid() {
		cfg.SizeWidth = o.width
	}
	return &Parser{
		r:        binary.NewReader(r, cfg),
		registry: o.registry,
		root:     NewRoot(),
		forced:   o.width,
	}
}

// Root returns the implicit root group holding every top-level node.
func (p *Parser) Root() *Group {
	return p.root
}

// Registry returns the registry used to type chunks.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Pos returns the stream offset of the next read.
func (p *Parser) Pos() int64 {
	return p.r.Pos()
}

// Width returns the size field width, or 0 before the first tag is read.
func (p *Parser) Width() SizeWidth {
	return p.width
}

// Close releases the underlying file when the parser owns one.
func (p *Parser) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func (p *Parser) structErr(offset int64, tag Tag, err error) error {
	return &StructureError{Offset: offset, Tag: tag, Err: err}
}

func (p *Parser) readErr(offset int64, tag Tag, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return p.structErr(offset, tag, ErrTruncated)
	}
	return errors.Wrapf(err, "reading at 0x%x", offset)
}

// ParseNext reads the next group or chunk and attaches it to the tree.
// At the end of the stream it returns nil and io.EOF.
func (p *Parser) ParseNext() (Node, error) {
	if p.closed {
		return nil, ErrClosed
	}

	// Close every group the cursor has moved past. Trailing group padding
	// is skipped only when it reads as NUL bytes; some writers leave it out
	// and the next header starts right at the content end.
	for g := p.top(); g != nil && g.contentEnd() <= p.r.Pos(); g = p.top() {
		if pad := g.End - p.r.Pos(); pad > 0 && p.nulPadding(pad) {
			p.r.Skip(pad)
		}
		p.stack = p.stack[:len(p.stack)-1]
	}

	start := p.r.Pos()
	raw, err := p.r.ReadTag()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, p.readErr(start, Tag{}, err)
	}
	tag := Tag(raw)

	if p.width == 0 {
		if !IsGroupTag(tag) {
			return nil, p.structErr(start, tag, ErrBadMagic)
		}
		p.width = p.forced
		if !p.width.Valid() {
			p.width = Width32
			if Alignment(tag) == 8 {
				p.width = Width64
			}
		}
		p.r.SetWidth(p.width)
	}

	if p.width == Width64 {
		// 8-byte tags are the 4-byte tag plus padding.
		if _, err := p.r.ReadBytes(4); err != nil {
			return nil, p.readErr(start, tag, err)
		}
	}

	size, err := p.r.ReadSize()
	if err != nil {
		return nil, p.readErr(start, tag, err)
	}
	offset := p.r.Pos()

	if rem, ok := p.r.Remaining(); ok && size > uint64(max(rem, 0)) {
		return nil, p.structErr(start, tag, ErrTruncated)
	}
	if IsGroupTag(tag) {
		return p.openGroup(start, offset, tag, size)
	}
	return p.readChunk(start, offset, tag, size)
}

func (p *Parser) nulPadding(n int64) bool {
	buf, err := p.r.At(p.r.Pos()).ReadBytes(int(n))
	if err != nil {
		return false
	}
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

func (p *Parser) hasLimit() bool {
	_, ok := p.r.Remaining()
	return ok
}

func (p *Parser) top() *Group {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) openGroup(start, offset int64, kind Tag, size uint64) (Node, error) {
	if size < 4 {
		return nil, p.structErr(start, kind, errors.Errorf("group size %d smaller than its tag", size))
	}
	inner, err := p.r.ReadTag()
	if err != nil {
		return nil, p.readErr(start, kind, err)
	}

	g := NewGroup(kind, Tag(inner))
	g.Size = size
	g.Start = offset
	g.End = offset + int64(paddedLen64(size, g.Alignment))

	parent := p.top()
	if parent != nil && offset+int64(size) > parent.contentEnd() {
		return nil, p.structErr(start, g.Tag, ErrOverrun)
	}
	if parent == nil {
		parent = p.root
	}
	parent.AddChild(g)
	p.stack = append(p.stack, g)
	return g, nil
}

func (p *Parser) readChunk(start, offset int64, tag Tag, size uint64) (Node, error) {
	parent := p.top()
	if parent == nil {
		return nil, p.structErr(start, tag, ErrOrphanChunk)
	}
	if offset+int64(size) > parent.contentEnd() {
		return nil, p.structErr(start, tag, ErrOverrun)
	}
	if size > math.MaxInt32 && !p.hasLimit() {
		return nil, p.structErr(start, tag, errors.Wrapf(ErrTruncated, "implausible chunk size %d", size))
	}

	data, err := p.r.ReadBytes(int(size))
	if err != nil {
		return nil, p.readErr(start, tag, err)
	}
	if data == nil {
		data = []byte{}
	}

	c := &Chunk{
		Tag:    tag,
		Data:   data,
		Offset: offset,
		Type:   p.registry.TypeOf(tag),
	}
	parent.AddChild(c)
	p.r.SkipPadding(size, parent.Alignment)
	return c, nil
}

// ParseAll parses the rest of the stream.
func (p *Parser) ParseAll() error {
	for {
		if _, err := p.ParseNext(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Find yields every parsed node tagged tag. See Group.Find.
func (p *Parser) Find(tag Tag) iter.Seq[Node] {
	return p.root.Find(tag)
}

// FindOne returns the first parsed node tagged tag. See Group.FindOne.
func (p *Parser) FindOne(tag Tag) (Node, error) {
	return p.root.FindOne(tag)
}

// FindOneOr returns the first parsed node tagged tag, or def.
func (p *Parser) FindOneOr(tag Tag, def Node) Node {
	return p.root.FindOneOr(tag, def)
}

// FindGroup returns the first parsed group tagged tag.
func (p *Parser) FindGroup(tag Tag) (*Group, error) {
	return p.root.FindGroup(tag)
}

func paddedLen64(size uint64, alignment int) uint64 {
	return size + uint64(binary.Padding(size, alignment))
}

// contentEnd is the offset just past the group's declared payload, before
// trailing padding.
func (g *Group) contentEnd() int64 {
	return g.Start + int64(g.Size)
}
