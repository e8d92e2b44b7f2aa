package mcc

import (
	"fmt"
	"iter"

	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/internal/dtype"
)

// Node is either a *Group or a *Chunk.
type Node interface {
	// NodeTag returns the semantic tag: a group's inner tag or a chunk's tag.
	NodeTag() Tag
	// Parent returns the enclosing group, or nil for a detached node.
	Parent() *Group

	setParent(g *Group)
}

// Group is a container node. The implicit root of a parsed file is a Group
// with a zero Kind.
type Group struct {
	// Kind is the group type tag (FORM, FOR4, LIST, CAT8, ...).
	Kind Tag
	// Tag is the group's semantic tag (CACH, MYCH, ...).
	Tag Tag
	// Size is the declared payload length, inner tag included.
	Size uint64
	// Start is the stream offset right after the size field.
	Start int64
	// End is Start + Size plus padding to Alignment.
	End       int64
	Alignment int
	Children  []Node

	parent *Group
}

// NewRoot returns an empty root group for building a file.
func NewRoot() *Group {
	return &Group{}
}

// NewGroup returns a detached group of the given kind.
func NewGroup(kind, tag Tag) *Group {
	return &Group{Kind: kind, Tag: tag, Alignment: Alignment(kind)}
}

func (g *Group) NodeTag() Tag       { return g.Tag }
func (g *Group) Parent() *Group     { return g.parent }
func (g *Group) setParent(p *Group) { g.parent = p }

// IsRoot reports whether g is an implicit root.
func (g *Group) IsRoot() bool {
	return g.Kind == Tag{}
}

func (g *Group) String() string {
	if g.IsRoot() {
		return fmt.Sprintf("<Root; %d children>", len(g.Children))
	}
	return fmt.Sprintf("<Group %s (%s); %d children>", g.Tag.Display(), g.Kind, len(g.Children))
}

// AddChild appends n to g's children and returns it.
func (g *Group) AddChild(n Node) Node {
	g.Children = append(g.Children, n)
	n.setParent(g)
	return n
}

// AddGroup appends a FOR4 group with the given tag.
func (g *Group) AddGroup(tag Tag) *Group {
	return g.AddGroupKind(TagFOR4, tag)
}

// AddGroupKind appends a group of the given kind.
func (g *Group) AddGroupKind(kind, tag Tag) *Group {
	child := NewGroup(kind, tag)
	g.AddChild(child)
	return child
}

// AddChunk appends a raw chunk.
func (g *Group) AddChunk(tag Tag, data []byte) *Chunk {
	c := NewChunk(tag, data)
	g.AddChild(c)
	return c
}

// Find yields every descendant tagged tag, at any depth, in document order.
func (g *Group) Find(tag Tag) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		g.find(tag, yield)
	}
}

func (g *Group) find(tag Tag, yield func(Node) bool) bool {
	for _, child := range g.Children {
		if child.NodeTag() == tag && !yield(child) {
			return false
		}
		if sub, ok := child.(*Group); ok && !sub.find(tag, yield) {
			return false
		}
	}
	return true
}

// FindChunks yields every descendant chunk tagged tag.
func (g *Group) FindChunks(tag Tag) iter.Seq[*Chunk] {
	return func(yield func(*Chunk) bool) {
		for n := range g.Find(tag) {
			if c, ok := n.(*Chunk); ok && !yield(c) {
				return
			}
		}
	}
}

// FindOne returns the first descendant tagged tag. It fails with ErrNotFound
// when there is none.
func (g *Group) FindOne(tag Tag) (Node, error) {
	for n := range g.Find(tag) {
		return n, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "%s", tag.Display())
}

// FindOneOr returns the first descendant tagged tag, or def.
func (g *Group) FindOneOr(tag Tag, def Node) Node {
	if n, err := g.FindOne(tag); err == nil {
		return n
	}
	return def
}

// FindGroup returns the first descendant group tagged tag.
func (g *Group) FindGroup(tag Tag) (*Group, error) {
	for n := range g.Find(tag) {
		if sub, ok := n.(*Group); ok {
			return sub, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "group %s", tag.Display())
}

// FindChunk returns the first descendant chunk tagged tag.
func (g *Group) FindChunk(tag Tag) (*Chunk, error) {
	for c := range g.FindChunks(tag) {
		return c, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "chunk %s", tag.Display())
}

// Chunk is a leaf node holding a raw payload.
type Chunk struct {
	Tag  Tag
	Data []byte
	// Offset is the stream offset of the payload, for diagnostics.
	Offset int64
	// Type selects the typed view returned by Value.
	Type DataType

	parent *Group
}

// NewChunk returns a detached raw chunk.
func NewChunk(tag Tag, data []byte) *Chunk {
	return &Chunk{Tag: tag, Data: data, Type: TypeRaw}
}

func (c *Chunk) NodeTag() Tag       { return c.Tag }
func (c *Chunk) Parent() *Group     { return c.parent }
func (c *Chunk) setParent(p *Group) { c.parent = p }

func (c *Chunk) String() string {
	return fmt.Sprintf("<Chunk %s; %d bytes>", c.Tag.Display(), len(c.Data))
}

func (c *Chunk) decodeErr(dt DataType, err error) error {
	return &DecodeError{Tag: c.Tag, Type: dt, Err: err}
}

// Uints interprets the payload as big-endian unsigned 32-bit integers.
func (c *Chunk) Uints() ([]uint32, error) {
	v, err := dtype.Uint32s(c.Data)
	if err != nil {
		return nil, c.decodeErr(TypeUint, err)
	}
	return v, nil
}

// Floats interprets the payload as big-endian 32-bit floats.
func (c *Chunk) Floats() ([]float32, error) {
	v, err := dtype.Float32s(c.Data)
	if err != nil {
		return nil, c.decodeErr(TypeFloat, err)
	}
	return v, nil
}

// Doubles interprets the payload as big-endian 64-bit floats.
func (c *Chunk) Doubles() ([]float64, error) {
	v, err := dtype.Float64s(c.Data)
	if err != nil {
		return nil, c.decodeErr(TypeDouble, err)
	}
	return v, nil
}

// Text interprets the payload as a string with trailing NULs stripped.
func (c *Chunk) Text() string {
	return trimNUL(c.Data)
}

// SetUints replaces the payload with packed integers.
func (c *Chunk) SetUints(values ...uint32) {
	c.Data = dtype.PutUint32s(values)
	c.Type = TypeUint
}

// SetFloats replaces the payload with packed 32-bit floats.
func (c *Chunk) SetFloats(values ...float32) {
	c.Data = dtype.PutFloat32s(values)
	c.Type = TypeFloat
}

// SetDoubles replaces the payload with packed 64-bit floats.
func (c *Chunk) SetDoubles(values ...float64) {
	c.Data = dtype.PutFloat64s(values)
	c.Type = TypeDouble
}

// SetText replaces the payload with s and a single terminating NUL.
func (c *Chunk) SetText(s string) {
	c.Data = append([]byte(trimNUL([]byte(s))), 0)
	c.Type = TypeString
}

// Value decodes the payload according to c.Type. Unknown types decode as raw.
func (c *Chunk) Value() (Value, error) {
	switch c.Type {
	case TypeFloat:
		v, err := c.Floats()
		return Value{Type: TypeFloat, Floats: v}, err
	case TypeDouble:
		v, err := c.Doubles()
		return Value{Type: TypeDouble, Doubles: v}, err
	case TypeUint:
		v, err := c.Uints()
		return Value{Type: TypeUint, Uints: v}, err
	case TypeString:
		return Value{Type: TypeString, Text: c.Text()}, nil
	default:
		return Value{Type: TypeRaw, Raw: c.Data}, nil
	}
}

// ValueWith decodes the payload with the registry's encoder for c.Type,
// which allows custom data types.
func (c *Chunk) ValueWith(reg *Registry) (Value, error) {
	if u, ok := reg.EncoderFor(c.Type).(Unpacker); ok {
		v, err := u.Unpack(c.Data)
		var de *DecodeError
		if errors.As(err, &de) {
			de.Tag = c.Tag
		}
		return v, err
	}
	return c.Value()
}
