package mcc

import (
	"bytes"
	"io"
	"iter"
	"os"

	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/internal/binary"
)

// Dump lazily serializes n. Concatenating the yielded fragments gives a
// stream that Parse reads back into the same tree.
//
// The size width defaults to 32 bits, or 64 bits when the first group's kind
// aligns to 8 (FOR8, LIS8, ...). WithSizeWidth overrides the choice.
func Dump(n Node, opts ...Option) iter.Seq2[[]byte, error] {
	o := applyOptions(opts)
	return func(yield func([]byte, error) bool) {
		d := &dumper{width: o.width, sizes: make(map[*Group]uint64)}
		if !d.width.Valid() {
			d.width = detectWidth(n)
		}
		if err := d.node(n, yield); err != nil && err != errStopDump {
			yield(nil, err)
		}
	}
}

var errStopDump = errors.New("dump stopped")

func detectWidth(n Node) SizeWidth {
	g, ok := n.(*Group)
	if !ok {
		return Width32
	}
	if g.IsRoot() {
		for _, child := range g.Children {
			if sub, ok := child.(*Group); ok {
				g = sub
				break
			}
		}
	}
	if !g.IsRoot() && Alignment(g.Kind) == 8 {
		return Width64
	}
	return Width32
}

type dumper struct {
	width SizeWidth
	sizes map[*Group]uint64
}

func (d *dumper) tagLen() uint64 {
	if d.width == Width64 {
		return 8
	}
	return binary.TagSize
}

// headerLen is the length of a tag and size field.
func (d *dumper) headerLen() uint64 {
	return d.tagLen() + uint64(d.width)
}

// encodedLen returns the number of bytes n occupies in its parent,
// padding included.
func (d *dumper) encodedLen(n Node) (uint64, error) {
	switch n := n.(type) {
	case *Chunk:
		parent := n.Parent()
		if parent == nil || parent.IsRoot() {
			return 0, errors.Wrapf(ErrOrphanChunk, "chunk %s", n.Tag.Display())
		}
		return d.headerLen() + paddedLen64(uint64(len(n.Data)), parent.Alignment), nil
	case *Group:
		size, err := d.groupSize(n)
		if err != nil {
			return 0, err
		}
		if n.IsRoot() {
			return size, nil
		}
		return d.headerLen() + paddedLen64(size, n.Alignment), nil
	default:
		return 0, errors.Errorf("unknown node type %T", n)
	}
}

// groupSize returns the value of a group's size field: the inner tag plus
// every child. For the root it is the sum of the children.
func (d *dumper) groupSize(g *Group) (uint64, error) {
	if size, ok := d.sizes[g]; ok {
		return size, nil
	}
	var size uint64
	if !g.IsRoot() {
		size = binary.TagSize
	}
	for _, child := range g.Children {
		n, err := d.encodedLen(child)
		if err != nil {
			return 0, err
		}
		size += n
	}
	d.sizes[g] = size
	return size, nil
}

func (d *dumper) header(tag Tag, size uint64, inner *Tag) ([]byte, error) {
	var buf bytes.Buffer
	w := binary.NewWriter(&buf, binary.Config{SizeWidth: d.width})
	if err := w.WriteTag(tag); err != nil {
		return nil, err
	}
	if err := w.WriteSize(size); err != nil {
		return nil, errors.Wrapf(err, "tag %s", tag.Display())
	}
	if inner != nil {
		if err := w.WriteBytes(inner[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (d *dumper) node(n Node, yield func([]byte, error) bool) error {
	switch n := n.(type) {
	case *Chunk:
		return d.chunk(n, yield)
	case *Group:
		return d.group(n, yield)
	default:
		return errors.Errorf("unknown node type %T", n)
	}
}

func (d *dumper) group(g *Group, yield func([]byte, error) bool) error {
	size, err := d.groupSize(g)
	if err != nil {
		return err
	}
	if !g.IsRoot() {
		hdr, err := d.header(g.Kind, size, &g.Tag)
		if err != nil {
			return err
		}
		if !yield(hdr, nil) {
			return errStopDump
		}
	}
	for _, child := range g.Children {
		if err := d.node(child, yield); err != nil {
			return err
		}
	}
	if !g.IsRoot() {
		if pad := binary.Padding(size, g.Alignment); pad > 0 && !yield(make([]byte, pad), nil) {
			return errStopDump
		}
	}
	return nil
}

func (d *dumper) chunk(c *Chunk, yield func([]byte, error) bool) error {
	parent := c.Parent()
	if parent == nil || parent.IsRoot() {
		return errors.Wrapf(ErrOrphanChunk, "chunk %s", c.Tag.Display())
	}
	size := uint64(len(c.Data))
	hdr, err := d.header(c.Tag, size, nil)
	if err != nil {
		return err
	}
	if !yield(hdr, nil) {
		return errStopDump
	}
	if size > 0 && !yield(c.Data, nil) {
		return errStopDump
	}
	if pad := binary.Padding(size, parent.Alignment); pad > 0 && !yield(make([]byte, pad), nil) {
		return errStopDump
	}
	return nil
}

// WriteTo serializes n to w and returns the number of bytes written.
func WriteTo(w io.Writer, n Node, opts ...Option) (int64, error) {
	bw := binary.NewWriter(w, binary.DefaultConfig())
	for frag, err := range Dump(n, opts...) {
		if err != nil {
			return bw.Pos(), err
		}
		if err := bw.WriteBytes(frag); err != nil {
			return bw.Pos(), err
		}
	}
	return bw.Pos(), nil
}

// Marshal serializes n into a new byte slice.
func Marshal(n Node, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := WriteTo(&buf, n, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile serializes n to the named file. The file is removed again when
// serialization fails.
func WriteFile(path string, n Node, opts ...Option) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := WriteTo(f, n, opts...); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}
