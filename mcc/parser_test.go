package mcc

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMinimalFile(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("CHNM", []byte("foo\x00"), 4))

	root, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, root.Children, 1)

	g, ok := root.Children[0].(*Group)
	require.True(t, ok)
	assert.Equal(t, "TEST", g.Tag.String())
	assert.Equal(t, TagFOR4, g.Kind)
	assert.Equal(t, uint64(16), g.Size)
	assert.Equal(t, int64(8), g.Start)
	assert.Equal(t, int64(24), g.End)
	require.Len(t, g.Children, 1)

	c, ok := g.Children[0].(*Chunk)
	require.True(t, ok)
	assert.Equal(t, TagCHNM, c.Tag)
	assert.Equal(t, "foo", c.Text())
	assert.Equal(t, TypeString, c.Type)
	assert.Equal(t, int64(20), c.Offset)
	assert.Same(t, g, c.Parent())
}

func TestParseUintChunk(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("SIZE", []byte{0, 0, 0, 5}, 4))
	root, err := Parse(data)
	require.NoError(t, err)

	c, err := root.FindChunk(TagSIZE)
	require.NoError(t, err)
	v, err := c.Uints()
	require.NoError(t, err)
	assert.Equal(t, []uint32{5}, v)

	val, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, TypeUint, val.Type)
	assert.Equal(t, []uint32{5}, val.Uints)
}

func TestParsePadding(t *testing.T) {
	data := rawGroup("FOR4", "TEST",
		rawChunk("ABCD", []byte("xyz"), 4),
		rawChunk("EFGH", []byte("q"), 4),
	)
	require.Len(t, data, 36)

	p := NewParser(bytes.NewReader(data))
	_, err := p.ParseNext()
	require.NoError(t, err)

	n, err := p.ParseNext()
	require.NoError(t, err)
	first := n.(*Chunk)
	assert.Equal(t, []byte("xyz"), first.Data)
	assert.Equal(t, int64(20), first.Offset)
	// One pad byte follows the 3-byte payload.
	assert.Equal(t, int64(24), p.Pos())

	n, err = p.ParseNext()
	require.NoError(t, err)
	second := n.(*Chunk)
	assert.Equal(t, "EFGH", second.Tag.String())
	assert.Equal(t, []byte("q"), second.Data)
	assert.Equal(t, int64(36), p.Pos())

	n, err = p.ParseNext()
	assert.Nil(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestParseFormAlignment(t *testing.T) {
	data := rawGroup("FORM", "TEST",
		rawChunk("ABCD", []byte("xyz"), 2),
		rawChunk("EFGH", []byte("q"), 2),
	)
	root, err := Parse(data)
	require.NoError(t, err)

	g := root.Children[0].(*Group)
	assert.Equal(t, 2, g.Alignment)
	require.Len(t, g.Children, 2)
	assert.Equal(t, []byte("q"), g.Children[1].(*Chunk).Data)
}

func TestParseNestedGroups(t *testing.T) {
	data := bytes.Join([][]byte{
		rawGroup("FOR4", "OUTR",
			rawGroup("LIS4", "INNR", rawChunk("AAAA", []byte{1, 2, 3, 4}, 4)),
			rawChunk("BBBB", []byte{5}, 4),
		),
		rawGroup("FOR4", "NEXT", rawChunk("CCCC", nil, 4)),
	}, nil)

	root, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	outer := root.Children[0].(*Group)
	require.Len(t, outer.Children, 2)
	inner := outer.Children[0].(*Group)
	assert.Equal(t, "LIS4", inner.Kind.String())
	require.Len(t, inner.Children, 1)

	// BBBB closes INNR and lands in OUTR.
	assert.Equal(t, "BBBB", outer.Children[1].NodeTag().String())

	next := root.Children[1].(*Group)
	require.Len(t, next.Children, 1)
	c := next.Children[0].(*Chunk)
	assert.NotNil(t, c.Data)
	assert.Empty(t, c.Data)
}

func TestParseInvariants(t *testing.T) {
	data, err := Marshal(sampleFrame())
	require.NoError(t, err)
	root, err := Parse(data)
	require.NoError(t, err)

	err = Walk(root, func(n Node, depth int) error {
		parent := n.Parent()
		if parent.IsRoot() {
			return nil
		}
		switch n := n.(type) {
		case *Chunk:
			end := n.Offset + int64(len(n.Data))
			end += int64(padLen(len(n.Data), parent.Alignment))
			assert.Zero(t, end%int64(parent.Alignment), "chunk %s", n.Tag)
			assert.GreaterOrEqual(t, n.Offset, parent.Start)
			assert.LessOrEqual(t, end, parent.End)
		case *Group:
			assert.GreaterOrEqual(t, n.Start, parent.Start)
			assert.LessOrEqual(t, n.End, parent.End)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestParseOrphanChunk(t *testing.T) {
	data := append(rawGroup("FOR4", "TEST"), rawChunk("CHNM", []byte("foo\x00"), 4)...)

	_, err := Parse(data)
	require.Error(t, err)
	var se *StructureError
	require.True(t, errors.As(err, &se))
	assert.True(t, errors.Is(err, ErrOrphanChunk))
	assert.Equal(t, TagCHNM, se.Tag)
	assert.Equal(t, int64(12), se.Offset)
}

func TestParseBadMagic(t *testing.T) {
	_, err := Parse(rawChunk("CHNM", []byte("foo\x00"), 4))
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestParseTruncated(t *testing.T) {
	full := rawGroup("FOR4", "TEST", rawChunk("CHNM", []byte("abcdefgh"), 4))

	tests := map[string][]byte{
		"short payload": full[:len(full)-3],
		"short size":    full[:6],
		"short tag":     full[:len(full)-14],
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			// No limit: the failure is found by the short read itself.
			p := NewParser(bytes.NewReader(data))
			err := p.ParseAll()
			assert.True(t, errors.Is(err, ErrTruncated), "got %v", err)
		})
	}
}

func TestParseSizeBeyondLimit(t *testing.T) {
	data := rawGroup("FOR4", "TEST")
	binary.BigEndian.PutUint32(data[4:], 100)
	_, err := Parse(data)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestParseOverrun(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("CHNM", []byte("abcdefgh"), 4))
	// Shrink the group so the chunk no longer fits.
	binary.BigEndian.PutUint32(data[4:], 12)
	_, err := Parse(data)
	assert.True(t, errors.Is(err, ErrOverrun), "got %v", err)
}

func TestParseGroupTooSmall(t *testing.T) {
	data := rawGroup("FOR4", "TEST")
	binary.BigEndian.PutUint32(data[4:], 2)
	_, err := Parse(data)
	var se *StructureError
	assert.True(t, errors.As(err, &se))
}

func TestParse64Bit(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("FOR8\x00\x00\x00\x00")
	binary.Write(&b, binary.BigEndian, uint64(28))
	b.WriteString("TEST")
	b.WriteString("CHNM\x00\x00\x00\x00")
	binary.Write(&b, binary.BigEndian, uint64(4))
	b.WriteString("foo\x00")
	b.Write(make([]byte, 4)) // chunk padding
	b.Write(make([]byte, 4)) // group padding

	p := NewParser(bytes.NewReader(b.Bytes()), WithLimit(int64(b.Len())))
	require.NoError(t, p.ParseAll())
	assert.Equal(t, Width64, p.Width())

	g, err := p.FindGroup(MustTag("TEST"))
	require.NoError(t, err)
	assert.Equal(t, 8, g.Alignment)
	assert.Equal(t, int64(16), g.Start)
	assert.Equal(t, int64(48), g.End)

	c, err := g.FindChunk(TagCHNM)
	require.NoError(t, err)
	assert.Equal(t, "foo", c.Text())
	assert.Equal(t, int64(b.Len()), p.Pos())
}

func TestParse64BitWithoutGroupPadding(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("FOR8\x00\x00\x00\x00")
	binary.Write(&b, binary.BigEndian, uint64(28))
	b.WriteString("TEST")
	b.WriteString("CHNM\x00\x00\x00\x00")
	binary.Write(&b, binary.BigEndian, uint64(4))
	b.WriteString("foo\x00")
	b.Write(make([]byte, 4)) // chunk padding, then no group padding
	b.WriteString("FOR8\x00\x00\x00\x00")
	binary.Write(&b, binary.BigEndian, uint64(4))
	b.WriteString("NEXT")
	b.Write(make([]byte, 4))

	p := NewParser(bytes.NewReader(b.Bytes()), WithLimit(int64(b.Len())))
	require.NoError(t, p.ParseAll())
	root := p.Root()
	require.Len(t, root.Children, 2)
	assert.Equal(t, "TEST", root.Children[0].(*Group).Tag.String())
	next := root.Children[1].(*Group)
	assert.Equal(t, "NEXT", next.Tag.String())
	assert.Equal(t, int64(60), next.Start)
}

func TestParseOversizedChunkWithoutLimit(t *testing.T) {
	var data []byte
	data = append(data, "FOR4"...)
	data = append(data, be32(0x7ffffff8)...)
	data = append(data, "TEST"...)
	data = append(data, "CHNM"...)
	data = append(data, be32(0x7ffffff0)...)
	data = append(data, "abcd"...)

	err := NewParser(bytes.NewReader(data)).ParseAll()
	assert.True(t, errors.Is(err, ErrTruncated), "got %v", err)
}

func TestParseForcedWidth(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("SIZE", be32(7), 4))

	p := NewParser(bytes.NewReader(data), WithSizeWidth(Width32))
	require.NoError(t, p.ParseAll())
	assert.Equal(t, Width32, p.Width())

	// Forcing the wrong width misreads the stream.
	p = NewParser(bytes.NewReader(data), WithSizeWidth(Width64), WithLimit(int64(len(data))))
	assert.Error(t, p.ParseAll())
}

func TestParsePartial(t *testing.T) {
	data, err := Marshal(sampleFrame())
	require.NoError(t, err)

	p := NewParser(bytes.NewReader(data))
	var seen []Tag
	for len(seen) < 3 {
		n, err := p.ParseNext()
		require.NoError(t, err)
		if c, ok := n.(*Chunk); ok {
			seen = append(seen, c.Tag)
		}
	}
	assert.Equal(t, []Tag{TagVRSN, TagSTIM, TagETIM}, seen)

	_, err = p.FindOne(TagMYCH)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Less(t, p.Pos(), int64(len(data)))

	// Resuming picks up where the first pass stopped.
	require.NoError(t, p.ParseAll())
	_, err = p.FindGroup(TagMYCH)
	assert.NoError(t, err)
}

func TestParserClose(t *testing.T) {
	data := rawGroup("FOR4", "TEST")
	path := writeTemp(t, "a.mc", data)

	p, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.ParseNext()
	assert.Equal(t, ErrClosed, err)
}

func TestParseFile(t *testing.T) {
	data, err := Marshal(sampleFrame())
	require.NoError(t, err)
	path := writeTemp(t, "frame.mc", data)

	root, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, flatten(sampleFrame()), flatten(root))

	_, err = ParseFile(writeTemp(t, "bad.mc", []byte("CHNM")))
	var se *StructureError
	assert.True(t, errors.As(err, &se))
}

func TestParseWithRegistry(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("ABCD", be32(9), 4))
	reg := DefaultRegistry().With(WithTagType(MustTag("ABCD"), TypeUint))

	root, err := Parse(data, WithRegistry(reg))
	require.NoError(t, err)
	c, err := root.FindChunk(MustTag("ABCD"))
	require.NoError(t, err)
	assert.Equal(t, TypeUint, c.Type)

	root, err = Parse(data)
	require.NoError(t, err)
	c, err = root.FindChunk(MustTag("ABCD"))
	require.NoError(t, err)
	assert.Equal(t, TypeRaw, c.Type)
}

func TestDecodeErrorIsDeferred(t *testing.T) {
	data := rawGroup("FOR4", "TEST", rawChunk("FBCA", []byte{1, 2, 3}, 4))
	root, err := Parse(data)
	require.NoError(t, err)

	c, err := root.FindChunk(TagFBCA)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, c.Data)

	_, err = c.Floats()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TagFBCA, de.Tag)

	_, err = c.ValueWith(DefaultRegistry())
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TagFBCA, de.Tag)
}

func padLen(n, alignment int) int {
	if rem := n % alignment; rem != 0 {
		return alignment - rem
	}
	return 0
}
