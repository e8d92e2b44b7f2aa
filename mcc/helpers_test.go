package mcc

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// rawChunk encodes a 32-bit chunk padded to align.
func rawChunk(tag string, data []byte, align int) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	binary.Write(&b, binary.BigEndian, uint32(len(data)))
	b.Write(data)
	for b.Len()%align != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// rawGroup encodes a 32-bit group around already encoded children.
func rawGroup(kind, tag string, children ...[]byte) []byte {
	body := bytes.Join(children, nil)
	var b bytes.Buffer
	b.WriteString(kind)
	binary.Write(&b, binary.BigEndian, uint32(len(body)+4))
	b.WriteString(tag)
	b.Write(body)
	return b.Bytes()
}

func be32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// flatNode is a comparable view of a tree without parent links.
type flatNode struct {
	Kind     string
	Tag      string
	Data     []byte
	Children []flatNode
}

func flatten(g *Group) []flatNode {
	var out []flatNode
	for _, child := range g.Children {
		switch n := child.(type) {
		case *Group:
			out = append(out, flatNode{Kind: n.Kind.String(), Tag: n.Tag.String(), Children: flatten(n)})
		case *Chunk:
			out = append(out, flatNode{Tag: n.Tag.String(), Data: n.Data})
		}
	}
	return out
}

// sampleFrame builds a small cache frame: a CACH header group and a MYCH
// group with one float channel and one vector channel.
func sampleFrame() *Group {
	root := NewRoot()
	cach := root.AddGroup(TagCACH)
	cach.AddChunk(TagVRSN, nil).SetText("0.1")
	cach.AddChunk(TagSTIM, nil).SetUints(250)
	cach.AddChunk(TagETIM, nil).SetUints(250)

	mych := root.AddGroup(TagMYCH)
	mych.AddChunk(TagCHNM, nil).SetText("fluid_density")
	mych.AddChunk(TagSIZE, nil).SetUints(2)
	mych.AddChunk(TagFBCA, nil).SetFloats(0.5, 1.5)
	mych.AddChunk(TagCHNM, nil).SetText("pts")
	mych.AddChunk(TagSIZE, nil).SetUints(1)
	mych.AddChunk(TagFVCA, nil).SetFloats(1, 2, 3)
	return root
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
