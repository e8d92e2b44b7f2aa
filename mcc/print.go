package mcc

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PrintOptions controls Fprint output.
type PrintOptions struct {
	// Data adds a hexdump of every chunk payload.
	Data bool
	// Registry types chunks that were built without one. Defaults to
	// DefaultRegistry.
	Registry *Registry
}

const printIndent = "    "

// Fprint writes an outline of n to w, one line per node.
func Fprint(w io.Writer, n Node, opts PrintOptions) error {
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	bw := bufio.NewWriter(w)
	if g, ok := n.(*Group); ok && g.IsRoot() {
		for _, child := range g.Children {
			if err := printNode(bw, child, 0, opts); err != nil {
				return err
			}
		}
	} else if err := printNode(bw, n, 0, opts); err != nil {
		return err
	}
	return bw.Flush()
}

func printNode(w *bufio.Writer, n Node, depth int, opts PrintOptions) error {
	indent := strings.Repeat(printIndent, depth)
	switch n := n.(type) {
	case *Group:
		fmt.Fprintf(w, "%s%s group (%s); %d bytes for %d children:\n",
			indent, n.Tag.Display(), n.Kind, n.Size, len(n.Children))
		for _, child := range n.Children {
			if err := printNode(w, child, depth+1, opts); err != nil {
				return err
			}
		}
	case *Chunk:
		dt := n.Type
		if dt == "" || dt == TypeRaw {
			dt = opts.Registry.TypeOf(n.Tag)
		}
		if dt != TypeRaw {
			fmt.Fprintf(w, "%s%s; %d bytes as %s(s)\n", indent, n.Tag.Display(), len(n.Data), dt)
		} else {
			fmt.Fprintf(w, "%s%s; %d raw bytes\n", indent, n.Tag.Display(), len(n.Data))
		}
		if opts.Data && len(n.Data) > 0 {
			return Hexdump(w, n.Data, HexdumpOptions{
				Offset:  n.Offset,
				Indent:  indent + printIndent,
				Encoder: opts.Registry.EncoderFor(dt),
			})
		}
	}
	return nil
}

// Sprint returns the Fprint outline of n without payload data.
func Sprint(n Node) string {
	var b strings.Builder
	Fprint(&b, n, PrintOptions{})
	return b.String()
}
