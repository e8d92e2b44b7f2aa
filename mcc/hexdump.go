package mcc

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// HexdumpOptions controls Hexdump output.
type HexdumpOptions struct {
	// Offset is the stream offset of raw[0], shown at the start of each line.
	Offset int64
	// Chunk is the number of bytes per hex group (default 4).
	Chunk int
	// Line is the number of bytes per line (default 16).
	Line int
	// Indent prefixes every line.
	Indent string
	// Encoder splits the data into lines and renders the text column.
	// The default is RawEncoder.
	Encoder Encoder
}

func (o HexdumpOptions) withDefaults() HexdumpOptions {
	if o.Chunk <= 0 {
		o.Chunk = 4
	}
	if o.Line <= 0 {
		o.Line = 16
	}
	if o.Encoder == nil {
		o.Encoder = RawEncoder{}
	}
	return o
}

// Hexdump writes raw as lines of offset, grouped hex and the encoder's
// rendering of the same bytes.
func Hexdump(w io.Writer, raw []byte, opts HexdumpOptions) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)
	offset := opts.Offset
	chunk2, line2 := 2*opts.Chunk, 2*opts.Line

	for _, part := range opts.Encoder.Split(raw, opts.Line) {
		if len(part) == 0 {
			continue
		}
		fmt.Fprintf(bw, "%s%04x: ", opts.Indent, offset)
		offset += int64(len(part))

		h := hex.EncodeToString(part)
		if len(h) < line2 {
			h += strings.Repeat(" ", line2-len(h))
		}
		for i := 0; i < len(h); i += chunk2 {
			bw.WriteString(h[i:min(i+chunk2, len(h))])
			bw.WriteByte(' ')
		}
		bw.WriteString(opts.Encoder.Repr(part))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// HexdumpString returns the Hexdump output as a string.
func HexdumpString(raw []byte, opts HexdumpOptions) string {
	var b strings.Builder
	Hexdump(&b, raw, opts)
	return b.String()
}
