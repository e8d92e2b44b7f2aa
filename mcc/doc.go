// Package mcc reads and writes Maya's IFF-style chunked binary files, the
// format used by .mc cache frames and .mb scenes.
//
// A file is a sequence of groups and chunks. Groups (FORM, CAT , LIST, PROP
// and their 4 and 8 aligned variants) carry a kind tag, a size and an inner
// tag, followed by children. Chunks carry a tag, a size and a big-endian
// payload padded to the alignment of the enclosing group. FOR8-style files
// use 64-bit size fields and 8-byte tags.
//
// Parsing is incremental:
//
//	p, err := mcc.Open("fluidShape1Frame1.mc")
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//	if err := p.ParseAll(); err != nil {
//	    return err
//	}
//	for c := range p.Root().FindChunks(mcc.TagCHNM) {
//	    fmt.Println(c.Text())
//	}
//
// Trees built in memory with NewRoot, AddGroup and AddChunk serialize with
// Dump, Marshal or WriteFile.
package mcc
