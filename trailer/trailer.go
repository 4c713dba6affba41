// seehuhn.de/go/pdfcreator - a library for writing PDF files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package trailer writes the trailer of a PDF file.
//
// Depending on the cross-reference format, the trailer dictionary is either
// written after the "trailer" keyword of a classic xref table, or it forms
// the dictionary of a cross-reference stream.  In both cases the file ends
// with the "startxref" line and the end-of-file marker.
package trailer

import (
	"fmt"
	"io"
	"strings"

	"seehuhn.de/go/pdfcreator/object"
	"seehuhn.de/go/pdfcreator/xref"
)

// recomputed lists the trailer keys which are never copied from the
// original file.
var recomputed = map[object.Name]bool{
	"Encrypt":     true,
	"Size":        true,
	"Filter":      true,
	"Index":       true,
	"Length":      true,
	"Prev":        true,
	"W":           true,
	"XRefStm":     true,
	"ID":          true,
	"DecodeParms": true,
	"Type":        true,
}

// Builder holds the values of a trailer dictionary.
type Builder struct {
	// Inherited is the combined trailer of the original file.  If this is
	// nil, /Root and /Info are generated from the fields below instead.
	Inherited object.Dict

	Root uint32
	Info uint32 // 0 if there is no document information dictionary

	// Last is the highest object number used in the file.
	Last uint32

	// Encrypted is set if the output is encrypted.  EncryptNumber is the
	// object number of the encryption dictionary.  If this is 0, the
	// dictionary is assumed to be object Last+1.
	Encrypted     bool
	EncryptNumber uint32

	// Prev is the offset of the previous cross-reference section, or 0.
	Prev uint64

	// ID is the file identifier.  If this is not nil, it must have two
	// elements.
	ID [][]byte
}

type entry struct {
	key object.Name
	val string
}

// entries returns the dictionary entries in the order they are written.
// The size is the value of the /Size entry.
func (b *Builder) entries(size uint64) []entry {
	var res []entry
	if b.Inherited != nil {
		for _, key := range b.Inherited.SortedKeys() {
			if recomputed[key] {
				continue
			}
			val := b.Inherited[key]
			if val == nil {
				continue
			}
			res = append(res, entry{key, object.Format(val)})
		}
	} else {
		res = append(res, entry{"Root", object.Format(object.NewReference(b.Root))})
		if b.Info != 0 {
			res = append(res, entry{"Info", object.Format(object.NewReference(b.Info))})
		}
	}

	if b.Encrypted {
		n := b.EncryptNumber
		if n == 0 {
			n = b.Last + 1
		}
		res = append(res, entry{"Encrypt", object.Format(object.NewReference(n))})
	}
	res = append(res, entry{"Size", fmt.Sprint(size)})
	if b.Prev != 0 {
		res = append(res, entry{"Prev", fmt.Sprint(b.Prev)})
	}
	if len(b.ID) == 2 {
		res = append(res, entry{"ID", fmt.Sprintf("[<%x><%x>]", b.ID[0], b.ID[1])})
	}
	return res
}

func writeEntries(buf *strings.Builder, entries []entry) {
	for _, e := range entries {
		buf.WriteString(object.Format(e.key))
		if c := e.val[0]; c != '/' && c != '[' && c != '<' && c != '(' {
			buf.WriteByte(' ')
		}
		buf.WriteString(e.val)
	}
}

// WriteClassic writes the "trailer" keyword and the trailer dictionary.
// This is used after a classic xref table.
func (b *Builder) WriteClassic(w io.Writer) error {
	buf := &strings.Builder{}
	buf.WriteString("trailer\r\n<<")
	writeEntries(buf, b.entries(uint64(b.Last)+1))
	buf.WriteString(">>")
	_, err := io.WriteString(w, buf.String())
	return err
}

// WriteStream writes a cross-reference stream with object number Last+1.
// The stream contains the packed entries for the objects in index, as
// returned by [xref.PackStream].  The "endobj" keyword is omitted.
func (b *Builder) WriteStream(w io.Writer, index []uint32, data []byte) error {
	if len(data) != xref.StreamEntrySize*len(index) {
		return fmt.Errorf("xref stream: %d bytes for %d entries", len(data), len(index))
	}

	buf := &strings.Builder{}
	fmt.Fprintf(buf, "%d 0 obj\r\n<</Type/XRef", b.Last+1)
	writeEntries(buf, b.entries(uint64(b.Last)+2))

	w0, w1, w2 := xref.StreamWidths[0], xref.StreamWidths[1], xref.StreamWidths[2]
	fmt.Fprintf(buf, "/W [%d %d %d]/Index[", w0, w1, w2)
	for i, n := range index {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(buf, "%d 1", n)
	}
	fmt.Fprintf(buf, "]/Length %d>>stream\r\n", len(data))

	_, err := io.WriteString(w, buf.String())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\r\nendstream")
	return err
}

// WriteEnd writes the "startxref" line and the end-of-file marker.
// The offset is the position of the last cross-reference section.
func WriteEnd(w io.Writer, startXRef uint64) error {
	_, err := fmt.Fprintf(w, "\r\nstartxref\r\n%d\r\n%%%%EOF\r\n", startXRef)
	return err
}
