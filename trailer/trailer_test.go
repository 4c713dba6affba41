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

package trailer

import (
	"bytes"
	"strings"
	"testing"

	"seehuhn.de/go/pdfcreator/object"
	"seehuhn.de/go/pdfcreator/xref"
)

func TestClassicNoParser(t *testing.T) {
	b := &Builder{Root: 1, Info: 3, Last: 3}
	buf := &bytes.Buffer{}
	err := b.WriteClassic(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := "trailer\r\n<</Root 1 0 R/Info 3 0 R/Size 4>>"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassicInherited(t *testing.T) {
	b := &Builder{
		Inherited: object.Dict{
			"Root":        object.NewReference(1),
			"Info":        object.NewReference(2),
			"Custom":      object.Name("X"),
			"Encrypt":     object.NewReference(9),
			"Size":        object.Integer(10),
			"Filter":      object.Name("FlateDecode"),
			"Index":       object.Array{object.Integer(0), object.Integer(10)},
			"Length":      object.Integer(100),
			"Prev":        object.Integer(1234),
			"W":           object.Array{object.Integer(1), object.Integer(2), object.Integer(1)},
			"XRefStm":     object.Integer(555),
			"ID":          object.Array{object.String("a"), object.String("b")},
			"DecodeParms": object.Dict{"Columns": object.Integer(4)},
			"Type":        object.Name("XRef"),
		},
		Last:          12,
		Encrypted:     true,
		EncryptNumber: 9,
		Prev:          4321,
		ID:            [][]byte{{0x01, 0xAB}, {0xFF}},
	}
	buf := &bytes.Buffer{}
	err := b.WriteClassic(buf)
	if err != nil {
		t.Fatal(err)
	}
	want := "trailer\r\n<</Custom/X/Info 2 0 R/Root 1 0 R" +
		"/Encrypt 9 0 R/Size 13/Prev 4321/ID[<01ab><ff>]>>"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncryptFallback(t *testing.T) {
	b := &Builder{Root: 1, Last: 7, Encrypted: true}
	buf := &bytes.Buffer{}
	err := b.WriteClassic(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "/Encrypt 8 0 R/Size 8") {
		t.Errorf("wrong trailer %q", buf.String())
	}
}

func TestStream(t *testing.T) {
	offsets := xref.NewOffsetTable()
	offsets.Record(2, 0x0102)
	offsets.Record(5, 0x01020304)
	index, data, err := xref.PackStream(offsets, []uint32{2, 4, 5})
	if err != nil {
		t.Fatal(err)
	}

	b := &Builder{
		Inherited: object.Dict{"Root": object.NewReference(1), "Type": object.Name("XRef")},
		Last:      5,
		Prev:      99,
	}
	buf := &bytes.Buffer{}
	err = b.WriteStream(buf, index, data)
	if err != nil {
		t.Fatal(err)
	}

	want := "6 0 obj\r\n<</Type/XRef/Root 1 0 R/Size 7/Prev 99" +
		"/W [0 4 1]/Index[2 1 5 1]/Length 10>>stream\r\n" +
		"\x00\x00\x01\x02\x00\x01\x02\x03\x04\x00" +
		"\r\nendstream"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStreamLengthMismatch(t *testing.T) {
	b := &Builder{Root: 1, Last: 1}
	err := b.WriteStream(&bytes.Buffer{}, []uint32{1}, []byte{1, 2, 3})
	if err == nil {
		t.Error("inconsistent stream data accepted")
	}
}

func TestWriteEnd(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteEnd(buf, 1234)
	if err != nil {
		t.Fatal(err)
	}
	want := "\r\nstartxref\r\n1234\r\n%%EOF\r\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
