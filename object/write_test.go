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

package object

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		in   Object
		want string
	}{
		{nil, "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Integer(-17), "-17"},
		{Real(1.5), "1.5"},
		{Real(2), "2."},
		{String("hello"), "(hello)"},
		{String("a(b)c"), "(a(b)c)"},
		{String("a)bcdef(g"), `(a\)bcdef\(g)`},
		{String("a)b(c"), "<6129622863>"},
		{String("back\\slash"), `(back\\slash)`},
		{String("line\r\n"), `(line\r` + "\n)"},
		{String{0, 1, 2, 3}, "<00010203>"},
		{Name("Type"), "/Type"},
		{Name("A B#"), "/A#20B#23"},
		{Name(""), "/"},
		{Array{Integer(1), nil, Name("x")}, "[1 null /x]"},
		{Array{}, "[]"},
		{Dict{"B": Integer(2), "A": Integer(1), "C": nil}, "<<\n/A 1\n/B 2\n>>"},
		{Dict(nil), "null"},
		{Reference{Number: 12}, "12 0 R"},
		{Reference{Number: 3, Generation: 2}, "3 2 R"},
		{
			&Stream{Dict: Dict{"Length": Integer(99)}, Data: []byte("abc")},
			"<<\n/Length 3\n>>\nstream\nabc\nendstream",
		},
	}
	for _, c := range cases {
		got := Format(c.in)
		if got != c.want {
			t.Errorf("Format(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestWriteNonFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := Write(&bytes.Buffer{}, Real(x), nil)
		if err == nil {
			t.Errorf("Write(%g) succeeded", x)
		}
	}
}

// xorEncryptor is a toy encryptor which marks the data it has seen.
type xorEncryptor struct {
	strings, streams int
}

func (e *xorEncryptor) EncryptString(data []byte) ([]byte, error) {
	e.strings++
	for i := range data {
		data[i] ^= 0xFF
	}
	return data, nil
}

func (e *xorEncryptor) EncryptStream(data []byte) ([]byte, error) {
	e.streams++
	return append(data, "!!"...), nil
}

func TestWriteEncrypted(t *testing.T) {
	orig := String("ab")
	stm := &Stream{Dict: Dict{"S": orig}, Data: []byte("xyz")}
	obj := Array{orig, Dict{"K": orig}, stm, Name("ab")}

	enc := &xorEncryptor{}
	buf := &bytes.Buffer{}
	err := Write(buf, obj, enc)
	if err != nil {
		t.Fatal(err)
	}

	want := "[<9e9d> <<\n/K <9e9d>\n>> <<\n/S <9e9d>\n/Length 5\n>>\nstream\nxyz!!\nendstream /ab]"
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Error(d)
	}
	if enc.strings != 3 || enc.streams != 1 {
		t.Errorf("wrong call counts: %d strings, %d streams", enc.strings, enc.streams)
	}

	// the original objects must not be modified
	if string(orig) != "ab" || string(stm.Data) != "xyz" {
		t.Error("input objects were modified")
	}
}

func TestParseVersion(t *testing.T) {
	for v := V1_0; v <= V1_7; v++ {
		w, err := ParseVersion(v.String())
		if err != nil {
			t.Fatal(err)
		}
		if w != v {
			t.Errorf("%s: got %d", v, w)
		}
	}
	for _, s := range []string{"", "1.8", "2.0", "1,7", "17"} {
		if _, err := ParseVersion(s); err == nil {
			t.Errorf("ParseVersion(%q) succeeded", s)
		}
	}
}
