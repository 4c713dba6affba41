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
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// An Encryptor transforms the strings and stream contents of a single
// indirect object.  The key used depends on the object number, so a new
// Encryptor is needed for every object.
type Encryptor interface {
	EncryptString(data []byte) ([]byte, error)
	EncryptStream(data []byte) ([]byte, error)
}

// Write writes the PDF representation of obj to w.  If enc is not nil, all
// strings and stream contents are encrypted using enc.
func Write(w io.Writer, obj Object, enc Encryptor) error {
	s := &serializer{w: w, enc: enc}
	s.object(obj)
	return s.err
}

// Format returns the PDF representation of obj, without encryption.
func Format(obj Object) string {
	buf := &bytes.Buffer{}
	err := Write(buf, obj, nil)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return buf.String()
}

type serializer struct {
	w   io.Writer
	enc Encryptor
	err error
}

func (s *serializer) put(data string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, data)
}

func (s *serializer) putBytes(data []byte) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.Write(data)
}

func (s *serializer) object(obj Object) {
	if s.err != nil {
		return
	}

	switch x := obj.(type) {
	case nil:
		s.put("null")
	case Bool:
		if x {
			s.put("true")
		} else {
			s.put("false")
		}
	case Integer:
		s.put(strconv.FormatInt(int64(x), 10))
	case Real:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			s.err = fmt.Errorf("cannot represent %g in a PDF file", f)
			return
		}
		r := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(r, ".") {
			r += "."
		}
		s.put(r)
	case String:
		data := []byte(x)
		if s.enc != nil {
			enc, err := s.enc.EncryptString(bytes.Clone(data))
			if err != nil {
				s.err = err
				return
			}
			data = enc
		}
		s.putBytes(quoteString(data))
	case Name:
		s.put(quoteName(x))
	case Array:
		s.put("[")
		for i, elem := range x {
			if i > 0 {
				s.put(" ")
			}
			s.object(elem)
		}
		s.put("]")
	case Dict:
		s.dict(x, -1)
	case *Stream:
		if x == nil {
			s.put("null")
			return
		}
		data := x.Data
		if s.enc != nil {
			enc, err := s.enc.EncryptStream(bytes.Clone(data))
			if err != nil {
				s.err = err
				return
			}
			data = enc
		}
		s.dict(x.Dict, len(data))
		s.put("\nstream\n")
		s.putBytes(data)
		s.put("\nendstream")
	case Reference:
		s.put(strconv.FormatUint(uint64(x.Number), 10))
		s.put(" ")
		s.put(strconv.FormatUint(uint64(x.Generation), 10))
		s.put(" R")
	default:
		s.err = fmt.Errorf("unsupported object type %T", obj)
	}
}

// dict writes a dictionary.  If length is non-negative, the /Length entry is
// replaced by this value.
func (s *serializer) dict(x Dict, length int) {
	if x == nil && length < 0 {
		s.put("null")
		return
	}

	s.put("<<")
	for _, key := range x.SortedKeys() {
		val := x[key]
		if val == nil || length >= 0 && key == "Length" {
			continue
		}
		s.put("\n")
		s.put(quoteName(key))
		s.put(" ")
		s.object(val)
	}
	if length >= 0 {
		s.put("\n/Length ")
		s.put(strconv.Itoa(length))
	}
	s.put("\n>>")
}

// quoteString returns the PDF representation of a string, using either the
// literal or the hexadecimal form, whichever is more compact.
func quoteString(l []byte) []byte {
	level := 0
	for _, c := range l {
		if c == '(' {
			level++
		} else if c == ')' {
			level--
			if level < 0 {
				break
			}
		}
	}
	balanced := level == 0

	var funny []int
	for i, c := range l {
		if c == '\n' || c == '\t' {
			continue
		}
		if c < 32 || c >= 127 || c == '\\' ||
			!balanced && (c == '(' || c == ')') {
			funny = append(funny, i)
		}
	}
	n := len(l)

	buf := &bytes.Buffer{}
	if 3*len(funny) > n {
		fmt.Fprintf(buf, "<%x>", l)
		return buf.Bytes()
	}

	buf.WriteString("(")
	pos := 0
	for _, i := range funny {
		buf.Write(l[pos:i])
		switch c := l[i]; c {
		case '\r':
			buf.WriteString(`\r`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\\':
			buf.WriteString(`\\`)
		default:
			fmt.Fprintf(buf, `\%03o`, c)
		}
		pos = i + 1
	}
	buf.Write(l[pos:])
	buf.WriteString(")")
	return buf.Bytes()
}

func quoteName(x Name) string {
	b := &strings.Builder{}
	b.WriteByte('/')
	for i := 0; i < len(x); i++ {
		c := x[i]
		if IsSpace(c) || IsDelimiter(c) || c < 0x21 || c > 0x7e || c == '#' {
			fmt.Fprintf(b, "#%02x", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsSpace reports whether c is a PDF white-space character.
func IsSpace(c byte) bool {
	switch c {
	case 0, 9, 10, 12, 13, 32:
		return true
	}
	return false
}

// IsDelimiter reports whether c is a PDF delimiter character.
func IsDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}
