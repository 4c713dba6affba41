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

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"seehuhn.de/go/pdfcreator/object"
)

const scannerBufSize = 1024

// scanner reads PDF objects from an io.Reader.
type scanner struct {
	r         io.Reader
	buf       []byte
	used, pos int
	total     int64 // file position of buf[0]

	getInt func(object.Object) (object.Integer, error)
}

func newScanner(r io.Reader, start int64, getInt func(object.Object) (object.Integer, error)) *scanner {
	return &scanner{
		r:      r,
		buf:    make([]byte, scannerBufSize),
		total:  start,
		getInt: getInt,
	}
}

func (s *scanner) filePos() int64 {
	return s.total + int64(s.pos)
}

func (s *scanner) malformed(err error) error {
	return &MalformedFileError{Pos: s.filePos(), Err: err}
}

// ReadIndirectObject reads an object of the form "n g obj ... endobj".
// A missing "endobj" after a stream is tolerated.
func (s *scanner) ReadIndirectObject() (object.Object, object.Reference, error) {
	var ref object.Reference

	// Some files point the xref entries at the end of the previous line.
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, ref, err
	}

	number, err := s.ReadInteger()
	if err != nil {
		return nil, ref, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, ref, err
	}
	generation, err := s.ReadInteger()
	if err != nil {
		return nil, ref, err
	}
	if number < 0 || number > math.MaxUint32 || generation < 0 || generation > math.MaxUint16 {
		return nil, ref, s.malformed(errors.New("invalid object number"))
	}
	ref = object.Reference{Number: uint32(number), Generation: uint16(generation)}

	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, ref, err
	}
	err = s.SkipString("obj")
	if err != nil {
		return nil, ref, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, ref, err
	}

	obj, err := s.ReadObject()
	if err != nil {
		return nil, ref, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, ref, err
	}

	if a, ok := obj.(object.Integer); ok {
		// Check whether this is the start of a reference.
		buf, err := s.Peek(1)
		if err != nil {
			return nil, ref, err
		}
		if len(buf) > 0 && buf[0] >= '0' && buf[0] <= '9' {
			b, err := s.ReadInteger()
			if err != nil {
				return nil, ref, err
			}
			err = s.SkipWhiteSpace()
			if err != nil {
				return nil, ref, err
			}
			err = s.SkipString("R")
			if err != nil {
				return nil, ref, err
			}
			err = s.SkipWhiteSpace()
			if err != nil {
				return nil, ref, err
			}
			obj = object.Reference{Number: uint32(a), Generation: uint16(b)}
		}
	}

	buf, err := s.Peek(6)
	if err != nil {
		return nil, ref, err
	}
	if bytes.Equal(buf, []byte("endobj")) {
		s.pos += 6
	} else if _, isStream := obj.(*object.Stream); !isStream {
		return nil, ref, s.malformed(fmt.Errorf("expected \"endobj\" but found %q", buf))
	}

	return obj, ref, nil
}

// ReadObject reads a direct object.  References are only recognized inside
// arrays and dictionaries.
func (s *scanner) ReadObject() (object.Object, error) {
	buf, err := s.Peek(5) // len("false") == 5
	if err != nil {
		return nil, err
	}

	switch {
	case len(buf) == 0:
		return nil, s.malformed(io.ErrUnexpectedEOF)
	case bytes.HasPrefix(buf, []byte("null")):
		s.pos += 4
		return nil, nil
	case bytes.HasPrefix(buf, []byte("true")):
		s.pos += 4
		return object.Bool(true), nil
	case bytes.HasPrefix(buf, []byte("false")):
		s.pos += 5
		return object.Bool(false), nil
	case buf[0] == '/':
		return s.ReadName()
	case buf[0] >= '0' && buf[0] <= '9', buf[0] == '+', buf[0] == '-', buf[0] == '.':
		return s.ReadNumber()
	case bytes.HasPrefix(buf, []byte("<<")):
		dict, err := s.ReadDict()
		if err != nil {
			return nil, err
		}

		// check whether this is the start of a stream
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err = s.Peek(6) // len("stream") == 6
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(buf, []byte("stream")) {
			return dict, nil
		}
		return s.ReadStreamData(dict)
	case buf[0] == '(':
		s.pos++
		return s.ReadQuotedString()
	case buf[0] == '<':
		s.pos++
		return s.ReadHexString()
	case buf[0] == '[':
		s.pos++
		return s.ReadArray()
	}
	return nil, s.malformed(fmt.Errorf("unexpected %q", buf))
}

// ReadInteger reads an integer.
func (s *scanner) ReadInteger() (object.Integer, error) {
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return 0, err
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return 0, s.malformed(err)
	}
	return object.Integer(x), nil
}

// ReadNumber reads an integer or real number.
func (s *scanner) ReadNumber() (object.Object, error) {
	hasDot := false
	first := true
	var res []byte
	err := s.ScanBytes(func(c byte) bool {
		if !hasDot && c == '.' {
			hasDot = true
			res = append(res, c)
		} else if first && (c == '+' || c == '-') {
			res = append(res, c)
		} else if c >= '0' && c <= '9' {
			res = append(res, c)
		} else {
			return false
		}
		first = false
		return true
	})
	if err != nil {
		return nil, err
	}

	if hasDot {
		x, err := strconv.ParseFloat(string(res), 64)
		if err != nil {
			return nil, s.malformed(err)
		}
		return object.Real(x), nil
	}

	x, err := strconv.ParseInt(string(res), 10, 64)
	if err != nil {
		return nil, s.malformed(err)
	}
	return object.Integer(x), nil
}

// ReadQuotedString reads a ()-delimited string, starting after the opening
// bracket.
func (s *scanner) ReadQuotedString() (object.String, error) {
	var res []byte
	parenCount := 0
	escape := false
	ignoreLF := false
	octalDigits := 0
	octalVal := byte(0)
	err := s.ScanBytes(func(c byte) bool {
		if ignoreLF {
			ignoreLF = false
			if c == '\n' {
				return true
			}
		}
		if octalDigits > 0 {
			if c >= '0' && c <= '7' && octalDigits < 3 {
				octalVal = octalVal*8 + (c - '0')
				octalDigits++
				return true
			}
			res = append(res, octalVal)
			octalDigits = 0
		}
		if escape {
			escape = false
			switch c {
			case '\n':
				return true
			case '\r':
				ignoreLF = true
				return true
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			}
			if c >= '0' && c <= '7' {
				octalDigits = 1
				octalVal = c - '0'
				return true
			}
		} else if c == '\\' {
			escape = true
			return true
		} else if c == '(' {
			parenCount++
		} else if c == ')' {
			if parenCount == 0 {
				return false
			}
			parenCount--
		} else if c == '\r' {
			c = '\n'
			ignoreLF = true
		}
		res = append(res, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	if octalDigits > 0 {
		res = append(res, octalVal)
	}

	err = s.SkipString(")")
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []byte{}
	}
	return object.String(res), nil
}

// ReadHexString reads a <>-delimited string, starting after the opening
// angled bracket.
func (s *scanner) ReadHexString() (object.String, error) {
	res := []byte{}
	var hexVal byte
	first := true
	err := s.ScanBytes(func(c byte) bool {
		var d byte
		if c >= '0' && c <= '9' {
			d = c - '0'
		} else if c >= 'A' && c <= 'F' {
			d = c - 'A' + 10
		} else if c >= 'a' && c <= 'f' {
			d = c - 'a' + 10
		} else if c == '>' {
			return false
		} else {
			return true
		}
		if first {
			hexVal = d
		} else {
			res = append(res, 16*hexVal+d)
		}
		first = !first
		return true
	})
	if err != nil {
		return nil, err
	}
	if !first {
		res = append(res, 16*hexVal)
	}

	// If we reach the end of the file, the trailing ">" will be missing.
	s.SkipString(">")

	return object.String(res), nil
}

// ReadName reads a PDF name object.
func (s *scanner) ReadName() (object.Name, error) {
	err := s.SkipString("/")
	if err != nil {
		return "", err
	}

	hex := 0
	var hexByte byte
	var res []byte
	err = s.ScanBytes(func(c byte) bool {
		if hex > 0 {
			var val byte
			if c >= '0' && c <= '9' {
				val = c - '0'
			} else if c >= 'A' && c <= 'F' {
				val = c - 'A' + 10
			} else if c >= 'a' && c <= 'f' {
				val = c - 'a' + 10
			}
			hexByte = 16*hexByte + val
			hex--
			if hex == 0 {
				res = append(res, hexByte)
			}
		} else if c == '#' {
			hexByte = 0
			hex = 2
		} else if object.IsSpace(c) || object.IsDelimiter(c) {
			return false
		} else {
			res = append(res, c)
		}
		return true
	})
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", err
	}

	return object.Name(res), nil
}

// ReadArray reads an array, starting after the opening "[".
func (s *scanner) ReadArray() (object.Array, error) {
	array := object.Array{}
	integersSeen := 0
	for {
		err := s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}

		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 {
			return nil, s.malformed(io.ErrUnexpectedEOF)
		}
		if buf[0] == ']' {
			break
		}
		if integersSeen >= 2 && buf[0] == 'R' {
			s.pos++
			k := len(array)
			a := array[k-2].(object.Integer)
			b := array[k-1].(object.Integer)
			array = append(array[:k-2], object.Reference{Number: uint32(a), Generation: uint16(b)})
			integersSeen = 0
			continue
		}

		obj, err := s.ReadObject()
		if err != nil {
			return nil, err
		}

		if _, isInt := obj.(object.Integer); isInt {
			integersSeen++
		} else {
			integersSeen = 0
		}

		array = append(array, obj)
	}
	s.pos++ // we have already seen the closing "]"

	return array, nil
}

// ReadDict reads a PDF dictionary.
func (s *scanner) ReadDict() (object.Dict, error) {
	err := s.SkipString("<<")
	if err != nil {
		return nil, err
	}

	dict := object.Dict{}
	for {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 || buf[0] != '/' {
			break
		}

		key, err := s.ReadName()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}

		val, err := s.ReadObject()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}

		// If we found an integer, check whether this is a reference to an
		// indirect object.
		if a, isInt := val.(object.Integer); isInt {
			buf, err := s.Peek(1)
			if err != nil {
				return nil, err
			}
			if len(buf) == 0 {
				return nil, s.malformed(io.ErrUnexpectedEOF)
			}
			if buf[0] >= '0' && buf[0] <= '9' {
				b, err := s.ReadInteger()
				if err != nil {
					return nil, err
				}
				err = s.SkipWhiteSpace()
				if err != nil {
					return nil, err
				}
				err = s.SkipString("R")
				if err != nil {
					return nil, err
				}
				val = object.Reference{Number: uint32(a), Generation: uint16(b)}
			}
		}

		if val != nil {
			dict[key] = val
		}
	}
	err = s.SkipString(">>")
	if err != nil {
		return nil, err
	}

	return dict, nil
}

// ReadStreamData reads the data of a PDF stream, starting after the
// dictionary.
func (s *scanner) ReadStreamData(dict object.Dict) (*object.Stream, error) {
	length, err := s.getInt(dict["Length"])
	if err != nil {
		return nil, err
	} else if length < 0 {
		return nil, s.malformed(errors.New("stream with negative length"))
	}

	err = s.SkipString("stream")
	if err != nil {
		return nil, err
	}
	buf, err := s.Peek(2)
	if err != nil {
		return nil, err
	}
	if len(buf) >= 1 && buf[0] == '\n' {
		s.pos++
	} else if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
		s.pos += 2
	} else {
		return nil, s.malformed(errors.New("missing end of line after \"stream\""))
	}

	data, err := s.readBytes(int64(length))
	if err != nil {
		return nil, err
	}

	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	err = s.SkipString("endstream")
	if err != nil {
		return nil, err
	}

	return &object.Stream{Dict: dict, Data: data}, nil
}

func (s *scanner) readHeaderVersion() (object.Version, error) {
	buf, err := s.Peek(16)
	if err != nil {
		return 0, err
	}

	if !bytes.HasPrefix(buf, []byte("%PDF-")) || len(buf) < 8 {
		return 0, s.malformed(errors.New("PDF header not found"))
	}
	end := 5
	for end < len(buf) && !object.IsSpace(buf[end]) {
		end++
	}
	version, err := object.ParseVersion(string(buf[5:end]))
	if err != nil {
		return 0, &MalformedFileError{Pos: 5, Err: errVersion}
	}
	return version, nil
}

// readBytes reads exactly n bytes.
func (s *scanner) readBytes(n int64) ([]byte, error) {
	avail := int64(s.used - s.pos)
	if n <= avail {
		res := bytes.Clone(s.buf[s.pos : s.pos+int(n)])
		s.pos += int(n)
		return res, nil
	}

	res := make([]byte, avail, min(n, 1<<20))
	copy(res, s.buf[s.pos:s.used])
	s.total += int64(s.used)
	s.pos = 0
	s.used = 0

	rest := &bytes.Buffer{}
	m, err := rest.ReadFrom(io.LimitReader(s.r, n-avail))
	s.total += m
	if err != nil {
		return nil, err
	}
	res = append(res, rest.Bytes()...)
	if int64(len(res)) < n {
		return nil, s.malformed(io.ErrUnexpectedEOF)
	}
	return res, nil
}

// refill discards the read part of the buffer and reads as much new data as
// possible.  Once the end of file is reached, s.used will be smaller than the
// buffer size, but no error will be returned.
func (s *scanner) refill() error {
	s.total += int64(s.pos)
	copy(s.buf, s.buf[s.pos:s.used])
	s.used -= s.pos
	s.pos = 0

	n, err := io.ReadFull(s.r, s.buf[s.used:])
	s.used += n

	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return err
}

// Peek returns a view of the next n bytes of input.  At the end of the
// input, a shorter slice is returned without an error.
func (s *scanner) Peek(n int) ([]byte, error) {
	if n > scannerBufSize {
		panic("peek window too large")
	}

	var err error
	if s.pos+n > s.used {
		err = s.refill()
	}
	if s.pos+n > s.used {
		return s.buf[s.pos:s.used], err
	}
	return s.buf[s.pos : s.pos+n], nil
}

// ScanBytes consumes bytes as long as accept returns true.  If the input
// ends before any byte was accepted, io.ErrUnexpectedEOF is returned.
func (s *scanner) ScanBytes(accept func(c byte) bool) error {
	empty := true
	for {
		for s.pos < s.used {
			if !accept(s.buf[s.pos]) {
				return nil
			}
			s.pos++
			empty = false
		}
		err := s.refill()
		if err != nil {
			return err
		}
		if s.used == 0 {
			if empty {
				return io.ErrUnexpectedEOF
			}
			return nil
		}
	}
}

func (s *scanner) SkipWhiteSpace() error {
	isComment := false
	err := s.ScanBytes(func(c byte) bool {
		if isComment {
			if c == '\r' || c == '\n' {
				isComment = false
			}
		} else if c == '%' {
			isComment = true
		} else {
			return object.IsSpace(c)
		}
		return true
	})
	if err == io.ErrUnexpectedEOF {
		// end of input is not an error here
		err = nil
	}
	return err
}

func (s *scanner) SkipString(pat string) error {
	n := len(pat)
	buf, err := s.Peek(n)
	if err != nil {
		return err
	}
	if string(buf) != pat {
		return s.malformed(fmt.Errorf("expected %q but found %q", pat, buf))
	}
	s.pos += n
	return nil
}
