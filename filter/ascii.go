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

package filter

import (
	"errors"
	"io"

	"seehuhn.de/go/pdfcreator/object"
)

// ascii85Reader decodes ASCII85Decode data.
type ascii85Reader struct {
	r        io.Reader
	err      error // returned once all decoded data is consumed
	buf      [512]byte
	pos, n   int
	out      [4]byte
	leftover []byte
	v        uint32
	k        int
	isEnd    bool
}

func (r *ascii85Reader) Read(p []byte) (int, error) {
	n := 0
	if len(r.leftover) > 0 {
		n = copy(p, r.leftover)
		r.leftover = r.leftover[n:]
	}

	for n < len(p) && r.err == nil {
		if r.pos == r.n {
			var err error
			r.n, err = r.r.Read(r.buf[:])
			r.pos = 0
			if r.n == 0 {
				if err == nil || err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				r.err = err
				break
			}
		}
		c := r.buf[r.pos]
		r.pos++

		// "~" can only be the first part of the end marker "~>"
		if r.isEnd {
			if c == '>' {
				r.err = io.EOF
			} else {
				r.err = errors.New("invalid end marker in ASCII85 stream")
			}
			break
		}

		switch {
		case object.IsSpace(c):
			continue
		case c >= '!' && c < '!'+85:
			r.v = r.v*85 + uint32(c-'!')
			r.k++
		case c == 'z' && r.k == 0:
			r.k = 5
		case c == '~':
			if r.k == 1 {
				r.err = errors.New("unexpected end marker in ASCII85 stream")
				break
			}
			if r.k > 1 {
				for i := r.k; i < 5; i++ {
					r.v = r.v*85 + 84
				}
				n += r.emit(p[n:], r.k-1)
			}
			r.isEnd = true
			continue
		default:
			r.err = errors.New("invalid character in ASCII85 stream")
		}

		if r.k == 5 {
			n += r.emit(p[n:], 4)
		}
	}

	if n == 0 && len(r.leftover) == 0 && r.err != nil {
		return 0, r.err
	}
	return n, nil
}

// emit copies the first m bytes of the current group to p.  Bytes which do
// not fit are kept for the next call to Read.
func (r *ascii85Reader) emit(p []byte, m int) int {
	r.out[0] = byte(r.v >> 24)
	r.out[1] = byte(r.v >> 16)
	r.out[2] = byte(r.v >> 8)
	r.out[3] = byte(r.v)
	r.v = 0
	r.k = 0

	l := copy(p, r.out[:m])
	if l < m {
		r.leftover = r.out[l:m]
	}
	return l
}

// hexReader decodes ASCIIHexDecode data.
type hexReader struct {
	r     io.Reader
	buf   [512]byte
	pos   int
	n     int
	hi    byte
	half  bool
	isEnd bool
}

func (r *hexReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.isEnd {
			if n == 0 {
				return 0, io.EOF
			}
			break
		}
		if r.pos == r.n {
			var err error
			r.n, err = r.r.Read(r.buf[:])
			r.pos = 0
			if r.n == 0 {
				if err == nil {
					continue
				}
				if err != io.EOF {
					return n, err
				}
				// a missing ">" is tolerated
				r.buf[0] = '>'
				r.n = 1
			}
		}
		c := r.buf[r.pos]
		r.pos++

		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c == '>':
			r.isEnd = true
			if r.half {
				p[n] = r.hi << 4
				n++
				r.half = false
			}
			continue
		case object.IsSpace(c):
			continue
		default:
			return n, errors.New("invalid character in ASCIIHex stream")
		}
		if r.half {
			p[n] = r.hi<<4 | d
			n++
		} else {
			r.hi = d
		}
		r.half = !r.half
	}
	return n, nil
}
