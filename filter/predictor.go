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
)

// pngReader undoes the PNG row predictors.  Every row starts with a byte
// giving the predictor used for this row.
type pngReader struct {
	r    io.Reader
	bpp  int
	prev []byte // previous row, without the tag byte
	cur  []byte // tag byte + current row
	pend []byte
}

func newPNGReader(r io.Reader, rowLen, bpp int) *pngReader {
	return &pngReader{
		r:    r,
		bpp:  bpp,
		prev: make([]byte, rowLen),
		cur:  make([]byte, 1+rowLen),
	}
}

func (r *pngReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}

		_, err := io.ReadFull(r.r, r.cur)
		if err == io.ErrUnexpectedEOF {
			// TODO(voss): some writers truncate the last row
			err = errors.New("incomplete PNG row")
		}
		if err != nil {
			return n, err
		}
		row := r.cur[1:]
		switch r.cur[0] {
		case 0: // None
		case 1: // Sub
			for i := r.bpp; i < len(row); i++ {
				row[i] += row[i-r.bpp]
			}
		case 2: // Up
			for i := range row {
				row[i] += r.prev[i]
			}
		case 3: // Average
			for i := range row {
				var left int
				if i >= r.bpp {
					left = int(row[i-r.bpp])
				}
				row[i] += byte((left + int(r.prev[i])) / 2)
			}
		case 4: // Paeth
			for i := range row {
				var a, c byte
				if i >= r.bpp {
					a = row[i-r.bpp]
					c = r.prev[i-r.bpp]
				}
				row[i] += paeth(a, r.prev[i], c)
			}
		default:
			return n, errors.New("malformed PNG predictor data")
		}
		copy(r.prev, row)
		r.pend = r.prev
	}
	return n, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa := abs(p - int(a))
	pb := abs(p - int(b))
	pc := abs(p - int(c))
	if pa <= pb && pa <= pc {
		return a
	} else if pb <= pc {
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
