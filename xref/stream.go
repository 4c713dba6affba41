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

package xref

import (
	"math"
)

// StreamEntrySize is the number of bytes used for every object in a packed
// xref stream.  This corresponds to /W [0 4 1]: the type field is omitted
// (and thus defaults to 1), followed by a 4-byte offset and a 1-byte
// generation number.
const StreamEntrySize = 5

// StreamWidths is the /W array matching the entries produced by
// [PackStream].
var StreamWidths = [3]int{0, 4, 1}

// PackStream returns the packed xref stream data for the objects in nums,
// which must be increasing.  Numbers without an offset in t are skipped.  The
// returned index lists the object numbers which are described by the data, in
// order; each of them forms its own subsection of length 1 in the /Index
// array.
func PackStream(t *OffsetTable, nums []uint32) (index []uint32, data []byte, err error) {
	index = Present(t, nums)
	data = make([]byte, 0, StreamEntrySize*len(index))
	for _, n := range index {
		offset, _ := t.Lookup(n)
		if offset > math.MaxUint32 {
			return nil, nil, ErrOffsetTooLarge
		}
		data = append(data,
			byte(offset>>24), byte(offset>>16), byte(offset>>8), byte(offset),
			0)
	}
	return index, data, nil
}
