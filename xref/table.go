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
	"errors"
	"fmt"
	"io"
)

// MaxClassicOffset is the largest offset which fits into the ten digits of a
// classic xref table entry.
const MaxClassicOffset = 9_999_999_999

// ErrOffsetTooLarge is returned if an object offset cannot be represented in
// the chosen cross-reference format.
var ErrOffsetTooLarge = errors.New("object offset too large for cross-reference section")

// freeHead is the entry for object 0, the head of the list of free objects.
const freeHead = "0000000000 65535 f\r\n"

// Run is a range of consecutive object numbers.
type Run struct {
	Start uint32
	Count uint32
}

// Runs splits an increasing sequence of object numbers into maximal runs of
// consecutive numbers.
func Runs(nums []uint32) []Run {
	var res []Run
	for i := 0; i < len(nums); {
		j := i + 1
		for j < len(nums) && nums[j] == nums[j-1]+1 {
			j++
		}
		res = append(res, Run{Start: nums[i], Count: uint32(j - i)})
		i = j
	}
	return res
}

// WriteClassicFull writes a complete classic xref table, starting with the
// "xref" keyword, for all objects in the range 1, ..., last which have an
// offset recorded in t.
func WriteClassicFull(w io.Writer, t *OffsetTable, last uint32) error {
	header := "xref\r\n"
	if !t.Has(1) {
		header += "0 1\r\n" + freeHead
	}
	_, err := io.WriteString(w, header)
	if err != nil {
		return err
	}

	var nums []uint32
	for _, n := range t.Numbers() {
		if n >= 1 && n <= last {
			nums = append(nums, n)
		}
	}
	return writeRuns(w, t, nums)
}

// WriteClassicIncremental writes a classic xref table for the objects in
// nums, which must be increasing.  Numbers without an offset in t are
// skipped.
func WriteClassicIncremental(w io.Writer, t *OffsetTable, nums []uint32) error {
	_, err := io.WriteString(w, "xref\r\n")
	if err != nil {
		return err
	}
	return writeRuns(w, t, Present(t, nums))
}

// Present returns the elements of nums which have an offset recorded in t.
func Present(t *OffsetTable, nums []uint32) []uint32 {
	res := make([]uint32, 0, len(nums))
	for _, n := range nums {
		if t.Has(n) {
			res = append(res, n)
		}
	}
	return res
}

func writeRuns(w io.Writer, t *OffsetTable, nums []uint32) error {
	for _, run := range Runs(nums) {
		var err error
		if run.Start == 1 {
			// merge the entry for object 0 into the first subsection
			_, err = fmt.Fprintf(w, "0 %d\r\n"+freeHead, run.Count+1)
		} else {
			_, err = fmt.Fprintf(w, "%d %d\r\n", run.Start, run.Count)
		}
		if err != nil {
			return err
		}

		for n := run.Start; n-run.Start < run.Count; n++ {
			offset, _ := t.Lookup(n)
			err = writeEntry(w, offset)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// writeEntry writes a 20-byte entry for an object in use.
func writeEntry(w io.Writer, offset uint64) error {
	if offset > MaxClassicOffset {
		return ErrOffsetTooLarge
	}
	_, err := fmt.Fprintf(w, "%010d 00000 n\r\n", offset)
	return err
}
