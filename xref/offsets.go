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

// Package xref implements the bookkeeping for cross-reference sections:
// the table of object offsets in the output file, the ordered set of object
// numbers written in an incremental update, and the emitters for classic
// xref tables and packed xref stream data.
package xref

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// OffsetTable maps object numbers to the byte offset in the output file
// where the corresponding indirect object starts.
//
// The zero value is not usable; use [NewOffsetTable].
type OffsetTable struct {
	m map[uint32]uint64
}

// NewOffsetTable returns an empty offset table.
func NewOffsetTable() *OffsetTable {
	return &OffsetTable{m: make(map[uint32]uint64)}
}

// Record sets the offset for object number n.
func (t *OffsetTable) Record(n uint32, offset uint64) {
	t.m[n] = offset
}

// Remove deletes the entry for object number n, if any.
func (t *OffsetTable) Remove(n uint32) {
	delete(t.m, n)
}

// Lookup returns the offset recorded for object number n.
func (t *OffsetTable) Lookup(n uint32) (uint64, bool) {
	offset, ok := t.m[n]
	return offset, ok
}

// Has reports whether an offset is recorded for object number n.
func (t *OffsetTable) Has(n uint32) bool {
	_, ok := t.m[n]
	return ok
}

// Len returns the number of entries in the table.
func (t *OffsetTable) Len() int {
	return len(t.m)
}

// Numbers returns the object numbers present in the table, in increasing
// order.
func (t *OffsetTable) Numbers() []uint32 {
	nums := maps.Keys(t.m)
	slices.Sort(nums)
	return nums
}

// NewObjectNumbers is a strictly increasing sequence of object numbers.
// During an incremental update, this holds the numbers of all objects which
// are written after the end of the original file.
type NewObjectNumbers struct {
	nums []uint32
}

// Insert adds n at its sorted position.  Duplicates are ignored.
func (s *NewObjectNumbers) Insert(n uint32) {
	idx, found := slices.BinarySearch(s.nums, n)
	if found {
		return
	}
	s.nums = slices.Insert(s.nums, idx, n)
}

// Contains reports whether n is in the set.
func (s *NewObjectNumbers) Contains(n uint32) bool {
	_, found := slices.BinarySearch(s.nums, n)
	return found
}

// Len returns the number of elements in the set.
func (s *NewObjectNumbers) Len() int {
	return len(s.nums)
}

// All returns the elements of the set in increasing order.  The returned
// slice must not be modified.
func (s *NewObjectNumbers) All() []uint32 {
	return s.nums
}
