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
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewObjectNumbersOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var s NewObjectNumbers
	seen := make(map[uint32]bool)
	for i := 0; i < 1000; i++ {
		n := uint32(rng.Intn(300))
		s.Insert(n)
		seen[n] = true
	}

	all := s.All()
	if len(all) != len(seen) {
		t.Fatalf("got %d elements, want %d", len(all), len(seen))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] >= all[i] {
			t.Fatalf("not strictly increasing at %d: %d, %d", i, all[i-1], all[i])
		}
	}
	for n := range seen {
		if !s.Contains(n) {
			t.Errorf("missing %d", n)
		}
	}
	if s.Contains(1000) {
		t.Error("unexpected element 1000")
	}
}

func TestRuns(t *testing.T) {
	cases := []struct {
		in   []uint32
		want []Run
	}{
		{nil, nil},
		{[]uint32{4}, []Run{{4, 1}}},
		{[]uint32{1, 2, 3, 5, 6, 9}, []Run{{1, 3}, {5, 2}, {9, 1}}},
		{[]uint32{7, 8, 9, 10}, []Run{{7, 4}}},
	}
	for _, c := range cases {
		got := Runs(c.in)
		if d := cmp.Diff(c.want, got); d != "" {
			t.Errorf("Runs(%v): %s", c.in, d)
		}
	}
}

func makeTable(nums ...uint32) *OffsetTable {
	t := NewOffsetTable()
	for _, n := range nums {
		t.Record(n, 1000*uint64(n))
	}
	return t
}

func TestClassicFullGrouping(t *testing.T) {
	tab := makeTable(1, 2, 3, 5, 6, 9)
	buf := &bytes.Buffer{}
	err := WriteClassicFull(buf, tab, 9)
	if err != nil {
		t.Fatal(err)
	}

	want := "xref\r\n" +
		"0 4\r\n" +
		"0000000000 65535 f\r\n" +
		"0000001000 00000 n\r\n" +
		"0000002000 00000 n\r\n" +
		"0000003000 00000 n\r\n" +
		"5 2\r\n" +
		"0000005000 00000 n\r\n" +
		"0000006000 00000 n\r\n" +
		"9 1\r\n" +
		"0000009000 00000 n\r\n"
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Error(d)
	}
}

func TestClassicFullWithoutFirst(t *testing.T) {
	tab := makeTable(2, 3)
	buf := &bytes.Buffer{}
	err := WriteClassicFull(buf, tab, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := "xref\r\n0 1\r\n0000000000 65535 f\r\n" +
		"2 2\r\n0000002000 00000 n\r\n0000003000 00000 n\r\n"
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Error(d)
	}
}

func TestClassicFullEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteClassicFull(buf, NewOffsetTable(), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := "xref\r\n0 1\r\n0000000000 65535 f\r\n"
	if buf.String() != want {
		t.Errorf("got %q", buf.String())
	}
}

func TestClassicFullIgnoresBeyondLast(t *testing.T) {
	tab := makeTable(1, 2, 7)
	buf := &bytes.Buffer{}
	err := WriteClassicFull(buf, tab, 2)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "7 1") {
		t.Errorf("object beyond last was listed:\n%s", buf.String())
	}
}

func TestEntryWidth(t *testing.T) {
	tab := NewOffsetTable()
	tab.Record(1, 0)
	tab.Record(2, 17)
	tab.Record(3, MaxClassicOffset)
	buf := &bytes.Buffer{}
	err := WriteClassicFull(buf, tab, 3)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.SplitAfter(buf.String(), "\r\n")
	entries := 0
	for _, line := range lines {
		if strings.HasSuffix(line, " n\r\n") || strings.HasSuffix(line, " f\r\n") {
			entries++
			if len(line) != 20 {
				t.Errorf("entry %q has length %d", line, len(line))
			}
		}
	}
	if entries != 4 {
		t.Errorf("found %d entries, want 4", entries)
	}

	tab.Record(4, MaxClassicOffset+1)
	err = WriteClassicFull(&bytes.Buffer{}, tab, 4)
	if !errors.Is(err, ErrOffsetTooLarge) {
		t.Errorf("expected ErrOffsetTooLarge, got %v", err)
	}
}

func TestClassicIncremental(t *testing.T) {
	tab := makeTable(1, 2, 4, 5, 6, 12)
	var nums NewObjectNumbers
	for _, n := range []uint32{12, 5, 2, 6, 13} {
		nums.Insert(n)
	}

	buf := &bytes.Buffer{}
	err := WriteClassicIncremental(buf, tab, nums.All())
	if err != nil {
		t.Fatal(err)
	}

	// 13 has no offset and must be skipped
	want := "xref\r\n" +
		"2 1\r\n0000002000 00000 n\r\n" +
		"5 2\r\n0000005000 00000 n\r\n0000006000 00000 n\r\n" +
		"12 1\r\n0000012000 00000 n\r\n"
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Error(d)
	}
}

func TestClassicIncrementalFirstObject(t *testing.T) {
	tab := makeTable(1, 2)
	buf := &bytes.Buffer{}
	err := WriteClassicIncremental(buf, tab, []uint32{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	want := "xref\r\n0 3\r\n0000000000 65535 f\r\n" +
		"0000001000 00000 n\r\n0000002000 00000 n\r\n"
	if d := cmp.Diff(want, buf.String()); d != "" {
		t.Error(d)
	}
}

func TestPackStream(t *testing.T) {
	tab := NewOffsetTable()
	tab.Record(3, 0x01020304)
	tab.Record(8, 0xA0)

	index, data, err := PackStream(tab, []uint32{3, 5, 8})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]uint32{3, 8}, index); d != "" {
		t.Error(d)
	}
	want := []byte{1, 2, 3, 4, 0, 0, 0, 0, 0xA0, 0}
	if d := cmp.Diff(want, data); d != "" {
		t.Error(d)
	}
	if len(data) != StreamEntrySize*len(index) {
		t.Errorf("wrong data length %d", len(data))
	}

	tab.Record(9, 1<<32)
	_, _, err = PackStream(tab, []uint32{9})
	if !errors.Is(err, ErrOffsetTooLarge) {
		t.Errorf("expected ErrOffsetTooLarge, got %v", err)
	}
}

func TestOffsetTable(t *testing.T) {
	tab := makeTable(5, 1, 3)
	if d := cmp.Diff([]uint32{1, 3, 5}, tab.Numbers()); d != "" {
		t.Error(d)
	}
	tab.Remove(3)
	if tab.Has(3) || tab.Len() != 2 {
		t.Error("Remove failed")
	}
	if off, ok := tab.Lookup(5); !ok || off != 5000 {
		t.Errorf("Lookup(5) = %d, %t", off, ok)
	}
}
