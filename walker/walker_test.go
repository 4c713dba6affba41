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

package walker

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfcreator/object"
)

type mockGetter map[uint32]object.Object

var errMock = errors.New("mock error")

const brokenObject = 99

func (m mockGetter) Lookup(n uint32) (object.Object, error) {
	if n == brokenObject {
		return nil, errMock
	}
	return m[n], nil
}

func newMockDoc() mockGetter {
	ref := object.NewReference
	return mockGetter{
		1: object.Name("unused object"),
		2: object.Dict{
			"Type": object.Name("Pages"),
			"Kids": object.Array{ref(3), ref(4)},
		},
		3: object.Dict{
			"Type":     object.Name("Page"),
			"Parent":   ref(2),
			"Contents": ref(5),
		},
		4: object.Dict{
			"Type":     object.Name("Page"),
			"Parent":   ref(2),
			"Contents": ref(6),
		},
		5: &object.Stream{Data: []byte("page 1")},
		6: &object.Stream{Dict: object.Dict{"Extra": ref(8)}, Data: []byte("page 2")},
		7: object.Dict{"Type": object.Name("Catalog"), "Pages": ref(2)},
		8: object.Integer(42),
		9: object.String("Info"),
	}
}

func TestIndirectObjects(t *testing.T) {
	doc := newMockDoc()
	w := New(doc, object.NewReference(7), object.NewReference(9))

	var got []uint32
	for ref := range w.IndirectObjects() {
		got = append(got, ref.Number)
	}
	if w.Err != nil {
		t.Fatal(w.Err)
	}
	want := []uint32{7, 2, 3, 5, 4, 6, 8, 9}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestPostOrder(t *testing.T) {
	doc := newMockDoc()
	w := New(doc, object.NewReference(3))

	var got []uint32
	for ref := range w.PostOrder() {
		if ref.Number != 0 {
			got = append(got, ref.Number)
		}
	}
	// pages 4 and 6 are reached via the parent
	want := []uint32{5, 8, 6, 4, 2, 3}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestWalkerError(t *testing.T) {
	doc := newMockDoc()
	doc[6] = &object.Stream{Dict: object.Dict{"Extra": object.NewReference(brokenObject)}}
	w := New(doc, object.NewReference(7))
	count := 0
	for range w.IndirectObjects() {
		count++
	}
	if !errors.Is(w.Err, errMock) {
		t.Errorf("expected errMock, got %v", w.Err)
	}
	if count == 0 || count >= 7 {
		t.Errorf("unexpected number of objects %d", count)
	}
}

func TestWalkerOnError(t *testing.T) {
	doc := newMockDoc()
	doc[6] = &object.Stream{Dict: object.Dict{"Extra": object.NewReference(brokenObject)}}
	w := New(doc, object.NewReference(7))
	var failed []uint32
	w.OnError = func(ref object.Reference, err error) {
		if !errors.Is(err, errMock) {
			t.Errorf("unexpected error %v", err)
		}
		failed = append(failed, ref.Number)
	}

	var got []uint32
	for ref, obj := range w.PreOrder() {
		if ref.Number == brokenObject && obj != nil {
			t.Error("unreadable object visited as non-nil")
		}
		if ref.Number != 0 {
			got = append(got, ref.Number)
		}
	}
	want := []uint32{7, 2, 3, 5, 4, 6, brokenObject}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
	if d := cmp.Diff([]uint32{brokenObject}, failed); d != "" {
		t.Error(d)
	}
	if !errors.Is(w.Err, errMock) {
		t.Errorf("Err = %v", w.Err)
	}
}

func TestEarlyBreak(t *testing.T) {
	w := New(newMockDoc(), object.NewReference(7))
	count := 0
	for range w.PreOrder() {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("got %d objects", count)
	}
}

func TestReachable(t *testing.T) {
	doc := newMockDoc()
	doc[8] = object.Array{object.NewReference(brokenObject), object.NewReference(20)}

	got := Reachable(doc, object.Dict{"Root": object.NewReference(7)}, object.Integer(3))
	want := map[uint32]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true, 20: true, brokenObject: true}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}
