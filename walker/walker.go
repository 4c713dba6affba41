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

// Package walker iterates over the indirect objects of a PDF document.
package walker

import (
	"iter"

	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
)

// Getter gives access to the indirect objects of a document.
// Lookup returns nil, without an error, for objects which do not exist.
type Getter interface {
	Lookup(n uint32) (object.Object, error)
}

// A Walker iterates over all objects reachable from a list of roots.
//
// Each indirect object is visited at most once.  The roots are typically
// the values of the trailer dictionary.
type Walker struct {
	Getter
	Roots []object.Object

	// OnError, if set, is called for indirect objects which cannot be
	// read.  The object is then visited as nil and the traversal continues.
	OnError func(ref object.Reference, err error)

	// Err holds the first error encountered during traversal.  Unless
	// OnError is set, the traversal stops immediately when an error is
	// encountered.
	Err error
}

// New creates a new Walker for the given roots.
func New(g Getter, roots ...object.Object) *Walker {
	return &Walker{Getter: g, Roots: roots}
}

// PreOrder returns an iterator over all objects, visiting containers before
// their contents.  For indirect objects the reference is yielded together
// with the object, for direct objects the reference is the zero value.
//
// The iterator cannot be used concurrently.
func (w *Walker) PreOrder() iter.Seq2[object.Reference, object.Object] {
	return func(yield func(object.Reference, object.Object) bool) {
		w.walk(yield, true)
	}
}

// PostOrder is like PreOrder, but visits the contents of containers before
// the containers themselves.
func (w *Walker) PostOrder() iter.Seq2[object.Reference, object.Object] {
	return func(yield func(object.Reference, object.Object) bool) {
		w.walk(yield, false)
	}
}

// IndirectObjects iterates over the reachable indirect objects.
func (w *Walker) IndirectObjects() iter.Seq2[object.Reference, object.Object] {
	return func(yield func(object.Reference, object.Object) bool) {
		for ref, obj := range w.PreOrder() {
			if ref.Number == 0 || obj == nil {
				continue
			}
			if !yield(ref, obj) {
				return
			}
		}
	}
}

func (w *Walker) walk(yield func(object.Reference, object.Object) bool, preOrder bool) {
	w.Err = nil
	visited := make(map[uint32]bool)
	for _, root := range w.Roots {
		if !w.walkObject(root, yield, preOrder, visited) {
			return
		}
	}
}

func (w *Walker) walkObject(obj object.Object, yield func(object.Reference, object.Object) bool, preOrder bool, visited map[uint32]bool) bool {
	if obj == nil {
		return true
	}

	var ref object.Reference
	if r, isReference := obj.(object.Reference); isReference {
		if visited[r.Number] || r.Number == 0 {
			return true
		}
		visited[r.Number] = true

		resolved, err := w.Lookup(r.Number)
		if err != nil {
			if w.Err == nil {
				w.Err = err
			}
			if w.OnError == nil {
				return false
			}
			w.OnError(r, err)
			resolved = nil
		}
		ref = r
		obj = resolved
	}

	if preOrder && !yield(ref, obj) {
		return false
	}

	switch v := obj.(type) {
	case object.Array:
		for _, item := range v {
			if !w.walkObject(item, yield, preOrder, visited) {
				return false
			}
		}
	case object.Dict:
		for _, key := range v.SortedKeys() {
			if !w.walkObject(v[key], yield, preOrder, visited) {
				return false
			}
		}
	case *object.Stream:
		if !w.walkObject(v.Dict, yield, preOrder, visited) {
			return false
		}
	}

	if !preOrder && !yield(ref, obj) {
		return false
	}
	return true
}

// Reachable returns the set of object numbers which are referenced, directly
// or indirectly, from the roots.  Unlike the iterators, Reachable does not
// stop on errors: objects which cannot be read are included in the result,
// but their contents are not followed.
func Reachable(g Getter, roots ...object.Object) map[uint32]bool {
	w := New(g, roots...)
	w.OnError = func(ref object.Reference, err error) {
		logging.Logger().Warn("unreadable object", "number", ref.Number, "error", err)
	}

	seen := make(map[uint32]bool)
	for ref := range w.PreOrder() {
		if ref.Number != 0 {
			seen[ref.Number] = true
		}
	}
	return seen
}
