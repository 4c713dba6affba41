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

// Package document implements the in-memory object graph which is written
// by the PDF creator.
//
// A [Document] is either empty, created by [New], or backed by an existing
// file through a [Parser], created by [Load].  Objects of a loaded document
// are read lazily, on first access.  The document remembers which objects
// were changed since they were loaded; these objects are written by
// incremental updates.
package document

import (
	"errors"
	"io"
	"iter"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
)

// Parser gives access to an existing PDF file.
type Parser interface {
	io.ReaderAt

	// Size returns the length of the file in bytes.
	Size() uint64

	// LastXRefOffset returns the position of the last cross-reference
	// section in the file, or 0 if the cross-reference information had to be
	// reconstructed.
	LastXRefOffset() uint64

	// IsXRefStream reports whether the last cross-reference section is a
	// cross-reference stream.
	IsXRefStream() bool

	// Offset returns the position of object n in the file.  The result is
	// 0 for free objects and for objects stored in object streams.
	Offset(n uint32) uint64

	// Trailer returns the trailer dictionary, combined over all
	// cross-reference sections.  Newer sections take precedence.
	Trailer() object.Dict

	// Password returns the password which was used to open the file, or
	// the empty string.
	Password() string

	IsValid(n uint32) bool
	IsFree(n uint32) bool
	LastObjectNumber() uint32

	// Object reads object n from the file.  Strings and streams are
	// returned decrypted.
	Object(n uint32) (object.Object, error)

	Version() object.Version

	// ID returns the two elements of the /ID array, or nil if the file has
	// no valid /ID entry.
	ID() [][]byte

	// Security returns information about the encryption of the file, or
	// nil if the file is not encrypted.
	Security() *Security
}

// Security describes the encryption of a document.
type Security struct {
	// Dict is the encryption dictionary.
	Dict object.Dict

	// Number is the object number of the encryption dictionary, or 0 if
	// the dictionary is stored directly in the trailer.
	Number uint32

	Handler *crypt.Handler
}

// Document is a PDF object graph.
//
// A Document must not be modified while it is written.
type Document struct {
	parser Parser

	objects  map[uint32]object.Object
	modified map[uint32]bool
	last     uint32

	root    uint32
	info    uint32
	hasInfo bool
}

// ErrReserved is returned by [Document.Set] for object number 0, which
// heads the list of free objects and cannot hold an object.
var ErrReserved = errors.New("object number 0 is reserved")

// ErrNoRoot is returned by [Load] if the trailer has no valid /Root entry.
var ErrNoRoot = errors.New("missing document catalog")

// New returns an empty document.
func New() *Document {
	return &Document{
		objects:  make(map[uint32]object.Object),
		modified: make(map[uint32]bool),
	}
}

// Load returns a document backed by the given parser.
func Load(p Parser) (*Document, error) {
	d := New()
	d.parser = p
	d.last = p.LastObjectNumber()

	trailer := p.Trailer()
	root, ok := trailer["Root"].(object.Reference)
	if !ok || root.Number == 0 {
		return nil, ErrNoRoot
	}
	d.root = root.Number
	if info, ok := trailer["Info"].(object.Reference); ok && info.Number != 0 {
		d.info = info.Number
		d.hasInfo = true
	}
	return d, nil
}

// Parser returns the parser the document was loaded from, or nil.
func (d *Document) Parser() Parser {
	return d.parser
}

// Security returns the encryption of the underlying file, or nil.
func (d *Document) Security() *Security {
	if d.parser == nil {
		return nil
	}
	return d.parser.Security()
}

// LastObjectNumber returns the highest object number in use.
func (d *Document) LastObjectNumber() uint32 {
	return d.last
}

// Add stores obj under a new object number and returns the number.
func (d *Document) Add(obj object.Object) uint32 {
	d.last++
	d.objects[d.last] = obj
	d.modified[d.last] = true
	return d.last
}

// Set replaces object n.  The object is marked as modified.
func (d *Document) Set(n uint32, obj object.Object) error {
	if n == 0 {
		return ErrReserved
	}
	d.objects[n] = obj
	d.modified[n] = true
	if n > d.last {
		d.last = n
	}
	return nil
}

// Get returns object n.  Objects from the underlying file are read on first
// access and kept in memory afterwards.
func (d *Document) Get(n uint32) (object.Object, bool) {
	if obj, ok := d.objects[n]; ok {
		return obj, true
	}
	obj, err := d.Lookup(n)
	if err != nil {
		logging.Logger().Warn("cannot load object",
			"number", n, "error", err)
		return nil, false
	}
	if obj == nil {
		return nil, false
	}
	d.objects[n] = obj
	return obj, true
}

// Lookup returns object n without keeping a copy in memory.
// The result is nil if the object does not exist.
func (d *Document) Lookup(n uint32) (object.Object, error) {
	if obj, ok := d.objects[n]; ok {
		return obj, nil
	}
	if d.parser == nil || n == 0 || !d.parser.IsValid(n) || d.parser.IsFree(n) {
		return nil, nil
	}
	return d.parser.Object(n)
}

// Loaded reports whether object n is currently held in memory.
func (d *Document) Loaded(n uint32) bool {
	_, ok := d.objects[n]
	return ok
}

// Delete discards the in-memory copy of object n, including any
// modifications.  Objects from the underlying file can be read again
// afterwards.
func (d *Document) Delete(n uint32) {
	delete(d.objects, n)
	delete(d.modified, n)
}

// IsModified reports whether object n was added or changed since the
// document was loaded.
func (d *Document) IsModified(n uint32) bool {
	return d.modified[n]
}

// IsValid reports whether n is within the range of object numbers of the
// document.
func (d *Document) IsValid(n uint32) bool {
	return n > 0 && n <= d.last
}

// IsFree reports whether object number n is unused.
func (d *Document) IsFree(n uint32) bool {
	if n == 0 {
		return true
	}
	if _, ok := d.objects[n]; ok {
		return false
	}
	return d.parser == nil || !d.parser.IsValid(n) || d.parser.IsFree(n)
}

// Objects iterates over the objects currently held in memory, in order of
// increasing object number.
func (d *Document) Objects() iter.Seq2[uint32, object.Object] {
	return func(yield func(uint32, object.Object) bool) {
		numbers := maps.Keys(d.objects)
		slices.Sort(numbers)
		for _, n := range numbers {
			obj, ok := d.objects[n]
			if !ok {
				continue
			}
			if !yield(n, obj) {
				return
			}
		}
	}
}

// Root returns the object number of the document catalog.
func (d *Document) Root() uint32 {
	return d.root
}

// SetRoot sets the object number of the document catalog.
func (d *Document) SetRoot(n uint32) {
	d.root = n
}

// Info returns the object number of the document information dictionary.
func (d *Document) Info() (uint32, bool) {
	return d.info, d.hasInfo
}

// SetInfo sets the object number of the document information dictionary.
// Use 0 to remove the information dictionary.
func (d *Document) SetInfo(n uint32) {
	d.info = n
	d.hasInfo = n != 0
}

// Version returns the PDF version of the underlying file, or 0 for new
// documents.
func (d *Document) Version() object.Version {
	if d.parser == nil {
		return 0
	}
	return d.parser.Version()
}
