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

package document

import (
	"bytes"
	"compress/zlib"
	"errors"

	"seehuhn.de/go/pdfcreator/object"
)

// Common paper sizes, in PDF units.
var (
	A4     = object.Array{object.Integer(0), object.Integer(0), object.Real(595.276), object.Real(841.89)}
	Letter = object.Array{object.Integer(0), object.Integer(0), object.Integer(612), object.Integer(792)}
)

// AddPage appends a page with the given media box and content stream to the
// document.  If the document has no catalog yet, a catalog and a page tree
// root are created.  The content stream is compressed with FlateDecode.
//
// AddPage returns the object number of the new page.
func (d *Document) AddPage(mediaBox object.Array, contents []byte) (uint32, error) {
	pagesNum, pages, err := d.pageTree()
	if err != nil {
		return 0, err
	}

	buf := &bytes.Buffer{}
	zw := zlib.NewWriter(buf)
	_, err = zw.Write(contents)
	if err != nil {
		return 0, err
	}
	err = zw.Close()
	if err != nil {
		return 0, err
	}
	contentNum := d.Add(&object.Stream{
		Dict: object.Dict{"Filter": object.Name("FlateDecode")},
		Data: buf.Bytes(),
	})

	pageNum := d.Add(object.Dict{
		"Type":      object.Name("Page"),
		"Parent":    object.NewReference(pagesNum),
		"MediaBox":  mediaBox,
		"Resources": object.Dict{},
		"Contents":  object.NewReference(contentNum),
	})

	pages = pages.Clone()
	kids, _ := pages["Kids"].(object.Array)
	kids = append(kids[:len(kids):len(kids)], object.NewReference(pageNum))
	pages["Kids"] = kids
	count, _ := pages["Count"].(object.Integer)
	pages["Count"] = count + 1
	err = d.Set(pagesNum, pages)
	if err != nil {
		return 0, err
	}

	return pageNum, nil
}

// pageTree returns the root of the page tree, creating the catalog and the
// page tree root if needed.
func (d *Document) pageTree() (uint32, object.Dict, error) {
	if d.root == 0 {
		pagesNum := d.Add(object.Dict{
			"Type":  object.Name("Pages"),
			"Kids":  object.Array{},
			"Count": object.Integer(0),
		})
		d.root = d.Add(object.Dict{
			"Type":  object.Name("Catalog"),
			"Pages": object.NewReference(pagesNum),
		})
	}

	obj, ok := d.Get(d.root)
	catalog, isDict := obj.(object.Dict)
	if !ok || !isDict {
		return 0, nil, ErrNoRoot
	}
	ref, ok := catalog["Pages"].(object.Reference)
	if !ok {
		return 0, nil, errNoPages
	}
	obj, _ = d.Get(ref.Number)
	pages, ok := obj.(object.Dict)
	if !ok {
		return 0, nil, errNoPages
	}
	return ref.Number, pages, nil
}

var errNoPages = errors.New("missing page tree")
