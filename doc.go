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

// Package pdfcreator writes PDF documents to a byte stream.
//
// A [Creator] serializes a [Document] either as a complete file or as an
// incremental update, which is appended to the original file.  The writer
// keeps track of the position of every indirect object, emits the
// cross-reference information (a classic xref table, or a cross-reference
// stream if the original file uses one), and finishes with the trailer.
//
// Writing proceeds in stages.  [Creator.Create] runs all stages in one go:
//
//	doc, err := document.Load(reader)
//	...
//	c := pdfcreator.New(doc, out)
//	err = c.Create(&pdfcreator.Options{Incremental: true})
//
// Alternatively, [Creator.Start] prepares the output and every call to
// [Creator.Continue] executes one stage, so that callers can interleave
// writing large documents with other work.
//
// Encryption of the original document is preserved, unless
// [Creator.SetSecurity] or [Creator.RemoveSecurity] is used.  Changing the
// security settings forces a complete rewrite of the file.
package pdfcreator
