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

package parser

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"

	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
)

var objHeader = regexp.MustCompile(`(?:^|[\r\n\t ])(\d+)[\r\n\t ]+(\d+)[\r\n\t ]+obj\b`)

// reconstruct rebuilds the cross-reference information by scanning the
// whole file for indirect objects.  If an object number occurs more than
// once, the last occurrence is used.
func (r *Reader) reconstruct() error {
	data, err := io.ReadAll(io.NewSectionReader(r.r, 0, r.size))
	if err != nil {
		return err
	}

	xref := make(map[uint32]*xrefEntry)
	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		number, err1 := strconv.ParseUint(string(data[m[2]:m[3]]), 10, 32)
		gen, err2 := strconv.ParseUint(string(data[m[4]:m[5]]), 10, 16)
		if err1 != nil || err2 != nil || number == 0 {
			continue
		}
		xref[uint32(number)] = &xrefEntry{pos: int64(m[2]), gen: uint16(gen)}
	}
	if len(xref) == 0 {
		return &MalformedFileError{Err: errors.New("no objects found")}
	}
	r.xref = xref

	// Objects in object streams are added after all other objects are
	// known, without overriding them.
	var compressed []uint32
	for n, entry := range xref {
		obj, err := r.Object(n)
		if err != nil {
			logging.Logger().Info("skipping damaged object", "number", n, "pos", entry.pos)
			delete(xref, n)
			continue
		}
		if stm, ok := obj.(*object.Stream); ok && stm.Dict["Type"] == object.Name("ObjStm") {
			compressed = append(compressed, n)
		}
	}
	for _, n := range compressed {
		stm, err := r.loadObjectStream(n)
		if err != nil {
			continue
		}
		for m := range stm.offs {
			if xref[m] == nil {
				xref[m] = &xrefEntry{inStream: n}
			}
		}
	}

	r.trailer = object.Dict{}
	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		s := r.scannerAt(int64(idx) + 7)
		err = s.SkipWhiteSpace()
		if err == nil {
			r.trailer, err = s.ReadDict()
		}
		if err != nil {
			r.trailer = object.Dict{}
		}
	}
	if _, ok := r.trailer["Root"].(object.Reference); !ok {
		for n := range xref {
			obj, _ := r.Object(n)
			if dict, ok := obj.(object.Dict); ok && dict["Type"] == object.Name("Catalog") {
				r.trailer["Root"] = object.NewReference(n)
				break
			}
		}
	}
	if _, ok := r.trailer["Root"]; !ok {
		return &MalformedFileError{Err: errors.New("document catalog not found")}
	}

	r.startXRef = 0
	r.isStream = false
	return nil
}
