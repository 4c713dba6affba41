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

// Package object implements the PDF object model used by the document
// writer.
//
// There are nine native types of PDF objects: Bool, Integer, Real, String,
// Name, Array, Dict, *Stream and Reference.  The PDF null object is
// represented by a nil Object.  All objects are serialized by the single
// function [Write].
package object

import (
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Object represents an object in a PDF file.  The set of implementations is
// closed; it consists of the types defined in this package.
type Object interface {
	isObject()
}

// Bool represents a boolean value in a PDF file.
type Bool bool

// Integer represents an integer constant in a PDF file.
type Integer int64

// Real represents a real number in a PDF file.
type Real float64

// String represents a raw string in a PDF file.  The character set encoding,
// if any, is determined by the context.
type String []byte

// Name represents a name in a PDF file.
type Name string

// Array represent an array of objects in a PDF file.
type Array []Object

// Dict represent a Dictionary object in a PDF file.
type Dict map[Name]Object

// Stream represent a stream object in a PDF file.
//
// Data holds the stream contents as they appear in the file, with all
// filters applied but without encryption.  The /Length entry of Dict is
// ignored when writing; the correct length is computed automatically.
type Stream struct {
	Dict Dict
	Data []byte
}

// Reference represents a reference to an indirect object in a PDF file.
type Reference struct {
	Number     uint32
	Generation uint16
}

func (Bool) isObject()      {}
func (Integer) isObject()   {}
func (Real) isObject()      {}
func (String) isObject()    {}
func (Name) isObject()      {}
func (Array) isObject()     {}
func (Dict) isObject()      {}
func (*Stream) isObject()   {}
func (Reference) isObject() {}

// NewReference returns a reference to object number n, generation 0.
func NewReference(n uint32) Reference {
	return Reference{Number: n}
}

func (x Reference) String() string {
	res := "obj_" + strconv.FormatUint(uint64(x.Number), 10)
	if x.Generation > 0 {
		res += "@" + strconv.FormatUint(uint64(x.Generation), 10)
	}
	return res
}

// SortedKeys returns the keys of the dictionary in lexicographic order.
func (x Dict) SortedKeys() []Name {
	keys := maps.Keys(x)
	slices.Sort(keys)
	return keys
}

func (x Dict) String() string {
	var res []string
	if tp, ok := x["Type"].(Name); ok {
		res = append(res, string(tp)+" Dict")
	} else {
		res = append(res, "Dict")
	}
	res = append(res, strconv.Itoa(len(x))+" entries")
	return "<" + strings.Join(res, ", ") + ">"
}

// Clone returns a shallow copy of the dictionary.
func (x Dict) Clone() Dict {
	if x == nil {
		return nil
	}
	return maps.Clone(x)
}

func (x *Stream) String() string {
	var res []string
	if tp, ok := x.Dict["Type"].(Name); ok {
		res = append(res, string(tp)+" Stream")
	} else {
		res = append(res, "Stream")
	}
	res = append(res, strconv.Itoa(len(x.Data))+" bytes")
	return "<" + strings.Join(res, ", ") + ">"
}
