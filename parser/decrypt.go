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
	"seehuhn.de/go/pdfcreator/object"
)

// decrypt returns a copy of obj with all strings and stream data decrypted.
func (r *Reader) decrypt(obj object.Object, ref object.Reference) (object.Object, error) {
	enc := r.sec.Handler.ForObject(ref)

	var walk func(object.Object) (object.Object, error)
	walk = func(obj object.Object) (object.Object, error) {
		switch x := obj.(type) {
		case object.String:
			res, err := enc.DecryptString([]byte(x))
			if err != nil {
				return nil, err
			}
			return object.String(res), nil
		case object.Array:
			res := make(object.Array, len(x))
			for i, elem := range x {
				val, err := walk(elem)
				if err != nil {
					return nil, err
				}
				res[i] = val
			}
			return res, nil
		case object.Dict:
			res := make(object.Dict, len(x))
			for key, elem := range x {
				val, err := walk(elem)
				if err != nil {
					return nil, err
				}
				res[key] = val
			}
			return res, nil
		case *object.Stream:
			if x.Dict["Type"] == object.Name("XRef") {
				return x, nil
			}
			dict, err := walk(x.Dict)
			if err != nil {
				return nil, err
			}
			data := x.Data
			if !isPlainMetadata(x, r.sec.Handler.EncryptMetadata()) {
				data, err = enc.DecryptStream(data)
				if err != nil {
					return nil, err
				}
			}
			return &object.Stream{Dict: dict.(object.Dict), Data: data}, nil
		default:
			return obj, nil
		}
	}
	return walk(obj)
}

// isPlainMetadata reports whether stm is a metadata stream which is stored
// without encryption.
func isPlainMetadata(stm *object.Stream, encryptMetadata bool) bool {
	return !encryptMetadata && stm.Dict["Type"] == object.Name("Metadata")
}
