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

// Package filter decodes the contents of PDF streams.
//
// The filters FlateDecode (including PNG predictors), ASCII85Decode and
// ASCIIHexDecode are supported.  This is enough to read cross-reference
// streams and object streams.
package filter

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfcreator/object"
)

// ErrUnsupported is returned for filters which cannot be decoded.
var ErrUnsupported = errors.New("unsupported filter")

// Decode returns the decoded contents of a stream.
func Decode(stm *object.Stream) ([]byte, error) {
	var names []object.Object
	var params []object.Object
	switch f := stm.Dict["Filter"].(type) {
	case nil:
		return stm.Data, nil
	case object.Name:
		names = []object.Object{f}
		params = []object.Object{stm.Dict["DecodeParms"]}
	case object.Array:
		names = f
		params, _ = stm.Dict["DecodeParms"].(object.Array)
	default:
		return nil, fmt.Errorf("invalid /Filter %s", object.Format(f))
	}

	var r io.Reader = bytes.NewReader(stm.Data)
	for i, name := range names {
		var param object.Object
		if i < len(params) {
			param = params[i]
		}
		r = apply(r, name, param)
	}
	return io.ReadAll(r)
}

func apply(r io.Reader, name object.Object, param object.Object) io.Reader {
	n, ok := name.(object.Name)
	if !ok {
		return &errorReader{
			fmt.Errorf("invalid filter description %s", object.Format(name))}
	}
	switch n {
	case "FlateDecode", "Fl":
		params := map[object.Name]int{
			"Predictor":        1,
			"Colors":           1,
			"BitsPerComponent": 8,
			"Columns":          1,
		}
		if pDict, ok := param.(object.Dict); ok {
			for key := range params {
				if val, ok := pDict[key].(object.Integer); ok {
					params[key] = int(val)
				}
			}
		}
		zr, err := zlib.NewReader(r)
		if err != nil {
			return &errorReader{err}
		}
		predictor := params["Predictor"]
		switch {
		case predictor == 1:
			return zr
		case predictor >= 10 && predictor <= 15:
			bpp := (params["Colors"]*params["BitsPerComponent"] + 7) / 8
			rowLen := (params["Colors"]*params["BitsPerComponent"]*params["Columns"] + 7) / 8
			if bpp < 1 || rowLen < 1 || rowLen > 1<<20 {
				return &errorReader{errors.New("invalid predictor parameters")}
			}
			return newPNGReader(zr, rowLen, bpp)
		default:
			return &errorReader{fmt.Errorf("predictor %d: %w", predictor, ErrUnsupported)}
		}
	case "ASCII85Decode", "A85":
		return &ascii85Reader{r: r}
	case "ASCIIHexDecode", "AHx":
		return &hexReader{r: r}
	default:
		return &errorReader{fmt.Errorf("%q: %w", n, ErrUnsupported)}
	}
}

type errorReader struct {
	err error
}

func (e *errorReader) Read([]byte) (int, error) {
	return 0, e.err
}
