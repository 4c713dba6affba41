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

package idgen

import (
	"bytes"
	"testing"
)

func TestFileID(t *testing.T) {
	a := FileID(1, 2)
	if len(a) != Size {
		t.Fatalf("got %d bytes, expected %d", len(a), Size)
	}
	if !bytes.Equal(a, FileID(1, 2)) {
		t.Error("identifier is not deterministic")
	}

	b := FileID(1, 3)
	if !bytes.Equal(a[:8], b[:8]) {
		t.Error("first half depends on seed2")
	}
	if bytes.Equal(a[8:], b[8:]) {
		t.Error("second half does not depend on seed2")
	}

	c := FileID(7, 2)
	if bytes.Equal(a[:8], c[:8]) {
		t.Error("first half does not depend on seed1")
	}
	if !bytes.Equal(a[8:], c[8:]) {
		t.Error("second half depends on seed1")
	}
}
