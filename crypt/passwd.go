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

package crypt

import (
	"github.com/xdg-go/stringprep"
	"golang.org/x/text/encoding/charmap"
)

// utf8Passwd prepares a password for revision 6 of the standard security
// handler.
func utf8Passwd(passwd string) ([]byte, error) {
	prepped, err := stringprep.SASLprep.Prepare(passwd)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	buf := []byte(prepped)
	if len(buf) > 127 {
		buf = buf[:127]
	}
	return buf, nil
}

// padPasswd prepares a password for revisions 2 to 4 of the standard
// security handler.  The result always has length 32.
func padPasswd(passwd string) ([]byte, error) {
	buf, ok := pdfDocEncode(passwd)
	if !ok {
		return nil, ErrInvalidPassword
	}

	padded := make([]byte, 32)
	n := copy(padded, buf)
	copy(padded[n:], passwdPad)
	return padded, nil
}

// pdfDocEncode converts s to PDFDocEncoding.  The second return value is
// false if s contains characters which cannot be represented.
func pdfDocEncode(s string) ([]byte, bool) {
	res := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := pdfDocSpecial[r]; ok {
			res = append(res, c)
			continue
		}
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok || !pdfDocLatin1(c) {
			return nil, false
		}
		res = append(res, c)
	}
	return res, true
}

// pdfDocLatin1 reports whether PDFDocEncoding maps code c to the same
// character as ISO 8859-1.
func pdfDocLatin1(c byte) bool {
	switch {
	case c < 0x18:
		return true
	case c >= 0x20 && c < 0x7F:
		return true
	case c > 0xA0 && c != 0xAD:
		return true
	default:
		return false
	}
}

// pdfDocSpecial lists the codes where PDFDocEncoding differs from ISO 8859-1.
var pdfDocSpecial = map[rune]byte{
	'\u02D8': 0x18, '\u02C7': 0x19, '\u02C6': 0x1A, '\u02D9': 0x1B,
	'\u02DD': 0x1C, '\u02DB': 0x1D, '\u02DA': 0x1E, '\u02DC': 0x1F,
	'\u2022': 0x80, '\u2020': 0x81, '\u2021': 0x82, '\u2026': 0x83,
	'\u2014': 0x84, '\u2013': 0x85, '\u0192': 0x86, '\u2044': 0x87,
	'\u2039': 0x88, '\u203A': 0x89, '\u2212': 0x8A, '\u2030': 0x8B,
	'\u201E': 0x8C, '\u201C': 0x8D, '\u201D': 0x8E, '\u2018': 0x8F,
	'\u2019': 0x90, '\u201A': 0x91, '\u2122': 0x92, '\uFB01': 0x93,
	'\uFB02': 0x94, '\u0141': 0x95, '\u0152': 0x96, '\u0160': 0x97,
	'\u0178': 0x98, '\u017D': 0x99, '\u0131': 0x9A, '\u0142': 0x9B,
	'\u0153': 0x9C, '\u0161': 0x9D, '\u017E': 0x9E, '\u20AC': 0xA0,
}

var passwdPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var zero16 = make([]byte, 16)
