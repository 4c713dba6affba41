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

package object

import (
	"errors"
	"strconv"
)

// Version represent the version of PDF standard used in a file.
type Version int

// Constants for all PDF versions which can appear in a file header.
const (
	V1_0 Version = 10 + iota
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
)

// ParseVersion parses a version string like "1.7" into a Version.
func ParseVersion(s string) (Version, error) {
	if len(s) != 3 || s[0] != '1' || s[1] != '.' || s[2] < '0' || s[2] > '7' {
		return 0, errVersion
	}
	return V1_0 + Version(s[2]-'0'), nil
}

// IsValid reports whether v is one of the versions defined above.
func (v Version) IsValid() bool {
	return v >= V1_0 && v <= V1_7
}

// Minor returns the digit after "1." in the file header.
func (v Version) Minor() int {
	return int(v) % 10
}

func (v Version) String() string {
	if !v.IsValid() {
		return "Version(" + strconv.Itoa(int(v)) + ")"
	}
	return "1." + strconv.Itoa(v.Minor())
}

var errVersion = errors.New("unsupported PDF version")
