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

// Package idgen generates file identifiers for the /ID entry of the trailer.
package idgen

import (
	"encoding/binary"

	"github.com/seehuhn/mt19937"
)

// Size is the length of a generated identifier in bytes.
const Size = 16

// FileID returns a pseudo-random file identifier.  The first eight bytes
// are taken from a Mersenne Twister seeded with seed1, the last eight bytes
// from one seeded with seed2.  The result only depends on the two seeds.
func FileID(seed1, seed2 uint64) []byte {
	res := make([]byte, Size)

	rng := mt19937.New()
	rng.Seed(int64(seed1))
	binary.LittleEndian.PutUint64(res[:8], rng.Uint64())

	rng.Seed(int64(seed2))
	binary.LittleEndian.PutUint64(res[8:], rng.Uint64())

	return res
}
