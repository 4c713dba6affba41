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
	"fmt"
	"io"

	"seehuhn.de/go/pdfcreator/filter"
	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
)

type xrefEntry struct {
	pos      int64 // file offset, or index inside the object stream
	gen      uint16
	free     bool
	inStream uint32 // number of the object stream, or 0
}

func (r *Reader) findXRef() (int64, error) {
	pos, err := r.lastOccurrence("startxref")
	if err != nil {
		return 0, err
	}
	s := r.scannerAt(pos + 9)
	err = s.SkipWhiteSpace()
	if err != nil {
		return 0, err
	}
	xRefPos, err := s.ReadInteger()
	if err != nil {
		return 0, err
	}

	if xRefPos <= 0 || int64(xRefPos) >= r.size {
		return 0, &MalformedFileError{
			Pos: s.filePos(),
			Err: errors.New("invalid xref position"),
		}
	}
	return int64(xRefPos), nil
}

func (r *Reader) lastOccurrence(pat string) (int64, error) {
	const chunkSize = 1024

	buf := make([]byte, chunkSize)
	k := int64(len(pat))
	pos := r.size
	for pos >= k {
		start := max(pos-chunkSize, 0)
		n, err := r.r.ReadAt(buf[:pos-start], start)
		if err != nil && err != io.EOF {
			return 0, err
		}

		idx := bytes.LastIndex(buf[:n], []byte(pat))
		if idx >= 0 {
			return start + int64(idx), nil
		}
		if start == 0 {
			break
		}
		pos = start + k - 1
	}
	return 0, &MalformedFileError{Err: fmt.Errorf("%q not found", pat)}
}

// readXRef reads the cross-reference sections of the file, starting with
// the newest one and following the /Prev chain.  Entries from newer
// sections take precedence, and so do trailer entries.
func (r *Reader) readXRef(start int64) (map[uint32]*xrefEntry, object.Dict, bool, error) {
	xref := make(map[uint32]*xrefEntry)
	trailer := object.Dict{}
	isStream := false

	seen := make(map[int64]bool)
	for first := true; ; first = false {
		if seen[start] {
			logging.Logger().Warn("xref loop detected", "pos", start)
			break
		}
		seen[start] = true

		dict, sectionIsStream, err := r.readXRefSection(xref, start)
		if err != nil {
			if first {
				return nil, nil, false, err
			}
			logging.Logger().Warn("cannot read xref section",
				"pos", start, "error", err)
			break
		}
		if first {
			isStream = sectionIsStream
		}
		for key, val := range dict {
			if _, exists := trailer[key]; !exists {
				trailer[key] = val
			}
		}

		prev, hasPrev := dict["Prev"]
		if !hasPrev {
			break
		}
		prevStart, ok := prev.(object.Integer)
		if !ok || prevStart <= 0 || int64(prevStart) >= r.size {
			logging.Logger().Warn("ignoring invalid /Prev",
				"pos", start, "value", object.Format(prev))
			break
		}
		start = int64(prevStart)
	}

	return xref, trailer, isStream, nil
}

func (r *Reader) readXRefSection(xref map[uint32]*xrefEntry, start int64) (object.Dict, bool, error) {
	s := r.scannerAt(start)
	err := s.SkipWhiteSpace()
	if err != nil {
		return nil, false, err
	}
	buf, err := s.Peek(4)
	if err != nil {
		return nil, false, err
	}

	if !bytes.Equal(buf, []byte("xref")) {
		dict, err := readXRefStream(xref, s)
		return dict, true, err
	}

	section := make(map[uint32]*xrefEntry)
	dict, err := readXRefTable(section, s)
	if err != nil {
		return nil, false, err
	}

	if xRefStm, ok := dict["XRefStm"]; ok {
		// hybrid file: the stream lists the compressed objects
		zStart, ok := xRefStm.(object.Integer)
		if !ok || zStart <= 0 || int64(zStart) >= r.size {
			return nil, false, &MalformedFileError{
				Pos: start,
				Err: errors.New("invalid /XRefStm"),
			}
		}
		hidden := make(map[uint32]*xrefEntry)
		_, err = readXRefStream(hidden, r.scannerAt(int64(zStart)))
		if err != nil {
			return nil, false, err
		}
		for n, entry := range hidden {
			if e := section[n]; e == nil || e.free {
				section[n] = entry
			}
		}
	}

	for n, entry := range section {
		if xref[n] == nil {
			xref[n] = entry
		}
	}
	return dict, false, nil
}

func readXRefTable(xref map[uint32]*xrefEntry, s *scanner) (object.Dict, error) {
	err := s.SkipString("xref")
	if err != nil {
		return nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}

	for {
		buf, err := s.Peek(1)
		if err != nil {
			return nil, err
		}
		if len(buf) == 0 || buf[0] < '0' || buf[0] > '9' {
			break
		}

		start, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		count, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		if start < 0 || count < 0 || start+count > 1<<32 {
			return nil, s.malformed(errors.New("invalid xref subsection"))
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}

		err = decodeXRefSection(xref, s, uint32(start), int(count))
		if err != nil {
			return nil, err
		}
	}

	err = s.SkipString("trailer")
	if err != nil {
		return nil, err
	}
	err = s.SkipWhiteSpace()
	if err != nil {
		return nil, err
	}
	return s.ReadDict()
}

// decodeXRefSection reads the entries of one subsection.  The entries are
// read as tokens, so that lines which are not exactly 20 bytes long are
// accepted.
func decodeXRefSection(xref map[uint32]*xrefEntry, s *scanner, start uint32, count int) error {
	for i := range count {
		offs, err := s.ReadInteger()
		if err != nil {
			return err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return err
		}
		gen, err := s.ReadInteger()
		if err != nil {
			return err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return err
		}
		buf, err := s.Peek(1)
		if err != nil {
			return err
		}
		if len(buf) == 0 || buf[0] != 'n' && buf[0] != 'f' {
			return s.malformed(errors.New("malformed xref table"))
		}
		tp := buf[0]
		s.pos++
		err = s.SkipWhiteSpace()
		if err != nil {
			return err
		}

		if gen == 65536 && tp == 'f' {
			// fix a common error in some PDF files
			logging.Logger().Info("fixing free entry generation", "number", start+uint32(i))
			gen = 65535
		}
		if gen < 0 || gen > 65535 {
			return s.malformed(fmt.Errorf("invalid generation %d", gen))
		}

		n := start + uint32(i)
		if xref[n] != nil {
			continue
		}
		if tp == 'f' {
			xref[n] = &xrefEntry{free: true, gen: uint16(gen)}
		} else {
			xref[n] = &xrefEntry{pos: int64(offs), gen: uint16(gen)}
		}
	}
	return nil
}

func readXRefStream(xref map[uint32]*xrefEntry, s *scanner) (object.Dict, error) {
	obj, _, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*object.Stream)
	if !ok {
		return nil, s.malformed(errors.New("invalid xref stream"))
	}
	dict := stream.Dict

	w, ss, err := checkXRefStreamDict(dict)
	if err != nil {
		return nil, s.malformed(err)
	}
	data, err := filter.Decode(stream)
	if err != nil {
		return nil, s.malformed(err)
	}
	err = decodeXRefStream(xref, data, w, ss)
	if err != nil {
		return nil, s.malformed(err)
	}

	return dict, nil
}

type xrefSubSection struct {
	start uint32
	size  int
}

func checkXRefStreamDict(dict object.Dict) ([]int, []xrefSubSection, error) {
	errInvalid := errors.New("invalid xref stream dictionary")

	size, ok := dict["Size"].(object.Integer)
	if !ok || size < 0 || size > 1<<32 {
		return nil, nil, errInvalid
	}
	W, ok := dict["W"].(object.Array)
	if !ok || len(W) < 3 {
		return nil, nil, errInvalid
	}
	var w []int
	for i, Wi := range W {
		wi, ok := Wi.(object.Integer)
		if !ok || wi < 0 || i < 3 && wi > 8 || wi > 32 {
			return nil, nil, errInvalid
		}
		w = append(w, int(wi))
	}

	var ss []xrefSubSection
	switch index := dict["Index"].(type) {
	case nil:
		ss = append(ss, xrefSubSection{0, int(size)})
	case object.Array:
		if len(index)%2 != 0 {
			return nil, nil, errInvalid
		}
		for i := 0; i < len(index); i += 2 {
			start, ok1 := index[i].(object.Integer)
			n, ok2 := index[i+1].(object.Integer)
			if !ok1 || !ok2 || start < 0 || n < 0 || start+n > 1<<32 {
				return nil, nil, errInvalid
			}
			ss = append(ss, xrefSubSection{uint32(start), int(n)})
		}
	default:
		return nil, nil, errInvalid
	}
	return w, ss, nil
}

func decodeXRefStream(xref map[uint32]*xrefEntry, data []byte, w []int, ss []xrefSubSection) error {
	wTotal := 0
	for _, wi := range w {
		wTotal += wi
	}
	w0, w1, w2 := w[0], w[1], w[2]

	for _, sec := range ss {
		for i := range sec.size {
			if len(data) < wTotal {
				return io.ErrUnexpectedEOF
			}
			buf := data[:wTotal]
			data = data[wTotal:]

			n := sec.start + uint32(i)
			if xref[n] != nil {
				continue
			}

			tp := decodeInt(buf[:w0])
			if w0 == 0 {
				tp = 1
			}
			a := decodeInt(buf[w0 : w0+w1])
			b := decodeInt(buf[w0+w1 : w0+w1+w2])
			switch tp {
			case 0:
				// free object; b is the generation number for reuse
				xref[n] = &xrefEntry{free: true, gen: uint16(b)}
			case 1:
				// a is the byte offset, b the generation number
				xref[n] = &xrefEntry{pos: int64(a), gen: uint16(b)}
			case 2:
				// a is the number of the object stream, b the index inside it
				if a == 0 || a > 1<<32-1 {
					return errors.New("invalid object stream number")
				}
				xref[n] = &xrefEntry{pos: int64(b), inStream: uint32(a)}
			}
		}
	}
	return nil
}

func decodeInt(buf []byte) (res uint64) {
	for _, x := range buf {
		res = res<<8 | uint64(x)
	}
	return res
}
