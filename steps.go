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

package pdfcreator

import (
	"fmt"
	"io"

	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
	"seehuhn.de/go/pdfcreator/trailer"
	"seehuhn.de/go/pdfcreator/walker"
	"seehuhn.de/go/pdfcreator/xref"
)

var steps = map[Stage]func(*Creator) (Stage, error){
	StageInit:                         (*Creator).stepInit,
	StageWriteHeader:                  (*Creator).stepWriteHeader,
	StageWriteIncremental:             (*Creator).stepWriteIncremental,
	StageInitWriteObjs:                (*Creator).stepInitWriteObjs,
	StageWriteOldObjs:                 (*Creator).stepWriteOldObjs,
	StageInitWriteNewObjs:             (*Creator).stepInitWriteNewObjs,
	StageWriteNewObjs:                 (*Creator).stepWriteNewObjs,
	StageWriteEncryptDict:             (*Creator).stepWriteEncryptDict,
	StageInitWriteXRefs:               (*Creator).stepInitWriteXRefs,
	StageWriteXRefsClassicFull:        (*Creator).stepWriteXRefsClassicFull,
	StageWriteXRefsClassicIncremental: (*Creator).stepWriteXRefsClassicIncremental,
	StageWriteTrailerAndFinish:        (*Creator).stepWriteTrailerAndFinish,
}

func (c *Creator) stepInit() (Stage, error) {
	if c.incremental && c.securityChanged {
		logging.Logger().Info("security settings changed, writing complete file")
		c.incremental = false
	}
	return StageWriteHeader, nil
}

func (c *Creator) stepWriteHeader() (Stage, error) {
	if c.incremental {
		if c.noOriginal {
			c.base = c.parser.Size()
		}
		return StageWriteIncremental, nil
	}

	v := c.fileVersion
	if v == 0 && c.parser != nil {
		v = c.parser.Version()
	}
	if !v.IsValid() {
		v = object.V1_7
	}
	_, err := fmt.Fprintf(c.out, "%%PDF-1.%d\r\n%%\xA1\xB3\xC5\xD7\r\n", v.Minor())
	if err != nil {
		return StageInvalid, err
	}
	return StageInitWriteObjs, nil
}

func (c *Creator) stepWriteIncremental() (Stage, error) {
	size := c.parser.Size()
	if !c.noOriginal && size > 0 {
		_, err := c.out.ReadFrom(io.NewSectionReader(c.parser, 0, int64(size)))
		if err != nil {
			return StageInvalid, err
		}

		// objects must start on a new line
		last := make([]byte, 1)
		_, err = c.parser.ReadAt(last, int64(size)-1)
		if err != nil && err != io.EOF {
			return StageInvalid, err
		}
		if last[0] != '\n' && last[0] != '\r' {
			_, err = c.out.WriteString("\r\n")
			if err != nil {
				return StageInvalid, err
			}
		}
	}

	if c.parser.LastXRefOffset() == 0 {
		// There is no usable xref section to point /Prev to, so the new
		// section must cover the original objects as well.
		for n := uint32(1); n <= c.parser.LastObjectNumber(); n++ {
			if c.parser.IsFree(n) {
				continue
			}
			offset := c.parser.Offset(n)
			if offset == 0 {
				logging.Logger().Info("object not in new xref section", "number", n)
				continue
			}
			c.offsets.Record(n, offset)
		}
	}
	return StageInitWriteObjs, nil
}

func (c *Creator) stepInitWriteObjs() (Stage, error) {
	for n := range c.doc.Objects() {
		if n != 0 && c.isNew(n) {
			c.newObjs.Insert(n)
		}
	}
	logging.Logger().Debug("new objects", "count", c.newObjs.Len())

	if c.incremental {
		return StageInitWriteNewObjs, nil
	}
	return StageWriteOldObjs, nil
}

// isNew reports whether object n is written in the new-object pass.
func (c *Creator) isNew(n uint32) bool {
	if c.parser == nil || !c.parser.IsValid(n) || c.parser.IsFree(n) {
		return true
	}
	return c.incremental && c.doc.IsModified(n)
}

func (c *Creator) stepWriteOldObjs() (Stage, error) {
	if c.parser == nil {
		return StageInitWriteNewObjs, nil
	}

	reachable := walker.Reachable(c.doc, c.trailerRoots()...)
	last := c.parser.LastObjectNumber()
	for n := uint32(1); n <= last; n++ {
		if c.parser.IsFree(n) || !reachable[n] || c.newObjs.Contains(n) {
			continue
		}

		wasLoaded := c.doc.Loaded(n)
		obj, ok := c.doc.Get(n)
		if !ok {
			logging.Logger().Warn("skipping unreadable object", "number", n)
			c.offsets.Remove(n)
			continue
		}
		err := c.writeObject(n, obj)
		if err != nil {
			return StageInvalid, err
		}
		if !wasLoaded {
			c.doc.Delete(n)
		}
	}
	return StageInitWriteNewObjs, nil
}

// trailerRoots returns the objects from which all objects written in the
// old-object pass can be reached.
func (c *Creator) trailerRoots() []object.Object {
	var roots []object.Object
	for key, val := range c.trailerDict() {
		if key == "Encrypt" {
			continue
		}
		roots = append(roots, val)
	}
	if c.encryptNumber != 0 {
		roots = append(roots, object.NewReference(c.encryptNumber))
	}
	return roots
}

func (c *Creator) stepInitWriteNewObjs() (Stage, error) {
	logging.Logger().Debug("writing new objects",
		"count", c.newObjs.Len(), "pos", c.pos())
	return StageWriteNewObjs, nil
}

func (c *Creator) stepWriteNewObjs() (Stage, error) {
	for _, n := range c.newObjs.All() {
		obj, ok := c.doc.Get(n)
		if !ok {
			c.offsets.Remove(n)
			continue
		}
		err := c.writeObject(n, obj)
		if err != nil {
			return StageInvalid, err
		}
	}
	return StageWriteEncryptDict, nil
}

func (c *Creator) stepWriteEncryptDict() (Stage, error) {
	if c.encryptDict == nil || c.encryptNumber != 0 {
		return StageInitWriteXRefs, nil
	}

	c.last++
	c.encryptNumber = c.last
	err := c.writeObject(c.encryptNumber, c.encryptDict)
	if err != nil {
		return StageInvalid, err
	}
	if c.incremental {
		c.newObjs.Insert(c.encryptNumber)
	}
	return StageInitWriteXRefs, nil
}

func (c *Creator) stepInitWriteXRefs() (Stage, error) {
	c.xrefStart = c.pos()

	switch {
	case !c.incremental || c.parser.LastXRefOffset() == 0:
		return StageWriteXRefsClassicFull, nil
	case !c.parser.IsXRefStream():
		return StageWriteXRefsClassicIncremental, nil
	default:
		// The xref stream is written together with the trailer.
		return StageWriteTrailerAndFinish, nil
	}
}

func (c *Creator) stepWriteXRefsClassicFull() (Stage, error) {
	err := xref.WriteClassicFull(c.out, c.offsets, c.last)
	if err != nil {
		return StageInvalid, err
	}
	return StageWriteTrailerAndFinish, nil
}

func (c *Creator) stepWriteXRefsClassicIncremental() (Stage, error) {
	err := xref.WriteClassicIncremental(c.out, c.offsets, c.newObjs.All())
	if err != nil {
		return StageInvalid, err
	}
	return StageWriteTrailerAndFinish, nil
}

func (c *Creator) stepWriteTrailerAndFinish() (Stage, error) {
	info, _ := c.doc.Info()
	b := &trailer.Builder{
		Inherited:     c.trailerDict(),
		Root:          c.doc.Root(),
		Info:          info,
		Last:          c.last,
		Encrypted:     c.encryptDict != nil,
		EncryptNumber: c.encryptNumber,
		ID:            c.id,
	}
	if c.incremental {
		b.Prev = c.parser.LastXRefOffset()
	}

	var err error
	if c.incremental && c.parser.LastXRefOffset() != 0 && c.parser.IsXRefStream() {
		var index []uint32
		var data []byte
		index, data, err = xref.PackStream(c.offsets, c.newObjs.All())
		if err == nil {
			err = b.WriteStream(c.out, index, data)
		}
	} else {
		err = b.WriteClassic(c.out)
	}
	if err != nil {
		return StageInvalid, err
	}

	err = trailer.WriteEnd(c.out, c.xrefStart)
	if err != nil {
		return StageInvalid, err
	}
	err = c.out.Flush()
	if err != nil {
		return StageInvalid, err
	}
	return StageComplete, nil
}

// trailerDict returns the trailer of the original file, updated with the
// current /Root and /Info of the document.  The result is nil for new
// documents.
func (c *Creator) trailerDict() object.Dict {
	if c.parser == nil {
		return nil
	}
	dict := c.parser.Trailer().Clone()
	if dict == nil {
		dict = object.Dict{}
	}
	dict["Root"] = object.NewReference(c.doc.Root())
	if info, ok := c.doc.Info(); ok {
		dict["Info"] = object.NewReference(info)
	} else {
		delete(dict, "Info")
	}
	return dict
}
