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

// Package parser reads existing PDF files.
//
// The [Reader] locates the cross-reference information of a file,
// including cross-reference streams, hybrid files and chains of incremental
// updates, and gives access to the indirect objects.  Encrypted files are
// decrypted transparently.  If the cross-reference information is damaged,
// it is reconstructed by scanning the file.
//
// A Reader implements the [document.Parser] interface.
package parser

import (
	"bytes"
	"errors"
	"io"
	"os"

	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/document"
	"seehuhn.de/go/pdfcreator/filter"
	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
)

// Reader represents a PDF file opened for reading.
type Reader struct {
	r    io.ReaderAt
	size int64

	version object.Version
	id      [][]byte

	xref      map[uint32]*xrefEntry
	trailer   object.Dict
	last      uint32
	startXRef int64 // 0 if the xref information was reconstructed
	isStream  bool

	sec      *document.Security
	password string

	level  int
	objStm *objStm // most recently used object stream
}

// ReadPwdFunc is used to query the user for a password.  The first call
// for each document has try == 0.  If the returned password was wrong, the
// function is called again with increasing values of try.  Returning the
// empty string aborts the authentication.
type ReadPwdFunc func(id []byte, try int) string

// ReaderOptions controls how a file is opened.
type ReaderOptions struct {
	// ReadPassword is called when the file is encrypted and the empty user
	// password does not work.
	ReadPassword ReadPwdFunc
}

// Open opens the named file.  Close must be called after use.
func Open(fname string, opt *ReaderOptions) (*Reader, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fi, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}
	r, err := NewReader(fd, fi.Size(), opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return r, nil
}

// NewReader reads the cross-reference information of a PDF file.
func NewReader(data io.ReaderAt, size int64, opt *ReaderOptions) (*Reader, error) {
	if opt == nil {
		opt = &ReaderOptions{}
	}
	r := &Reader{
		r:    data,
		size: size,
	}

	version, err := r.scannerAt(0).readHeaderVersion()
	if errors.Is(err, errVersion) {
		logging.Logger().Warn("unknown PDF version, assuming 1.7")
		version, err = object.V1_7, nil
	}
	if err != nil {
		return nil, err
	}
	r.version = version

	err = r.readXRefInfo()
	if err != nil {
		return nil, err
	}

	if ID, ok := r.trailer["ID"].(object.Array); ok && len(ID) >= 2 {
		for i := range 2 {
			s, ok := ID[i].(object.String)
			if !ok {
				break
			}
			r.id = append(r.id, []byte(s))
		}
		if len(r.id) != 2 {
			r.id = nil
		}
	}

	if encObj, ok := r.trailer["Encrypt"]; ok {
		err = r.openSecurity(encObj, opt.ReadPassword)
		if err != nil {
			return nil, err
		}
	}

	if root, ok := r.trailer["Root"].(object.Reference); ok {
		catalog, _ := r.Object(root.Number)
		if dict, ok := catalog.(object.Dict); ok {
			name, _ := dict["Version"].(object.Name)
			v, err := object.ParseVersion(string(name))
			if err == nil && v > r.version {
				r.version = v
			}
		}
	}

	return r, nil
}

func (r *Reader) readXRefInfo() error {
	start, err := r.findXRef()
	if err == nil {
		r.xref, r.trailer, r.isStream, err = r.readXRef(start)
	}
	if err == nil {
		r.startXRef = start
	} else {
		logging.Logger().Warn("reconstructing xref information", "error", err)
		err2 := r.reconstruct()
		if err2 != nil {
			return err
		}
	}

	for n := range r.xref {
		r.last = max(r.last, n)
	}
	if size, ok := r.trailer["Size"].(object.Integer); ok && size > 0 && size <= 1<<32 {
		r.last = max(r.last, uint32(size-1))
	}
	return nil
}

func (r *Reader) openSecurity(encObj object.Object, readPwd ReadPwdFunc) error {
	sec := &document.Security{}
	switch enc := encObj.(type) {
	case object.Dict:
		sec.Dict = enc
	case object.Reference:
		sec.Number = enc.Number
		obj, err := r.Object(enc.Number)
		if err != nil {
			return err
		}
		dict, ok := obj.(object.Dict)
		if !ok {
			return &MalformedFileError{Err: errors.New("invalid /Encrypt")}
		}
		sec.Dict = dict
	default:
		return &MalformedFileError{Err: errors.New("invalid /Encrypt")}
	}

	var id []byte
	if r.id != nil {
		id = r.id[0]
	}

	passwd := ""
	for try := 0; ; try++ {
		h, err := crypt.Open(sec.Dict, id, passwd)
		if err == nil {
			sec.Handler = h
			break
		}
		if !errors.Is(err, crypt.ErrWrongPassword) {
			return err
		}
		if readPwd == nil {
			return err
		}
		passwd = readPwd(id, try)
		if passwd == "" {
			return crypt.ErrWrongPassword
		}
	}
	r.password = passwd
	r.sec = sec
	return nil
}

// Close closes the underlying file, if it has a Close method.
func (r *Reader) Close() error {
	if closer, ok := r.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadAt implements the io.ReaderAt interface.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	return r.r.ReadAt(p, off)
}

// Size returns the length of the file in bytes.
func (r *Reader) Size() uint64 {
	return uint64(r.size)
}

// LastXRefOffset returns the value after the last "startxref" in the file,
// or 0 if the cross-reference information was reconstructed.
func (r *Reader) LastXRefOffset() uint64 {
	return uint64(r.startXRef)
}

// IsXRefStream reports whether the newest cross-reference section is a
// cross-reference stream.
func (r *Reader) IsXRefStream() bool {
	return r.isStream
}

// Offset returns the file offset of object n, or 0 if the object is free or
// stored in an object stream.
func (r *Reader) Offset(n uint32) uint64 {
	entry := r.xref[n]
	if entry == nil || entry.free || entry.inStream != 0 {
		return 0
	}
	return uint64(entry.pos)
}

// Trailer returns the combined trailer dictionary.
func (r *Reader) Trailer() object.Dict {
	return r.trailer
}

// Password returns the password which was used to decrypt the file.
func (r *Reader) Password() string {
	return r.password
}

// IsValid reports whether n is in the range of object numbers of the file.
func (r *Reader) IsValid(n uint32) bool {
	return n <= r.last
}

// IsFree reports whether object number n is unused.
func (r *Reader) IsFree(n uint32) bool {
	entry := r.xref[n]
	return n == 0 || entry == nil || entry.free
}

// LastObjectNumber returns the highest object number in the file.
func (r *Reader) LastObjectNumber() uint32 {
	return r.last
}

// Version returns the PDF version of the file.
func (r *Reader) Version() object.Version {
	return r.version
}

// ID returns the file identifier, or nil.
func (r *Reader) ID() [][]byte {
	return r.id
}

// Security returns the encryption information, or nil for unencrypted
// files.
func (r *Reader) Security() *document.Security {
	return r.sec
}

// Object reads object n from the file.  The result is nil if the object is
// free.
func (r *Reader) Object(n uint32) (object.Object, error) {
	entry := r.xref[n]
	if n == 0 || entry == nil || entry.free {
		return nil, nil
	}

	if entry.inStream != 0 {
		return r.getFromObjectStream(n, entry)
	}

	s := r.scannerAt(entry.pos)
	obj, ref, err := s.ReadIndirectObject()
	if err != nil {
		return nil, err
	}
	if ref.Number != n {
		return nil, &MalformedFileError{Pos: entry.pos, Err: errXRef}
	}
	if ref.Generation != entry.gen {
		logging.Logger().Info("generation mismatch", "number", n,
			"xref", entry.gen, "object", ref.Generation)
	}

	if r.sec != nil && n != r.sec.Number {
		obj, err = r.decrypt(obj, ref)
		if err != nil {
			return nil, &MalformedFileError{Pos: entry.pos, Err: err}
		}
	}
	return obj, nil
}

type objStm struct {
	number uint32
	data   []byte
	offs   map[uint32]int
}

func (r *Reader) getFromObjectStream(n uint32, entry *xrefEntry) (object.Object, error) {
	stm, err := r.loadObjectStream(entry.inStream)
	if err != nil {
		return nil, err
	}
	offs, ok := stm.offs[n]
	if !ok {
		return nil, &MalformedFileError{Err: errNoObject}
	}
	s := newScanner(bytes.NewReader(stm.data[offs:]), 0, r.safeGetInt)
	return s.ReadObject()
}

func (r *Reader) loadObjectStream(number uint32) (*objStm, error) {
	if r.objStm != nil && r.objStm.number == number {
		return r.objStm, nil
	}

	entry := r.xref[number]
	if entry == nil || entry.free || entry.inStream != 0 {
		return nil, &MalformedFileError{Err: errors.New("invalid object stream")}
	}
	obj, err := r.Object(number)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*object.Stream)
	if !ok {
		return nil, &MalformedFileError{
			Pos: entry.pos,
			Err: errors.New("wrong type for object stream"),
		}
	}

	N, ok := stream.Dict["N"].(object.Integer)
	if !ok || N < 0 || N > 100000 {
		return nil, &MalformedFileError{
			Pos: entry.pos,
			Err: errors.New("no valid /N for ObjStm"),
		}
	}
	first, ok := stream.Dict["First"].(object.Integer)
	if !ok || first < 0 {
		return nil, &MalformedFileError{
			Pos: entry.pos,
			Err: errors.New("no valid /First for ObjStm"),
		}
	}
	data, err := filter.Decode(stream)
	if err != nil {
		return nil, &MalformedFileError{Pos: entry.pos, Err: err}
	}
	if int64(first) > int64(len(data)) {
		return nil, &MalformedFileError{Pos: entry.pos, Err: io.ErrUnexpectedEOF}
	}

	s := newScanner(bytes.NewReader(data[:first]), 0, nil)
	res := &objStm{
		number: number,
		data:   data,
		offs:   make(map[uint32]int, N),
	}
	for range N {
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		no, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		err = s.SkipWhiteSpace()
		if err != nil {
			return nil, err
		}
		offs, err := s.ReadInteger()
		if err != nil {
			return nil, err
		}
		if no <= 0 || no > 1<<32-1 || offs < 0 || int64(first)+int64(offs) > int64(len(data)) {
			return nil, &MalformedFileError{
				Pos: entry.pos,
				Err: errors.New("invalid object stream index"),
			}
		}
		res.offs[uint32(no)] = int(first) + int(offs)
	}

	r.objStm = res
	return res, nil
}

// safeGetInt resolves the /Length of streams, which may be an indirect
// object.
func (r *Reader) safeGetInt(obj object.Object) (object.Integer, error) {
	if x, ok := obj.(object.Integer); ok {
		return x, nil
	}
	ref, ok := obj.(object.Reference)
	if !ok || r.xref == nil {
		return 0, &MalformedFileError{Err: errors.New("invalid stream /Length")}
	}

	if r.level > 2 {
		return 0, &MalformedFileError{Err: errors.New("too many nested /Length references")}
	}
	r.level++
	val, err := r.Object(ref.Number)
	r.level--
	if err != nil {
		return 0, err
	}
	x, ok := val.(object.Integer)
	if !ok {
		return 0, &MalformedFileError{Err: errors.New("wrong type for stream /Length")}
	}
	return x, nil
}

func (r *Reader) scannerAt(pos int64) *scanner {
	return newScanner(io.NewSectionReader(r.r, pos, r.size-pos), pos, r.safeGetInt)
}
