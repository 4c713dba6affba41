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

// Package memfile implements an in-memory file for tests.
package memfile

import (
	"errors"
	"io"
)

// MemFile is an in-memory file which can be written sequentially and read
// at arbitrary positions.
//
// This type implements the [io.Writer], [io.ReaderAt] and [io.Closer]
// interfaces.
type MemFile struct {
	// Data are the file contents.
	Data []byte

	// FailAfter, if positive, makes writes fail once the file would grow
	// beyond this many bytes.  This can be used to simulate a full disk.
	FailAfter int

	// Closed is set by Close.
	Closed bool
}

// New creates a new, empty MemFile.
func New() *MemFile {
	return &MemFile{}
}

// FromBytes creates a MemFile with the given contents.
func FromBytes(data []byte) *MemFile {
	return &MemFile{Data: data}
}

// Write appends data to the file.
// This implements the [io.Writer] interface.
func (f *MemFile) Write(p []byte) (int, error) {
	if f.Closed {
		return 0, ErrClosed
	}
	if f.FailAfter > 0 && len(f.Data)+len(p) > f.FailAfter {
		n := max(f.FailAfter-len(f.Data), 0)
		f.Data = append(f.Data, p[:n]...)
		return n, ErrDiskFull
	}
	f.Data = append(f.Data, p...)
	return len(p), nil
}

// ReadAt reads len(p) bytes starting at offset off.
// This implements the [io.ReaderAt] interface.
func (f *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInvalidOffset
	}
	if off >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the current length of the file.
func (f *MemFile) Size() int64 {
	return int64(len(f.Data))
}

// Close marks the file as closed.  Further writes fail.
func (f *MemFile) Close() error {
	f.Closed = true
	return nil
}

var (
	// ErrDiskFull is returned by Write when FailAfter is exceeded.
	ErrDiskFull = errors.New("disk full")

	// ErrClosed is returned by Write after Close has been called.
	ErrClosed = errors.New("file already closed")

	errInvalidOffset = errors.New("invalid offset")
)
