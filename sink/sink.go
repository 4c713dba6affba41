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

// Package sink implements the buffered, append-only byte destination used
// when writing PDF files.
//
// A Sink keeps track of the number of bytes written so far, so that the
// positions of objects in the output file are known.  The first error
// encountered is sticky: once a write has failed, all further writes fail
// with the same error, since all subsequent file offsets would be wrong.
package sink

import (
	"errors"
	"io"
	"math"
)

// BufferSize is the size of the internal write buffer.
const BufferSize = 32 * 1024

// MaxOffset is the largest file size a Sink will produce by default.
const MaxOffset = math.MaxInt64

// ErrOffsetOverflow is returned when a write would move the output offset
// beyond the limit of the Sink.
var ErrOffsetOverflow = errors.New("output file too large")

// Sink is a buffered writer which tracks the current output offset.
type Sink struct {
	w     io.Writer
	buf   []byte
	pos   uint64
	limit uint64
	err   error
}

// New returns a Sink which writes to w.
func New(w io.Writer) *Sink {
	return NewWithLimit(w, MaxOffset)
}

// NewWithLimit returns a Sink which writes to w and which fails with
// ErrOffsetOverflow if more than limit bytes are written.
func NewWithLimit(w io.Writer, limit uint64) *Sink {
	return &Sink{
		w:     w,
		buf:   make([]byte, 0, BufferSize),
		limit: limit,
	}
}

// Offset returns the number of bytes written to the sink so far.  This
// includes bytes which are still held in the buffer.
func (s *Sink) Offset() uint64 {
	return s.pos
}

// Err returns the first error encountered by the sink, if any.
func (s *Sink) Err() error {
	return s.err
}

// Write appends p to the output.
// This implements the [io.Writer] interface.
func (s *Sink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if uint64(len(p)) > s.limit-s.pos {
		s.err = ErrOffsetOverflow
		return 0, s.err
	}

	n := 0
	for len(p) > 0 {
		if len(s.buf) == cap(s.buf) {
			if err := s.flush(); err != nil {
				return n, err
			}
		}
		if len(s.buf) == 0 && len(p) >= cap(s.buf) {
			// large writes bypass the buffer
			k, err := s.w.Write(p)
			n += k
			s.pos += uint64(k)
			if err == nil && k < len(p) {
				err = io.ErrShortWrite
			}
			if err != nil {
				s.err = err
				return n, err
			}
			return n, nil
		}
		k := min(cap(s.buf)-len(s.buf), len(p))
		s.buf = append(s.buf, p[:k]...)
		s.pos += uint64(k)
		n += k
		p = p[k:]
	}
	return n, nil
}

// WriteString appends str to the output.
func (s *Sink) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// WriteByte appends a single byte to the output.
func (s *Sink) WriteByte(c byte) error {
	_, err := s.Write([]byte{c})
	return err
}

// ReadFrom copies data from r to the output until EOF is reached.
// This implements the [io.ReaderFrom] interface.
func (s *Sink) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	buf := make([]byte, BufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			k, wErr := s.Write(buf[:n])
			total += int64(k)
			if wErr != nil {
				return total, wErr
			}
		}
		if err == io.EOF {
			return total, nil
		} else if err != nil {
			return total, err
		}
	}
}

// Flush writes any buffered data to the underlying writer.
func (s *Sink) Flush() error {
	if s.err != nil {
		return s.err
	}
	return s.flush()
}

func (s *Sink) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	n, err := s.w.Write(s.buf)
	if err == nil && n < len(s.buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		s.err = err
		return err
	}
	s.buf = s.buf[:0]
	return nil
}

// Close flushes the sink.  If the underlying writer has a Close method, it is
// closed as well.
func (s *Sink) Close() error {
	err := s.Flush()
	if closer, ok := s.w.(io.Closer); ok {
		cErr := closer.Close()
		if err == nil {
			err = cErr
		}
	}
	if err == nil {
		s.err = errClosed
	}
	return err
}

var errClosed = errors.New("sink already closed")
