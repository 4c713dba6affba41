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
	"errors"
	"fmt"
	"io"
	"iter"
	"math/rand/v2"

	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/document"
	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
	"seehuhn.de/go/pdfcreator/sink"
	"seehuhn.de/go/pdfcreator/xref"
)

// Document is the object graph written by a [Creator].
// This is implemented by [*document.Document].
type Document interface {
	// LastObjectNumber returns the highest object number in use.
	LastObjectNumber() uint32

	// Get returns object n.  The second return value is false if the object
	// does not exist or cannot be read.
	Get(n uint32) (object.Object, bool)

	// Lookup returns object n, without keeping it in memory.
	Lookup(n uint32) (object.Object, error)

	IsFree(n uint32) bool
	IsValid(n uint32) bool

	// Objects iterates over the objects held in memory, in order of
	// increasing object number.
	Objects() iter.Seq2[uint32, object.Object]

	// Delete discards the in-memory copy of object n.
	Delete(n uint32)

	// Loaded reports whether object n is held in memory.
	Loaded(n uint32) bool

	// IsModified reports whether object n was changed since the document
	// was loaded.
	IsModified(n uint32) bool

	Root() uint32
	Info() (uint32, bool)

	// Parser returns the file the document was loaded from, or nil.
	Parser() document.Parser

	// Security returns the encryption of the original file, or nil.
	Security() *document.Security
}

// Options controls how a document is written.
type Options struct {
	// Incremental requests an incremental update.  This is only possible for
	// documents loaded from a file and is ignored otherwise.
	Incremental bool

	// NoOriginal omits the copy of the original file from an incremental
	// update.  The output must then be appended to the original file by
	// the caller.  The encryption of the document cannot be changed in
	// this mode.
	NoOriginal bool

	// MaxSize, if non-zero, limits the number of bytes written.  Writing
	// fails with [sink.ErrOffsetOverflow] once the limit would be exceeded.
	MaxSize uint64
}

var (
	// ErrStalled is returned by [Creator.Continue] if a stage did not make
	// progress.
	ErrStalled = errors.New("no progress while writing PDF file")

	// ErrNoOriginalSecurity is returned by [Creator.Start] if the encryption
	// of a document changes while the copy of the original file is omitted.
	// The update section would be read with the old encryption.
	ErrNoOriginalSecurity = errors.New("cannot change encryption without the original file")

	errStarted    = errors.New("creator already started")
	errNotStarted = errors.New("creator not started")
)

// Creator writes a [Document] to an [io.Writer].
//
// A Creator can only be used for a single write session.
type Creator struct {
	doc    Document
	parser document.Parser
	w      io.Writer
	out    *sink.Sink

	stage   Stage
	err     error
	started bool

	incremental bool
	noOriginal  bool
	fileVersion object.Version

	// base is the file position of the first byte written to out.  This is
	// non-zero only if the copy of the original file is omitted.
	base uint64

	offsets *xref.OffsetTable
	newObjs xref.NewObjectNumbers

	// last is the highest object number in the output.
	last      uint32
	xrefStart uint64

	newSecurity     *crypt.Params
	removeSecurity  bool
	securityChanged bool
	handler         *crypt.Handler
	encryptDict     object.Dict
	encryptNumber   uint32 // 0 while an inline dictionary is not yet written

	seed uint64
	id   [][]byte
}

// New returns a Creator which writes doc to w.
func New(doc Document, w io.Writer) *Creator {
	return &Creator{
		doc:     doc,
		parser:  doc.Parser(),
		w:       w,
		out:     sink.New(w),
		offsets: xref.NewOffsetTable(),
		seed:    rand.Uint64(),
	}
}

// SetFileVersion sets the PDF version written to the file header.  The
// value 0 selects the version of the original file, or PDF 1.7 for new
// documents.  This only has an effect for complete rewrites.
func (c *Creator) SetFileVersion(v object.Version) {
	c.fileVersion = v
}

// SetSecurity encrypts the output with new passwords and permissions.
func (c *Creator) SetSecurity(params *crypt.Params) {
	c.newSecurity = params
	c.removeSecurity = false
}

// RemoveSecurity writes the output without encryption.
func (c *Creator) RemoveSecurity() {
	c.newSecurity = nil
	c.removeSecurity = true
}

// Create writes the document.  This is equivalent to calling [Creator.Start]
// followed by calls to [Creator.Continue] until the stage
// [StageComplete] is reached.
func (c *Creator) Create(opt *Options) error {
	err := c.Start(opt)
	if err != nil {
		return err
	}
	for {
		stage, err := c.Continue()
		if err != nil {
			return err
		}
		if stage == StageComplete {
			return nil
		}
	}
}

// Start prepares the output.  This determines the file identifier and the
// encryption of the output.  No data is written.
func (c *Creator) Start(opt *Options) error {
	if c.started {
		return errStarted
	}
	c.started = true
	if opt == nil {
		opt = &Options{}
	}

	err := c.start(opt)
	if err != nil {
		c.stage = StageInvalid
		c.err = err
		return err
	}
	c.stage = StageInit
	return nil
}

func (c *Creator) start(opt *Options) error {
	if c.fileVersion != 0 && !c.fileVersion.IsValid() {
		return fmt.Errorf("invalid PDF version %d", int(c.fileVersion))
	}

	c.incremental = opt.Incremental && c.parser != nil
	c.noOriginal = opt.NoOriginal
	if opt.MaxSize > 0 {
		c.out = sink.NewWithLimit(c.w, opt.MaxSize)
	}
	c.last = c.doc.LastObjectNumber()

	err := c.initSecurity()
	if err != nil {
		return err
	}
	if c.incremental && c.noOriginal && c.securityChanged {
		return ErrNoOriginalSecurity
	}
	return nil
}

// Continue executes the next stage and returns the stage reached.
// Once an error occurred, all further calls return the same error.
func (c *Creator) Continue() (Stage, error) {
	if !c.started {
		return StageInvalid, errNotStarted
	}
	if c.err != nil {
		return StageInvalid, c.err
	}
	if c.stage == StageComplete {
		return StageComplete, nil
	}

	from := c.stage
	step, ok := steps[from]
	if !ok {
		return c.fail(from, fmt.Errorf("stage %s: %w", from, ErrStalled))
	}
	to, err := step(c)
	if err == nil {
		// catch write errors which a step did not report
		err = c.out.Err()
	}
	if err != nil {
		return c.fail(from, err)
	}
	if to <= from {
		return c.fail(from, fmt.Errorf("stage %s: %w", from, ErrStalled))
	}

	logging.Logger().Debug("stage", "from", from, "to", to)
	c.stage = to
	return to, nil
}

func (c *Creator) fail(from Stage, err error) (Stage, error) {
	logging.Logger().Error("writing PDF file failed", "stage", from, "error", err)
	c.stage = StageInvalid
	c.err = err
	return StageInvalid, err
}

// Stage returns the current stage.
func (c *Creator) Stage() Stage {
	return c.stage
}

// Offset returns the number of bytes written so far.
func (c *Creator) Offset() uint64 {
	return c.out.Offset()
}

// Incremental reports whether the output is an incremental update.  This
// is only known after [Creator.Start] and the first call to
// [Creator.Continue].
func (c *Creator) Incremental() bool {
	return c.incremental
}

// ID returns the file identifier written to the trailer.  This is
// available after [Creator.Start].
func (c *Creator) ID() [][]byte {
	return c.id
}

// pos returns the position in the output file.
func (c *Creator) pos() uint64 {
	return c.base + c.out.Offset()
}
