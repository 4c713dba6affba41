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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// BufferedLogHandler is a [slog.Handler] which keeps log records in memory,
// one JSON object per line.  This is used to inspect log output in tests:
//
//	h := logging.NewBufferedLogHandler(nil)
//	logging.SetLogger(slog.New(h))
//	defer logging.SetLogger(nil)
//	...
//	if !h.Contains("tombstone") { ... }
type BufferedLogHandler struct {
	level  slog.Leveler
	attrs  []string // formatted when added
	groups []string

	// shared between handlers derived via WithAttrs and WithGroup
	mu  *sync.Mutex
	buf *bytes.Buffer
}

// NewBufferedLogHandler returns a new handler with an empty buffer.  If opts
// is nil or opts.Level is unset, records of all levels are kept.
func NewBufferedLogHandler(opts *slog.HandlerOptions) *BufferedLogHandler {
	h := &BufferedLogHandler{
		mu:  &sync.Mutex{},
		buf: &bytes.Buffer{},
	}
	if opts != nil {
		h.level = opts.Level
	}
	return h
}

// Enabled implements [slog.Handler].
func (h *BufferedLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level == nil || level >= h.level.Level()
}

type record struct {
	Level   string   `json:"level"`
	Message string   `json:"message"`
	Attrs   []string `json:"attrs,omitempty"`
}

// Handle implements [slog.Handler].
func (h *BufferedLogHandler) Handle(_ context.Context, r slog.Record) error {
	rec := record{
		Level:   r.Level.String(),
		Message: r.Message,
	}
	rec.Attrs = append(rec.Attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs = append(rec.Attrs, h.format(a))
		return true
	})

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Write(data)
	h.buf.WriteByte('\n')
	return nil
}

func (h *BufferedLogHandler) format(a slog.Attr) string {
	if len(h.groups) == 0 {
		return a.String()
	}
	return strings.Join(h.groups, ".") + "." + a.String()
}

// WithAttrs implements [slog.Handler].
func (h *BufferedLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := *h
	res.attrs = h.attrs[:len(h.attrs):len(h.attrs)]
	for _, a := range attrs {
		res.attrs = append(res.attrs, h.format(a))
	}
	return &res
}

// WithGroup implements [slog.Handler].
func (h *BufferedLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	res := *h
	res.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &res
}

// String returns the captured output.
func (h *BufferedLogHandler) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.String()
}

// Contains reports whether the captured output contains s.
func (h *BufferedLogHandler) Contains(s string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Contains(h.buf.Bytes(), []byte(s))
}

// Lines returns the number of records captured so far.
func (h *BufferedLogHandler) Lines() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Count(h.buf.Bytes(), []byte{'\n'})
}

// Reset discards all captured output.
func (h *BufferedLogHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.Reset()
}
