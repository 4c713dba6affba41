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
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultDiscards(t *testing.T) {
	SetLogger(nil)
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}
}

func TestBufferedLogHandler(t *testing.T) {
	h := NewBufferedLogHandler(nil)
	SetLogger(slog.New(h))
	defer SetLogger(nil)

	Logger().Debug("stage", "from", "Init", "to", "WriteHeader")
	Logger().With("pos", 17).WithGroup("obj").Warn("tombstone", "number", 4)

	if n := h.Lines(); n != 2 {
		t.Fatalf("got %d lines, expected 2", n)
	}

	lines := strings.Split(strings.TrimSpace(h.String()), "\n")
	var got []record
	for _, line := range lines {
		var rec record
		err := json.Unmarshal([]byte(line), &rec)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, rec)
	}
	want := []record{
		{Level: "DEBUG", Message: "stage", Attrs: []string{"from=Init", "to=WriteHeader"}},
		{Level: "WARN", Message: "tombstone", Attrs: []string{"pos=17", "obj.number=4"}},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}

	if !h.Contains("tombstone") {
		t.Error("message not found")
	}
	h.Reset()
	if h.String() != "" {
		t.Error("Reset did not clear the buffer")
	}
}

func TestLevelFilter(t *testing.T) {
	h := NewBufferedLogHandler(&slog.HandlerOptions{Level: slog.LevelWarn})
	l := slog.New(h)
	l.Info("hidden")
	l.Warn("shown")
	if h.Contains("hidden") || !h.Contains("shown") {
		t.Errorf("unexpected output %q", h.String())
	}
}
