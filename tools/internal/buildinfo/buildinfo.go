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


// Package buildinfo reports the version of the command line tools.
package buildinfo

import (
	"runtime/debug"
)

// Info describes the module a tool was built from.
type Info struct {
	Path     string // module path
	Version  string // module version, or "" for development builds
	Revision string // abbreviated VCS revision
	Dirty    bool   // the working tree had uncommitted changes
}

// Read returns the build information of the running binary.
// The second return value is false if no information is available.
func Read() (*Info, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, false
	}
	return fromBuildInfo(bi), true
}

func fromBuildInfo(bi *debug.BuildInfo) *Info {
	info := &Info{Path: bi.Main.Path}
	if v := bi.Main.Version; v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.Revision) > 8 {
		info.Revision = info.Revision[:8]
	}
	return info
}

// String returns the module path followed by the version, or by the VCS
// revision for development builds.  The result is empty if neither is
// known.
func (info *Info) String() string {
	switch {
	case info.Version != "":
		return info.Path + " " + info.Version
	case info.Revision != "":
		rev := info.Revision
		if info.Dirty {
			rev += "+dirty"
		}
		return info.Path + " " + rev
	default:
		return ""
	}
}

// Short returns a short version string for a tool, e.g.
// "pdf-resave (seehuhn.de/go/pdfcreator v0.1.0)".
func Short(toolName string) string {
	info, ok := Read()
	if !ok {
		return toolName
	}
	if s := info.String(); s != "" {
		return toolName + " (" + s + ")"
	}
	return toolName
}
