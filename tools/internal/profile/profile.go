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


// Package profile adds optional pprof profiles to the command line tools.
package profile

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Profiler writes a CPU profile, a memory profile, or both.
// The zero value writes no profiles.
type Profiler struct {
	CPUFile string
	MemFile string

	cpu *os.File
}

// RegisterFlags adds the -cpuprofile and -memprofile options to fs.
func (p *Profiler) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&p.CPUFile, "cpuprofile", "", "write CPU profile to `file`")
	fs.StringVar(&p.MemFile, "memprofile", "", "write memory profile to `file`")
}

// Start begins CPU profiling, if requested.  Stop must be called before the
// program exits.
func (p *Profiler) Start() error {
	if p.CPUFile == "" {
		return nil
	}
	fd, err := os.Create(p.CPUFile)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	err = pprof.StartCPUProfile(fd)
	if err != nil {
		fd.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	p.cpu = fd
	return nil
}

// Stop ends CPU profiling and writes the memory profile, if requested.
func (p *Profiler) Stop() error {
	var firstErr error
	if p.cpu != nil {
		pprof.StopCPUProfile()
		firstErr = p.cpu.Close()
		p.cpu = nil
	}
	if p.MemFile == "" {
		return firstErr
	}

	fd, err := os.Create(p.MemFile)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	runtime.GC()
	err = pprof.Lookup("allocs").WriteTo(fd, 0)
	if err != nil {
		fd.Close()
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	err = fd.Close()
	if firstErr == nil {
		firstErr = err
	}
	return firstErr
}
