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

// Pdf-resave reads a PDF file and writes it again.
//
// By default, a complete new file is written, which contains only the
// objects reachable from the document catalog.  With -incremental, the
// original file is copied unchanged and an update section is appended.
// The encryption of the file can be changed with -cipher or removed with
// -decrypt.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/term"

	"seehuhn.de/go/pdfcreator"
	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/document"
	"seehuhn.de/go/pdfcreator/logging"
	"seehuhn.de/go/pdfcreator/object"
	"seehuhn.de/go/pdfcreator/parser"
	"seehuhn.de/go/pdfcreator/tools/internal/buildinfo"
	"seehuhn.de/go/pdfcreator/tools/internal/profile"
)

type options struct {
	out        string
	force      bool
	version    string
	password   string
	user       string
	owner      string
	cipher     string
	decrypt    bool
	incr       bool
	noOriginal bool
	addPage    string

	prof profile.Profiler
}

func main() {
	opt := &options{}
	flag.StringVar(&opt.out, "o", "out.pdf", "output file name")
	flag.BoolVar(&opt.force, "f", false, "overwrite output file if it exists")
	flag.BoolVar(&opt.incr, "incremental", false, "append an incremental update to the original file")
	flag.BoolVar(&opt.noOriginal, "no-original", false, "write only the update section (implies -incremental)")
	flag.StringVar(&opt.version, "version", "", "PDF version of the output, e.g. 1.7")
	flag.StringVar(&opt.password, "password", "", "password for opening the input file")
	flag.StringVar(&opt.user, "user", "", "user password for the output file")
	flag.StringVar(&opt.owner, "owner", "", "owner password for the output file")
	flag.StringVar(&opt.cipher, "cipher", "", "encrypt the output (RC4-40, RC4-128, AES-128 or AES-256)")
	flag.BoolVar(&opt.decrypt, "decrypt", false, "remove the encryption from the output")
	flag.StringVar(&opt.addPage, "add-page", "", "append an empty page (A4 or Letter)")
	opt.prof.RegisterFlags(flag.CommandLine)
	verbose := flag.Bool("v", false, "log progress to stderr")
	showVersion := flag.Bool("V", false, "show version information and exit")
	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "usage: %s [options] input.pdf\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.Short("pdf-resave"))
		return
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	err := run(flag.Arg(0), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(in string, opt *options) error {
	err := opt.prof.Start()
	if err != nil {
		return err
	}
	defer func() {
		if err := opt.prof.Stop(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()

	if opt.decrypt && opt.cipher != "" {
		return errors.New("-decrypt and -cipher cannot be used together")
	}
	if opt.noOriginal && (opt.decrypt || opt.cipher != "") {
		return errors.New("-no-original cannot be used with -decrypt or -cipher")
	}
	var mediaBox object.Array
	switch strings.ToLower(opt.addPage) {
	case "":
		// pass
	case "a4":
		mediaBox = document.A4
	case "letter":
		mediaBox = document.Letter
	default:
		return fmt.Errorf("unknown paper size %q", opt.addPage)
	}
	if !opt.force {
		if _, err := os.Stat(opt.out); !os.IsNotExist(err) {
			return fmt.Errorf("output file %q already exists", opt.out)
		}
	}

	var fileVersion object.Version
	if opt.version != "" {
		v, err := object.ParseVersion(opt.version)
		if err != nil {
			return err
		}
		fileVersion = v
	}

	var params *crypt.Params
	if opt.cipher != "" {
		cipher, err := crypt.ParseCipher(opt.cipher)
		if err != nil {
			return err
		}
		params = &crypt.Params{
			UserPassword:  opt.user,
			OwnerPassword: opt.owner,
			Perm:          crypt.PermAll,
			Cipher:        cipher,
		}
	}

	fd, err := os.Open(in)
	if err != nil {
		return err
	}
	defer fd.Close()
	fi, err := fd.Stat()
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%s: empty file", in)
	}
	data, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	defer func() {
		if data != nil {
			data.Unmap()
		}
	}()

	r, err := parser.NewReader(bytes.NewReader(data), int64(len(data)), &parser.ReaderOptions{
		ReadPassword: passwordFunc(opt.password),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	doc, err := document.Load(r)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	if mediaBox != nil {
		_, err = doc.AddPage(mediaBox, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
	}

	// The input may be memory mapped from the output file, so the output
	// is written to a temporary file first.
	tmp, err := os.CreateTemp(filepath.Dir(opt.out), ".pdf-resave-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	c := pdfcreator.New(doc, tmp)
	if fileVersion != 0 {
		c.SetFileVersion(fileVersion)
	}
	switch {
	case params != nil:
		c.SetSecurity(params)
	case opt.decrypt:
		c.RemoveSecurity()
	}
	err = c.Create(&pdfcreator.Options{
		Incremental: opt.incr || opt.noOriginal,
		NoOriginal:  opt.noOriginal,
	})
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	// CreateTemp uses mode 0600
	err = os.Chmod(tmp.Name(), fi.Mode().Perm()|0o200)
	if err != nil {
		return err
	}
	logging.Logger().Info("file written",
		"file", opt.out,
		"incremental", c.Incremental(),
		"size", c.Offset())

	err = data.Unmap()
	if err != nil {
		return err
	}
	data = nil
	return os.Rename(tmp.Name(), opt.out)
}

// passwordFunc returns a function which first tries the password given on
// the command line and then asks the user, if stdin is a terminal.
func passwordFunc(passwd string) parser.ReadPwdFunc {
	return func(_ []byte, try int) string {
		if try == 0 && passwd != "" {
			return passwd
		}
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return ""
		}
		fmt.Fprint(os.Stderr, "password: ")
		res, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return ""
		}
		return string(res)
	}
}
