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

package parser

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/internal/memfile"
	"seehuhn.de/go/pdfcreator/object"
)

// testFile assembles PDF files for the tests.
type testFile struct {
	buf  bytes.Buffer
	offs map[uint32]int
}

func newTestFile(version string) *testFile {
	f := &testFile{offs: make(map[uint32]int)}
	fmt.Fprintf(&f.buf, "%%PDF-%s\n%%\xA1\xB3\xC5\xD7\n", version)
	return f
}

func (f *testFile) obj(n uint32, body string) {
	f.offs[n] = f.buf.Len()
	fmt.Fprintf(&f.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

// classicXRef writes a cross-reference table for all objects written since
// the last call, followed by the trailer.
func (f *testFile) classicXRef(trailer string) int {
	pos := f.buf.Len()
	nums := maps.Keys(f.offs)
	slices.Sort(nums)

	f.buf.WriteString("xref\n")
	if len(nums) > 0 && nums[0] == 1 {
		nums = append([]uint32{0}, nums...)
	}
	for i := 0; i < len(nums); {
		j := i + 1
		for j < len(nums) && nums[j] == nums[j-1]+1 {
			j++
		}
		fmt.Fprintf(&f.buf, "%d %d\n", nums[i], j-i)
		for _, n := range nums[i:j] {
			if n == 0 {
				f.buf.WriteString("0000000000 65535 f\r\n")
			} else {
				fmt.Fprintf(&f.buf, "%010d 00000 n\r\n", f.offs[n])
			}
		}
		i = j
	}
	fmt.Fprintf(&f.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, pos)
	clear(f.offs)
	return pos
}

func (f *testFile) reader(t *testing.T, opt *ReaderOptions) *Reader {
	t.Helper()
	mf := memfile.FromBytes(f.buf.Bytes())
	r, err := NewReader(mf, mf.Size(), opt)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func flate(data []byte) []byte {
	buf := &bytes.Buffer{}
	w := zlib.NewWriter(buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

func TestClassicFile(t *testing.T) {
	f := newTestFile("1.4")
	f.obj(1, "<</Type/Catalog/Pages 2 0 R>>")
	f.obj(2, "<</Type/Pages/Kids[]/Count 0>>")
	f.obj(3, "(Hello World)")
	pos := f.classicXRef("<</Size 4/Root 1 0 R/Info 3 0 R>>")

	r := f.reader(t, nil)
	if r.Version() != object.V1_4 {
		t.Errorf("version %s", r.Version())
	}
	if r.LastXRefOffset() != uint64(pos) {
		t.Errorf("LastXRefOffset() = %d, want %d", r.LastXRefOffset(), pos)
	}
	if r.IsXRefStream() {
		t.Error("classic table reported as stream")
	}
	if r.LastObjectNumber() != 3 {
		t.Errorf("LastObjectNumber() = %d", r.LastObjectNumber())
	}
	if !r.IsFree(0) || r.IsFree(2) || !r.IsValid(3) || r.IsValid(4) {
		t.Error("wrong IsFree/IsValid results")
	}
	if r.Offset(1) != 15 {
		t.Errorf("Offset(1) = %d", r.Offset(1))
	}
	if r.Security() != nil {
		t.Error("unencrypted file has security information")
	}

	obj, err := r.Object(3)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("Hello World"), obj); d != "" {
		t.Error(d)
	}
	obj, err = r.Object(1)
	if err != nil {
		t.Fatal(err)
	}
	want := object.Dict{"Type": object.Name("Catalog"), "Pages": object.NewReference(2)}
	if d := cmp.Diff(want, obj); d != "" {
		t.Error(d)
	}

	obj, err = r.Object(7)
	if obj != nil || err != nil {
		t.Errorf("Object(7) = %v, %v", obj, err)
	}

	tr := r.Trailer()
	if tr["Root"] != object.NewReference(1) || tr["Size"] != object.Integer(4) {
		t.Errorf("wrong trailer %v", tr)
	}
}

func TestCatalogVersion(t *testing.T) {
	f := newTestFile("1.3")
	f.obj(1, "<</Type/Catalog/Version/1.6>>")
	f.classicXRef("<</Size 2/Root 1 0 R>>")

	r := f.reader(t, nil)
	if r.Version() != object.V1_6 {
		t.Errorf("version %s", r.Version())
	}
}

func TestIncrementalUpdate(t *testing.T) {
	f := newTestFile("1.7")
	f.obj(1, "<</Type/Catalog>>")
	f.obj(2, "(old)")
	first := f.classicXRef("<</Size 3/Root 1 0 R/ID[<01><02>]>>")

	f.obj(2, "(new)")
	f.obj(3, "42")
	f.classicXRef(fmt.Sprintf("<</Size 4/Root 1 0 R/Prev %d/ID[<01><03>]>>", first))

	r := f.reader(t, nil)
	obj, err := r.Object(2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("new"), obj); d != "" {
		t.Error(d)
	}
	obj, _ = r.Object(1)
	if obj == nil {
		t.Error("object 1 from the first section is missing")
	}
	if r.LastObjectNumber() != 3 {
		t.Errorf("LastObjectNumber() = %d", r.LastObjectNumber())
	}
	if d := cmp.Diff([][]byte{{1}, {3}}, r.ID()); d != "" {
		t.Errorf("newest ID expected: %s", d)
	}
	if r.Trailer()["Prev"] != object.Integer(first) {
		t.Error("wrong /Prev in trailer")
	}
}

// xrefStreamFile writes a file with an object stream and a compressed
// cross-reference stream.
func xrefStreamFile() (*testFile, int) {
	f := newTestFile("1.5")
	f.obj(1, "<</Type/Catalog/Pages 2 0 R>>")

	header := "2 0 3 5 "
	body := "<<>> 17 (three)"
	stm := flate([]byte(header + body))
	f.offs[4] = f.buf.Len()
	fmt.Fprintf(&f.buf, "4 0 obj\n<</Type/ObjStm/N 2/First %d/Filter/FlateDecode/Length %d>>stream\n",
		len(header), len(stm))
	f.buf.Write(stm)
	f.buf.WriteString("\nendstream\nendobj\n")

	pos := f.buf.Len()
	var entries []byte
	entries = append(entries, 0, 0, 0, 255)
	entries = append(entries, 1, 0, byte(f.offs[1]), 0)
	entries = append(entries, 2, 0, 4, 0)
	entries = append(entries, 2, 0, 4, 1)
	entries = append(entries, 1, byte(f.offs[4]>>8), byte(f.offs[4]), 0)
	entries = append(entries, 1, byte(pos>>8), byte(pos), 0)
	data := flate(entries)
	fmt.Fprintf(&f.buf, "5 0 obj\n<</Type/XRef/Size 6/W[1 2 1]/Root 1 0 R/Filter/FlateDecode/Length %d>>stream\n",
		len(data))
	f.buf.Write(data)
	fmt.Fprintf(&f.buf, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", pos)
	return f, pos
}

func TestXRefStream(t *testing.T) {
	f, pos := xrefStreamFile()
	r := f.reader(t, nil)

	if !r.IsXRefStream() {
		t.Error("xref stream not detected")
	}
	if r.LastXRefOffset() != uint64(pos) {
		t.Errorf("LastXRefOffset() = %d", r.LastXRefOffset())
	}
	if r.LastObjectNumber() != 5 {
		t.Errorf("LastObjectNumber() = %d", r.LastObjectNumber())
	}

	obj, err := r.Object(3)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.Integer(17), obj); d != "" {
		t.Error(d)
	}
	obj, err = r.Object(2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.Dict{}, obj); d != "" {
		t.Error(d)
	}
	if r.Offset(3) != 0 {
		t.Error("compressed object reported with an offset")
	}
	if r.IsFree(3) {
		t.Error("compressed object reported as free")
	}
}

// TestShortXRefStream checks the format written for incremental updates:
// no type column and no "endobj" after the stream.
func TestShortXRefStream(t *testing.T) {
	f := newTestFile("1.7")
	f.obj(1, "<</Type/Catalog>>")
	f.obj(2, "(two)")

	pos := f.buf.Len()
	var entries []byte
	for _, offs := range []int{f.offs[1], f.offs[2], pos} {
		entries = append(entries, byte(offs>>24), byte(offs>>16), byte(offs>>8), byte(offs), 0)
	}
	fmt.Fprintf(&f.buf, "3 0 obj\r\n<</Root 1 0 R/Size 4/Type/XRef/W[0 4 1]/Index[1 3]/Length %d>>stream\r\n",
		len(entries))
	f.buf.Write(entries)
	fmt.Fprintf(&f.buf, "\r\nendstream\r\nstartxref\r\n%d\r\n%%%%EOF\r\n", pos)

	r := f.reader(t, nil)
	obj, err := r.Object(2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("two"), obj); d != "" {
		t.Error(d)
	}
	if r.Offset(3) != uint64(pos) {
		t.Errorf("Offset(3) = %d, want %d", r.Offset(3), pos)
	}
	if !r.IsFree(0) {
		t.Error("object 0 is not free")
	}
}

func TestHybridFile(t *testing.T) {
	f := newTestFile("1.5")
	f.obj(1, "<</Type/Catalog>>")

	header := "2 0 "
	body := "(hidden)"
	f.offs[3] = f.buf.Len()
	fmt.Fprintf(&f.buf, "3 0 obj\n<</Type/ObjStm/N 1/First %d/Length %d>>stream\n%s%s\nendstream\nendobj\n",
		len(header), len(header+body), header, body)

	stmPos := f.buf.Len()
	entries := []byte{2, 3, 0}
	fmt.Fprintf(&f.buf, "4 0 obj\n<</Type/XRef/Size 5/W[1 1 1]/Index[2 1]/Length 3>>stream\n")
	f.buf.Write(entries)
	f.buf.WriteString("\nendstream\nendobj\n")

	// the classic table marks object 2 as free
	tablePos := f.buf.Len()
	fmt.Fprintf(&f.buf, "xref\n0 4\n0000000000 65535 f\r\n%010d 00000 n\r\n0000000000 00001 f\r\n%010d 00000 n\r\n",
		f.offs[1], f.offs[3])
	fmt.Fprintf(&f.buf, "trailer\n<</Size 5/Root 1 0 R/XRefStm %d>>\nstartxref\n%d\n%%%%EOF\n",
		stmPos, tablePos)

	r := f.reader(t, nil)
	obj, err := r.Object(2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("hidden"), obj); d != "" {
		t.Error(d)
	}
}

func TestReconstruct(t *testing.T) {
	f := newTestFile("1.4")
	f.obj(1, "<</Type/Catalog/Pages 2 0 R>>")
	f.obj(2, "<</Type/Pages/Count 0/Kids[]>>")
	f.obj(3, "(first)")
	f.obj(3, "(second)")
	fmt.Fprintf(&f.buf, "trailer\n<</Size 4/Root 1 0 R>>\nstartxref\n9999\n%%%%EOF\n")

	r := f.reader(t, nil)
	if r.LastXRefOffset() != 0 {
		t.Errorf("LastXRefOffset() = %d after reconstruction", r.LastXRefOffset())
	}
	if r.Trailer()["Root"] != object.NewReference(1) {
		t.Error("wrong /Root")
	}
	obj, err := r.Object(3)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("second"), obj); d != "" {
		t.Error(d)
	}
}

func TestReconstructFindsCatalog(t *testing.T) {
	f := newTestFile("1.4")
	f.obj(1, "(x)")
	f.obj(2, "<</Type/Catalog>>")
	f.buf.WriteString("%%EOF\n")

	r := f.reader(t, nil)
	if r.Trailer()["Root"] != object.NewReference(2) {
		t.Errorf("wrong /Root %v", r.Trailer()["Root"])
	}
}

func TestMalformed(t *testing.T) {
	cases := []string{
		"",
		"not a PDF file",
		"%PDF-1.4\nthere are no objects here\n%%EOF\n",
	}
	for _, c := range cases {
		mf := memfile.FromBytes([]byte(c))
		_, err := NewReader(mf, mf.Size(), nil)
		var merr *MalformedFileError
		if !errors.As(err, &merr) {
			t.Errorf("%q: expected MalformedFileError, got %v", c, err)
		}
	}
}

func TestUnknownVersion(t *testing.T) {
	f := newTestFile("1.9")
	f.obj(1, "<</Type/Catalog>>")
	f.classicXRef("<</Size 2/Root 1 0 R>>")

	r := f.reader(t, nil)
	if r.Version() != object.V1_7 {
		t.Errorf("version %s", r.Version())
	}
}

func encryptedFile(t *testing.T, c crypt.Cipher, unencryptedMetadata bool) *testFile {
	t.Helper()
	id := []byte("0123456789abcdef")
	h, err := crypt.New(id, &crypt.Params{
		UserPassword:        "secret",
		OwnerPassword:       "boss",
		Cipher:              c,
		Perm:                crypt.PermAll,
		UnencryptedMetadata: unencryptedMetadata,
	})
	if err != nil {
		t.Fatal(err)
	}

	f := newTestFile("1.7")
	f.obj(1, "<</Type/Catalog/Metadata 3 0 R>>")
	enc := h.ForObject(object.Reference{Number: 2})
	s, err := enc.EncryptString([]byte("top secret"))
	if err != nil {
		t.Fatal(err)
	}
	f.obj(2, fmt.Sprintf("<%x>", s))

	meta := []byte("<x:xmpmeta/>")
	if !unencryptedMetadata {
		meta, err = h.ForObject(object.Reference{Number: 3}).EncryptStream(meta)
		if err != nil {
			t.Fatal(err)
		}
	}
	f.offs[3] = f.buf.Len()
	fmt.Fprintf(&f.buf, "3 0 obj\n<</Type/Metadata/Subtype/XML/Length %d>>stream\n", len(meta))
	f.buf.Write(meta)
	f.buf.WriteString("\nendstream\nendobj\n")

	f.obj(4, object.Format(h.Dict()))
	f.classicXRef(fmt.Sprintf("<</Size 5/Root 1 0 R/Encrypt 4 0 R/ID[<%x><%x>]>>", id, id))
	return f
}

func TestEncrypted(t *testing.T) {
	for _, c := range []crypt.Cipher{crypt.RC4_128, crypt.AES_128} {
		t.Run(c.String(), func(t *testing.T) {
			f := encryptedFile(t, c, false)

			mf := memfile.FromBytes(f.buf.Bytes())
			_, err := NewReader(mf, mf.Size(), nil)
			if !errors.Is(err, crypt.ErrWrongPassword) {
				t.Errorf("expected ErrWrongPassword, got %v", err)
			}

			var tries []int
			r := f.reader(t, &ReaderOptions{
				ReadPassword: func(_ []byte, try int) string {
					tries = append(tries, try)
					if try == 0 {
						return "wrong"
					}
					return "secret"
				},
			})
			if d := cmp.Diff([]int{0, 1}, tries); d != "" {
				t.Error(d)
			}
			if r.Password() != "secret" {
				t.Errorf("Password() = %q", r.Password())
			}
			sec := r.Security()
			if sec == nil || sec.Number != 4 || sec.Handler == nil {
				t.Fatalf("wrong security information %v", sec)
			}

			obj, err := r.Object(2)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(object.String("top secret"), obj); d != "" {
				t.Error(d)
			}
			obj, err = r.Object(3)
			if err != nil {
				t.Fatal(err)
			}
			if got := string(obj.(*object.Stream).Data); got != "<x:xmpmeta/>" {
				t.Errorf("metadata %q", got)
			}

			// the encryption dictionary itself is not decrypted
			obj, err = r.Object(4)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(sec.Dict, obj); d != "" {
				t.Error(d)
			}
		})
	}
}

func TestUnencryptedMetadata(t *testing.T) {
	f := encryptedFile(t, crypt.AES_256, true)
	r := f.reader(t, &ReaderOptions{
		ReadPassword: func([]byte, int) string { return "boss" },
	})
	obj, err := r.Object(3)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(obj.(*object.Stream).Data); got != "<x:xmpmeta/>" {
		t.Errorf("metadata %q", got)
	}
	obj, err = r.Object(2)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(object.String("top secret"), obj); d != "" {
		t.Error(d)
	}
}

func FuzzReader(f *testing.F) {
	tf := newTestFile("1.4")
	tf.obj(1, "<</Type/Catalog/Pages 2 0 R>>")
	tf.obj(2, "<</Type/Pages/Kids[]/Count 0>>")
	tf.obj(3, "<</Length 5>>\nstream\nhello\nendstream")
	tf.classicXRef("<</Size 4/Root 1 0 R>>")
	f.Add(tf.buf.Bytes())
	xf, _ := xrefStreamFile()
	f.Add(xf.buf.Bytes())
	f.Add([]byte("%PDF-1.7\n1 0 obj\n<</Type/Catalog>>\nendobj\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		mf := memfile.FromBytes(data)
		r, err := NewReader(mf, mf.Size(), nil)
		if err != nil {
			return
		}
		for n := uint32(1); n <= min(r.LastObjectNumber(), 1000); n++ {
			r.Object(n)
		}
	})
}
