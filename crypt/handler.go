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

// Package crypt implements the PDF standard security handler.
//
// A [Handler] holds the file encryption key of a document.  For every
// indirect object written to a file, [Handler.ForObject] returns an
// [Encryptor] which encrypts the strings and streams of this object with the
// key derived for the object number.
//
// Revisions 2, 3 and 4 (RC4 and AES-128) and revision 6 (AES-256) of the
// standard security handler are supported.
package crypt

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"seehuhn.de/go/pdfcreator/object"
)

// Cipher selects the encryption algorithm and key length.
type Cipher int

// These are the supported ciphers.
const (
	RC4_40 Cipher = iota + 1
	RC4_128
	AES_128
	AES_256
)

func (c Cipher) String() string {
	switch c {
	case RC4_40:
		return "RC4-40"
	case RC4_128:
		return "RC4-128"
	case AES_128:
		return "AES-128"
	case AES_256:
		return "AES-256"
	default:
		return fmt.Sprintf("cipher#%d", int(c))
	}
}

// ParseCipher converts the output of [Cipher.String] back into a Cipher.
func ParseCipher(s string) (Cipher, error) {
	for c := RC4_40; c <= AES_256; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown cipher %q", s)
}

// Params describes the encryption settings for a new document.
type Params struct {
	UserPassword  string
	OwnerPassword string // defaults to UserPassword

	// Perm lists the operations a user without the owner password may
	// perform.
	Perm Perm

	Cipher Cipher

	// UnencryptedMetadata leaves XMP metadata streams unencrypted.  This is
	// only honoured for AES ciphers.
	UnencryptedMetadata bool
}

var (
	// ErrWrongPassword is returned by [Open] if the password cannot be
	// used to open the document.
	ErrWrongPassword = errors.New("wrong password")

	// ErrInvalidPassword is returned if a password contains characters which
	// cannot be represented.
	ErrInvalidPassword = errors.New("invalid characters in password")

	errUnsupported = errors.New("unsupported encryption scheme")
	errCorrupted   = errors.New("corrupted ciphertext")
)

// Handler is an authenticated instance of the standard security handler.
type Handler struct {
	v, r     int
	keyBytes int
	strF     cipherKind // strings
	stmF     cipherKind // streams

	id    []byte
	o, u  []byte
	oe    []byte
	ue    []byte
	perms []byte
	p     uint32

	encryptMetadata bool
	ownerAuth       bool

	key           []byte
	paddedUserPwd []byte // revisions 2-4 only
}

type cipherKind int

const (
	cipherNone cipherKind = iota
	cipherRC4
	cipherAES
)

// New creates a new handler for the given file identifier (the first
// element of the /ID array in the trailer).
func New(id []byte, params *Params) (*Handler, error) {
	ownerPwd := params.OwnerPassword
	if ownerPwd == "" {
		ownerPwd = params.UserPassword
	}

	h := &Handler{
		id:              bytes.Clone(id),
		p:               permToP(params.Perm),
		encryptMetadata: true,
		ownerAuth:       true,
	}
	switch params.Cipher {
	case RC4_40:
		h.v, h.keyBytes = 1, 5
		h.r = 2
		if !params.Perm.canR2() {
			h.r = 3
		}
		h.strF, h.stmF = cipherRC4, cipherRC4
	case RC4_128:
		h.v, h.r, h.keyBytes = 2, 3, 16
		h.strF, h.stmF = cipherRC4, cipherRC4
	case AES_128:
		h.v, h.r, h.keyBytes = 4, 4, 16
		h.strF, h.stmF = cipherAES, cipherAES
		h.encryptMetadata = !params.UnencryptedMetadata
	case AES_256:
		h.v, h.r, h.keyBytes = 5, 6, 32
		h.strF, h.stmF = cipherAES, cipherAES
		h.encryptMetadata = !params.UnencryptedMetadata
	default:
		return nil, errUnsupported
	}

	if h.r < 6 {
		paddedUserPwd, err := padPasswd(params.UserPassword)
		if err != nil {
			return nil, err
		}
		paddedOwnerPwd, err := padPasswd(ownerPwd)
		if err != nil {
			return nil, err
		}
		h.o = h.computeO(paddedUserPwd, paddedOwnerPwd)
		h.key = h.fileKey(paddedUserPwd)
		h.u = h.computeU(h.key)
		h.paddedUserPwd = paddedUserPwd
		return h, nil
	}

	utf8UserPwd, err := utf8Passwd(params.UserPassword)
	if err != nil {
		return nil, err
	}
	utf8OwnerPwd, err := utf8Passwd(ownerPwd)
	if err != nil {
		return nil, err
	}
	h.key = make([]byte, 32)
	_, err = rand.Read(h.key)
	if err != nil {
		return nil, err
	}
	h.u, h.ue, err = h.computeUAndUE(utf8UserPwd)
	if err != nil {
		return nil, err
	}
	h.o, h.oe, err = h.computeOAndOE(utf8OwnerPwd)
	if err != nil {
		return nil, err
	}
	h.perms = h.computePerms()
	return h, nil
}

// Open authenticates against the encryption dictionary of an existing file.
// The password may be either the user or the owner password.
func Open(enc object.Dict, id []byte, password string) (*Handler, error) {
	if filter, _ := enc["Filter"].(object.Name); filter != "Standard" {
		return nil, fmt.Errorf("security handler %q: %w", filter, errUnsupported)
	}

	V, _ := enc["V"].(object.Integer)
	R, _ := enc["R"].(object.Integer)
	P, ok := enc["P"].(object.Integer)
	if !ok {
		return nil, errors.New("invalid Encrypt.P")
	}
	h := &Handler{
		v:               int(V),
		r:               int(R),
		id:              bytes.Clone(id),
		p:               uint32(P),
		encryptMetadata: true,
	}
	if emd, ok := enc["EncryptMetadata"].(object.Bool); ok && V >= 4 {
		h.encryptMetadata = bool(emd)
	}

	switch V {
	case 1:
		h.keyBytes = 5
		h.strF, h.stmF = cipherRC4, cipherRC4
	case 2, 3:
		length := 40
		if l, ok := enc["Length"].(object.Integer); ok {
			length = int(l)
		}
		if length < 40 || length > 128 || length%8 != 0 {
			return nil, fmt.Errorf("invalid Encrypt.Length %d", length)
		}
		h.keyBytes = length / 8
		h.strF, h.stmF = cipherRC4, cipherRC4
	case 4, 5:
		cf, _ := enc["CF"].(object.Dict)
		var err error
		h.strF, err = cryptFilter(enc["StrF"], cf)
		if err != nil {
			return nil, err
		}
		h.stmF, err = cryptFilter(enc["StmF"], cf)
		if err != nil {
			return nil, err
		}
		h.keyBytes = 16
		if V == 5 {
			h.keyBytes = 32
		}
	default:
		return nil, fmt.Errorf("Encrypt.V=%d: %w", V, errUnsupported)
	}

	ouLength := 32
	if h.r == 6 {
		ouLength = 48
	} else if h.r < 2 || h.r > 4 {
		return nil, fmt.Errorf("Encrypt.R=%d: %w", h.r, errUnsupported)
	}
	O, _ := enc["O"].(object.String)
	U, _ := enc["U"].(object.String)
	if len(O) < ouLength || len(U) < ouLength {
		return nil, errors.New("invalid Encrypt.O or Encrypt.U")
	}
	h.o = bytes.Clone(O[:ouLength])
	h.u = bytes.Clone(U[:ouLength])

	if h.r < 6 {
		padded, err := padPasswd(password)
		if err != nil {
			return nil, err
		}
		if h.authenticateOwner(padded) {
			h.ownerAuth = true
			return h, nil
		}
		if h.authenticateUser(padded) {
			return h, nil
		}
		return nil, ErrWrongPassword
	}

	OE, _ := enc["OE"].(object.String)
	UE, _ := enc["UE"].(object.String)
	perms, _ := enc["Perms"].(object.String)
	if len(OE) != 32 || len(UE) != 32 || len(perms) != 16 {
		return nil, errors.New("invalid Encrypt.OE, Encrypt.UE or Encrypt.Perms")
	}
	h.oe, h.ue, h.perms = []byte(OE), []byte(UE), []byte(perms)

	prepped, err := utf8Passwd(password)
	if err != nil {
		return nil, err
	}
	if h.authenticate6(prepped, h.o, h.oe, h.u) {
		h.ownerAuth = true
		return h, nil
	}
	if h.authenticate6(prepped, h.u, h.ue, nil) {
		return h, nil
	}
	return nil, ErrWrongPassword
}

func cryptFilter(name object.Object, cf object.Dict) (cipherKind, error) {
	n, _ := name.(object.Name)
	if n == "" || n == "Identity" {
		return cipherNone, nil
	}
	dict, ok := cf[n].(object.Dict)
	if !ok {
		return cipherNone, fmt.Errorf("missing crypt filter %q", n)
	}
	switch dict["CFM"] {
	case object.Name("V2"):
		return cipherRC4, nil
	case object.Name("AESV2"), object.Name("AESV3"):
		return cipherAES, nil
	case object.Name("None"):
		return cipherNone, nil
	}
	return cipherNone, fmt.Errorf("crypt filter %q: %w", n, errUnsupported)
}

// OwnerAuthenticated reports whether the handler was opened with the owner
// password.
func (h *Handler) OwnerAuthenticated() bool {
	return h.ownerAuth
}

// Permissions returns the operations permitted to users without the owner
// password.
func (h *Handler) Permissions() Perm {
	return pToPerm(h.r, h.p)
}

// EncryptMetadata reports whether XMP metadata streams are encrypted.
func (h *Handler) EncryptMetadata() bool {
	return h.encryptMetadata
}

// Rekey returns a new handler with the same password and settings, for a
// file with a different identifier.  For revisions 2 to 4 this requires the
// user password to be known, which is the case after successful
// authentication.
func (h *Handler) Rekey(id []byte) (*Handler, error) {
	res := *h
	res.id = bytes.Clone(id)
	if h.r >= 6 {
		// the key does not depend on the file identifier
		return &res, nil
	}
	if h.paddedUserPwd == nil {
		return nil, ErrWrongPassword
	}
	res.key = res.fileKey(h.paddedUserPwd)
	res.u = res.computeU(res.key)
	return &res, nil
}

// Dict returns the encryption dictionary for the handler.
func (h *Handler) Dict() object.Dict {
	dict := object.Dict{
		"Filter": object.Name("Standard"),
		"V":      object.Integer(h.v),
		"R":      object.Integer(h.r),
		"O":      object.String(bytes.Clone(h.o)),
		"U":      object.String(bytes.Clone(h.u)),
		"P":      object.Integer(int32(h.p)),
	}
	switch h.v {
	case 2, 3:
		dict["Length"] = object.Integer(8 * h.keyBytes)
	case 4, 5:
		cfm := object.Name("AESV2")
		if h.v == 5 {
			cfm = "AESV3"
			dict["Length"] = object.Integer(256)
			dict["OE"] = object.String(bytes.Clone(h.oe))
			dict["UE"] = object.String(bytes.Clone(h.ue))
			dict["Perms"] = object.String(bytes.Clone(h.perms))
		}
		dict["CF"] = object.Dict{
			"StdCF": object.Dict{
				"CFM":       cfm,
				"AuthEvent": object.Name("DocOpen"),
				"Length":    object.Integer(h.keyBytes),
			},
		}
		dict["StmF"] = object.Name("StdCF")
		dict["StrF"] = object.Name("StdCF")
		if !h.encryptMetadata {
			dict["EncryptMetadata"] = object.Bool(false)
		}
	}
	return dict
}
