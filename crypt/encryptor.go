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

package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"io"

	"seehuhn.de/go/pdfcreator/object"
)

// Encryptor encrypts and decrypts the strings and streams of one indirect
// object.  It implements the [object.Encryptor] interface.
type Encryptor struct {
	h   *Handler
	ref object.Reference
}

// ForObject returns the Encryptor for the indirect object ref.
func (h *Handler) ForObject(ref object.Reference) *Encryptor {
	return &Encryptor{h: h, ref: ref}
}

// EncryptString encrypts a string belonging to the object.  The contents
// of data may be modified.
func (e *Encryptor) EncryptString(data []byte) ([]byte, error) {
	return e.encrypt(e.h.strF, data)
}

// EncryptStream encrypts the contents of a stream belonging to the object.
// The contents of data may be modified.
func (e *Encryptor) EncryptStream(data []byte) ([]byte, error) {
	return e.encrypt(e.h.stmF, data)
}

// DecryptString reverses EncryptString.
func (e *Encryptor) DecryptString(data []byte) ([]byte, error) {
	return e.decrypt(e.h.strF, data)
}

// DecryptStream reverses EncryptStream.
func (e *Encryptor) DecryptStream(data []byte) ([]byte, error) {
	return e.decrypt(e.h.stmF, data)
}

// objectKey returns the key for the object (algorithm 1).
func (e *Encryptor) objectKey(kind cipherKind) []byte {
	h := e.h
	if h.r >= 5 {
		return h.key
	}

	md := md5.New()
	md.Write(h.key)
	num := e.ref.Number
	gen := e.ref.Generation
	md.Write([]byte{
		byte(num), byte(num >> 8), byte(num >> 16),
		byte(gen), byte(gen >> 8)})
	if kind == cipherAES {
		md.Write([]byte("sAlT"))
	}
	l := min(h.keyBytes+5, 16)
	return md.Sum(nil)[:l]
}

func (e *Encryptor) encrypt(kind cipherKind, data []byte) ([]byte, error) {
	switch kind {
	case cipherRC4:
		c, err := rc4.NewCipher(e.objectKey(kind))
		if err != nil {
			return nil, err
		}
		c.XORKeyStream(data, data)
		return data, nil
	case cipherAES:
		c, err := aes.NewCipher(e.objectKey(kind))
		if err != nil {
			return nil, err
		}

		n := len(data)
		nPad := 16 - n%16
		out := make([]byte, 16+n+nPad) // iv | c(data|padding)
		iv := out[:16]
		_, err = io.ReadFull(rand.Reader, iv)
		if err != nil {
			return nil, err
		}
		copy(out[16:], data)
		for i := 16 + n; i < len(out); i++ {
			out[i] = byte(nPad)
		}
		cipher.NewCBCEncrypter(c, iv).CryptBlocks(out[16:], out[16:])
		return out, nil
	default:
		return data, nil
	}
}

func (e *Encryptor) decrypt(kind cipherKind, data []byte) ([]byte, error) {
	switch kind {
	case cipherRC4:
		// RC4 is symmetric
		return e.encrypt(kind, data)
	case cipherAES:
		if len(data) < 32 || len(data)%16 != 0 {
			return nil, errCorrupted
		}
		c, err := aes.NewCipher(e.objectKey(kind))
		if err != nil {
			return nil, err
		}
		iv := data[:16]
		body := data[16:]
		cipher.NewCBCDecrypter(c, iv).CryptBlocks(body, body)

		nPad := int(body[len(body)-1])
		if nPad < 1 || nPad > 16 {
			return nil, errCorrupted
		}
		return body[:len(body)-nPad], nil
	default:
		return data, nil
	}
}
