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
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
)

// fileKey computes the file encryption key for revisions 2 to 4
// (algorithm 2).  The password must be padded.
func (h *Handler) fileKey(paddedUserPwd []byte) []byte {
	md := md5.New()
	md.Write(paddedUserPwd)
	md.Write(h.o)
	md.Write([]byte{byte(h.p), byte(h.p >> 8), byte(h.p >> 16), byte(h.p >> 24)})
	md.Write(h.id)
	if !h.encryptMetadata && h.r >= 4 {
		md.Write([]byte{255, 255, 255, 255})
	}
	key := md.Sum(nil)

	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			md.Reset()
			md.Write(key[:h.keyBytes])
			key = md.Sum(key[:0])
		}
	}
	return key[:h.keyBytes]
}

// ownerRC4Key derives the RC4 key used to compute and check /O.
func (h *Handler) ownerRC4Key(paddedOwnerPwd []byte) []byte {
	md := md5.New()
	md.Write(paddedOwnerPwd)
	sum := md.Sum(nil)
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			md.Reset()
			md.Write(sum[:h.keyBytes])
			sum = md.Sum(sum[:0])
		}
	}
	return sum[:h.keyBytes]
}

// computeO implements algorithm 3.
func (h *Handler) computeO(paddedUserPwd, paddedOwnerPwd []byte) []byte {
	rc4key := h.ownerRC4Key(paddedOwnerPwd)

	c, _ := rc4.NewCipher(rc4key)
	O := make([]byte, 32)
	c.XORKeyStream(O, paddedUserPwd)
	if h.r >= 3 {
		key := make([]byte, len(rc4key))
		for i := byte(1); i <= 19; i++ {
			for j := range key {
				key[j] = rc4key[j] ^ i
			}
			c, _ = rc4.NewCipher(key)
			c.XORKeyStream(O, O)
		}
	}
	return O
}

// computeU implements algorithms 4 and 5.
func (h *Handler) computeU(key []byte) []byte {
	U := make([]byte, 32)
	if h.r == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(U, passwdPad)
		return U
	}

	md := md5.New()
	md.Write(passwdPad)
	md.Write(h.id)
	U = md.Sum(U[:0])
	c, _ := rc4.NewCipher(key)
	c.XORKeyStream(U, U)

	tmpKey := make([]byte, len(key))
	for i := byte(1); i <= 19; i++ {
		for j := range tmpKey {
			tmpKey[j] = key[j] ^ i
		}
		c, _ = rc4.NewCipher(tmpKey)
		c.XORKeyStream(U, U)
	}
	// the remaining 16 bytes are arbitrary padding
	return append(U[:16], zero16...)
}

// authenticateUser implements algorithm 6.  On success, the file
// encryption key is stored in the handler.
func (h *Handler) authenticateUser(paddedUserPwd []byte) bool {
	key := h.fileKey(paddedUserPwd)
	U := h.computeU(key)
	n := 32
	if h.r >= 3 {
		n = 16
	}
	if !bytes.Equal(U[:n], h.u[:n]) {
		return false
	}
	h.key = key
	h.paddedUserPwd = paddedUserPwd
	return true
}

// authenticateOwner implements algorithm 7.
func (h *Handler) authenticateOwner(paddedOwnerPwd []byte) bool {
	key := h.ownerRC4Key(paddedOwnerPwd)

	buf := make([]byte, 32)
	copy(buf, h.o)
	if h.r == 2 {
		c, _ := rc4.NewCipher(key)
		c.XORKeyStream(buf, buf)
	} else {
		tmpKey := make([]byte, len(key))
		for i := 19; i >= 0; i-- {
			for j := range tmpKey {
				tmpKey[j] = key[j] ^ byte(i)
			}
			c, _ := rc4.NewCipher(tmpKey)
			c.XORKeyStream(buf, buf)
		}
	}
	return h.authenticateUser(buf)
}

// slowHash implements algorithm 2.B (revision 6).
func slowHash(passwd, salt, U []byte) []byte {
	sha := sha256.New()
	sha.Write(passwd)
	sha.Write(salt)
	sha.Write(U)
	K := sha.Sum(nil)

	K1 := make([]byte, 64*(len(passwd)+64+len(U)))
	for i := 0; i < 64 || int(K1[len(K1)-1]) > i-32; i++ {
		K1 = K1[:0]
		for j := 0; j < 64; j++ {
			K1 = append(K1, passwd...)
			K1 = append(K1, K...)
			K1 = append(K1, U...)
		}

		c, _ := aes.NewCipher(K[:16])
		cbc := cipher.NewCBCEncrypter(c, K[16:32])
		cbc.CryptBlocks(K1, K1)

		// (a*256)%3 == a%3, so the bytes can simply be added
		var rem int
		for _, b := range K1[:16] {
			rem += int(b)
		}

		var next hash.Hash
		switch rem % 3 {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		case 2:
			next = sha512.New()
		}
		next.Write(K1)
		K = next.Sum(K[:0])
	}
	return K[:32]
}

// computeUAndUE implements algorithm 8.
func (h *Handler) computeUAndUE(utf8UserPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, nil, err
	}

	U := append(slowHash(utf8UserPwd, salt[:8], nil), salt...)

	key := slowHash(utf8UserPwd, salt[8:], nil)
	c, _ := aes.NewCipher(key)
	UE := make([]byte, 32)
	cipher.NewCBCEncrypter(c, zero16).CryptBlocks(UE, h.key)
	return U, UE, nil
}

// computeOAndOE implements algorithm 9.  This requires h.u to be set.
func (h *Handler) computeOAndOE(utf8OwnerPwd []byte) ([]byte, []byte, error) {
	salt := make([]byte, 16)
	_, err := rand.Read(salt)
	if err != nil {
		return nil, nil, err
	}

	O := append(slowHash(utf8OwnerPwd, salt[:8], h.u), salt...)

	key := slowHash(utf8OwnerPwd, salt[8:], h.u)
	c, _ := aes.NewCipher(key)
	OE := make([]byte, 32)
	cipher.NewCBCEncrypter(c, zero16).CryptBlocks(OE, h.key)
	return O, OE, nil
}

// computePerms implements algorithm 10.
func (h *Handler) computePerms() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, h.p)
	copy(buf[4:8], []byte{0xFF, 0xFF, 0xFF, 0xFF})
	if h.encryptMetadata {
		buf[8] = 'T'
	} else {
		buf[8] = 'F'
	}
	copy(buf[9:12], "adb")

	c, _ := aes.NewCipher(h.key)
	c.Encrypt(buf, buf)
	return buf
}

// authenticate6 implements algorithms 11 and 12.  For the owner password,
// U must be the 48-byte /U value, for the user password U must be nil.
func (h *Handler) authenticate6(utf8Passwd, hashed, encKey, U []byte) bool {
	sum := slowHash(utf8Passwd, hashed[32:40], U)
	if !bytes.Equal(sum, hashed[:32]) {
		return false
	}

	key := slowHash(utf8Passwd, hashed[40:48], U)
	c, _ := aes.NewCipher(key)
	fileKey := make([]byte, 32)
	cipher.NewCBCDecrypter(c, zero16).CryptBlocks(fileKey, encKey)

	if !h.checkPerms(fileKey) {
		return false
	}
	h.key = fileKey
	return true
}

func (h *Handler) checkPerms(fileKey []byte) bool {
	buf := make([]byte, 16)
	c, _ := aes.NewCipher(fileKey)
	c.Decrypt(buf, h.perms)
	if !bytes.Equal(buf[9:12], []byte("adb")) {
		return false
	}
	return binary.LittleEndian.Uint32(buf[:4]) == h.p
}
