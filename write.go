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
	"fmt"
	"io"

	"seehuhn.de/go/pdfcreator/object"
)

// writeObject writes object n to the output and records its position.
// Strings and streams are encrypted, except in the encryption dictionary.
func (c *Creator) writeObject(n uint32, obj object.Object) error {
	c.offsets.Record(n, c.pos())

	var enc object.Encryptor
	if c.handler != nil && n != c.encryptNumber {
		enc = c.handler.ForObject(object.NewReference(n))
		if stm, ok := obj.(*object.Stream); ok && !c.handler.EncryptMetadata() &&
			stm.Dict["Type"] == object.Name("Metadata") {
			enc = plainStreams{enc}
		}
	}

	_, err := fmt.Fprintf(c.out, "%d 0 obj\r\n", n)
	if err != nil {
		return err
	}
	err = object.Write(c.out, obj, enc)
	if err != nil {
		return fmt.Errorf("object %d: %w", n, err)
	}
	_, err = io.WriteString(c.out, "\r\nendobj\r\n")
	return err
}

// plainStreams encrypts strings, but leaves stream data unchanged.
type plainStreams struct {
	object.Encryptor
}

func (plainStreams) EncryptStream(data []byte) ([]byte, error) {
	return data, nil
}
