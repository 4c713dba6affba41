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
	"bytes"
	"fmt"

	"seehuhn.de/go/pdfcreator/crypt"
	"seehuhn.de/go/pdfcreator/internal/idgen"
	"seehuhn.de/go/pdfcreator/logging"
)

// initSecurity determines the file identifier and the encryption of the
// output.
func (c *Creator) initSecurity() error {
	oldSec := c.doc.Security()
	keep := oldSec != nil && !c.removeSecurity && c.newSecurity == nil
	if oldSec != nil && !keep {
		c.securityChanged = true
	}

	var oldID [][]byte
	if c.parser != nil {
		oldID = c.parser.ID()
	}
	c.initID(oldID, keep)

	switch {
	case c.newSecurity != nil:
		h, err := crypt.New(c.id[0], c.newSecurity)
		if err != nil {
			return err
		}
		c.handler = h
		c.encryptDict = h.Dict()
		c.securityChanged = true
	case keep && oldID == nil:
		// The file key of the standard security handler depends on the
		// file identifier.
		h, err := oldSec.Handler.Rekey(c.id[0])
		if err != nil {
			return fmt.Errorf("re-keying encryption: %w", err)
		}
		_, err = crypt.Open(h.Dict(), c.id[0], c.parser.Password())
		if err != nil {
			return fmt.Errorf("re-keying encryption: %w", err)
		}
		c.handler = h
		c.encryptDict = h.Dict()
		c.securityChanged = true
		logging.Logger().Info("new file identifier, encryption re-keyed")
	case keep:
		c.handler = oldSec.Handler
		c.encryptDict = oldSec.Dict
		c.encryptNumber = oldSec.Number
	}
	return nil
}

// initID sets the two elements of the file identifier.  The first element
// is kept from the original file.  The second element changes with every
// save, except for incremental updates of encrypted files.
func (c *Creator) initID(oldID [][]byte, encrypted bool) {
	if oldID == nil {
		id := idgen.FileID(c.seed, uint64(c.last))
		c.id = [][]byte{id, bytes.Clone(id)}
		return
	}

	c.id = [][]byte{bytes.Clone(oldID[0]), nil}
	if c.incremental && encrypted {
		c.id[1] = bytes.Clone(oldID[1])
	} else {
		c.id[1] = idgen.FileID(c.seed, uint64(c.last))
	}
}
