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

import "strconv"

// Stage describes the progress of a [Creator].  The stages are executed in
// increasing order.
type Stage int

// These are the stages of writing a PDF file.
const (
	StageInvalid                      Stage = -1
	StageInit                         Stage = 0
	StageWriteHeader                  Stage = 10
	StageWriteIncremental             Stage = 15
	StageInitWriteObjs                Stage = 20
	StageWriteOldObjs                 Stage = 21
	StageInitWriteNewObjs             Stage = 25
	StageWriteNewObjs                 Stage = 26
	StageWriteEncryptDict             Stage = 27
	StageInitWriteXRefs               Stage = 80
	StageWriteXRefsClassicFull        Stage = 81
	StageWriteXRefsClassicIncremental Stage = 82
	StageWriteTrailerAndFinish        Stage = 90
	StageComplete                     Stage = 100
)

func (s Stage) String() string {
	switch s {
	case StageInvalid:
		return "Invalid"
	case StageInit:
		return "Init"
	case StageWriteHeader:
		return "WriteHeader"
	case StageWriteIncremental:
		return "WriteIncremental"
	case StageInitWriteObjs:
		return "InitWriteObjs"
	case StageWriteOldObjs:
		return "WriteOldObjs"
	case StageInitWriteNewObjs:
		return "InitWriteNewObjs"
	case StageWriteNewObjs:
		return "WriteNewObjs"
	case StageWriteEncryptDict:
		return "WriteEncryptDict"
	case StageInitWriteXRefs:
		return "InitWriteXRefs"
	case StageWriteXRefsClassicFull:
		return "WriteXRefsClassicFull"
	case StageWriteXRefsClassicIncremental:
		return "WriteXRefsClassicIncremental"
	case StageWriteTrailerAndFinish:
		return "WriteTrailerAndFinish"
	case StageComplete:
		return "Complete"
	default:
		return "Stage(" + strconv.Itoa(int(s)) + ")"
	}
}
