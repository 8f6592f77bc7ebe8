// Copyright (C) 2023 UST Filter Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package filter

import "encoding/binary"

// asm is a tiny byte-buffer builder for the wire encoding in spec.md
// section 6. It exists only to keep test cases readable; filter itself
// never writes bytecode.
type asm struct {
	buf []byte
}

func (a *asm) op(op Op) *asm {
	a.buf = append(a.buf, byte(op))
	return a
}

func (a *asm) unary(op Op, reg uint8) *asm {
	a.buf = append(a.buf, byte(op), reg)
	return a
}

func (a *asm) cast(op Op, reg uint8) *asm {
	return a.unary(op, reg)
}

func (a *asm) logical(op Op, skip uint16) *asm {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], skip)
	a.buf = append(a.buf, byte(op))
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) loadFieldRef(op Op, reg uint8, fieldOffset uint16) *asm {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], fieldOffset)
	a.buf = append(a.buf, byte(op), reg)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) loadS64(reg uint8, v int64) *asm {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	a.buf = append(a.buf, byte(OpLoadS64), reg)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) loadDouble(reg uint8, v uint64) *asm {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	a.buf = append(a.buf, byte(OpLoadDouble), reg)
	a.buf = append(a.buf, tmp[:]...)
	return a
}

func (a *asm) loadString(reg uint8, s string) *asm {
	a.buf = append(a.buf, byte(OpLoadString), reg)
	a.buf = append(a.buf, []byte(s)...)
	a.buf = append(a.buf, 0)
	return a
}

func (a *asm) ret() *asm {
	return a.op(OpReturn)
}

func (a *asm) bytes() []byte {
	return a.buf
}

// offset returns the current length of the buffer under construction,
// i.e. the absolute offset the next emitted instruction will occupy.
func (a *asm) offset() uint16 {
	return uint16(len(a.buf))
}
