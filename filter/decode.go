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

// inst is a decoded instruction header: everything the bounds checker,
// type checker, and transfer function need about the instruction at pc,
// without re-walking the buffer. At most one of reg/skip is meaningful,
// depending on the opcode's encoding kind in opTable.
type inst struct {
	op     Op
	pc     int
	length int

	reg  uint8  // unary/cast/load destination-or-operand register
	skip uint16 // AND/OR absolute skip_offset
}

// decode reads the instruction at pc and returns its decoded header plus
// its total encoded length. It never reads past buf_end except to
// compute the length itself (the string-literal NUL scan), and never
// returns a length that would make pc+length exceed buf_end pass
// unnoticed — the bounds check is fused into the scan for the one
// variable-length encoding, per spec section 4.2.
func decode(buf []byte, pc int) (inst, error) {
	end := len(buf)
	if pc >= end {
		return inst{}, errAt(pc, EBounds)
	}
	op := Op(buf[pc])
	if !op.valid() {
		return inst{}, errAt(pc, EUnknownOpcode)
	}
	entry := opTable[op]

	switch entry.kind {
	case encUnsupported:
		return inst{}, errAt(pc, EUnsupportedOpcode)

	case encReturn:
		return inst{op: op, pc: pc, length: opHeaderLen}, nil

	case encBinary:
		return inst{op: op, pc: pc, length: opHeaderLen}, nil

	case encUnary, encCast:
		length := opHeaderLen + regIndexLen
		if pc+length > end {
			return inst{}, errAt(pc, EBounds)
		}
		return inst{op: op, pc: pc, length: length, reg: buf[pc+opHeaderLen]}, nil

	case encLogical:
		length := opHeaderLen + skipOffsetLen
		if pc+length > end {
			return inst{}, errAt(pc, EBounds)
		}
		skip := binary.LittleEndian.Uint16(buf[pc+opHeaderLen:])
		return inst{op: op, pc: pc, length: length, skip: skip}, nil

	case encLoadFieldRef:
		length := opHeaderLen + regIndexLen + fieldRefLen
		if pc+length > end {
			return inst{}, errAt(pc, EBounds)
		}
		return inst{op: op, pc: pc, length: length, reg: buf[pc+opHeaderLen]}, nil

	case encLoadS64:
		length := opHeaderLen + regIndexLen + intLiteralLen
		if pc+length > end {
			return inst{}, errAt(pc, EBounds)
		}
		return inst{op: op, pc: pc, length: length, reg: buf[pc+opHeaderLen]}, nil

	case encLoadDouble:
		length := opHeaderLen + regIndexLen + fltLiteralLen
		if pc+length > end {
			return inst{}, errAt(pc, EBounds)
		}
		return inst{op: op, pc: pc, length: length, reg: buf[pc+opHeaderLen]}, nil

	case encLoadString:
		reg := byte(0)
		payloadStart := pc + opHeaderLen + regIndexLen
		if payloadStart > end {
			return inst{}, errAt(pc, EBounds)
		}
		reg = buf[pc+opHeaderLen]
		nul := -1
		for i := payloadStart; i < end; i++ {
			if buf[i] == 0 {
				nul = i
				break
			}
		}
		if nul < 0 {
			// No NUL terminator within the remaining buffer: the
			// string payload is unbounded, which is indistinguishable
			// from running past end-of-buffer.
			return inst{}, errAt(pc, EBounds)
		}
		length := (nul + 1) - pc
		return inst{op: op, pc: pc, length: length, reg: reg}, nil

	default:
		return inst{}, errAt(pc, EUnknownOpcode)
	}
}
