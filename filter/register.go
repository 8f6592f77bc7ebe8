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

// SemType is one of the abstract value types the validator tracks for a
// register. It is a flat lattice: UNKNOWN at the bottom, and S64, Double,
// String as incomparable peaks. The validator never computes a
// least-upper-bound across the lattice: at a merge point, Validate
// type-checks each drained snapshot and the fall-through state separately.
type SemType uint8

const (
	TypeUnknown SemType = iota
	TypeS64
	TypeDouble
	TypeString
)

func (t SemType) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypeS64:
		return "s64"
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	default:
		return "<bad type>"
	}
}

func (t SemType) numeric() bool {
	return t == TypeS64 || t == TypeDouble
}

// NRReg is the register file's fixed cardinality. R0 and R1 are the two
// named registers that carry comparison and unary operands; the
// remainder exist for LOAD_FIELD_REF/LOAD_* destinations. The validator
// never resizes this table at runtime (spec non-goal: "dynamic resizing
// of scratch structures").
const NRReg = 8

// R0 and R1 are the only registers the generic/specialized comparison and
// unary opcodes read and write; see typecheck.go for the convention this
// package enforces around them.
const (
	R0 = 0
	R1 = 1
)

// InvalidReg is the first register index outside the valid range
// [0, NRReg). A decoded reg operand must be strictly less than this.
const InvalidReg = NRReg

// AbstractRegister shadows a runtime register with only what the
// validator needs to reason about: its semantic type, and whether it was
// last written by a literal-load opcode.
type AbstractRegister struct {
	Type    SemType
	Literal bool
}

// RegisterFile is the validator's fixed-size array of abstract
// registers. The zero value is not ready for use; call newRegisterFile.
type RegisterFile struct {
	regs [NRReg]AbstractRegister
}

// newRegisterFile returns a register file with every register set to
// (UNKNOWN, false), matching the initial state the driver establishes at
// program start (spec section 3, "Lifecycles").
func newRegisterFile() RegisterFile {
	return RegisterFile{}
}

// read returns the register at i, or E_REG_INDEX if i is out of range.
func (rf *RegisterFile) read(i uint8) (AbstractRegister, error) {
	if i >= InvalidReg {
		return AbstractRegister{}, &ValidationError{Kind: ERegIndex, Offset: -1}
	}
	return rf.regs[i], nil
}

// set assigns register i's type and literal flag. Callers must have
// already validated i < InvalidReg via read or checkRegIndex.
func (rf *RegisterFile) set(i uint8, t SemType, literal bool) {
	rf.regs[i] = AbstractRegister{Type: t, Literal: literal}
}

// snapshot returns an independent copy of the entire register file, for
// insertion into the merge-point table at a logical branch.
func (rf *RegisterFile) snapshot() RegisterFile {
	cp := *rf
	return cp
}

// checkRegIndex validates a decoded register operand without reading it.
func checkRegIndex(i uint8) error {
	if i >= InvalidReg {
		return &ValidationError{Kind: ERegIndex, Offset: -1}
	}
	return nil
}
