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

// Op is a single bytecode opcode. The set is closed: any byte value not
// assigned a name below is E_UNKNOWN_OPCODE.
type Op uint8

const (
	opInvalid Op = iota

	// Control
	OpReturn

	// Logical branching (carry a 16-bit absolute skip_offset)
	OpAnd
	OpOr

	// Generic arithmetic/comparison, typed at validation time
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe

	// Type-specialized comparisons
	OpEqString
	OpNeString
	OpGtString
	OpLtString
	OpGeString
	OpLeString

	OpEqS64
	OpNeS64
	OpGtS64
	OpLtS64
	OpGeS64
	OpLeS64

	OpEqDouble
	OpNeDouble
	OpGtDouble
	OpLtDouble
	OpGeDouble
	OpLeDouble

	// Unsupported arithmetic: reserved, always rejected
	OpMul
	OpDiv
	OpMod
	OpPlus
	OpMinus
	OpRshift
	OpLshift
	OpBinAnd
	OpBinOr
	OpBinXor

	// Unary, generic and type-specialized
	OpUnaryPlus
	OpUnaryMinus
	OpUnaryNot
	OpUnaryPlusS64
	OpUnaryMinusS64
	OpUnaryNotS64
	OpUnaryPlusDouble
	OpUnaryMinusDouble
	OpUnaryNotDouble

	// Loads
	OpLoadFieldRef // generic: reserved, always rejected
	OpLoadFieldRefString
	OpLoadFieldRefSequence
	OpLoadFieldRefS64
	OpLoadFieldRefDouble
	OpLoadString
	OpLoadS64
	OpLoadDouble

	// Casts
	OpCastToS64
	OpCastDoubleToS64
	OpCastNop

	_maxOp
)

// encKind classifies how an opcode's operand bytes are laid out on the
// wire (spec section 6). decode uses this to compute an instruction's
// span; the type checker and transfer function use the decoded fields
// that result.
type encKind uint8

const (
	encUnsupported encKind = iota // reserved; always E_UNSUPPORTED_OPCODE
	encReturn                     // opcode only
	encBinary                     // opcode only, operates implicitly on R0/R1
	encUnary                      // opcode + reg
	encCast                       // opcode + reg (same wire shape as encUnary)
	encLogical                    // opcode + 16-bit skip_offset
	encLoadFieldRef               // opcode + reg + 16-bit field offset
	encLoadS64                    // opcode + reg + 8-byte int literal
	encLoadDouble                 // opcode + reg + 8-byte float literal
	encLoadString                 // opcode + reg + NUL-terminated literal
)

// opHeaderLen is the number of bytes every instruction begins with before
// any operand: the one-byte opcode.
const opHeaderLen = 1

const (
	regIndexLen   = 1
	skipOffsetLen = 2
	fieldRefLen   = 2
	intLiteralLen = 8
	fltLiteralLen = 8
)

// opEntry is the static, per-opcode metadata: the opcode's name (used by
// Op.String) and its wire encoding kind (used by decode). It holds no
// admissibility or transfer rules; typecheck and transfer each dispatch
// on the opcode in their own switch statement.
type opEntry struct {
	name string
	kind encKind
}

var opTable = buildOpTable()

func buildOpTable() [_maxOp]opEntry {
	var t [_maxOp]opEntry

	reg := func(op Op, name string, kind encKind) {
		t[op] = opEntry{name: name, kind: kind}
	}

	reg(OpReturn, "return", encReturn)

	reg(OpAnd, "and", encLogical)
	reg(OpOr, "or", encLogical)

	reg(OpEq, "eq", encBinary)
	reg(OpNe, "ne", encBinary)
	reg(OpGt, "gt", encBinary)
	reg(OpLt, "lt", encBinary)
	reg(OpGe, "ge", encBinary)
	reg(OpLe, "le", encBinary)

	reg(OpEqString, "eq.string", encBinary)
	reg(OpNeString, "ne.string", encBinary)
	reg(OpGtString, "gt.string", encBinary)
	reg(OpLtString, "lt.string", encBinary)
	reg(OpGeString, "ge.string", encBinary)
	reg(OpLeString, "le.string", encBinary)

	reg(OpEqS64, "eq.s64", encBinary)
	reg(OpNeS64, "ne.s64", encBinary)
	reg(OpGtS64, "gt.s64", encBinary)
	reg(OpLtS64, "lt.s64", encBinary)
	reg(OpGeS64, "ge.s64", encBinary)
	reg(OpLeS64, "le.s64", encBinary)

	reg(OpEqDouble, "eq.double", encBinary)
	reg(OpNeDouble, "ne.double", encBinary)
	reg(OpGtDouble, "gt.double", encBinary)
	reg(OpLtDouble, "lt.double", encBinary)
	reg(OpGeDouble, "ge.double", encBinary)
	reg(OpLeDouble, "le.double", encBinary)

	reg(OpMul, "mul", encUnsupported)
	reg(OpDiv, "div", encUnsupported)
	reg(OpMod, "mod", encUnsupported)
	reg(OpPlus, "plus", encUnsupported)
	reg(OpMinus, "minus", encUnsupported)
	reg(OpRshift, "rshift", encUnsupported)
	reg(OpLshift, "lshift", encUnsupported)
	reg(OpBinAnd, "bin_and", encUnsupported)
	reg(OpBinOr, "bin_or", encUnsupported)
	reg(OpBinXor, "bin_xor", encUnsupported)

	reg(OpUnaryPlus, "unary.plus", encUnary)
	reg(OpUnaryMinus, "unary.minus", encUnary)
	reg(OpUnaryNot, "unary.not", encUnary)
	reg(OpUnaryPlusS64, "unary.plus.s64", encUnary)
	reg(OpUnaryMinusS64, "unary.minus.s64", encUnary)
	reg(OpUnaryNotS64, "unary.not.s64", encUnary)
	reg(OpUnaryPlusDouble, "unary.plus.double", encUnary)
	reg(OpUnaryMinusDouble, "unary.minus.double", encUnary)
	reg(OpUnaryNotDouble, "unary.not.double", encUnary)

	reg(OpLoadFieldRef, "load.field_ref", encUnsupported)
	reg(OpLoadFieldRefString, "load.field_ref.string", encLoadFieldRef)
	reg(OpLoadFieldRefSequence, "load.field_ref.sequence", encLoadFieldRef)
	reg(OpLoadFieldRefS64, "load.field_ref.s64", encLoadFieldRef)
	reg(OpLoadFieldRefDouble, "load.field_ref.double", encLoadFieldRef)
	reg(OpLoadString, "load.string", encLoadString)
	reg(OpLoadS64, "load.s64", encLoadS64)
	reg(OpLoadDouble, "load.double", encLoadDouble)

	reg(OpCastToS64, "cast.to_s64", encCast)
	reg(OpCastDoubleToS64, "cast.double_to_s64", encCast)
	reg(OpCastNop, "cast.nop", encCast)

	return t
}

func (op Op) valid() bool {
	return op > opInvalid && op < _maxOp
}

func (op Op) String() string {
	if !op.valid() {
		return "<invalid opcode>"
	}
	if name := opTable[op].name; name != "" {
		return name
	}
	return "<unnamed opcode>"
}
