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

package bcasm

import (
	"math"

	"github.com/ust-filter/validate/filter"
)

// mnemKind tells the encoder which operand shape a mnemonic expects. It
// mirrors filter's encKind except encUnsupported: reserved opcodes are
// assembled with the operand shape of their family (binary, or
// load.field_ref). It is redeclared here because
// filter does not export its table, only the Op values and names that
// back it (filter.Op.String()).
type mnemKind uint8

const (
	kindReturn mnemKind = iota
	kindBinary
	kindUnary
	kindCast
	kindLogical
	kindLoadFieldRef
	kindLoadS64
	kindLoadDouble
	kindLoadString
)

type mnemEntry struct {
	op   byte
	kind mnemKind
}

// mnemonicTable maps every assembler mnemonic to the opcode byte and
// operand shape it assembles to. The names match filter.Op.String()
// exactly, so the mnemonics in a disassembly produced by internal/bcfmt
// are the ones Assemble accepts. That disassembly does not print operands
// (registers, literals, skip offsets), so it cannot be reassembled as is.
var mnemonicTable = map[string]mnemEntry{
	"return": {byte(filter.OpReturn), kindReturn},

	"and": {byte(filter.OpAnd), kindLogical},
	"or":  {byte(filter.OpOr), kindLogical},

	"eq": {byte(filter.OpEq), kindBinary},
	"ne": {byte(filter.OpNe), kindBinary},
	"gt": {byte(filter.OpGt), kindBinary},
	"lt": {byte(filter.OpLt), kindBinary},
	"ge": {byte(filter.OpGe), kindBinary},
	"le": {byte(filter.OpLe), kindBinary},

	"eq.string": {byte(filter.OpEqString), kindBinary},
	"ne.string": {byte(filter.OpNeString), kindBinary},
	"gt.string": {byte(filter.OpGtString), kindBinary},
	"lt.string": {byte(filter.OpLtString), kindBinary},
	"ge.string": {byte(filter.OpGeString), kindBinary},
	"le.string": {byte(filter.OpLeString), kindBinary},

	"eq.s64": {byte(filter.OpEqS64), kindBinary},
	"ne.s64": {byte(filter.OpNeS64), kindBinary},
	"gt.s64": {byte(filter.OpGtS64), kindBinary},
	"lt.s64": {byte(filter.OpLtS64), kindBinary},
	"ge.s64": {byte(filter.OpGeS64), kindBinary},
	"le.s64": {byte(filter.OpLeS64), kindBinary},

	"eq.double": {byte(filter.OpEqDouble), kindBinary},
	"ne.double": {byte(filter.OpNeDouble), kindBinary},
	"gt.double": {byte(filter.OpGtDouble), kindBinary},
	"lt.double": {byte(filter.OpLtDouble), kindBinary},
	"ge.double": {byte(filter.OpGeDouble), kindBinary},
	"le.double": {byte(filter.OpLeDouble), kindBinary},

	"mul":     {byte(filter.OpMul), kindBinary},
	"div":     {byte(filter.OpDiv), kindBinary},
	"mod":     {byte(filter.OpMod), kindBinary},
	"plus":    {byte(filter.OpPlus), kindBinary},
	"minus":   {byte(filter.OpMinus), kindBinary},
	"rshift":  {byte(filter.OpRshift), kindBinary},
	"lshift":  {byte(filter.OpLshift), kindBinary},
	"bin_and": {byte(filter.OpBinAnd), kindBinary},
	"bin_or":  {byte(filter.OpBinOr), kindBinary},
	"bin_xor": {byte(filter.OpBinXor), kindBinary},

	"unary.plus":         {byte(filter.OpUnaryPlus), kindUnary},
	"unary.minus":        {byte(filter.OpUnaryMinus), kindUnary},
	"unary.not":          {byte(filter.OpUnaryNot), kindUnary},
	"unary.plus.s64":     {byte(filter.OpUnaryPlusS64), kindUnary},
	"unary.minus.s64":    {byte(filter.OpUnaryMinusS64), kindUnary},
	"unary.not.s64":      {byte(filter.OpUnaryNotS64), kindUnary},
	"unary.plus.double":  {byte(filter.OpUnaryPlusDouble), kindUnary},
	"unary.minus.double": {byte(filter.OpUnaryMinusDouble), kindUnary},
	"unary.not.double":   {byte(filter.OpUnaryNotDouble), kindUnary},

	"load.field_ref":          {byte(filter.OpLoadFieldRef), kindLoadFieldRef},
	"load.field_ref.string":   {byte(filter.OpLoadFieldRefString), kindLoadFieldRef},
	"load.field_ref.sequence": {byte(filter.OpLoadFieldRefSequence), kindLoadFieldRef},
	"load.field_ref.s64":      {byte(filter.OpLoadFieldRefS64), kindLoadFieldRef},
	"load.field_ref.double":   {byte(filter.OpLoadFieldRefDouble), kindLoadFieldRef},
	"load.string":             {byte(filter.OpLoadString), kindLoadString},
	"load.s64":                {byte(filter.OpLoadS64), kindLoadS64},
	"load.double":             {byte(filter.OpLoadDouble), kindLoadDouble},

	"cast.to_s64":        {byte(filter.OpCastToS64), kindCast},
	"cast.double_to_s64": {byte(filter.OpCastDoubleToS64), kindCast},
	"cast.nop":           {byte(filter.OpCastNop), kindCast},
}

func lookupMnemonic(name string) (op byte, kind mnemKind, ok bool) {
	e, ok := mnemonicTable[name]
	return e.op, e.kind, ok
}

func float64bits(f float64) uint64 {
	return math.Float64bits(f)
}
