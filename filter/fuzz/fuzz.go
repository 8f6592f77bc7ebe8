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

// Package fuzz generates structured random bytecode buffers for property
// tests that want more than the raw-byte-slice corpus FuzzValidate
// already exercises in the filter package itself. Raw random bytes mostly
// exercise E_UNKNOWN_OPCODE and E_BOUNDS; the generators here bias toward
// well-formed instruction streams so the property tests can reach the
// type checker, the loop check, and the merge table instead.
package fuzz

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/ust-filter/validate/filter"
)

// knownOps lists every Op value filter.Op.String() recognizes by name,
// discovered by probing the full byte range. filter does not export its
// opcode table directly; its String method is the one piece of opcode
// metadata it does export, so that is what generators build on.
var knownOps = discoverOps()

func discoverOps() []filter.Op {
	set := make(map[filter.Op]bool)
	for b := 0; b < 256; b++ {
		op := filter.Op(b)
		switch op.String() {
		case "<invalid opcode>", "<unnamed opcode>":
		default:
			set[op] = true
		}
	}
	ops := maps.Keys(set)
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// RandomOp returns an arbitrary known opcode.
func RandomOp(rng *rand.Rand) filter.Op {
	return knownOps[rng.Intn(len(knownOps))]
}

// Instruction appends one syntactically well-formed (but not necessarily
// admissible) instruction for op to buf and returns the result. The
// operand bytes are random within their field width; skip_offset for
// OpAnd/OpOr is drawn from [0, maxSkip] so callers can bias it toward or
// away from forward references.
func Instruction(rng *rand.Rand, buf []byte, op filter.Op, maxSkip uint16) []byte {
	buf = append(buf, byte(op))
	switch op {
	case filter.OpAnd, filter.OpOr:
		var tmp [2]byte
		skip := uint16(0)
		if maxSkip > 0 {
			skip = uint16(rng.Intn(int(maxSkip) + 1))
		}
		binary.LittleEndian.PutUint16(tmp[:], skip)
		return append(buf, tmp[:]...)

	case filter.OpLoadFieldRef, filter.OpLoadFieldRefString, filter.OpLoadFieldRefSequence,
		filter.OpLoadFieldRefS64, filter.OpLoadFieldRefDouble:
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(rng.Intn(1<<16)))
		return append(append(buf, randReg(rng)), tmp[:]...)

	case filter.OpLoadS64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(rng.Int63()))
		return append(append(buf, randReg(rng)), tmp[:]...)

	case filter.OpLoadDouble:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(rng.NormFloat64()))
		return append(append(buf, randReg(rng)), tmp[:]...)

	case filter.OpLoadString:
		n := rng.Intn(8)
		s := make([]byte, n)
		for i := range s {
			s[i] = byte('a' + rng.Intn(26))
		}
		buf = append(buf, randReg(rng))
		buf = append(buf, s...)
		return append(buf, 0)

	case filter.OpReturn:
		return buf

	default:
		// Remaining shapes (binary compares, unary/cast ops, the
		// always-unsupported arithmetic reservations) all encode as
		// opcode + optional single register byte.
		if isUnaryOrCast(op) {
			return append(buf, randReg(rng))
		}
		return buf
	}
}

func isUnaryOrCast(op filter.Op) bool {
	switch op {
	case filter.OpUnaryPlus, filter.OpUnaryMinus, filter.OpUnaryNot,
		filter.OpUnaryPlusS64, filter.OpUnaryMinusS64, filter.OpUnaryNotS64,
		filter.OpUnaryPlusDouble, filter.OpUnaryMinusDouble, filter.OpUnaryNotDouble,
		filter.OpCastToS64, filter.OpCastDoubleToS64, filter.OpCastNop:
		return true
	}
	return false
}

func randReg(rng *rand.Rand) byte {
	return byte(rng.Intn(filter.NRReg + 1))
}

// RandomProgram concatenates n random well-formed instructions, always
// appending a final OpReturn so the sequence cannot silently run off the
// end of the buffer mid-instruction (Validate itself handles truncation
// fine either way; this just keeps generated corpora representative of
// realistic submissions). Any given instruction in the sequence may
// still be rejected by the type checker or loop check; that is the
// point, since Validate is exactly the thing under test.
func RandomProgram(rng *rand.Rand, n int) []byte {
	var buf []byte
	for i := 0; i < n; i++ {
		op := RandomOp(rng)
		buf = Instruction(rng, buf, op, uint16(len(buf)+32))
	}
	return append(buf, byte(filter.OpReturn))
}

// ValidProgram returns a small program that Validate is guaranteed to
// accept: load two S64 literals, compare them, return. It gives property
// tests (idempotence, "truncations of an accepted program never
// validate") a deterministic accepted starting point to mutate from.
func ValidProgram() []byte {
	var buf []byte
	buf = append(buf, byte(filter.OpLoadS64), 0)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, byte(filter.OpLoadS64), 1)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, byte(filter.OpEqS64))
	buf = append(buf, byte(filter.OpReturn))
	return buf
}
