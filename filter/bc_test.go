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

import (
	"errors"
	"testing"
)

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error kind %s, got success", kind)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	if ve.Kind != kind {
		t.Fatalf("expected error kind %s, got %s (%v)", kind, ve.Kind, err)
	}
}

// Scenario 1: minimal accept.
func TestMinimalAccept(t *testing.T) {
	buf := (&asm{}).
		loadS64(R0, 7).
		loadS64(R1, 7).
		op(OpEq).
		ret().
		bytes()
	if err := Validate(buf); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

// Scenario 2: string compare accept.
func TestStringCompareAccept(t *testing.T) {
	buf := (&asm{}).
		loadString(R0, "x").
		loadString(R1, "y").
		op(OpEqString).
		ret().
		bytes()
	if err := Validate(buf); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

// Scenario 3: type mismatch reject.
func TestTypeMismatchReject(t *testing.T) {
	buf := (&asm{}).
		loadS64(R0, 1).
		loadString(R1, "a").
		op(OpEq).
		ret().
		bytes()
	wantKind(t, Validate(buf), ETypeMismatch)
}

// Scenario 4: loop reject (skip_offset equal to the AND's own offset).
func TestLoopReject(t *testing.T) {
	a := &asm{}
	a.loadS64(R0, 1)
	selfOffset := a.offset()
	a.logical(OpAnd, selfOffset)
	a.ret()
	wantKind(t, Validate(a.bytes()), ELoop)
}

// Scenario 5: bounds reject — LOAD_S64 header present but only 4
// trailing bytes where 8 are required.
func TestBoundsReject(t *testing.T) {
	buf := []byte{byte(OpLoadS64), R0, 1, 2, 3, 4}
	wantKind(t, Validate(buf), EBounds)
}

// Scenario 6: merge agreement. An AND at offset p requires R0 = S64 for
// itself but leaves R1 unconstrained, so R1's type at the snapshot
// captured at p can diverge from what the fall-through path later
// produces for R1 before reaching the join point q. If R1 is S64 at p
// already, the join at q (an S64 compare needing both operands) accepts;
// if R1 is STRING at p and only becomes S64 later on the fall-through
// path (representing right-operand bytecode the short-circuit skip
// bypasses), the snapshot from p still carries R1 = STRING and the join
// must reject with E_TYPE_MISMATCH even though the fall-through state
// alone would have been fine.
func TestMergeAgreementAccept(t *testing.T) {
	a := &asm{}
	a.loadS64(R0, 1)
	a.loadS64(R1, 1) // R1 = S64 at the AND's snapshot point
	andOffset := a.offset()
	a.buf = append(a.buf, byte(OpAnd), 0, 0) // skip target patched below
	target := a.offset()
	a.op(OpEqS64) // join point: needs R0 = R1 = S64
	a.ret()
	patchSkip(a, andOffset, target)
	if err := Validate(a.bytes()); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestMergeAgreementReject(t *testing.T) {
	a := &asm{}
	a.loadS64(R0, 1)
	a.loadString(R1, "z") // R1 = STRING at the AND's snapshot point
	andOffset := a.offset()
	a.buf = append(a.buf, byte(OpAnd), 0, 0)
	a.loadS64(R1, 1) // fall-through only: right-operand bytecode turns R1 into S64
	target := a.offset()
	a.op(OpEqS64) // fall-through state here is fine; the drained snapshot is not
	a.ret()
	patchSkip(a, andOffset, target)
	wantKind(t, Validate(a.bytes()), ETypeMismatch)
}

// patchSkip overwrites the 16-bit skip_offset operand of the logical op
// located at instOffset (opcode byte at instOffset, operand at
// instOffset+1) with target.
func patchSkip(a *asm, instOffset, target uint16) {
	a.buf[instOffset+1] = byte(target)
	a.buf[instOffset+2] = byte(target >> 8)
}

// Scenario 7: residual merge — a logical op whose skip_offset points
// past RETURN.
func TestResidualMergeReject(t *testing.T) {
	a := &asm{}
	a.loadS64(R0, 1)
	andOffset := a.offset()
	a.buf = append(a.buf, byte(OpAnd), 0, 0)
	a.loadS64(R1, 1)
	a.op(OpEqS64)
	a.ret()
	dead := a.offset() + 100
	patchSkip(a, andOffset, dead)
	wantKind(t, Validate(a.bytes()), EResidualMerge)
}

func TestReservedArithmeticRejected(t *testing.T) {
	reserved := []Op{OpMul, OpDiv, OpMod, OpPlus, OpMinus, OpRshift, OpLshift, OpBinAnd, OpBinOr, OpBinXor}
	for _, want := range reserved {
		t.Run(want.String(), func(t *testing.T) {
			buf := (&asm{}).
				loadS64(R0, 1).
				loadS64(R1, 1).
				op(want).
				ret().
				bytes()
			wantKind(t, Validate(buf), EUnsupportedOpcode)
		})
	}
}

func TestGenericLoadFieldRefRejected(t *testing.T) {
	buf := (&asm{}).
		loadFieldRef(OpLoadFieldRef, R0, 4).
		ret().
		bytes()
	wantKind(t, Validate(buf), EUnsupportedOpcode)
}

func TestUnknownOpcodeRejected(t *testing.T) {
	buf := []byte{0xFF}
	wantKind(t, Validate(buf), EUnknownOpcode)
}

func TestRegIndexOutOfRange(t *testing.T) {
	buf := (&asm{}).
		loadS64(InvalidReg, 1).
		ret().
		bytes()
	wantKind(t, Validate(buf), ERegIndex)
}

func TestUnaryImplicitR0Convention(t *testing.T) {
	// unary ops require reg == R0; naming R1 instead must be rejected
	// rather than silently accepted against the wrong register.
	buf := (&asm{}).
		loadS64(R1, 1).
		unary(OpUnaryPlusS64, R1).
		ret().
		bytes()
	wantKind(t, Validate(buf), ERegIndex)
}

func TestCastAcceptsAnyValidRegister(t *testing.T) {
	buf := (&asm{}).
		loadDouble(3, 0).
		cast(OpCastDoubleToS64, 3).
		ret().
		bytes()
	if err := Validate(buf); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestDoubleCompareMixedNumericAccept(t *testing.T) {
	buf := (&asm{}).
		loadS64(R0, 1).
		loadDouble(R1, 0).
		op(OpGeDouble).
		ret().
		bytes()
	if err := Validate(buf); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestDoubleCompareBothS64Rejected(t *testing.T) {
	buf := (&asm{}).
		loadS64(R0, 1).
		loadS64(R1, 1).
		op(OpGeDouble).
		ret().
		bytes()
	wantKind(t, Validate(buf), ETypeMismatch)
}

func TestIdempotence(t *testing.T) {
	buf := (&asm{}).
		loadS64(R0, 7).
		loadS64(R1, 7).
		op(OpEq).
		ret().
		bytes()
	err1 := Validate(buf)
	err2 := Validate(buf)
	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("non-idempotent result: %v vs %v", err1, err2)
	}
}

func TestTruncationNeverSucceeds(t *testing.T) {
	full := (&asm{}).
		loadS64(R0, 7).
		loadS64(R1, 7).
		op(OpEq).
		ret().
		bytes()
	for n := 0; n < len(full); n++ {
		err := Validate(full[:n])
		if err == nil {
			t.Fatalf("truncated buffer of length %d unexpectedly validated", n)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("length %d: expected *ValidationError, got %T", n, err)
		}
		if ve.Kind != EBounds && ve.Kind != EUnknownOpcode {
			t.Fatalf("length %d: expected E_BOUNDS or E_UNKNOWN_OPCODE, got %s", n, ve.Kind)
		}
	}
}

func TestOversizeBufferRejected(t *testing.T) {
	buf := make([]byte, MaxBytecodeLen+1)
	wantKind(t, Validate(buf), EBounds)
}
