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

// transferResult tells the driver what to do after an instruction has
// been type-checked: whether it terminates the walk, and whether it adds
// a new merge-point entry.
type transferResult struct {
	terminate   bool
	mergeKey    uint16
	mergeInsert bool
}

// transfer applies opcode in's effect to rf, assuming typecheck(rf, in)
// has already succeeded. It never fails: every precondition it needs was
// already established by the type checker, so the only remaining work is
// updating register state and reporting control-flow facts to the
// driver.
func transfer(rf *RegisterFile, in inst) transferResult {
	switch in.op {
	case OpReturn:
		return transferResult{terminate: true}

	case OpEq, OpNe, OpGt, OpLt, OpGe, OpLe,
		OpEqString, OpNeString, OpGtString, OpLtString, OpGeString, OpLeString,
		OpEqS64, OpNeS64, OpGtS64, OpLtS64, OpGeS64, OpLeS64:
		rf.set(R0, TypeS64, false)
		return transferResult{}

	case OpEqDouble, OpNeDouble, OpGtDouble, OpLtDouble, OpGeDouble, OpLeDouble:
		rf.set(R0, TypeDouble, false)
		return transferResult{}

	case OpUnaryPlus, OpUnaryMinus, OpUnaryNot, OpUnaryPlusS64, OpUnaryMinusS64, OpUnaryNotS64:
		rf.set(R0, TypeS64, false)
		return transferResult{}

	case OpUnaryPlusDouble, OpUnaryMinusDouble, OpUnaryNotDouble:
		rf.set(R0, TypeDouble, false)
		return transferResult{}

	case OpAnd, OpOr:
		// State is unchanged on the fall-through path; the branch's
		// effect is recorded for whoever reaches skip_offset later.
		return transferResult{mergeKey: in.skip, mergeInsert: true}

	case OpLoadFieldRefString, OpLoadFieldRefSequence:
		rf.set(in.reg, TypeString, false)
		return transferResult{}

	case OpLoadFieldRefS64:
		rf.set(in.reg, TypeS64, false)
		return transferResult{}

	case OpLoadFieldRefDouble:
		rf.set(in.reg, TypeDouble, false)
		return transferResult{}

	case OpLoadString:
		rf.set(in.reg, TypeString, true)
		return transferResult{}

	case OpLoadS64:
		rf.set(in.reg, TypeS64, true)
		return transferResult{}

	case OpLoadDouble:
		rf.set(in.reg, TypeDouble, true)
		return transferResult{}

	case OpCastToS64, OpCastDoubleToS64:
		rf.set(in.reg, TypeS64, false)
		return transferResult{}

	case OpCastNop:
		return transferResult{}

	default:
		return transferResult{}
	}
}
