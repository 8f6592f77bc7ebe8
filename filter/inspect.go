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

// Step describes one instruction the driver successfully type-checked
// and transferred, for diagnostic tools built on top of this package
// (see internal/bcfmt). It carries no information Validate doesn't
// already compute internally; Trace exists so a caller can see the
// per-instruction register state that Validate itself discards once it
// moves on.
type Step struct {
	PC      int
	Op      Op
	Length  int
	Reg     uint8
	Skip    uint16
	AfterR0 AbstractRegister
	AfterR1 AbstractRegister
}

// Trace walks buf exactly the way Validate does, but returns the
// sequence of instructions it accepted along the way instead of
// discarding that state. If validation fails, Trace returns the steps
// accepted before the failure together with the error Validate would
// have returned; it performs no additional work beyond what Validate
// does; it does not execute the bytecode, only the same decode ->
// type-check -> transfer walk Validate runs.
func Trace(buf []byte) ([]Step, error) {
	if len(buf) > MaxBytecodeLen {
		return nil, errAt(-1, EBounds)
	}

	rf := newRegisterFile()
	merge := newMergeTable()
	var steps []Step

	pc := 0
	end := len(buf)

	for pc < end {
		in, err := decode(buf, pc)
		if err != nil {
			return steps, withOffset(err, pc)
		}

		for _, snapshot := range merge.drain(uint16(pc)) {
			snap := snapshot
			if err := typecheck(&snap, in); err != nil {
				return steps, withOffset(err, pc)
			}
		}

		if err := typecheck(&rf, in); err != nil {
			return steps, withOffset(err, pc)
		}

		res := transfer(&rf, in)
		if res.mergeInsert {
			merge.add(res.mergeKey, rf.snapshot())
		}

		r0, _ := rf.read(R0)
		r1, _ := rf.read(R1)
		steps = append(steps, Step{
			PC: in.pc, Op: in.op, Length: in.length, Reg: in.reg, Skip: in.skip,
			AfterR0: r0, AfterR1: r1,
		})

		if res.terminate {
			if merge.size() > 0 {
				return steps, residualMergeError(merge)
			}
			return steps, nil
		}

		pc += in.length
	}

	if merge.size() > 0 {
		return steps, residualMergeError(merge)
	}
	_, derr := decode(buf, pc)
	if derr == nil {
		derr = errAt(pc, EBounds)
	}
	return steps, withOffset(derr, pc)
}
