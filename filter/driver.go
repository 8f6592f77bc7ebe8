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

// Validate walks buf front-to-back exactly once and proves the three
// properties described in spec.md section 1: every instruction's
// encoding stays inside the buffer, every instruction's operand
// registers carry admissible types, and every logical branch targets
// strictly forward. It returns nil on acceptance, or a *ValidationError
// identifying the first failure encountered.
//
// Validate performs no I/O and does not retain any state across calls:
// the register file and merge table it allocates are both local to this
// call and are released (by falling out of scope) on every exit path,
// success or failure.
func Validate(buf []byte) error {
	if len(buf) > MaxBytecodeLen {
		return errAt(-1, EBounds)
	}

	rf := newRegisterFile()
	merge := newMergeTable()

	pc := 0
	end := len(buf)

	for pc < end {
		in, err := decode(buf, pc)
		if err != nil {
			return withOffset(err, pc)
		}

		for _, snapshot := range merge.drain(uint16(pc)) {
			snap := snapshot
			if err := typecheck(&snap, in); err != nil {
				return withOffset(err, pc)
			}
		}

		if err := typecheck(&rf, in); err != nil {
			return withOffset(err, pc)
		}

		res := transfer(&rf, in)
		if res.mergeInsert {
			merge.add(res.mergeKey, rf.snapshot())
		}
		if res.terminate {
			if merge.size() > 0 {
				return residualMergeError(merge)
			}
			return nil
		}

		pc += in.length
	}

	// The buffer ran out without hitting RETURN. Spec section 3,
	// invariant I2, guarantees the driver makes progress each
	// iteration (every decoded length is >= 1), so this can only
	// happen when the last instruction decoded short of a terminator.
	// Report it through decode() itself, which raises E_BOUNDS for a
	// read at end-of-buffer, matching the truncation property in
	// spec.md section 8.
	if merge.size() > 0 {
		return residualMergeError(merge)
	}
	_, err := decode(buf, pc)
	if err == nil {
		// unreachable: pc == end means decode must fail
		err = errAt(pc, EBounds)
	}
	return withOffset(err, pc)
}

// residualMergeError builds the E_RESIDUAL_MERGE diagnostic once the
// driver has confirmed the merge table is non-empty at termination
// (spec invariant I6). The lowest live key is reported as Offset so
// callers get a concrete, reproducible location to inspect.
func residualMergeError(merge *mergeTable) error {
	keys := merge.residualKeys()
	offset := -1
	if len(keys) > 0 {
		offset = int(keys[0])
	}
	return errAt(offset, EResidualMerge)
}
