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

package seed

import "testing"

func TestHashStableWithinProcess(t *testing.T) {
	a := Hash(42)
	b := Hash(42)
	if a != b {
		t.Fatalf("Hash(42) not stable within one process: %d vs %d", a, b)
	}
}

func TestHashDistinguishesKeys(t *testing.T) {
	seen := make(map[uint64]uint16)
	for k := uint16(0); k < 1000; k++ {
		h := Hash(k)
		if other, ok := seen[h]; ok {
			t.Logf("collision: Hash(%d) == Hash(%d) (not a correctness bug, just bad luck)", k, other)
		}
		seen[h] = k
	}
	if len(seen) < 900 {
		t.Fatalf("too many collisions across 1000 keys: only %d distinct hashes", len(seen))
	}
}
