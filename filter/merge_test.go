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

import "testing"

func TestMergeTableAddDrain(t *testing.T) {
	m := newMergeTable()
	if m.size() != 0 {
		t.Fatalf("new table size = %d, want 0", m.size())
	}

	rf1 := newRegisterFile()
	rf1.set(R0, TypeS64, false)
	m.add(10, rf1.snapshot())

	rf2 := newRegisterFile()
	rf2.set(R0, TypeString, false)
	m.add(10, rf2.snapshot())

	m.add(20, newRegisterFile())

	if m.size() != 3 {
		t.Fatalf("size = %d, want 3", m.size())
	}

	got := m.drain(10)
	if len(got) != 2 {
		t.Fatalf("drain(10) returned %d entries, want 2", len(got))
	}
	if m.size() != 1 {
		t.Fatalf("size after drain(10) = %d, want 1", m.size())
	}

	// draining an already-drained key returns nothing and doesn't
	// disturb the remaining key.
	if got := m.drain(10); got != nil {
		t.Fatalf("drain(10) after exhaustion = %v, want nil", got)
	}
	if m.size() != 1 {
		t.Fatalf("size after re-drain = %d, want 1", m.size())
	}

	got = m.drain(20)
	if len(got) != 1 {
		t.Fatalf("drain(20) returned %d entries, want 1", len(got))
	}
	if m.size() != 0 {
		t.Fatalf("size after draining everything = %d, want 0", m.size())
	}
}

func TestMergeTableResidualKeysSortedAndDistinct(t *testing.T) {
	m := newMergeTable()
	m.add(300, newRegisterFile())
	m.add(10, newRegisterFile())
	m.add(10, newRegisterFile())
	m.add(200, newRegisterFile())

	keys := m.residualKeys()
	want := []uint16{10, 200, 300}
	if len(keys) != len(want) {
		t.Fatalf("residualKeys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("residualKeys = %v, want %v", keys, want)
		}
	}
}

func TestMergeTableHandlesManyCollidingKeys(t *testing.T) {
	// Exercise the bucket-chaining path beyond the ~128-entry sizing
	// hint in spec.md section 4.6: correctness must not depend on
	// staying under that size.
	m := newMergeTable()
	const n = 500
	for i := uint16(0); i < n; i++ {
		m.add(i, newRegisterFile())
	}
	if m.size() != n {
		t.Fatalf("size = %d, want %d", m.size(), n)
	}
	for i := uint16(0); i < n; i++ {
		got := m.drain(i)
		if len(got) != 1 {
			t.Fatalf("drain(%d) returned %d entries, want 1", i, len(got))
		}
	}
	if m.size() != 0 {
		t.Fatalf("size after draining all = %d, want 0", m.size())
	}
}
