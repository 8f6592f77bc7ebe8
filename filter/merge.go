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
	"golang.org/x/exp/slices"

	"github.com/ust-filter/validate/internal/seed"
)

// mergeBuckets sizes the merge table for the common case (spec section
// 4.6: "a table sized for ~128 entries is sufficient"). Programs with
// more live branches than this still work correctly; each bucket just
// degrades to a short linear scan, which is the degradation spec.md
// explicitly allows.
const mergeBuckets = 128

type mergeEntry struct {
	key   uint16
	state RegisterFile
}

// mergeTable is the multiset of (offset, register-file snapshot) pairs
// described in spec section 4.6: "Logical contract: multiset of (key =
// absolute byte offset, value = register-file snapshot). Allows
// duplicates." It is accessed single-threadedly per spec section 5, so
// there is no internal locking.
type mergeTable struct {
	buckets [mergeBuckets][]mergeEntry
	count   int
}

func newMergeTable() *mergeTable {
	return &mergeTable{}
}

func (m *mergeTable) bucketFor(key uint16) int {
	return int(seed.Hash(key) % mergeBuckets)
}

// add inserts a new snapshot keyed at key. Duplicates (multiple branches
// targeting the same offset) are explicitly allowed and stored
// separately.
func (m *mergeTable) add(key uint16, state RegisterFile) {
	b := m.bucketFor(key)
	m.buckets[b] = append(m.buckets[b], mergeEntry{key: key, state: state})
	m.count++
}

// drain removes and returns every snapshot stored under key, in
// insertion order.
func (m *mergeTable) drain(key uint16) []RegisterFile {
	b := m.bucketFor(key)
	bucket := m.buckets[b]
	if len(bucket) == 0 {
		return nil
	}
	var out []RegisterFile
	kept := bucket[:0]
	for _, e := range bucket {
		if e.key == key {
			out = append(out, e.state)
			m.count--
		} else {
			kept = append(kept, e)
		}
	}
	m.buckets[b] = kept
	return out
}

// size returns the total number of live entries across all buckets.
func (m *mergeTable) size() int {
	return m.count
}

// residualKeys returns the distinct keys that still have at least one
// live entry, for building an E_RESIDUAL_MERGE diagnostic (spec section
// 8 scenario 7: "a logical op whose skip_offset points past RETURN").
func (m *mergeTable) residualKeys() []uint16 {
	if m.count == 0 {
		return nil
	}
	seen := make(map[uint16]bool)
	var keys []uint16
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !seen[e.key] {
				seen[e.key] = true
				keys = append(keys, e.key)
			}
		}
	}
	slices.Sort(keys)
	return keys
}
