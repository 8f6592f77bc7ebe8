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

// Package seed owns the one piece of state that survives across
// otherwise-independent validation calls: the process-wide siphash key
// used to bucket the merge-point table (see filter.mergeTable). Per the
// concurrency model in spec.md section 5, this initialization is a
// one-time guarded event; nothing in this package, or in filter, mutates
// the key after it is drawn.
package seed

import (
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/dchest/siphash"
)

var (
	once   sync.Once
	k0, k1 uint64
)

func ensure() {
	once.Do(func() {
		var buf [16]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand failing is not something a validation
			// call can recover from; fall back to a fixed nonzero
			// key rather than leave k0/k1 as zero. Every process
			// that takes this path shares that same key.
			binary.LittleEndian.PutUint64(buf[0:8], 0x9e3779b97f4a7c15)
			binary.LittleEndian.PutUint64(buf[8:16], 0xc2b2ae3d27d4eb4f)
		}
		k0 = binary.LittleEndian.Uint64(buf[0:8])
		k1 = binary.LittleEndian.Uint64(buf[8:16])
	})
}

// Hash returns the siphash of key under the process-wide seed,
// initializing the seed on first use.
func Hash(key uint16) uint64 {
	ensure()
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], key)
	return siphash.Hash(k0, k1, buf[:])
}
