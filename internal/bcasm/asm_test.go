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
	"bytes"
	"testing"

	"github.com/ust-filter/validate/filter"
)

func TestAssembleReturn(t *testing.T) {
	buf, err := Assemble("return\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{byte(filter.OpReturn)}
	if !bytes.Equal(buf, want) {
		t.Fatalf("got % x, want % x", buf, want)
	}
	if err := filter.Validate(buf); err != nil {
		t.Fatalf("assembled program rejected: %v", err)
	}
}

func TestAssembleLoadAndCompare(t *testing.T) {
	src := `
# load two S64 literals and compare them
load.s64 r0 7
load.s64 r1 9
eq.s64
return
`
	buf, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := filter.Validate(buf); err != nil {
		t.Fatalf("assembled program rejected: %v", err)
	}
}

func TestAssembleLoadString(t *testing.T) {
	buf, err := Assemble(`load.string r0 "hello world"` + "\nreturn\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantTail := append([]byte("hello world"), 0, byte(filter.OpReturn))
	if !bytes.Equal(buf[2:], wantTail) {
		t.Fatalf("got tail % x, want % x", buf[2:], wantTail)
	}
}

func TestAssembleLabelForwardReference(t *testing.T) {
	src := `
load.s64 r0 1
and skip
load.s64 r1 2
skip:
eq.s64
return
`
	buf, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// and's skip_offset operand is bytes [1:3) of the 3-byte and
	// instruction, which itself starts right after the 10-byte load.s64.
	got := uint16(buf[11]) | uint16(buf[12])<<8
	want := uint16(10 + 3 + 10) // load.s64 + and + load.s64 == offset of "skip:"
	if got != want {
		t.Fatalf("skip_offset = %d, want %d", got, want)
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	_, err := Assemble("and nowhere\nreturn\n")
	if err == nil {
		t.Fatal("expected an error for an undefined label")
	}
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	_, err := Assemble("frobnicate r0\n")
	if err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}
