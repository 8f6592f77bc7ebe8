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

// Package bcfmt renders a bytecode buffer as human-readable disassembly,
// for use by cmd/bcvalidate and by tests that want a readable failure
// message instead of a raw offset. It is read-only: nothing here can
// change whether filter.Validate accepts or rejects a buffer.
package bcfmt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ust-filter/validate/filter"
)

// Disassemble renders buf as one line per accepted instruction,
// annotated with the register state R0/R1 held after that instruction
// ran. If validation eventually fails, the last line reports the error
// kind and offset instead of register state; everything before it is
// exactly what a caller would see from a successful run up to that
// point.
func Disassemble(buf []byte) string {
	steps, err := filter.Trace(buf)

	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "%5d  %-28s r0=%s r1=%s\n",
			s.PC, s.Op, regString(s.AfterR0), regString(s.AfterR1))
	}

	if err != nil {
		var ve *filter.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(&b, "%5d  REJECTED: %s\n", ve.Offset, ve.Kind)
		} else {
			fmt.Fprintf(&b, "REJECTED: %s\n", err)
		}
	}
	return b.String()
}

func regString(r filter.AbstractRegister) string {
	if r.Type == filter.TypeUnknown {
		return "unknown"
	}
	lit := ""
	if r.Literal {
		lit = "*"
	}
	return r.Type.String() + lit
}
