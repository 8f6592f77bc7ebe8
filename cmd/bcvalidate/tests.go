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

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/ust-filter/validate/filter"
	"github.com/ust-filter/validate/internal/bcasm"
	"github.com/ust-filter/validate/internal/bcfmt"
)

// testCase is one row of a -tests table. A case supplies its program
// either as a textual instruction listing (Asm, run through bcasm) or as
// a raw hex string (Hex); supplying both or neither is an error. Want is
// "accept" or "reject"; WantKind additionally constrains which
// filter.ErrorKind a rejection must carry, by its String() spelling
// (e.g. "operand type mismatch").
type testCase struct {
	Name     string `json:"name"`
	Asm      string `json:"asm,omitempty"`
	Hex      string `json:"hex,omitempty"`
	Want     string `json:"want"`
	WantKind string `json:"want_kind,omitempty"`
}

type testTable struct {
	Cases []testCase `json:"cases"`
}

func runTests(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		exitf("reading %s: %v", path, err)
	}
	var table testTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		exitf("parsing %s: %v", path, err)
	}

	failures := 0
	for i, c := range table.Cases {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("case %d", i)
		}
		buf, err := c.program()
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", name, err)
			failures++
			continue
		}
		verr := filter.Validate(buf)
		if ok, msg := c.check(verr); !ok {
			fmt.Printf("FAIL %s: %s\n", name, msg)
			failures++
			continue
		}
		fmt.Printf("ok   %s\n", name)
		logf("%s: disassembly:\n%s", name, bcfmt.Disassemble(buf))
	}

	fmt.Printf("%d/%d cases passed\n", len(table.Cases)-failures, len(table.Cases))
	if failures > 0 {
		os.Exit(1)
	}
}

func (c testCase) program() ([]byte, error) {
	switch {
	case c.Asm != "" && c.Hex != "":
		return nil, fmt.Errorf("case supplies both asm and hex")
	case c.Asm != "":
		return bcasm.Assemble(c.Asm)
	case c.Hex != "":
		return hex.DecodeString(c.Hex)
	default:
		return nil, fmt.Errorf("case supplies neither asm nor hex")
	}
}

func (c testCase) check(verr error) (ok bool, msg string) {
	switch c.Want {
	case "accept":
		if verr != nil {
			return false, fmt.Sprintf("expected acceptance, got: %s", verr)
		}
		return true, ""
	case "reject":
		if verr == nil {
			return false, "expected rejection, program was accepted"
		}
		if c.WantKind == "" {
			return true, ""
		}
		var ve *filter.ValidationError
		if !errors.As(verr, &ve) {
			return false, fmt.Sprintf("expected kind %q, error has no kind: %s", c.WantKind, verr)
		}
		if ve.Kind.String() != c.WantKind {
			return false, fmt.Sprintf("expected kind %q, got %q", c.WantKind, ve.Kind)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown want %q (must be accept or reject)", c.Want)
	}
}
