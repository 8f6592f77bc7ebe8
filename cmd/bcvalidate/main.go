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
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ust-filter/validate/audit"
	"github.com/ust-filter/validate/internal/bcfmt"
)

var dashv bool

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose: also print the audit record of each accepted program (and the disassembly of each passing -tests case)")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if dashv {
		fmt.Fprintf(os.Stderr, f+"\n", args...)
	}
}

func main() {
	testsFile := flag.String("tests", "", "run a YAML table of named programs and expected outcomes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage:\n"+
			"    %s [-v] check FILE...\n"+
			"        validate one or more raw bytecode files\n"+
			"    %s [-v] disasm FILE\n"+
			"        print the disassembly (and rejection reason, if any) of a bytecode file\n"+
			"    %s -tests TABLE.yaml\n"+
			"        run a table of named programs against their expected accept/reject outcome\n"+
			"flag usage:\n", os.Args[0], os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()

	if *testsFile != "" {
		runTests(*testsFile)
		return
	}

	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	switch args[0] {
	case "check":
		if len(args) < 2 {
			exitf("usage: check FILE...")
		}
		check(args[1:])
	case "disasm":
		if len(args) != 2 {
			exitf("usage: disasm FILE")
		}
		disasm(args[1])
	default:
		exitf("commands: check, disasm (or use -tests)")
	}
}

func check(files []string) {
	failed := false
	for _, path := range files {
		buf, err := os.ReadFile(path)
		if err != nil {
			exitf("reading %s: %v", path, err)
		}
		runID := audit.NewRunID()
		rec, err := audit.Observe(runID, buf)
		if err != nil {
			failed = true
			fmt.Printf("%s: REJECTED: %s\n", path, err)
			continue
		}
		fmt.Printf("%s: accepted\n", path)
		logf("%s: %s", path, recordJSON(rec))
	}
	if failed {
		os.Exit(1)
	}
}

func disasm(path string) {
	buf, err := os.ReadFile(path)
	if err != nil {
		exitf("reading %s: %v", path, err)
	}
	fmt.Print(bcfmt.Disassemble(buf))
}

// recordJSON is used only for -v output in check; it piggybacks on
// audit.Record's own json tags so the printed shape matches whatever a
// caller would see if they logged the Record themselves.
func recordJSON(rec audit.Record) string {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Sprintf("%+v", rec)
	}
	return string(b)
}
