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
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ust-filter/validate/internal/bcasm"
)

func exitf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	var (
		out = flag.String("o", "", "output file for the assembled bytecode (default: stdout)")
		hex = flag.Bool("x", false, "print the assembled bytecode as hex instead of raw bytes")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: bcgen [-o FILE] [-x] SOURCE.asm\n\n"+
			"bcgen assembles a textual instruction listing into the bytecode\n"+
			"buffer filter.Validate accepts. With no SOURCE argument, it reads\n"+
			"the listing from stdin.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var src []byte
	var err error
	if flag.NArg() > 0 {
		src, err = os.ReadFile(flag.Arg(0))
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitf("reading source: %v", err)
	}

	buf, err := bcasm.Assemble(string(src))
	if err != nil {
		exitf("assembling: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			exitf("creating %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	if *hex {
		fmt.Fprintf(w, "%x\n", buf)
		return
	}
	if _, err := w.Write(buf); err != nil {
		exitf("writing output: %v", err)
	}
}
