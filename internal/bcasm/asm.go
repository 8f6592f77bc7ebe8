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

// Package bcasm assembles the small textual instruction listing used by
// cmd/bcgen and cmd/bcvalidate's -tests tables into the wire encoding
// filter.Validate consumes (spec.md section 6). It exists purely so
// fixtures can be written by hand instead of as raw hex; it has no
// bearing on what filter.Validate itself accepts, and performs no
// admissibility checking of its own.
package bcasm

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

type rawInsn struct {
	mnem string
	args []string
}

// Assemble turns source (one instruction per line, blank lines and
// "# ..." comments ignored, "name:" lines define a label at the current
// offset) into a bytecode buffer. Unlike filter.Validate, Assemble
// performs no admissibility checking: it is a dumb encoder, and a
// program that assembles cleanly may still be rejected by Validate (that
// is the whole point of building fixtures with it).
func Assemble(source string) ([]byte, error) {
	var insns []rawInsn
	labels := make(map[string]int)
	offset := 0

	for lineNo, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") {
			name := strings.TrimSuffix(line, ":")
			if _, dup := labels[name]; dup {
				return nil, fmt.Errorf("line %d: label %q defined twice", lineNo+1, name)
			}
			labels[name] = offset
			continue
		}
		fields := splitFields(line)
		if len(fields) == 0 {
			continue
		}
		mnem := fields[0]
		args := fields[1:]
		length, err := lengthOf(mnem, args)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		insns = append(insns, rawInsn{mnem: mnem, args: args})
		offset += length
	}

	var buf []byte
	for _, in := range insns {
		enc, err := encode(in, labels)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

func splitFields(line string) []string {
	// Quoted string literals (for load.string) may contain spaces, so a
	// plain strings.Fields would split them; scan by hand instead.
	var fields []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			fields = append(fields, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return fields
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected a quoted string, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

func lengthOf(mnem string, args []string) (int, error) {
	_, kind, ok := lookupMnemonic(mnem)
	if !ok {
		return 0, fmt.Errorf("unknown mnemonic %q", mnem)
	}
	switch kind {
	case kindReturn, kindBinary:
		return 1, nil
	case kindUnary, kindCast:
		return 2, nil
	case kindLogical:
		return 3, nil
	case kindLoadFieldRef:
		return 4, nil
	case kindLoadS64, kindLoadDouble:
		return 10, nil
	case kindLoadString:
		if len(args) < 2 {
			return 0, fmt.Errorf("%s requires a register and a quoted string", mnem)
		}
		s, err := unquote(args[1])
		if err != nil {
			return 0, err
		}
		return 2 + len(s) + 1, nil
	default:
		return 0, fmt.Errorf("unhandled mnemonic kind for %q", mnem)
	}
}

func encode(in rawInsn, labels map[string]int) ([]byte, error) {
	op, kind, ok := lookupMnemonic(in.mnem)
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", in.mnem)
	}
	switch kind {
	case kindReturn, kindBinary:
		return []byte{op}, nil

	case kindUnary, kindCast:
		reg, err := parseReg(argAt(in.args, 0))
		if err != nil {
			return nil, err
		}
		return []byte{op, reg}, nil

	case kindLogical:
		target, err := resolveOffset(argAt(in.args, 0), labels)
		if err != nil {
			return nil, err
		}
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(target))
		return []byte{op, tmp[0], tmp[1]}, nil

	case kindLoadFieldRef:
		reg, err := parseReg(argAt(in.args, 0))
		if err != nil {
			return nil, err
		}
		fieldOff, err := strconv.ParseUint(argAt(in.args, 1), 0, 16)
		if err != nil {
			return nil, fmt.Errorf("bad field offset %q: %w", argAt(in.args, 1), err)
		}
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], uint16(fieldOff))
		return []byte{op, reg, tmp[0], tmp[1]}, nil

	case kindLoadS64:
		reg, err := parseReg(argAt(in.args, 0))
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(argAt(in.args, 1), 0, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int literal %q: %w", argAt(in.args, 1), err)
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v))
		return append([]byte{op, reg}, tmp[:]...), nil

	case kindLoadDouble:
		reg, err := parseReg(argAt(in.args, 0))
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(argAt(in.args, 1), 64)
		if err != nil {
			return nil, fmt.Errorf("bad float literal %q: %w", argAt(in.args, 1), err)
		}
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], float64bits(f))
		return append([]byte{op, reg}, tmp[:]...), nil

	case kindLoadString:
		reg, err := parseReg(argAt(in.args, 0))
		if err != nil {
			return nil, err
		}
		s, err := unquote(argAt(in.args, 1))
		if err != nil {
			return nil, err
		}
		out := append([]byte{op, reg}, []byte(s)...)
		return append(out, 0), nil

	default:
		return nil, fmt.Errorf("unhandled mnemonic kind for %q", in.mnem)
	}
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func parseReg(s string) (byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "r")
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("bad register %q: %w", s, err)
	}
	return byte(v), nil
}

func resolveOffset(s string, labels map[string]int) (int, error) {
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return int(v), nil
	}
	off, ok := labels[s]
	if !ok {
		return 0, fmt.Errorf("undefined label %q", s)
	}
	return off, nil
}
