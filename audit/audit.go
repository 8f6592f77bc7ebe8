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

// Package audit gives callers of filter.Validate a stable record shape
// to log, without filter itself doing any I/O. It mirrors the way the
// teacher corpus's HTTP front door stamps every request with a
// correlation ID (cmd/snellerd's handler_query.go and
// elasticproxy/proxy_http/logging.go both call uuid.New().String() per
// request) — here, per validated program.
package audit

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ust-filter/validate/filter"
)

// Outcome is the closed set of results a validation run can have.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
)

// Record is one validation run, ready to be marshaled (it carries a
// `json` tag set for that purpose) and appended to whatever log sink the
// caller uses. Record does not include a timestamp: stamping one is the
// caller's responsibility, since this package must not call time.Now()
// to stay deterministic and testable.
type Record struct {
	RunID       string  `json:"run_id"`
	ProgramSize int     `json:"program_size"`
	Outcome     Outcome `json:"outcome"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Offset      int     `json:"offset,omitempty"`
}

// NewRunID returns a fresh correlation ID for a validation call. Callers
// that want to tie the record back to the request that produced the
// buffer (e.g. the out-of-scope IPC transport named in spec.md section
// 1) should generate one before calling filter.Validate and pass it
// through their own logging, not recompute it from the Record.
func NewRunID() string {
	return uuid.New().String()
}

// Observe runs filter.Validate on buf and returns a Record describing
// the outcome, tagged with runID. It performs no I/O itself.
func Observe(runID string, buf []byte) (Record, error) {
	err := filter.Validate(buf)
	rec := Record{
		RunID:       runID,
		ProgramSize: len(buf),
		Outcome:     Accepted,
	}
	if err == nil {
		return rec, nil
	}
	rec.Outcome = Rejected
	var ve *filter.ValidationError
	if errors.As(err, &ve) {
		rec.ErrorKind = ve.Kind.String()
		rec.Offset = ve.Offset
	} else {
		rec.ErrorKind = err.Error()
	}
	return rec, err
}
