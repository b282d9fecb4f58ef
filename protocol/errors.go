// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

// Decode errors. Every SyntaxError matches exactly one of them.
var (
	ErrMalformedCommand    = errors.New("malformed command")
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrMalformedInterval   = errors.New("malformed interval")
	ErrMalformedValueSpec  = errors.New("malformed value list")
)

// Validation errors.
var (
	// ErrUnknownType is matched by UnknownTypeError.
	ErrUnknownType = errors.New("unknown type")
	// ErrSchemaMismatch is matched by every MismatchError.
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrArityMismatch  = errors.New("value count mismatch")
	ErrOutOfRange     = errors.New("value out of range")
)

// SyntaxError is returned when a line does not follow the grammar.
type SyntaxError struct {
	Kind   error
	Reason string
}

func (e *SyntaxError) Error() string {
	return "protocol: " + e.Kind.Error() + ": " + e.Reason
}

func (e *SyntaxError) Unwrap() error {
	return e.Kind
}

func syntaxErrorf(kind error, format string, args ...any) error {
	return &SyntaxError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// UnknownTypeError is returned when no data set is registered for the type
// of a submission.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("protocol: unknown type %q", e.Type)
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// MismatchError is returned when the values of a submission do not fit
// the data set of its type. Kind is ErrArityMismatch or ErrOutOfRange.
type MismatchError struct {
	Kind error
	Type string

	// Set for arity mismatches.
	Want, Got int

	// Set for range violations.
	DataSource string
	Index      int
	Value      float64
	Min, Max   float64
}

func (e *MismatchError) Error() string {
	if e.Kind == ErrArityMismatch {
		return fmt.Sprintf("protocol: type %q expects %d values, got %d", e.Type, e.Want, e.Got)
	}
	return fmt.Sprintf("protocol: type %q data source %q (#%d): value %s outside [%s, %s]",
		e.Type, e.DataSource, e.Index, formatFloat(e.Value), formatFloat(e.Min), formatFloat(e.Max))
}

func (e *MismatchError) Unwrap() []error {
	return []error{e.Kind, ErrSchemaMismatch}
}

// Outcome classifies the result of Parse for reporting: "accepted" for a nil
// error, otherwise a short name of the error kind.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMalformedCommand):
		return "malformed_command"
	case errors.Is(err, ErrMalformedIdentifier):
		return "malformed_identifier"
	case errors.Is(err, ErrMalformedInterval):
		return "malformed_interval"
	case errors.Is(err, ErrMalformedValueSpec):
		return "malformed_values"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrArityMismatch):
		return "arity_mismatch"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	}
	return "error"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
