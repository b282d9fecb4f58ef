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

package typesdb

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaSyntax is matched by every SyntaxError.
	ErrSchemaSyntax = errors.New("typesdb: syntax error")
	// ErrSourceUnavailable is matched by every SourceError.
	ErrSourceUnavailable = errors.New("typesdb: source unavailable")
)

// SyntaxError describes a single malformed definition line. Lines with
// syntax errors are skipped, they never abort a load.
type SyntaxError struct {
	Source string
	Line   int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("typesdb: %s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() []error {
	return []error{ErrSchemaSyntax, e.Err}
}

// SourceError is returned when an existing source cannot be read.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("typesdb: cannot read %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
