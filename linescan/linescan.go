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

// Package linescan reads newline delimited input one line at a time. Unlike
// bufio.Scanner, a line longer than the limit does not end the scan: it is
// discarded and reported, and scanning resumes at the next line.
package linescan

import (
	"bufio"
	"errors"
	"io"
)

// ErrLineTooLong describes a line discarded for exceeding the limit.
var ErrLineTooLong = errors.New("line too long")

// Scanner is a line reader with bounded memory use.
type Scanner struct {
	r       *bufio.Reader
	limit   int
	line    []byte
	lineNo  int
	tooLong bool
	err     error
}

// NewScanner returns a Scanner reading from r. Lines longer than limit bytes,
// line terminator excluded, are discarded.
func NewScanner(r io.Reader, limit int) *Scanner {
	return &Scanner{r: bufio.NewReader(r), limit: limit}
}

// Scan advances to the next line. It returns false at the end of the input
// or on a read error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	s.line = s.line[:0]
	s.tooLong = false
	read := false
	for {
		chunk, err := s.r.ReadSlice('\n')
		read = read || len(chunk) > 0
		if !s.tooLong {
			s.line = append(s.line, chunk...)
			if n := len(s.line); n > s.limit+1 || (n == s.limit+1 && s.line[n-1] != '\n') {
				s.line = s.line[:0]
				s.tooLong = true
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			s.err = io.EOF
			if !read {
				return false
			}
		default:
			s.err = err
			return false
		}
		break
	}

	s.lineNo++
	s.trim()
	return true
}

func (s *Scanner) trim() {
	n := len(s.line)
	if n > 0 && s.line[n-1] == '\n' {
		n--
	}
	if n > 0 && s.line[n-1] == '\r' {
		n--
	}
	s.line = s.line[:n]
}

// Text returns the current line without its terminator. It is empty when
// the line was too long.
func (s *Scanner) Text() string {
	return string(s.line)
}

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int {
	return s.lineNo
}

// TooLong reports whether the current line was discarded for exceeding the
// limit. Scanning may continue after it.
func (s *Scanner) TooLong() bool {
	return s.tooLong
}

// Err returns the first read error other than io.EOF.
func (s *Scanner) Err() error {
	if errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}
