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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/collectd-receiver/model"
)

// CommandPutValue submits a value list.
const CommandPutValue = "PUTVAL"

const (
	intervalOption = "interval"
	nowTimestamp   = "N"
	unknownValue   = "U"
	maxInterval    = math.MaxInt64 / int64(time.Second)
	maxTimestamp   = 1 << 62
)

// RawValue is one value token of a submission.
type RawValue struct {
	Unknown bool
	Number  float64
}

// Submission is a decoded line that has not been checked against a schema.
type Submission struct {
	Command  string
	Identity model.Identity
	// Interval is zero when absent or given as 0.
	Interval time.Duration
	// Timestamp is zero when the submitter asked for receive time.
	Timestamp time.Time
	Values    []RawValue
}

// Decode parses one submission line:
//
//	PUTVAL IDENTIFIER [interval=SECONDS] TIMESTAMP:VALUE[:VALUE...]
//
// The identifier may be double quoted, in which case backslash escapes are
// honoured. Blank lines decode to a nil Submission and a nil error.
func Decode(line string) (*Submission, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	cmd, rest := cutField(line)
	if cmd != CommandPutValue {
		return nil, syntaxErrorf(ErrMalformedCommand, "unknown command %q", cmd)
	}

	if rest == "" {
		return nil, syntaxErrorf(ErrMalformedIdentifier, "missing identifier")
	}
	ident, rest, err := cutIdentifier(rest)
	if err != nil {
		return nil, err
	}
	id, err := parseIdentifier(ident)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Command: cmd, Identity: id}
	haveValues := false
	for rest != "" {
		var field string
		field, rest = cutField(rest)
		if haveValues {
			return nil, syntaxErrorf(ErrMalformedValueSpec, "unexpected trailing data %q", field)
		}
		if key, val, ok := strings.Cut(field, "="); ok {
			if key != intervalOption {
				return nil, syntaxErrorf(ErrMalformedValueSpec, "unknown option %q", key)
			}
			if sub.Interval, err = parseInterval(val); err != nil {
				return nil, err
			}
			continue
		}
		if sub.Timestamp, sub.Values, err = parseValueSpec(field); err != nil {
			return nil, err
		}
		haveValues = true
	}
	if !haveValues {
		return nil, syntaxErrorf(ErrMalformedValueSpec, "missing value list")
	}
	return sub, nil
}

// cutField splits off the next space separated field of s.
func cutField(s string) (field, rest string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimLeft(s[i:], " \t")
	}
	return s, ""
}

// cutIdentifier splits off the identifier, which may be quoted.
func cutIdentifier(s string) (ident, rest string, err error) {
	if s[0] != '"' {
		ident, rest = cutField(s)
		return ident, rest, nil
	}

	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 == len(s) {
				return "", "", syntaxErrorf(ErrMalformedIdentifier, "unterminated quoted identifier")
			}
			i++
			b.WriteByte(s[i])
		case '"':
			rest = s[i+1:]
			if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
				return "", "", syntaxErrorf(ErrMalformedIdentifier, "garbage after quoted identifier")
			}
			return b.String(), strings.TrimLeft(rest, " \t"), nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", syntaxErrorf(ErrMalformedIdentifier, "unterminated quoted identifier")
}

// parseIdentifier splits host/plugin[-instance]/type[-instance]. The first
// '-' of a section separates the name from its instance; everything after it,
// further dashes included, is the instance.
func parseIdentifier(s string) (model.Identity, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return model.Identity{}, syntaxErrorf(ErrMalformedIdentifier, "%q: want host/plugin/type", s)
	}

	var (
		id  = model.Identity{Host: parts[0]}
		err error
	)
	if id.Host == "" {
		return model.Identity{}, syntaxErrorf(ErrMalformedIdentifier, "%q: missing host", s)
	}
	if id.Plugin, id.PluginInstance, err = splitInstance(s, "plugin", parts[1]); err != nil {
		return model.Identity{}, err
	}
	if id.Type, id.TypeInstance, err = splitInstance(s, "type", parts[2]); err != nil {
		return model.Identity{}, err
	}
	if strings.Contains(id.Type, "/") {
		return model.Identity{}, syntaxErrorf(ErrMalformedIdentifier, "%q: too many segments", s)
	}
	return id, nil
}

func splitInstance(ident, what, section string) (string, string, error) {
	name, instance, found := strings.Cut(section, "-")
	if name == "" {
		return "", "", syntaxErrorf(ErrMalformedIdentifier, "%q: missing %s", ident, what)
	}
	if found && instance == "" {
		return "", "", syntaxErrorf(ErrMalformedIdentifier, "%q: empty %s instance", ident, what)
	}
	return name, instance, nil
}

func parseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, syntaxErrorf(ErrMalformedInterval, "missing interval value")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, syntaxErrorf(ErrMalformedInterval, "%q is not a number of seconds", s)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > maxInterval {
		return 0, syntaxErrorf(ErrMalformedInterval, "%q is out of range", s)
	}
	return time.Duration(n) * time.Second, nil
}

func parseValueSpec(s string) (time.Time, []RawValue, error) {
	tokens := strings.Split(s, ":")
	if len(tokens) < 2 {
		return time.Time{}, nil, syntaxErrorf(ErrMalformedValueSpec, "%q: want TIMESTAMP:VALUE[:VALUE...]", s)
	}

	ts, err := parseTimestamp(tokens[0])
	if err != nil {
		return time.Time{}, nil, err
	}

	values := make([]RawValue, len(tokens)-1)
	for i, tok := range tokens[1:] {
		if tok == unknownValue {
			values[i].Unknown = true
			continue
		}
		v, err := parseNumber(tok)
		if err != nil {
			return time.Time{}, nil, syntaxErrorf(ErrMalformedValueSpec, "value #%d %q is not a number", i, tok)
		}
		values[i].Number = v
	}
	return ts, values, nil
}

// parseTimestamp parses epoch seconds. N and 0 both mean receive time.
func parseTimestamp(s string) (time.Time, error) {
	if s == nowTimestamp {
		return time.Time{}, nil
	}
	v, err := parseNumber(s)
	if err != nil || v < 0 || v >= maxTimestamp {
		return time.Time{}, syntaxErrorf(ErrMalformedValueSpec, "invalid timestamp %q", s)
	}
	if v == 0 {
		return time.Time{}, nil
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))), nil
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, error) {
	if s == "" || strings.ContainsAny(s, "xXnNiI_") {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}
