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
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Semantic is the numeric interpretation of the values of a data source.
type Semantic uint8

const (
	// Counter is a monotonic counter which may wrap around.
	Counter Semantic = iota + 1
	// Gauge is an absolute, instantaneous value.
	Gauge
	// Derive is a signed counter which may decrease.
	Derive
	// Absolute is a counter which is reset to zero on every read.
	Absolute
)

// ParseSemantic parses a data source type as written in a types.db file.
// Matching is case-insensitive.
func ParseSemantic(s string) (Semantic, error) {
	switch strings.ToUpper(s) {
	case "COUNTER":
		return Counter, nil
	case "GAUGE":
		return Gauge, nil
	case "DERIVE":
		return Derive, nil
	case "ABSOLUTE":
		return Absolute, nil
	}
	return 0, fmt.Errorf("unknown data source type %q", s)
}

func (s Semantic) String() string {
	switch s {
	case Counter:
		return "counter"
	case Gauge:
		return "gauge"
	case Derive:
		return "derive"
	case Absolute:
		return "absolute"
	}
	return "unknown"
}

// NonNegative reports whether values of this semantic can never be negative.
func (s Semantic) NonNegative() bool {
	return s == Counter || s == Absolute
}

// unbounded is the types.db sentinel for a missing bound.
const unbounded = "U"

// DataSource is one positional value slot of a data set.
type DataSource struct {
	Name     string
	Semantic Semantic
	// Min and Max are inclusive bounds. A missing bound is stored as
	// -Inf and +Inf respectively.
	Min float64
	Max float64
}

// HasMin reports whether a lower bound was declared.
func (ds DataSource) HasMin() bool {
	return !math.IsInf(ds.Min, -1)
}

// HasMax reports whether an upper bound was declared.
func (ds DataSource) HasMax() bool {
	return !math.IsInf(ds.Max, 1)
}

// LowerBound returns the effective lower bound used when validating values.
// Counters and absolute values are never negative unless the data source
// explicitly allows it with a negative minimum.
func (ds DataSource) LowerBound() float64 {
	if ds.Semantic.NonNegative() && !(ds.HasMin() && ds.Min < 0) {
		return math.Max(ds.Min, 0)
	}
	return ds.Min
}

// InRange reports whether v lies within the effective bounds of ds.
func (ds DataSource) InRange(v float64) bool {
	return v >= ds.LowerBound() && v <= ds.Max
}

func (ds DataSource) String() string {
	return fmt.Sprintf("%s:%s:%s:%s",
		ds.Name, strings.ToUpper(ds.Semantic.String()), formatBound(ds.Min), formatBound(ds.Max))
}

// DataSet is a named metric type and its ordered data sources. Values
// submitted for the type bind to the data sources by position.
type DataSet struct {
	Type    string
	Sources []DataSource
}

// Names returns the data source names in declaration order.
func (d DataSet) Names() []string {
	names := make([]string, len(d.Sources))
	for i, ds := range d.Sources {
		names[i] = ds.Name
	}
	return names
}

func (d DataSet) String() string {
	parts := make([]string, len(d.Sources))
	for i, ds := range d.Sources {
		parts[i] = ds.String()
	}
	return d.Type + " " + strings.Join(parts, ", ")
}

// ParseDataSet parses one definition line of a types.db file:
//
//	TYPENAME NAME:SEMANTIC:MIN:MAX[, NAME:SEMANTIC:MIN:MAX...]
//
// The caller is expected to skip blank and comment lines.
func ParseDataSet(line string) (DataSet, error) {
	line = strings.TrimSpace(line)
	idx := strings.IndexAny(line, " \t")
	if idx == -1 {
		if line == "" {
			return DataSet{}, fmt.Errorf("empty definition")
		}
		return DataSet{}, fmt.Errorf("type %q has no data sources", line)
	}

	ds := DataSet{Type: line[:idx]}
	// Submissions end the type name at the first dash.
	if strings.Contains(ds.Type, "-") {
		return DataSet{}, fmt.Errorf("type name %q must not contain '-'", ds.Type)
	}
	seen := make(map[string]struct{})
	for _, def := range strings.Split(line[idx+1:], ",") {
		src, err := parseDataSource(strings.TrimSpace(def))
		if err != nil {
			return DataSet{}, err
		}
		if _, ok := seen[src.Name]; ok {
			return DataSet{}, fmt.Errorf("duplicate data source %q", src.Name)
		}
		seen[src.Name] = struct{}{}
		ds.Sources = append(ds.Sources, src)
	}
	return ds, nil
}

func parseDataSource(def string) (DataSource, error) {
	fields := strings.Split(def, ":")
	if len(fields) != 4 {
		return DataSource{}, fmt.Errorf("data source %q: want NAME:TYPE:MIN:MAX", def)
	}
	if fields[0] == "" {
		return DataSource{}, fmt.Errorf("data source %q: empty name", def)
	}

	sem, err := ParseSemantic(fields[1])
	if err != nil {
		return DataSource{}, fmt.Errorf("data source %q: %w", fields[0], err)
	}
	lo, err := parseBound(fields[2], math.Inf(-1))
	if err != nil {
		return DataSource{}, fmt.Errorf("data source %q: min: %w", fields[0], err)
	}
	hi, err := parseBound(fields[3], math.Inf(1))
	if err != nil {
		return DataSource{}, fmt.Errorf("data source %q: max: %w", fields[0], err)
	}
	if lo > hi {
		return DataSource{}, fmt.Errorf("data source %q: min %s exceeds max %s", fields[0], fields[2], fields[3])
	}

	return DataSource{Name: fields[0], Semantic: sem, Min: lo, Max: hi}, nil
}

func parseBound(s string, missing float64) (float64, error) {
	if s == unbounded {
		return missing, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bound %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid bound %q", s)
	}
	return v, nil
}

func formatBound(v float64) string {
	if math.IsInf(v, 0) {
		return unbounded
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
