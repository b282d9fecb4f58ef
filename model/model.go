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

package model

import (
	"strings"
	"time"

	"go.elastic.co/fastjson"
)

// Identity addresses a value list: host/plugin[-instance]/type[-instance].
type Identity struct {
	Host           string
	Plugin         string
	PluginInstance string
	Type           string
	TypeInstance   string
}

// String formats the identity as it appears on the wire, unquoted.
func (id Identity) String() string {
	var b strings.Builder
	b.WriteString(id.Host)
	b.WriteByte('/')
	b.WriteString(id.Plugin)
	if id.PluginInstance != "" {
		b.WriteByte('-')
		b.WriteString(id.PluginInstance)
	}
	b.WriteByte('/')
	b.WriteString(id.Type)
	if id.TypeInstance != "" {
		b.WriteByte('-')
		b.WriteString(id.TypeInstance)
	}
	return b.String()
}

// Value is one reading bound to its data source.
type Value struct {
	Name string
	// Kind is the data source type, e.g. "gauge". It is copied from the
	// schema so the sample does not reference the catalog.
	Kind string
	// Unknown is set for readings submitted as "U". Number is zero then.
	Unknown bool
	Number  float64
}

// Sample is a decoded value list that matched its data set.
type Sample struct {
	Identity Identity
	// Interval is zero when the submitter did not specify one.
	Interval time.Duration
	// Timestamp is zero when the submitter asked for receive time.
	Timestamp time.Time
	Values    []Value
}

// MarshalFastJSON encodes the sample in the JSON format of collectd's
// write_http plugin. Unknown values are encoded as null.
func (s *Sample) MarshalFastJSON(w *fastjson.Writer) error {
	w.RawString(`{"values":[`)
	for i, v := range s.Values {
		if i > 0 {
			w.RawByte(',')
		}
		if v.Unknown {
			w.RawString("null")
		} else {
			w.Float64(v.Number)
		}
	}
	w.RawString(`],"dstypes":[`)
	for i, v := range s.Values {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(v.Kind)
	}
	w.RawString(`],"dsnames":[`)
	for i, v := range s.Values {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(v.Name)
	}
	w.RawString(`],"time":`)
	if s.Timestamp.IsZero() {
		w.RawString("null")
	} else {
		w.Float64(float64(s.Timestamp.Unix()) + float64(s.Timestamp.Nanosecond())/1e9)
	}
	w.RawString(`,"interval":`)
	if s.Interval == 0 {
		w.RawString("null")
	} else {
		w.Float64(s.Interval.Seconds())
	}
	w.RawString(`,"host":`)
	w.String(s.Identity.Host)
	w.RawString(`,"plugin":`)
	w.String(s.Identity.Plugin)
	w.RawString(`,"plugin_instance":`)
	w.String(s.Identity.PluginInstance)
	w.RawString(`,"type":`)
	w.String(s.Identity.Type)
	w.RawString(`,"type_instance":`)
	w.String(s.Identity.TypeInstance)
	w.RawByte('}')
	return nil
}
