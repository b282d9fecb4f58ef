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
	"github.com/elastic/collectd-receiver/model"
	"github.com/elastic/collectd-receiver/typesdb"
)

// Validate binds the values of sub to the data set named by its type.
// Values bind by position. Unknown values always pass the range check.
func Validate(sub *Submission, catalog *typesdb.Catalog) (*model.Sample, error) {
	ds, ok := catalog.Lookup(sub.Identity.Type)
	if !ok {
		return nil, &UnknownTypeError{Type: sub.Identity.Type}
	}
	if len(sub.Values) != len(ds.Sources) {
		return nil, &MismatchError{
			Kind: ErrArityMismatch,
			Type: ds.Type,
			Want: len(ds.Sources),
			Got:  len(sub.Values),
		}
	}

	values := make([]model.Value, len(ds.Sources))
	for i, src := range ds.Sources {
		raw := sub.Values[i]
		values[i] = model.Value{
			Name:    src.Name,
			Kind:    src.Semantic.String(),
			Unknown: raw.Unknown,
			Number:  raw.Number,
		}
		if raw.Unknown || src.InRange(raw.Number) {
			continue
		}
		return nil, &MismatchError{
			Kind:       ErrOutOfRange,
			Type:       ds.Type,
			DataSource: src.Name,
			Index:      i,
			Value:      raw.Number,
			Min:        src.LowerBound(),
			Max:        src.Max,
		}
	}

	return &model.Sample{
		Identity:  sub.Identity,
		Interval:  sub.Interval,
		Timestamp: sub.Timestamp,
		Values:    values,
	}, nil
}

// Parse decodes and validates one submission line against catalog. Blank
// lines return a nil sample and a nil error.
func Parse(line string, catalog *typesdb.Catalog) (*model.Sample, error) {
	sub, err := Decode(line)
	if err != nil || sub == nil {
		return nil, err
	}
	return Validate(sub, catalog)
}
