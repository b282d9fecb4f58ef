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

import "sort"

// Catalog maps type names to data sets. A Catalog is never modified after
// Load returns it, so lookups are safe from any number of goroutines.
type Catalog struct {
	types map[string]DataSet
	// skipped counts the definition lines rejected while loading.
	skipped int
}

// Lookup returns the data set registered for the type name.
func (c *Catalog) Lookup(typeName string) (DataSet, bool) {
	if c == nil {
		return DataSet{}, false
	}
	ds, ok := c.types[typeName]
	return ds, ok
}

// Len returns the number of types in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

// Skipped returns the number of malformed lines skipped during load.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Types returns the sorted type names of the catalog.
func (c *Catalog) Types() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
