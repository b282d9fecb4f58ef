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
	"sync/atomic"
)

// Store publishes the active Catalog. Readers always observe a complete
// snapshot: a reload builds a new Catalog and swaps it in.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore returns a Store publishing c.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Catalog returns the active snapshot. Callers should fetch it once per unit
// of work and keep using that snapshot.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Swap publishes c and returns the previous snapshot.
func (s *Store) Swap(c *Catalog) *Catalog {
	return s.current.Swap(c)
}
