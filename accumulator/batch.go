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

package accumulator

import (
	"bytes"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elastic/collectd-receiver/model"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.elastic.co/fastjson"
)

// ErrBatchFull signfies that the batch has reached full capacity
// and cannot accept more entries.
var ErrBatchFull = errors.New("batch is full")

var (
	maxSizeThreshold = 0.9
	zeroTime         = time.Time{}
	metaKey          = "meta"
	pathChars        = `.*?|#@!\`
)

// Batch holds validated samples, encoded as ndjson, until they are
// shipped. Each line is one sample in the collectd write_http JSON shape.
type Batch struct {
	mu sync.RWMutex
	// buf holds data that is ready to be shipped
	buf bytes.Buffer
	// w is reused to encode samples
	w       fastjson.Writer
	count   int
	types   map[string]int
	age     time.Time
	maxSize int
	maxAge  time.Duration
}

// NewBatch creates a new Batch which can accept a maximum number of
// entries as specified by the arguments.
func NewBatch(maxSize int, maxAge time.Duration) *Batch {
	return &Batch{
		types:   make(map[string]int),
		maxSize: maxSize,
		maxAge:  maxAge,
	}
}

// Add encodes s and appends it to the batch. Every entry of attrs is set
// under the sample's "meta" object. Returns ErrBatchFull if the batch has
// reached its maximum size.
func (b *Batch) Add(s *model.Sample, attrs map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count >= b.maxSize {
		return ErrBatchFull
	}

	b.w.Reset()
	if err := s.MarshalFastJSON(&b.w); err != nil {
		return err
	}
	data := b.w.Bytes()

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var err error
		if data, err = sjson.SetBytes(data, metaKey+"."+escapePath(k), attrs[k]); err != nil {
			return err
		}
	}

	return b.addData(data)
}

// Count return the number of samples in the batch.
func (b *Batch) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// TypeCounts returns the number of samples in the batch per type.
func (b *Batch) TypeCounts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	counts := make(map[string]int, len(b.types))
	for k, v := range b.types {
		counts[k] = v
	}
	return counts
}

// ShouldShip indicates when a batch is ready for sending.
// A batch is marked as ready for flush when one of the
// below conditions is reached:
// 1. max size is greater than threshold (90% of maxSize)
// 2. batch is older than maturity age
func (b *Batch) ShouldShip() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return (b.count >= int(float64(b.maxSize)*maxSizeThreshold)) ||
		(!b.age.IsZero() && time.Since(b.age) > b.maxAge)
}

// Reset resets the batch to prepare for new set of data
func (b *Batch) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count, b.age = 0, zeroTime
	b.buf.Reset()
	clear(b.types)
}

// Bytes returns a copy of the accumulated ndjson.
func (b *Batch) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *Batch) addData(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := b.buf.Write(data); err != nil {
		return err
	}
	if err := b.buf.WriteByte('\n'); err != nil {
		return err
	}
	if b.count == 0 {
		// For first entry, set the age of the batch
		b.age = time.Now()
	}
	b.count++
	b.types[gjson.GetBytes(data, "type").Str]++
	return nil
}

// escapePath escapes the characters of k that have a meaning in a
// sjson path.
func escapePath(k string) string {
	if !strings.ContainsAny(k, pathChars) {
		return k
	}
	var sb strings.Builder
	for i := 0; i < len(k); i++ {
		if strings.IndexByte(pathChars, k[i]) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(k[i])
	}
	return sb.String()
}
