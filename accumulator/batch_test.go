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
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/elastic/collectd-receiver/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

func testSample(typ string, v float64) *model.Sample {
	return &model.Sample{
		Identity:  model.Identity{Host: "h", Plugin: "p", Type: typ},
		Timestamp: time.Unix(1000000000, 0),
		Values:    []model.Value{{Name: "value", Kind: "gauge", Number: v}},
	}
}

func TestAdd(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		b := NewBatch(1, time.Hour)
		assert.Zero(t, b.Count())
		assert.Empty(t, b.Bytes())
	})
	t.Run("with-attributes", func(t *testing.T) {
		b := NewBatch(1, time.Hour)
		require.NoError(t, b.Add(testSample("gauge", 1), map[string]string{
			"env":       "prod",
			"dc.region": "eu",
		}))

		line := b.Bytes()
		assert.Equal(t, byte('\n'), line[len(line)-1])
		assert.Equal(t, "prod", gjson.GetBytes(line, "meta.env").Str)
		assert.Equal(t, "eu", gjson.GetBytes(line, `meta.dc\.region`).Str)
		assert.Equal(t, "gauge", gjson.GetBytes(line, "type").Str)
		assert.Equal(t, 1.0, gjson.GetBytes(line, "values.0").Num)
	})
	t.Run("full", func(t *testing.T) {
		b := NewBatch(1, time.Hour)
		require.NoError(t, b.Add(testSample("gauge", 1), nil))

		assert.ErrorIs(t, b.Add(testSample("gauge", 2), nil), ErrBatchFull)
	})
}

func TestTypeCounts(t *testing.T) {
	b := NewBatch(10, time.Hour)
	require.NoError(t, b.Add(testSample("gauge", 1), nil))
	require.NoError(t, b.Add(testSample("gauge", 2), nil))
	require.NoError(t, b.Add(testSample("load", 3), nil))

	assert.Equal(t, map[string]int{"gauge": 2, "load": 1}, b.TypeCounts())
	lines := strings.Split(strings.TrimSuffix(string(b.Bytes()), "\n"), "\n")
	assert.Len(t, lines, 3)
}

func TestReset(t *testing.T) {
	b := NewBatch(1, time.Hour)
	require.NoError(t, b.Add(testSample("gauge", 1), nil))
	require.Equal(t, 1, b.Count())
	b.Reset()

	assert.Equal(t, 0, b.Count())
	assert.True(t, b.age.IsZero())
	assert.Empty(t, b.Bytes())
	assert.Empty(t, b.TypeCounts())
}

func TestShouldShip_ReasonSize(t *testing.T) {
	b := NewBatch(10, time.Hour)

	// Should flush at 90% full
	for i := 0; i < 9; i++ {
		assert.False(t, b.ShouldShip())
		require.NoError(t, b.Add(testSample("gauge", float64(i)), nil))
	}

	require.Equal(t, 9, b.Count())
	assert.True(t, b.ShouldShip())
}

func TestShouldShip_ReasonAge(t *testing.T) {
	b := NewBatch(10, time.Second)

	assert.False(t, b.ShouldShip())
	require.NoError(t, b.Add(testSample("gauge", 1), nil))

	time.Sleep(time.Second + time.Millisecond)

	// Should be ready to send now
	require.Equal(t, 1, b.Count())
	assert.True(t, b.ShouldShip())
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "plain", escapePath("plain"))
	assert.Equal(t, `a\.b\*c`, escapePath("a.b*c"))
}

func TestShipperConsume(t *testing.T) {
	var out bytes.Buffer
	s := NewShipper(NewBatch(4, time.Hour), &out, zaptest.NewLogger(t).Sugar())

	samples := []*model.Sample{testSample("gauge", 1), testSample("gauge", 2)}
	require.NoError(t, s.Consume(context.Background(), samples, nil))
	assert.Zero(t, out.Len(), "batch below threshold must not ship")

	// The third sample fills the batch past the threshold.
	require.NoError(t, s.Consume(context.Background(), []*model.Sample{testSample("load", 3)}, map[string]string{"k": "v"}))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "v", gjson.Get(lines[2], "meta.k").Str)
	assert.False(t, gjson.Get(lines[0], "meta").Exists())
	assert.Zero(t, s.batch.Count())
}

func TestShipperConsumeOverflow(t *testing.T) {
	var out bytes.Buffer
	s := NewShipper(NewBatch(2, time.Hour), &out, zaptest.NewLogger(t).Sugar())

	samples := make([]*model.Sample, 5)
	for i := range samples {
		samples[i] = testSample("gauge", float64(i))
	}
	require.NoError(t, s.Consume(context.Background(), samples, nil))
	require.NoError(t, s.Flush(context.Background()))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	for i, line := range lines {
		assert.Equal(t, float64(i), gjson.Get(line, "values.0").Num)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestShipperWriteError(t *testing.T) {
	s := NewShipper(NewBatch(10, time.Hour), failingWriter{}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, s.Consume(context.Background(), []*model.Sample{testSample("gauge", 1)}, nil))

	assert.Error(t, s.Flush(context.Background()))
	// Data is kept for the next attempt.
	assert.Equal(t, 1, s.batch.Count())
}

func TestShipperRun(t *testing.T) {
	var out safeBuffer
	ctx, cancel := context.WithCancel(context.Background())
	s := NewShipper(NewBatch(100, 10*time.Millisecond), &out, zaptest.NewLogger(t).Sugar())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Consume(context.Background(), []*model.Sample{testSample("gauge", 1)}, nil))
	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "\n") == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
