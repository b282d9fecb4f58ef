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
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/elastic/collectd-receiver/model"

	"go.uber.org/zap"
)

// Shipper adds validated samples to a batch and writes the batch to w
// once it is ready for shipping.
type Shipper struct {
	mu     sync.Mutex
	batch  *Batch
	w      io.Writer
	logger *zap.SugaredLogger
}

// NewShipper creates a Shipper writing batches to w.
func NewShipper(batch *Batch, w io.Writer, logger *zap.SugaredLogger) *Shipper {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Shipper{batch: batch, w: w, logger: logger}
}

// Consume adds samples to the batch, shipping the batch whenever it fills
// up or matures.
func (s *Shipper) Consume(ctx context.Context, samples []*model.Sample, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		err := s.batch.Add(sample, attrs)
		if errors.Is(err, ErrBatchFull) {
			if err = s.ship(ctx); err != nil {
				return err
			}
			err = s.batch.Add(sample, attrs)
		}
		if err != nil {
			return fmt.Errorf("failed to add sample %s to batch: %w", sample.Identity, err)
		}
	}
	if s.batch.ShouldShip() {
		return s.ship(ctx)
	}
	return nil
}

// Flush ships whatever the batch holds.
func (s *Shipper) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ship(ctx)
}

// Run ships matured batches until ctx is cancelled. Data still buffered
// when Run returns must be shipped with Flush.
func (s *Shipper) Run(ctx context.Context) error {
	period := s.batch.maxAge
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !s.batch.ShouldShip() {
				continue
			}
			if err := s.Flush(ctx); err != nil {
				s.logger.Errorf("Failed to ship batch: %v", err)
			}
		}
	}
}

func (s *Shipper) ship(ctx context.Context) error {
	if s.batch.Count() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	counts := s.batch.TypeCounts()
	n := s.batch.Count()
	if _, err := s.w.Write(s.batch.Bytes()); err != nil {
		return fmt.Errorf("failed to ship %d samples: %w", n, err)
	}
	s.batch.Reset()
	s.logger.Debugw("Shipped batch", "samples", n, "types", counts)
	return nil
}
