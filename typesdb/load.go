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
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/elastic/collectd-receiver/linescan"
	"github.com/elastic/collectd-receiver/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const maxLineSize = 1 << 20

// Load builds a new Catalog from the sources, in order. A definition replaces
// any earlier definition of the same type, whether it comes from the same
// source or an earlier one.
//
// Loading is best effort: malformed lines are logged and skipped, sources
// that do not exist are skipped, and a source that exists but cannot be read
// contributes nothing. Read failures are returned as a combined error
// together with the catalog built from the remaining sources, which is never
// nil.
func Load(ctx context.Context, logger *zap.SugaredLogger, sources ...Source) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	c := &Catalog{types: make(map[string]DataSet)}
	var errs error
	for _, src := range sources {
		defs, skipped, err := loadSource(ctx, logger, src)
		c.skipped += skipped
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debugf("Skipping missing types.db source %s", src.Name())
				continue
			}
			logger.Errorf("Failed to load types.db source %s: %v", src.Name(), err)
			errs = multierr.Append(errs, &SourceError{Source: src.Name(), Err: err})
			continue
		}
		for _, ds := range defs {
			c.types[ds.Type] = ds
		}
		logger.Debugf("Loaded %d type definitions from %s", len(defs), src.Name())
	}
	return c, errs
}

// loadSource returns the definitions of a single source in file order.
func loadSource(ctx context.Context, logger *zap.SugaredLogger, src Source) ([]DataSet, int, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()
	return parse(logger, src.Name(), rc)
}

func parse(logger *zap.SugaredLogger, name string, r io.Reader) ([]DataSet, int, error) {
	var (
		defs    []DataSet
		skipped int
	)

	reject := func(lineNo int, err error) {
		skipped++
		metrics.SchemaSyntaxErrors.Inc()
		logger.Warn(&SyntaxError{Source: name, Line: lineNo, Err: err})
	}

	scanner := linescan.NewScanner(r, maxLineSize)
	for scanner.Scan() {
		if scanner.TooLong() {
			reject(scanner.Line(), linescan.ErrLineTooLong)
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		ds, err := ParseDataSet(line)
		if err != nil {
			reject(scanner.Line(), err)
			continue
		}
		defs = append(defs, ds)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return defs, skipped, nil
}
