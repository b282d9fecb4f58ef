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
	"fmt"
	"path/filepath"
	"time"

	"github.com/elastic/collectd-receiver/metrics"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultSettleDelay = 200 * time.Millisecond

// Watcher rebuilds the catalog of a Store whenever one of the watched
// types.db files changes.
type Watcher struct {
	store   *Store
	sources []Source
	logger  *zap.SugaredLogger
	settle  time.Duration
}

// NewWatcher returns a Watcher reloading sources into store. Only file
// sources are watched, but every source is reloaded on change.
func NewWatcher(store *Store, logger *zap.SugaredLogger, sources ...Source) *Watcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Watcher{
		store:   store,
		sources: sources,
		logger:  logger,
		settle:  defaultSettleDelay,
	}
}

// Reload loads all sources and publishes the result. If any existing source
// cannot be read the active catalog is kept.
func (w *Watcher) Reload(ctx context.Context) error {
	c, err := Load(ctx, w.logger, w.sources...)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("failed").Inc()
		return fmt.Errorf("keeping previous catalog: %w", err)
	}
	w.store.Swap(c)
	metrics.CatalogReloads.WithLabelValues("ok").Inc()
	w.logger.Infof("Reloaded types.db: %d types, %d lines skipped", c.Len(), c.Skipped())
	return nil
}

// Run watches the files until ctx is done. Directories are watched rather
// than the files themselves so that files replaced by rename (editors,
// configmap symlink swaps) keep being tracked.
func (w *Watcher) Run(ctx context.Context) error {
	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, src := range w.sources {
		file, ok := src.(fileSource)
		if !ok {
			continue
		}
		path, err := filepath.Abs(string(file))
		if err != nil {
			return err
		}
		files[path] = struct{}{}
		dirs[filepath.Dir(path)] = struct{}{}
	}
	if len(files) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	var errs error
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("watch %s: %w", dir, err))
		}
	}
	if errs != nil {
		return errs
	}

	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, watched := files[filepath.Clean(event.Name)]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debugf("types.db change detected: %s", event)
			timer.Reset(w.settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("types.db watcher error: %v", err)
		case <-timer.C:
			if err := w.Reload(ctx); err != nil {
				w.logger.Errorf("Failed to reload types.db: %v", err)
			}
		}
	}
}
