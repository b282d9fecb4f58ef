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

package app

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Run starts the receiver and serves submissions until ctx is done. On
// return the receiver is shut down and buffered samples are shipped.
func (app *App) Run(ctx context.Context) error {
	// Flush all data before shutting down. Deferred first so that it runs
	// after the receiver stopped accepting submissions.
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := app.shipper.Flush(ctx); err != nil {
			app.logger.Errorf("Failed to flush samples on shutdown: %v", err)
		}
	}()

	// start http server to receive submissions
	if err := app.receiver.StartReceiver(); err != nil {
		return fmt.Errorf("failed to start the collectd receiver : %w", err)
	}
	defer func() {
		if err := app.receiver.Shutdown(); err != nil {
			app.logger.Warnf("Error while shutting down the collectd receiver: %v", err)
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.shipper.Run(ctx); err != nil {
			app.logger.Errorf("Shipper stopped: %v", err)
		}
	}()

	if app.watcher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.watcher.Run(ctx); err != nil {
				app.logger.Errorf("Stopped watching types.db files: %v", err)
			}
		}()
	}

	<-ctx.Done()
	app.logger.Info("Received a signal, exiting...")
	return nil
}
