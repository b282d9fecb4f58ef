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
	"os"
	"time"

	"github.com/elastic/collectd-receiver/accumulator"
	"github.com/elastic/collectd-receiver/logger"
	"github.com/elastic/collectd-receiver/receiver"
	"github.com/elastic/collectd-receiver/typesdb"

	"go.uber.org/zap"
)

const (
	serviceName          = "collectd-receiver"
	defaultListenAddress = "127.0.0.1:25826"
	defaultPath          = "/jcollectd"
	defaultReadTimeout   = 15 * time.Second
	defaultMaxConcurrent = 10
	defaultMaxBatchSize  = 50
	defaultMaxBatchAge   = 2 * time.Second
)

// App is the main application.
type App struct {
	logger   *zap.SugaredLogger
	store    *typesdb.Store
	watcher  *typesdb.Watcher
	receiver *receiver.Receiver
	shipper  *accumulator.Shipper
}

// New returns an App or an error if the creation failed.
func New(ctx context.Context, opts ...ConfigOption) (*App, error) {
	c := appConfig{
		listenAddress:         defaultListenAddress,
		path:                  defaultPath,
		readTimeout:           defaultReadTimeout,
		maxConcurrentRequests: defaultMaxConcurrent,
		maxBatchSize:          defaultMaxBatchSize,
		maxBatchAge:           defaultMaxBatchAge,
		output:                os.Stdout,
	}

	for _, opt := range opts {
		opt(&c)
	}

	if c.maxBatchSize <= 0 {
		return nil, fmt.Errorf("invalid max batch size %d", c.maxBatchSize)
	}

	if c.maxBatchAge <= 0 {
		return nil, fmt.Errorf("invalid max batch age %s", c.maxBatchAge)
	}

	app := &App{logger: c.logger}

	var err error

	if app.logger == nil {
		if app.logger, err = buildLogger(c.logLevel); err != nil {
			return nil, err
		}
	}

	if c.awsConfig == nil {
		c.awsConfig = defaultAWSConfig(ctx)
	}

	var sources []typesdb.Source
	if !c.disableDefaultTypesDB {
		sources = append(sources, typesdb.Default())
	}
	sources = append(sources, typesdb.ParseLocations(c.typesDB, secretsManager(c.awsConfig))...)

	catalog, err := typesdb.Load(ctx, app.logger, sources...)
	if err != nil {
		// The sources that could be read are still usable.
		app.logger.Warnf("Some types.db sources could not be loaded: %v", err)
	}
	if catalog.Len() == 0 {
		app.logger.Warn("No data sets loaded, every submission will be rejected")
	}
	app.logger.Infof("Loaded %d data sets from %d sources, skipped %d malformed lines",
		catalog.Len(), len(sources), catalog.Skipped())
	app.store = typesdb.NewStore(catalog)

	if c.watchTypesDB {
		app.watcher = typesdb.NewWatcher(app.store, app.logger, sources...)
	}

	app.shipper = accumulator.NewShipper(
		accumulator.NewBatch(c.maxBatchSize, c.maxBatchAge),
		c.output,
		app.logger,
	)

	app.receiver, err = receiver.NewReceiver(
		receiver.WithReceiverAddress(c.listenAddress),
		receiver.WithReceiverTimeout(c.readTimeout),
		receiver.WithPath(c.path),
		receiver.WithAttributesPrefix(c.attributesPrefix),
		receiver.WithMaxConcurrentRequests(c.maxConcurrentRequests),
		receiver.WithStore(app.store),
		receiver.WithConsumer(app.shipper),
		receiver.WithLogger(app.logger),
	)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Addr returns the address the receiver listens on once Run started it.
func (app *App) Addr() string {
	return app.receiver.Addr()
}

// Catalog returns the catalog submissions are currently validated against.
func (app *App) Catalog() *typesdb.Catalog {
	return app.store.Catalog()
}

func buildLogger(level string) (*zap.SugaredLogger, error) {
	l, err := logger.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	return logger.New(
		logger.WithLevel(l),
		logger.WithServiceName(serviceName),
	)
}
