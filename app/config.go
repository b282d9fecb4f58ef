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
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"
)

type appConfig struct {
	awsConfig             func() (*aws.Config, error)
	logger                *zap.SugaredLogger
	logLevel              string
	listenAddress         string
	path                  string
	typesDB               []string
	disableDefaultTypesDB bool
	watchTypesDB          bool
	attributesPrefix      string
	readTimeout           time.Duration
	maxConcurrentRequests int
	maxBatchSize          int
	maxBatchAge           time.Duration
	output                io.Writer
}

// ConfigOption is used to configure the receiver application
type ConfigOption func(*appConfig)

// WithLogLevel sets the log level.
func WithLogLevel(level string) ConfigOption {
	return func(c *appConfig) {
		c.logLevel = level
	}
}

// WithLogger sets the logger, overriding the log level.
func WithLogger(logger *zap.SugaredLogger) ConfigOption {
	return func(c *appConfig) {
		c.logger = logger
	}
}

// WithListenAddress sets the address the receiver listens on.
func WithListenAddress(addr string) ConfigOption {
	return func(c *appConfig) {
		c.listenAddress = addr
	}
}

// WithPath sets the path submissions are posted to.
func WithPath(path string) ConfigOption {
	return func(c *appConfig) {
		c.path = path
	}
}

// WithTypesDB sets the types.db locations loaded after the bundled
// default, in order. A location is a file path or secretsmanager:<id>.
func WithTypesDB(locations ...string) ConfigOption {
	return func(c *appConfig) {
		c.typesDB = locations
	}
}

// WithoutDefaultTypesDB disables the bundled types.db.
func WithoutDefaultTypesDB() ConfigOption {
	return func(c *appConfig) {
		c.disableDefaultTypesDB = true
	}
}

// WithTypesDBWatch reloads the catalog whenever a types.db file changes.
func WithTypesDBWatch(watch bool) ConfigOption {
	return func(c *appConfig) {
		c.watchTypesDB = watch
	}
}

// WithAttributesPrefix sets the prefix of query parameters attached to
// samples as default attributes.
func WithAttributesPrefix(prefix string) ConfigOption {
	return func(c *appConfig) {
		c.attributesPrefix = prefix
	}
}

// WithReadTimeout sets the read and write timeout of the receiver.
func WithReadTimeout(timeout time.Duration) ConfigOption {
	return func(c *appConfig) {
		c.readTimeout = timeout
	}
}

// WithMaxConcurrentRequests bounds the requests processed at once.
func WithMaxConcurrentRequests(n int) ConfigOption {
	return func(c *appConfig) {
		c.maxConcurrentRequests = n
	}
}

// WithMaxBatchSize sets the number of samples a batch holds.
func WithMaxBatchSize(size int) ConfigOption {
	return func(c *appConfig) {
		c.maxBatchSize = size
	}
}

// WithMaxBatchAge sets how long samples are buffered before shipping.
func WithMaxBatchAge(age time.Duration) ConfigOption {
	return func(c *appConfig) {
		c.maxBatchAge = age
	}
}

// WithOutput sets the writer batches of samples are shipped to.
func WithOutput(w io.Writer) ConfigOption {
	return func(c *appConfig) {
		c.output = w
	}
}

// WithAWSConfig sets the loader of the AWS config used to fetch
// types.db sources from AWS Secrets Manager. It is only called when
// such a source is configured.
func WithAWSConfig(load func() (*aws.Config, error)) ConfigOption {
	return func(c *appConfig) {
		c.awsConfig = load
	}
}
