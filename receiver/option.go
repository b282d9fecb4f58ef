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

package receiver

import (
	"time"

	"github.com/elastic/collectd-receiver/typesdb"

	"go.uber.org/zap"
)

type Option func(*Receiver)

// WithReceiverTimeout sets the timeout receiver.
func WithReceiverTimeout(timeout time.Duration) Option {
	return func(r *Receiver) {
		r.server.ReadTimeout = timeout
		r.server.WriteTimeout = timeout
	}
}

// WithReceiverAddress sets the receiver address.
func WithReceiverAddress(addr string) Option {
	return func(r *Receiver) {
		r.server.Addr = addr
	}
}

// WithPath sets the path submissions are posted to.
func WithPath(path string) Option {
	return func(r *Receiver) {
		r.path = path
	}
}

// WithStore sets the store holding the catalog submissions are validated
// against.
func WithStore(store *typesdb.Store) Option {
	return func(r *Receiver) {
		r.store = store
	}
}

// WithConsumer sets the consumer of validated samples.
func WithConsumer(consumer Consumer) Option {
	return func(r *Receiver) {
		r.consumer = consumer
	}
}

// WithAttributesPrefix enables default attributes: query parameters whose
// name starts with prefix are attached, without the prefix, to every
// sample of the request.
func WithAttributesPrefix(prefix string) Option {
	return func(r *Receiver) {
		r.attributesPrefix = prefix
	}
}

// WithMaxConcurrentRequests bounds the number of requests processed at
// once. Requests over the bound are answered with 503.
func WithMaxConcurrentRequests(n int) Option {
	return func(r *Receiver) {
		r.maxConcurrent = n
	}
}

// WithLogger configures a custom zap logger to be used by
// the receiver.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Receiver) {
		r.logger = logger
	}
}
