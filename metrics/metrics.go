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

// Package metrics holds the receiver's own process-wide counters.
// Collectors are created at package init and registered by the
// application through Register.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "collectd_receiver"

var (
	// Submissions counts submission lines by outcome. The outcome label is
	// "accepted" or the kind of error which rejected the line.
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submission lines processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// Requests counts HTTP requests handled by the receiver by status code.
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "HTTP requests handled, by status code.",
		},
		[]string{"code"},
	)

	// SchemaSyntaxErrors counts types.db lines skipped because they could
	// not be parsed.
	SchemaSyntaxErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "typesdb_syntax_errors_total",
			Help:      "types.db definition lines skipped as malformed.",
		},
	)

	// CatalogReloads counts types.db reload attempts by result.
	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "typesdb_reloads_total",
			Help:      "types.db reloads, by result.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register registers all collectors with reg. Only the first call has any
// effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(Submissions, Requests, SchemaSyntaxErrors, CatalogReloads)
	})
}
