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

// Package receiver accepts collectd submissions over HTTP. Every line of a
// request body is decoded and validated on its own; valid samples are
// handed to a Consumer.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/elastic/collectd-receiver/linescan"
	"github.com/elastic/collectd-receiver/metrics"
	"github.com/elastic/collectd-receiver/model"
	"github.com/elastic/collectd-receiver/protocol"
	"github.com/elastic/collectd-receiver/typesdb"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader carries the ID the receiver assigned to a request.
	RequestIDHeader = "X-Request-Id"

	defaultReceiverTimeout time.Duration = 15 * time.Second
	defaultReceiverAddr                  = "127.0.0.1:25826"
	defaultPath                          = "/jcollectd"
	defaultMaxConcurrent                 = 10
	maxLineSize                          = 1 << 20

	outcomeTooLong = "line_too_long"
)

// Consumer receives the samples accepted from one request. attrs holds the
// default attributes of the request and may be nil.
type Consumer interface {
	Consume(ctx context.Context, samples []*model.Sample, attrs map[string]string) error
}

// Receiver is the HTTP listener for collectd submissions.
type Receiver struct {
	server           *http.Server
	store            *typesdb.Store
	consumer         Consumer
	logger           *zap.SugaredLogger
	path             string
	attributesPrefix string
	maxConcurrent    int
	inflight         chan struct{}

	mu sync.Mutex
	ln net.Listener
}

// NewReceiver creates a Receiver. A store and a logger are required.
func NewReceiver(opts ...Option) (*Receiver, error) {
	r := Receiver{
		server: &http.Server{
			Addr:           defaultReceiverAddr,
			ReadTimeout:    defaultReceiverTimeout,
			WriteTimeout:   defaultReceiverTimeout,
			MaxHeaderBytes: 1 << 20,
		},
		path:          defaultPath,
		maxConcurrent: defaultMaxConcurrent,
	}

	for _, opt := range opts {
		opt(&r)
	}

	if r.store == nil {
		return nil, errors.New("catalog store cannot be empty")
	}

	if r.logger == nil {
		return nil, errors.New("logger cannot be empty")
	}

	if r.maxConcurrent <= 0 {
		return nil, fmt.Errorf("invalid max concurrent requests %d", r.maxConcurrent)
	}

	if !strings.HasPrefix(r.path, "/") {
		r.path = "/" + r.path
	}

	r.inflight = make(chan struct{}, r.maxConcurrent)
	return &r, nil
}

// Handler returns the HTTP handler of the receiver.
func (r *Receiver) Handler() http.Handler {
	metrics.Register(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	mux.HandleFunc(r.path, r.handleSubmissions())
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// StartReceiver starts the server listening for submissions.
func (r *Receiver) StartReceiver() error {
	r.server.Handler = r.Handler()

	ln, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on addr %s: %w", r.server.Addr, err)
	}
	r.mu.Lock()
	r.ln = ln
	r.mu.Unlock()

	go func() {
		r.logger.Infof("Listening for collectd submissions on %s%s", ln.Addr(), r.path)
		if err := r.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Errorf("received error from http.Serve(): %v", err)
		} else {
			r.logger.Debug("server closed")
		}
	}()
	return nil
}

// Addr returns the address the receiver listens on, or an empty string
// before StartReceiver.
func (r *Receiver) Addr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return ""
	}
	return r.ln.Addr().String()
}

// Shutdown shutdowns the receiver gracefully.
func (r *Receiver) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.server.Shutdown(ctx)
}

// URL: http://server/jcollectd
func (r *Receiver) handleSubmissions() func(w http.ResponseWriter, req *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set(RequestIDHeader, requestID)
		logger := r.logger.With("request_id", requestID)

		if req.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			respond(w, logger, http.StatusMethodNotAllowed, "method not allowed\n")
			return
		}

		select {
		case r.inflight <- struct{}{}:
			defer func() { <-r.inflight }()
		default:
			logger.Warnf("Rejecting request: %d requests already in flight", r.maxConcurrent)
			respond(w, logger, http.StatusServiceUnavailable, "too many requests in flight\n")
			return
		}

		defer req.Body.Close()
		received := time.Now()
		// All lines of a request are validated against the same catalog.
		catalog := r.store.Catalog()

		var (
			samples []*model.Sample
			errs    []string
		)
		scanner := linescan.NewScanner(req.Body, maxLineSize)
		for scanner.Scan() {
			lineNo := scanner.Line()
			if scanner.TooLong() {
				metrics.Submissions.WithLabelValues(outcomeTooLong).Inc()
				logger.Debugw("Rejected submission", "line", lineNo, "error", linescan.ErrLineTooLong)
				errs = append(errs, fmt.Sprintf("line %d: %v", lineNo, linescan.ErrLineTooLong))
				continue
			}
			sample, err := protocol.Parse(scanner.Text(), catalog)
			if sample == nil && err == nil {
				continue
			}
			metrics.Submissions.WithLabelValues(protocol.Outcome(err)).Inc()
			if err != nil {
				logger.Debugw("Rejected submission", "line", lineNo, "error", err)
				errs = append(errs, fmt.Sprintf("line %d: %v", lineNo, err))
				continue
			}
			if sample.Timestamp.IsZero() {
				sample.Timestamp = received
			}
			samples = append(samples, sample)
		}
		if err := scanner.Err(); err != nil {
			logger.Errorf("Could not read submission request body: %v", err)
			respond(w, logger, http.StatusBadRequest, fmt.Sprintf("line %d: %v\n", scanner.Line()+1, err))
			return
		}

		if len(samples) > 0 && r.consumer != nil {
			if err := r.consumer.Consume(req.Context(), samples, r.attributes(req)); err != nil {
				logger.Errorf("Failed to consume %d samples: %v", len(samples), err)
				respond(w, logger, http.StatusInternalServerError, "failed to process samples\n")
				return
			}
		}

		logger.Infow("Handled submissions", "accepted", len(samples), "rejected", len(errs))
		if len(errs) > 0 {
			respond(w, logger, http.StatusBadRequest, strings.Join(errs, "\n")+"\n")
			return
		}
		respond(w, logger, http.StatusOK, "ok")
	}
}

// attributes collects the query parameters carrying the attributes prefix.
func (r *Receiver) attributes(req *http.Request) map[string]string {
	if r.attributesPrefix == "" {
		return nil
	}
	var attrs map[string]string
	for key, values := range req.URL.Query() {
		name, ok := strings.CutPrefix(key, r.attributesPrefix)
		if !ok || name == "" || len(values) == 0 {
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[name] = values[0]
	}
	return attrs
}

func respond(w http.ResponseWriter, logger *zap.SugaredLogger, code int, body string) {
	metrics.Requests.WithLabelValues(strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Errorf("Failed to send response to submitter: %v", err)
	}
}
