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

// Package logger builds the ECS formatted zap loggers of the receiver.
package logger

import (
	"errors"
	"fmt"
	"strings"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidLevel is returned by ParseLogLevel for unknown level names.
var ErrInvalidLevel = errors.New("invalid log level")

// OffLevel disables logging entirely.
const OffLevel = zapcore.FatalLevel + 1

// levels holds the accepted level names, including the names collectd uses
// in its LogLevel option.
var levels = map[string]zapcore.Level{
	"trace":    zapcore.DebugLevel,
	"debug":    zapcore.DebugLevel,
	"info":     zapcore.InfoLevel,
	"notice":   zapcore.InfoLevel,
	"warn":     zapcore.WarnLevel,
	"warning":  zapcore.WarnLevel,
	"err":      zapcore.ErrorLevel,
	"error":    zapcore.ErrorLevel,
	"critical": zapcore.FatalLevel,
	"off":      OffLevel,
}

// New returns an ECS encoded logger writing to stderr at info level. The
// options are applied on top of that configuration.
func New(opts ...Option) (*zap.SugaredLogger, error) {
	conf := zap.NewProductionConfig()
	conf.EncoderConfig = ecszap.NewDefaultEncoderConfig().ToZapCoreEncoderConfig()

	for _, opt := range opts {
		opt(&conf)
	}

	l, err := conf.Build(ecszap.WrapCoreOption(), zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l.Sugar(), nil
}

// ParseLogLevel maps a level name to a zap level, ignoring case. The empty
// string selects info.
func ParseLogLevel(s string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	if level, ok := levels[name]; ok {
		return level, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("%w %q", ErrInvalidLevel, s)
}
