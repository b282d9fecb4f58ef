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


package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/elastic/collectd-receiver/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func logFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "receiver.log")
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(b)
}

func TestDefaultLoggerIsECS(t *testing.T) {
	path := logFile(t)
	l, err := logger.New(logger.WithOutputPaths(path))
	require.NoError(t, err)

	l.Info("Loaded data sets")
	l.Debug("not enabled")
	require.NoError(t, l.Sync())

	assert.Regexp(t, `{"log.level":"info","@timestamp":".*","log.origin":{"function":"github.com/elastic/collectd-receiver/logger_test.TestDefaultLoggerIsECS","file.name":"logger/logger_test.go","file.line":\d+},"message":"Loaded data sets","ecs.version":"1.6.0"}`, readLog(t, path))
	assert.NotContains(t, readLog(t, path), "not enabled")
}

func TestParseLogLevel(t *testing.T) {
	for name, want := range map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"TRacE":    zapcore.DebugLevel,
		"debug":    zapcore.DebugLevel,
		" info ":   zapcore.InfoLevel,
		"Notice":   zapcore.InfoLevel,
		"warn":     zapcore.WarnLevel,
		"WaRning":  zapcore.WarnLevel,
		"err":      zapcore.ErrorLevel,
		"ERROR":    zapcore.ErrorLevel,
		"CriTicaL": zapcore.FatalLevel,
		"off":      logger.OffLevel,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := logger.ParseLogLevel(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseLogLevelInvalid(t *testing.T) {
	_, err := logger.ParseLogLevel("Inva@Lid3")
	assert.ErrorIs(t, err, logger.ErrInvalidLevel)
	assert.ErrorContains(t, err, `"Inva@Lid3"`)
}

func TestLoggerLevel(t *testing.T) {
	path := logFile(t)
	l, err := logger.New(
		logger.WithOutputPaths(path),
		logger.WithLevel(zap.DebugLevel),
	)
	require.NoError(t, err)

	l.Debugw("Rejected submission", "line", 2)
	require.NoError(t, l.Sync())

	out := readLog(t, path)
	assert.Contains(t, out, `"log.level":"debug"`)
	assert.Contains(t, out, `"message":"Rejected submission","line":2`)
}

func TestLoggerOffLevel(t *testing.T) {
	path := logFile(t)
	l, err := logger.New(
		logger.WithOutputPaths(path),
		logger.WithLevel(logger.OffLevel),
	)
	require.NoError(t, err)

	l.Errorf("%s", "Failed to ship batch")
	assert.Empty(t, readLog(t, path))
}

func TestLoggerServiceName(t *testing.T) {
	path := logFile(t)
	l, err := logger.New(
		logger.WithOutputPaths(path),
		logger.WithServiceName("collectd-receiver"),
	)
	require.NoError(t, err)

	l.Warnw("No data sets loaded", "sources", 2)
	require.NoError(t, l.Sync())

	out := readLog(t, path)
	assert.Contains(t, out, `"service.name":"collectd-receiver"`)
	assert.Contains(t, out, `"sources":2`)
	assert.Contains(t, out, `"log.level":"warn"`)
}

func TestLoggerInvalidOutput(t *testing.T) {
	_, err := logger.New(logger.WithOutputPaths(filepath.Join(t.TempDir(), "missing", "receiver.log")))
	assert.Error(t, err)
}
