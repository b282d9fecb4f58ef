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
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	LogLevel              string   `toml:"log_level"`
	ListenAddress         string   `toml:"listen_address"`
	Path                  string   `toml:"path"`
	TypesDB               []string `toml:"typesdb"`
	DisableDefaultTypesDB bool     `toml:"disable_default_typesdb"`
	WatchTypesDB          bool     `toml:"watch_typesdb"`
	AttributesPrefix      string   `toml:"attributes_prefix"`
	ReadTimeout           string   `toml:"read_timeout"`
	MaxConcurrentRequests int      `toml:"max_concurrent_requests"`
	MaxBatchSize          int      `toml:"max_batch_size"`
	MaxBatchAge           string   `toml:"max_batch_age"`
}

// LoadConfigFile reads a TOML config file and returns the options for the
// keys it defines. Unknown keys are an error.
func LoadConfigFile(path string) ([]ConfigOption, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
	}

	var opts []ConfigOption

	if meta.IsDefined("log_level") {
		opts = append(opts, WithLogLevel(strings.TrimSpace(raw.LogLevel)))
	}

	if meta.IsDefined("listen_address") {
		opts = append(opts, WithListenAddress(strings.TrimSpace(raw.ListenAddress)))
	}

	if meta.IsDefined("path") {
		opts = append(opts, WithPath(strings.TrimSpace(raw.Path)))
	}

	if meta.IsDefined("typesdb") {
		opts = append(opts, WithTypesDB(raw.TypesDB...))
	}

	if meta.IsDefined("disable_default_typesdb") && raw.DisableDefaultTypesDB {
		opts = append(opts, WithoutDefaultTypesDB())
	}

	if meta.IsDefined("watch_typesdb") {
		opts = append(opts, WithTypesDBWatch(raw.WatchTypesDB))
	}

	if meta.IsDefined("attributes_prefix") {
		opts = append(opts, WithAttributesPrefix(raw.AttributesPrefix))
	}

	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return nil, fmt.Errorf("parse read_timeout: %w", err)
		}
		opts = append(opts, WithReadTimeout(d))
	}

	if meta.IsDefined("max_concurrent_requests") {
		opts = append(opts, WithMaxConcurrentRequests(raw.MaxConcurrentRequests))
	}

	if meta.IsDefined("max_batch_size") {
		opts = append(opts, WithMaxBatchSize(raw.MaxBatchSize))
	}

	if meta.IsDefined("max_batch_age") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.MaxBatchAge))
		if err != nil {
			return nil, fmt.Errorf("parse max_batch_age: %w", err)
		}
		opts = append(opts, WithMaxBatchAge(d))
	}

	return opts, nil
}
