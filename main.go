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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/elastic/collectd-receiver/app"

	"github.com/joho/godotenv"
)

const (
	envFileEnv              = "COLLECTD_RECEIVER_ENV_FILE"
	configEnv               = "COLLECTD_RECEIVER_CONFIG"
	logLevelEnv             = "COLLECTD_RECEIVER_LOG_LEVEL"
	addressEnv              = "COLLECTD_RECEIVER_ADDRESS"
	typesDBEnv              = "COLLECTD_RECEIVER_TYPESDB"
	watchTypesDBEnv         = "COLLECTD_RECEIVER_WATCH_TYPESDB"
	timeoutEnv              = "COLLECTD_RECEIVER_TIMEOUT"
	maxConcurrentRequestEnv = "COLLECTD_RECEIVER_MAX_CONCURRENT_REQUESTS"
)

func main() {
	if err := mainWithError(); err != nil {
		log.Fatal(err)
	}
}

func mainWithError() error {
	// Global context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	return run(ctx)
}

func run(ctx context.Context, extra ...app.ConfigOption) error {
	appConfigs, err := configFromEnv()
	if err != nil {
		return err
	}

	application, err := app.New(ctx, append(appConfigs, extra...)...)
	if err != nil {
		return fmt.Errorf("failed to create the app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("error while running: %v", err)
	}

	return nil
}

// configFromEnv builds the app configuration from the environment. Values
// from the environment override values from the config file.
func configFromEnv() ([]app.ConfigOption, error) {
	// godotenv does not override variables that are already set.
	if envFile := os.Getenv(envFileEnv); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %v", envFile, err)
		}
	}

	var appConfigs []app.ConfigOption

	if configFile := os.Getenv(configEnv); configFile != "" {
		opts, err := app.LoadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		appConfigs = append(appConfigs, opts...)
	}

	if level := os.Getenv(logLevelEnv); level != "" {
		appConfigs = append(appConfigs, app.WithLogLevel(level))
	}

	if addr := os.Getenv(addressEnv); addr != "" {
		appConfigs = append(appConfigs, app.WithListenAddress(addr))
	}

	// Same format as PATH.
	if typesDB, ok := os.LookupEnv(typesDBEnv); ok {
		appConfigs = append(appConfigs, app.WithTypesDB(filepath.SplitList(typesDB)...))
	}

	if rawWatch := os.Getenv(watchTypesDBEnv); rawWatch != "" {
		watch, err := strconv.ParseBool(rawWatch)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", watchTypesDBEnv, err)
		}
		appConfigs = append(appConfigs, app.WithTypesDBWatch(watch))
	}

	if rawTimeout := os.Getenv(timeoutEnv); rawTimeout != "" {
		timeout, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", timeoutEnv, err)
		}
		appConfigs = append(appConfigs, app.WithReadTimeout(timeout))
	}

	if rawMax := os.Getenv(maxConcurrentRequestEnv); rawMax != "" {
		n, err := strconv.Atoi(rawMax)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", maxConcurrentRequestEnv, err)
		}
		appConfigs = append(appConfigs, app.WithMaxConcurrentRequests(n))
	}

	return appConfigs, nil
}
