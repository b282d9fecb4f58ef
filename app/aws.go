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

	"github.com/elastic/collectd-receiver/typesdb"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// defaultAWSConfig loads the default AWS config on first use.
func defaultAWSConfig(ctx context.Context) func() (*aws.Config, error) {
	return sync.OnceValues(func() (*aws.Config, error) {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	})
}

// secretsManager returns a lazily created Secrets Manager client. The AWS
// config is not loaded unless a secret is actually fetched.
func secretsManager(lazyCfg func() (*aws.Config, error)) func(context.Context) (typesdb.SecretGetter, error) {
	var (
		mu      sync.Mutex
		manager *secretsmanager.Client
	)
	return func(context.Context) (typesdb.SecretGetter, error) {
		mu.Lock()
		defer mu.Unlock()
		if manager != nil {
			return manager, nil
		}

		cfg, err := lazyCfg()
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS default config: %w", err)
		}

		manager = secretsmanager.NewFromConfig(*cfg)
		return manager, nil
	}
}
