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

package typesdb

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerPrefix marks a source location as an AWS Secrets Manager
// secret id instead of a file path.
const SecretsManagerPrefix = "secretsmanager:"

//go:embed types.db
var defaultTypesDB []byte

// Source is a readable types.db document. Open returns an error matching
// fs.ErrNotExist when the source does not exist; such sources are skipped.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Default returns the types.db bundled with the receiver.
func Default() Source {
	return NewReaderSource("builtin:types.db", defaultTypesDB)
}

type fileSource string

// NewFileSource returns a Source reading the file at path.
func NewFileSource(path string) Source {
	return fileSource(path)
}

func (f fileSource) Name() string { return string(f) }

func (f fileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(string(f))
}

type readerSource struct {
	name string
	data []byte
}

// NewReaderSource returns a Source serving an in-memory document.
func NewReaderSource(name string, data []byte) Source {
	return readerSource{name: name, data: data}
}

func (r readerSource) Name() string { return r.name }

func (r readerSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(r.data)), nil
}

// SecretGetter is the subset of the Secrets Manager client used to fetch
// types.db documents.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type secretSource struct {
	id     string
	client func(context.Context) (SecretGetter, error)
}

// NewSecretSource returns a Source reading the current version of a secret.
// The client is resolved on first use so that AWS configuration is only
// loaded when a secret source is actually configured.
func NewSecretSource(id string, client func(context.Context) (SecretGetter, error)) Source {
	return secretSource{id: id, client: client}
}

func (s secretSource) Name() string { return SecretsManagerPrefix + s.id }

func (s secretSource) Open(ctx context.Context) (io.ReadCloser, error) {
	manager, err := s.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create manager: %w", err)
	}

	versionStage := "AWSCURRENT"
	result, err := manager.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId:     &s.id,
		VersionStage: &versionStage,
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("secret %s: %w", s.id, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to retrieve secret value: %w", err)
	}

	if result.SecretString != nil {
		return io.NopCloser(strings.NewReader(*result.SecretString)), nil
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(result.SecretBinary)))
	n, err := base64.StdEncoding.Decode(decoded, result.SecretBinary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded secret: %w", err)
	}
	return io.NopCloser(bytes.NewReader(decoded[:n])), nil
}

// ParseLocations turns configured source locations into sources. Locations
// prefixed with SecretsManagerPrefix are read from AWS Secrets Manager,
// everything else is a file path. Empty locations are ignored.
func ParseLocations(locations []string, secrets func(context.Context) (SecretGetter, error)) []Source {
	sources := make([]Source, 0, len(locations))
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		switch {
		case loc == "":
		case strings.HasPrefix(loc, SecretsManagerPrefix) && secrets != nil:
			sources = append(sources, NewSecretSource(strings.TrimPrefix(loc, SecretsManagerPrefix), secrets))
		default:
			sources = append(sources, NewFileSource(loc))
		}
	}
	return sources
}
