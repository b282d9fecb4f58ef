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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sourceA = `
# comment
  # indented comment

gauge     value:GAUGE:U:U
shared    a:GAUGE:U:U, b:GAUGE:U:U
`

const sourceB = `
shared    only:COUNTER:0:U
`

func TestLoadLastSourceWins(t *testing.T) {
	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewReaderSource("a", []byte(sourceA)),
		NewReaderSource("b", []byte(sourceB)),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"gauge", "shared"}, c.Types())
	shared, ok := c.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, []string{"only"}, shared.Names())
	assert.Equal(t, Counter, shared.Sources[0].Semantic)
}

func TestLoadLastLineWins(t *testing.T) {
	c, err := Load(context.Background(), nil,
		NewReaderSource("a", []byte("t a:GAUGE:U:U\nt b:GAUGE:U:U, c:GAUGE:U:U\n")),
	)
	require.NoError(t, err)

	ds, ok := c.Lookup("t")
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, ds.Names())
}

func TestLoadIdempotent(t *testing.T) {
	load := func() *Catalog {
		c, err := Load(context.Background(), nil, NewReaderSource("a", []byte(sourceA)))
		require.NoError(t, err)
		return c
	}
	first, second := load(), load()

	require.Equal(t, first.Types(), second.Types())
	for _, name := range first.Types() {
		a, _ := first.Lookup(name)
		b, _ := second.Lookup(name)
		assert.Equal(t, a, b)
	}

	twice, err := Load(context.Background(), nil,
		NewReaderSource("a", []byte(sourceA)),
		NewReaderSource("a", []byte(sourceA)),
	)
	require.NoError(t, err)
	assert.Equal(t, first.types, twice.types)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		if i == 4 {
			lines = append(lines, fmt.Sprintf("type%d value:BOGUS:U:U", i))
			continue
		}
		lines = append(lines, fmt.Sprintf("type%d value:GAUGE:U:U", i))
	}

	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewReaderSource("vendor", []byte(strings.Join(lines, "\n"))))
	require.NoError(t, err)

	assert.Equal(t, 9, c.Len())
	assert.Equal(t, 1, c.Skipped())
	_, ok := c.Lookup("type4")
	assert.False(t, ok)
}

func TestLoadSkipsOverlongLine(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("type%d value:GAUGE:U:U", i))
		if i == 5 {
			lines = append(lines, "huge "+strings.Repeat("x:GAUGE:U:U, ", 2<<20/13))
		}
	}

	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewReaderSource("vendor", []byte(strings.Join(lines, "\n"))))
	require.NoError(t, err)

	assert.Equal(t, 10, c.Len())
	assert.Equal(t, 1, c.Skipped())
	_, ok := c.Lookup("type9")
	assert.True(t, ok)
	_, ok = c.Lookup("huge")
	assert.False(t, ok)
}

func TestLoadSkipsUnaddressableTypeName(t *testing.T) {
	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewReaderSource("vendor", []byte("disk-io value:GAUGE:U:U\ndisk value:GAUGE:U:U\n")))
	require.NoError(t, err)

	assert.Equal(t, []string{"disk"}, c.Types())
	assert.Equal(t, 1, c.Skipped())
}

func TestLoadMissingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.db")
	require.NoError(t, os.WriteFile(path, []byte("custom value:GAUGE:0:1\n"), 0o600))

	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewFileSource(filepath.Join(dir, "missing.db")),
		NewFileSource(path),
	)
	require.NoError(t, err)

	_, ok := c.Lookup("custom")
	assert.True(t, ok)
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(iotestErrReader{}), nil
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoadUnreadableSource(t *testing.T) {
	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(),
		NewReaderSource("a", []byte(sourceA)),
		failingSource{},
		NewReaderSource("b", []byte("other value:GAUGE:U:U\n")),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "broken", srcErr.Source)

	require.NotNil(t, c)
	assert.Equal(t, []string{"gauge", "other", "shared"}, c.Types())
}

func TestLoadDirectoryIsUnreadable(t *testing.T) {
	_, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(), NewFileSource(t.TempDir()))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDefaultTypesDB(t *testing.T) {
	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(), Default())
	require.NoError(t, err)
	assert.Zero(t, c.Skipped())

	load, ok := c.Lookup("load")
	require.True(t, ok)
	assert.Equal(t, []string{"shortterm", "midterm", "longterm"}, load.Names())

	octets, ok := c.Lookup("if_octets")
	require.True(t, ok)
	assert.Equal(t, Derive, octets.Sources[1].Semantic)
}

type fakeSecrets map[string]*secretsmanager.GetSecretValueOutput

func (f fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	out, ok := f[*in.SecretId]
	if !ok {
		return nil, &types.ResourceNotFoundException{}
	}
	return out, nil
}

func TestSecretSource(t *testing.T) {
	text := "secret value:GAUGE:U:U\n"
	// "binary value:GAUGE:U:U\n"
	encoded := []byte("YmluYXJ5IHZhbHVlOkdBVUdFOlU6VQo=")

	secrets := fakeSecrets{
		"text":   {SecretString: &text},
		"binary": {SecretBinary: encoded},
	}
	client := func(context.Context) (SecretGetter, error) { return secrets, nil }

	sources := ParseLocations([]string{"secretsmanager:text", " ", "secretsmanager:binary", "secretsmanager:missing"}, client)
	require.Len(t, sources, 3)
	assert.Equal(t, "secretsmanager:text", sources[0].Name())

	c, err := Load(context.Background(), zaptest.NewLogger(t).Sugar(), sources...)
	require.NoError(t, err)
	assert.Equal(t, []string{"binary", "secret"}, c.Types())
}

func TestParseLocationsWithoutSecrets(t *testing.T) {
	sources := ParseLocations([]string{"/etc/collectd/types.db", "secretsmanager:x"}, nil)
	require.Len(t, sources, 2)
	assert.Equal(t, "/etc/collectd/types.db", sources[0].Name())
	assert.Equal(t, "secretsmanager:x", sources[1].Name())
}
