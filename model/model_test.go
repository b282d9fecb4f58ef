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

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.elastic.co/fastjson"
)

func TestIdentityString(t *testing.T) {
	for name, tc := range map[string]struct {
		id   Identity
		want string
	}{
		"plain": {
			id:   Identity{Host: "h", Plugin: "cpu", Type: "cpu"},
			want: "h/cpu/cpu",
		},
		"instances": {
			id:   Identity{Host: "web-1", Plugin: "interface", PluginInstance: "eth0", Type: "if_octets", TypeInstance: "a-b"},
			want: "web-1/interface-eth0/if_octets-a-b",
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.id.String())
		})
	}
}

func TestSampleMarshalFastJSON(t *testing.T) {
	s := Sample{
		Identity:  Identity{Host: "h", Plugin: "p", PluginInstance: "pi", Type: "t", TypeInstance: "ti"},
		Interval:  10 * time.Second,
		Timestamp: time.Unix(1000000000, 500000000),
		Values: []Value{
			{Name: "value", Kind: "gauge", Number: 42},
			{Name: "extra", Kind: "derive", Unknown: true},
		},
	}

	var w fastjson.Writer
	require.NoError(t, s.MarshalFastJSON(&w))
	out := w.Bytes()
	require.True(t, gjson.ValidBytes(out), string(out))

	assert.Equal(t, 42.0, gjson.GetBytes(out, "values.0").Float())
	assert.Equal(t, gjson.Null, gjson.GetBytes(out, "values.1").Type)
	assert.Equal(t, `["gauge","derive"]`, gjson.GetBytes(out, "dstypes").Raw)
	assert.Equal(t, `["value","extra"]`, gjson.GetBytes(out, "dsnames").Raw)
	assert.Equal(t, 1000000000.5, gjson.GetBytes(out, "time").Float())
	assert.Equal(t, 10.0, gjson.GetBytes(out, "interval").Float())
	assert.Equal(t, "pi", gjson.GetBytes(out, "plugin_instance").Str)
	assert.Equal(t, "ti", gjson.GetBytes(out, "type_instance").Str)
}

func TestSampleMarshalFastJSONDefaults(t *testing.T) {
	s := Sample{
		Identity: Identity{Host: "h", Plugin: "p", Type: "t"},
		Values:   []Value{{Name: "value", Kind: "gauge", Number: 1}},
	}

	var w fastjson.Writer
	require.NoError(t, s.MarshalFastJSON(&w))
	out := w.Bytes()

	assert.Equal(t, gjson.Null, gjson.GetBytes(out, "time").Type)
	assert.Equal(t, gjson.Null, gjson.GetBytes(out, "interval").Type)
	assert.Equal(t, "", gjson.GetBytes(out, "plugin_instance").Str)
}
