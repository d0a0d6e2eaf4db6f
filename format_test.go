// Copyright 2024-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatransform

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON_KeepsKeyOrder(t *testing.T) {
	t.Parallel()
	data, err := decodeJSON(`{"c": 1, "a": {"y": 2, "x": 3}, "b": [], "c": 4}`)
	require.NoError(t, err)
	obj, ok := data.(*Object)
	require.True(t, ok)
	// a repeated key keeps its first position and its last value
	assert.Equal(t, []string{"c", "a", "b"}, obj.Keys())
	value, _ := obj.Get("c")
	assert.Equal(t, 4.0, value)
	nested, _ := obj.Get("a")
	assert.Equal(t, []string{"y", "x"}, nested.(*Object).Keys())

	out, err := encodeJSON(obj, false)
	require.NoError(t, err)
	assert.Equal(t, `{"c":4,"a":{"y":2,"x":3},"b":[]}`, out)
}

func TestDecodeJSON_Rejects(t *testing.T) {
	t.Parallel()
	for _, input := range []string{``, `{`, `{"a":1} {"b":2}`, `{'a':1}`, `NaN`} {
		_, err := decodeJSON(input)
		assert.Errorf(t, err, "input %q", input)
	}
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	data, err := decodeYAML(`
base: &base
  host: localhost
  port: 80
service:
  <<: *base
  port: 8080
  name: api
1: one
`)
	require.NoError(t, err)
	out, err := encodeJSON(data, false)
	require.NoError(t, err)
	assert.Equal(t,
		`{"base":{"host":"localhost","port":80},"service":{"host":"localhost","port":8080,"name":"api"},"1":"one"}`,
		out,
	)

	data, err = decodeYAML("# only a comment\n")
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = decodeYAML("a: 1\n---\nb: 2\n")
	require.ErrorContains(t, err, "expected a single YAML document")
}

func TestEncodeYAML_KeepsKeyOrder(t *testing.T) {
	t.Parallel()
	data, err := decodeJSON(`{"zeta": {"b": true, "a": "1"}, "alpha": [1, "two"]}`)
	require.NoError(t, err)
	out, err := encodeYAML(data)
	require.NoError(t, err)
	assert.Equal(t, "zeta:\n  b: true\n  a: \"1\"\nalpha:\n  - 1\n  - two\n", out)

	roundTrip, err := decodeYAML(out)
	require.NoError(t, err)
	want, err := encodeJSON(data, true)
	require.NoError(t, err)
	got, err := encodeJSON(roundTrip, true)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeYAML_AliasExpansionLimit(t *testing.T) {
	t.Parallel()
	data, err := decodeYAML(nestedAliases(2))
	require.NoError(t, err)
	level2, _ := data.(*Object).Get("a2")
	require.Len(t, level2, 10)
	assert.Len(t, level2.([]any)[0], 10)

	_, err = decodeYAML(nestedAliases(9))
	require.ErrorIs(t, err, errTooManyAliases)
}

// nestedAliases returns a small document in which every level is a list of
// ten aliases to the level below, so it expands to 10^depth scalars.
func nestedAliases(depth int) string {
	var builder strings.Builder
	builder.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= depth; i++ {
		fmt.Fprintf(&builder, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				builder.WriteString(", ")
			}
			fmt.Fprintf(&builder, "*a%d", i-1)
		}
		builder.WriteString("]\n")
	}
	return builder.String()
}
