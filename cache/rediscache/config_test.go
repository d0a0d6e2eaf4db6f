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

package rediscache

import (
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConfigValidation(t *testing.T) {
	t.Parallel()
	_, err := New(Config{})
	require.ErrorContains(t, err, "client cannot be nil")
	_, err = New(Config{Client: &redis.Pool{}, Expiration: -time.Second})
	require.ErrorContains(t, err, "expiration (-1s) cannot be negative")
}

func TestCache_SetArgs(t *testing.T) {
	t.Parallel()
	data := []byte("result")
	testCases := []struct {
		name       string
		expiration time.Duration
		want       []any
	}{
		{
			name: "no expiration",
			want: []any{"runs:abc", data},
		},
		{
			name:       "whole milliseconds",
			expiration: time.Minute,
			want:       []any{"runs:abc", data, "px", int64(60_000)},
		},
		{
			name:       "sub-millisecond rounds up",
			expiration: 500 * time.Microsecond,
			want:       []any{"runs:abc", data, "px", int64(1)},
		},
		{
			name:       "fractional milliseconds round up",
			expiration: 1500 * time.Microsecond,
			want:       []any{"runs:abc", data, "px", int64(2)},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(Config{Client: &redis.Pool{}, KeyPrefix: "runs:", Expiration: testCase.expiration})
			require.NoError(t, err)
			concrete, ok := c.(*cache)
			require.True(t, ok)
			assert.Equal(t, testCase.want, concrete.setArgs("abc", data))
		})
	}
}
