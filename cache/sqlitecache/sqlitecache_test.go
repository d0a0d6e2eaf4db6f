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

package sqlitecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bufbuild/datatransform"
	"github.com/bufbuild/datatransform/cache/internal/cachetesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCache(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name   string
		config Config
	}{
		{
			name: "default table",
		},
		{
			name:   "custom table with expiry",
			config: Config{Table: "results", Expiration: time.Hour},
		},
		{
			name:   "in memory",
			config: Config{Path: ":memory:"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if testCase.config.Path == "" {
				testCase.config.Path = filepath.Join(t.TempDir(), "cache.db")
			}
			cache, err := New(testCase.config)
			require.NoError(t, err)
			t.Cleanup(func() {
				assert.NoError(t, cache.Close())
			})
			ctx := context.Background()

			entries := cachetesting.RunSimpleCacheTests(t, ctx, cache)
			cachetesting.RunMemoizationTests(t, ctx, cache)

			var count int
			err = cache.db.Get(&count, "SELECT COUNT(*) FROM "+tableOrDefault(testCase.config.Table))
			require.NoError(t, err)
			assert.Equal(t, len(entries)+1, count)
		})
	}
}

func TestSQLiteCache_Reopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	cache, err := New(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, cache.Save(ctx, "k", []byte("v")))
	require.NoError(t, cache.Close())

	cache, err = New(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cache.Close())
	})
	data, err := cache.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestSQLiteCache_Expiry(t *testing.T) {
	t.Parallel()
	cache, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Expiration: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, cache.Close())
	})
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, "old", []byte("1")))
	now = now.Add(30 * time.Second)
	require.NoError(t, cache.Save(ctx, "new", []byte("2")))
	_, err = cache.Load(ctx, "old")
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = cache.Load(ctx, "old")
	require.ErrorIs(t, err, datatransform.ErrCacheMiss)
	_, err = cache.Load(ctx, "new")
	require.NoError(t, err)

	purged, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestSQLiteCache_ConfigValidation(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name      string
		config    Config
		expectErr string
	}{
		{
			name:      "no path",
			expectErr: "path cannot be empty",
		},
		{
			name:      "bad table",
			config:    Config{Path: ":memory:", Table: "runs; DROP TABLE x"},
			expectErr: `invalid table name "runs; DROP TABLE x"`,
		},
		{
			name:      "negative expiry",
			config:    Config{Path: ":memory:", Expiration: -time.Second},
			expectErr: "expiration (-1s) cannot be negative",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(testCase.config)
			require.ErrorContains(t, err, testCase.expectErr)
		})
	}
}

func tableOrDefault(table string) string {
	if table == "" {
		return DefaultTable
	}
	return table
}
