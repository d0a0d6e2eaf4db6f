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

// Package cachetesting holds the conformance checks shared by the
// datatransform.Cache implementations.
package cachetesting

import (
	"context"
	"crypto/rand"
	"testing"

	"github.com/bufbuild/datatransform"
	"github.com/stretchr/testify/require"
)

// RunSimpleCacheTests saves and loads random entries under a few keys and
// returns what it stored so callers can inspect the backing store.
//
//nolint:revive // okay that ctx is second; prefer t to be first
func RunSimpleCacheTests(t *testing.T, ctx context.Context, cache datatransform.Cache) map[string][]byte {
	t.Helper()

	// Values are random so that concurrent tests sharing a server or
	// directory cannot satisfy each other's expectations.
	const (
		keyFoo   = "foo"
		keyBar   = "bar"
		keyEmpty = ""
	)

	entries := make(map[string][]byte, 3)
	for _, k := range []string{keyFoo, keyBar, keyEmpty} {
		val := make([]byte, 100)
		_, err := rand.Read(val)
		require.NoError(t, err)
		entries[k] = val
	}
	valFoo, valBar, valEmpty := entries[keyFoo], entries[keyBar], entries[keyEmpty]

	// misses are reported as datatransform.ErrCacheMiss
	_, err := cache.Load(ctx, keyFoo)
	require.ErrorIs(t, err, datatransform.ErrCacheMiss)
	require.NoError(t, cache.Save(ctx, keyFoo, valFoo))
	loaded, err := cache.Load(ctx, keyFoo)
	require.NoError(t, err)
	require.Equal(t, valFoo, loaded)

	_, err = cache.Load(ctx, keyBar)
	require.ErrorIs(t, err, datatransform.ErrCacheMiss)
	require.NoError(t, cache.Save(ctx, keyBar, valBar))
	loaded, err = cache.Load(ctx, keyBar)
	require.NoError(t, err)
	require.Equal(t, valBar, loaded)

	// saving bar must not disturb foo
	loaded, err = cache.Load(ctx, keyFoo)
	require.NoError(t, err)
	require.Equal(t, valFoo, loaded)

	// overwrite
	replacement := append([]byte("replaced:"), valFoo...)
	require.NoError(t, cache.Save(ctx, keyFoo, replacement))
	loaded, err = cache.Load(ctx, keyFoo)
	require.NoError(t, err)
	require.Equal(t, replacement, loaded)
	entries[keyFoo] = replacement

	require.NoError(t, cache.Save(ctx, keyEmpty, valEmpty))
	loaded, err = cache.Load(ctx, keyEmpty)
	require.NoError(t, err)
	require.Equal(t, valEmpty, loaded)

	return entries
}

// RunMemoizationTests checks that a datatransform.Runner backed by cache
// stores a result and serves it back.
//
//nolint:revive // okay that ctx is second; prefer t to be first
func RunMemoizationTests(t *testing.T, ctx context.Context, cache datatransform.Cache) {
	t.Helper()
	runner := &datatransform.Runner{Cache: cache, CacheKeyPrefix: "memo:"}
	steps := []datatransform.Step{{ID: "1", Transformation: "prettyPrint"}}

	first, err := runner.Run(ctx, `{"k":[1,2]}`, steps)
	require.NoError(t, err)
	second, err := runner.Run(ctx, `{"k":[1,2]}`, steps)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "{\n  \"k\": [\n    1,\n    2\n  ]\n}", second.Output)
}
