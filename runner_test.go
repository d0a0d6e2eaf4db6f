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
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEntryRoundTrip(t *testing.T) {
	t.Parallel()
	result := &Result{
		Output: "{\n  \"x\": 1\n}",
		Type:   JSON,
		Trace:  []DataType{Base64, JSON},
	}
	storedAt := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	data, err := encodeForCache(result, storedAt)
	require.NoError(t, err)
	roundTripResult, roundTripTime, err := decodeForCache(data)
	require.NoError(t, err)
	assert.Equal(t, result, roundTripResult)
	assert.True(t, roundTripTime.Equal(storedAt))

	_, _, err = decodeForCache([]byte("not a proto"))
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()
	key := cacheKey("p:", "abc", steps("minify"))
	assert.Equal(t, key, cacheKey("p:", "abc", []Step{{ID: "other", Transformation: "minify"}}))
	assert.NotEqual(t, key, cacheKey("p:", "abc", steps("prettyPrint")))
	assert.NotEqual(t, key, cacheKey("p:", "abcminify", nil))
	assert.NotEqual(t, key, cacheKey("q:", "abc", steps("minify")))
	assert.Regexp(t, `^p:[0-9a-f]{64}$`, key)
}

func TestRunner(t *testing.T) {
	t.Parallel()
	cache := &mapCache{}
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	runner := &Runner{
		Cache:          cache,
		CacheKeyPrefix: "test:",
		Logger:         &logger,
		now:            func() time.Time { return time.Unix(0, 0) },
	}
	ctx := context.Background()

	first, err := runner.Run(ctx, `{"a": 1}`, steps("minify"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, first.Output)
	assert.Equal(t, 1, cache.saves)

	second, err := runner.Run(ctx, `{"a": 1}`, steps("minify"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.saves)
	assert.Equal(t, 2, cache.loads)

	// failures are not cached
	_, err = runner.Run(ctx, "not json", steps("minify"))
	require.ErrorIs(t, err, ErrInvalidChain)
	assert.Equal(t, 1, cache.saves)
}

func TestRunner_CacheFailures(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	cache := &mapCache{loadErr: errors.New("connection refused"), saveErr: errors.New("read-only")}
	runner := &Runner{Cache: cache, Logger: &logger}

	result, err := runner.Run(context.Background(), "aGVsbG8=", steps("decodeBase64"))
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Output)
	assert.Contains(t, logs.String(), "failed to load run result from cache")
	assert.Contains(t, logs.String(), "failed to save run result to cache")
}

func TestRunner_WithoutCache(t *testing.T) {
	t.Parallel()
	var runner Runner
	result, err := runner.Run(context.Background(), "a: 1", steps("convertToJSON"))
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", result.Output)
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func (c *mapCache) Load(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	data, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

func (c *mapCache) Save(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saveErr != nil {
		return c.saveErr
	}
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[key] = data
	c.saves++
	return nil
}
