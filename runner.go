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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Runner executes chains and memoizes successful results in a [Cache].
// Failed runs are never cached. A Runner is safe for concurrent use when
// its Cache is.
type Runner struct {
	// Cache, if non-nil, stores results keyed by the raw input and the
	// step transformation names. If a load or save fails the run is
	// computed as if there were no cache, and the failure is logged.
	Cache Cache
	// CacheKeyPrefix is prepended to every cache key.
	CacheKeyPrefix string
	// Logger receives cache diagnostics. If nil, nothing is logged.
	Logger *zerolog.Logger
	// now is overridden in tests.
	now func() time.Time
}

// Run is like [Execute], consulting the cache first.
func (r *Runner) Run(ctx context.Context, raw string, steps []Step) (*Result, error) {
	if r.Cache == nil {
		return Execute(raw, steps)
	}
	logger := r.logger()
	key := cacheKey(r.CacheKeyPrefix, raw, steps)
	data, err := r.Cache.Load(ctx, key)
	switch {
	case err == nil:
		result, storedAt, decodeErr := decodeForCache(data)
		if decodeErr == nil {
			logger.Debug().Str("key", key).Time("stored_at", storedAt).Msg("run result loaded from cache")
			return result, nil
		}
		logger.Warn().Err(decodeErr).Str("key", key).Msg("discarding unreadable cache entry")
	case errors.Is(err, ErrCacheMiss):
		logger.Debug().Str("key", key).Msg("run result not cached")
	default:
		logger.Warn().Err(err).Str("key", key).Msg("failed to load run result from cache")
	}

	result, err := Execute(raw, steps)
	if err != nil {
		return nil, err
	}
	encoded, err := encodeForCache(result, r.clock())
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to encode run result for cache")
		return result, nil
	}
	if err := r.Cache.Save(ctx, key, encoded); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to save run result to cache")
	}
	return result, nil
}

func (r *Runner) logger() *zerolog.Logger {
	if r.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return r.Logger
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
