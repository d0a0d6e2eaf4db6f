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

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/bufbuild/datatransform"
	"github.com/bufbuild/datatransform/cache/filecache"
	"github.com/bufbuild/datatransform/cache/lrucache"
	memcachecache "github.com/bufbuild/datatransform/cache/memcache"
	"github.com/bufbuild/datatransform/cache/rediscache"
	"github.com/bufbuild/datatransform/cache/sqlitecache"
	"github.com/bufbuild/datatransform/internal/config"
	"github.com/gomodule/redigo/redis"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newCache builds the cache named by cfg.Type. The returned closer releases
// any connections it holds. A nil cache means results are not memoized.
func newCache(cfg config.CacheConfig) (datatransform.Cache, io.Closer, error) {
	switch cfg.Type {
	case config.CacheNone, "":
		return nil, nopCloser{}, nil
	case config.CacheMemory:
		cache, err := lrucache.New(lrucache.Config{Size: cfg.Size, Expiration: cfg.Expiration})
		return cache, nopCloser{}, err
	case config.CacheFile:
		cache, err := filecache.New(filecache.Config{Path: cfg.Path})
		return cache, nopCloser{}, err
	case config.CacheSQLite:
		cache, err := sqlitecache.New(sqlitecache.Config{Path: cfg.Path, Expiration: cfg.Expiration})
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil
	case config.CacheMemcache:
		cache, err := memcachecache.New(memcachecache.Config{
			Client:            memcache.New(cfg.Address),
			ExpirationSeconds: int32(cfg.Expiration / time.Second),
		})
		return cache, nopCloser{}, err
	case config.CacheRedis:
		address := cfg.Address
		pool := &redis.Pool{
			MaxIdle:     8,
			IdleTimeout: 5 * time.Minute,
			DialContext: func(ctx context.Context) (redis.Conn, error) {
				return redis.DialContext(ctx, "tcp", address)
			},
		}
		cache, err := rediscache.New(rediscache.Config{Client: pool, Expiration: cfg.Expiration})
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		return cache, pool, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
