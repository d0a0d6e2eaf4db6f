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

// Package rediscache provides an implementation of datatransform.Cache
// that is backed by a Redis instance: https://redis.io/.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bufbuild/datatransform"
	"github.com/gomodule/redigo/redis"
)

// Config configures a Redis-backed run cache.
type Config struct {
	Client *redis.Pool
	// KeyPrefix is prepended to every run key.
	KeyPrefix string
	// Expiration is the TTL set on each entry. Zero means entries never
	// expire. Positive values below a millisecond are rounded up to one.
	Expiration time.Duration
}

func New(config Config) (datatransform.Cache, error) {
	// validate config
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.Expiration < 0 {
		return nil, fmt.Errorf("expiration (%v) cannot be negative", config.Expiration)
	}
	return (*cache)(&config), nil
}

type cache Config

func (c *cache) Load(ctx context.Context, key string) ([]byte, error) {
	conn, err := c.Client.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = conn.Close()
	}()
	data, err := redis.Bytes(redis.DoContext(conn, ctx, "get", c.KeyPrefix+key))
	if errors.Is(err, redis.ErrNil) {
		return nil, fmt.Errorf("%w: %s", datatransform.ErrCacheMiss, key)
	}
	return data, err
}

func (c *cache) Save(ctx context.Context, key string, data []byte) error {
	conn, err := c.Client.GetContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	_, err = redis.DoContext(conn, ctx, "set", c.setArgs(key, data)...)
	return err
}

// setArgs returns the SET arguments for a run entry, with a PX option
// when the cache has an expiration.
func (c *cache) setArgs(key string, data []byte) []any {
	args := []any{c.KeyPrefix + key, data}
	if c.Expiration <= 0 {
		return args
	}
	millis := c.Expiration.Milliseconds()
	if c.Expiration%time.Millisecond != 0 {
		millis++
	}
	return append(args, "px", millis)
}
