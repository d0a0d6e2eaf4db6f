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

// Package memcache provides an implementation of datatransform.Cache
// that is backed by a memcached instance: https://memcached.org/.
package memcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/bufbuild/datatransform"
)

// maxKeyLength is the longest key memcached accepts.
const maxKeyLength = 250

type Config struct {
	Client            *memcache.Client
	KeyPrefix         string
	ExpirationSeconds int32
}

func New(config Config) (datatransform.Cache, error) {
	// validate config
	if config.Client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if config.ExpirationSeconds < 0 {
		return nil, fmt.Errorf("expiration seconds (%d) cannot be negative", config.ExpirationSeconds)
	}
	if len(config.KeyPrefix) > maxKeyLength/2 {
		return nil, fmt.Errorf("key prefix cannot be longer than %d bytes", maxKeyLength/2)
	}
	return (*cache)(&config), nil
}

type cache Config

func (c *cache) Load(_ context.Context, key string) ([]byte, error) {
	item, err := c.Client.Get(c.itemKey(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, fmt.Errorf("%w: %v", datatransform.ErrCacheMiss, err)
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

func (c *cache) Save(_ context.Context, key string, data []byte) error {
	item := &memcache.Item{
		Key:        c.itemKey(key),
		Value:      data,
		Expiration: c.ExpirationSeconds,
	}
	return c.Client.Set(item)
}

// itemKey returns a key memcached will accept: keys that are too long or
// contain spaces or control characters are replaced by their SHA-256 hash.
func (c *cache) itemKey(key string) string {
	full := c.KeyPrefix + key
	if len(full) <= maxKeyLength && isLegalKey(full) {
		return full
	}
	sum := sha256.Sum256([]byte(key))
	return c.KeyPrefix + "sha256:" + hex.EncodeToString(sum[:])
}

func isLegalKey(key string) bool {
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}
	return true
}
