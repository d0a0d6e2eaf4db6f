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

// Package lrucache provides an in-process implementation of
// datatransform.Cache that keeps a bounded number of run results and
// evicts the least recently used ones first.
//
// Entries do not survive a restart and are not shared between processes.
// Use one of the other cache packages when either is needed.
package lrucache

import (
	"context"
	"fmt"
	"time"

	"github.com/bufbuild/datatransform"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize is the number of entries kept when Config.Size is zero.
const DefaultSize = 1024

type Config struct {
	// Maximum number of entries. Defaults to DefaultSize.
	Size int
	// If non-zero, entries are dropped this long after they were saved.
	Expiration time.Duration
}

// store is the subset of the golang-lru caches used here; both the plain
// and the expirable variants satisfy it.
type store interface {
	Get(key string) ([]byte, bool)
	Add(key string, value []byte) bool
	Len() int
}

func New(config Config) (datatransform.Cache, error) {
	// validate config
	if config.Size < 0 {
		return nil, fmt.Errorf("size (%d) cannot be negative", config.Size)
	}
	if config.Expiration < 0 {
		return nil, fmt.Errorf("expiration (%v) cannot be negative", config.Expiration)
	}
	if config.Size == 0 {
		config.Size = DefaultSize
	}
	if config.Expiration > 0 {
		return &cache{entries: expirable.NewLRU[string, []byte](config.Size, nil, config.Expiration)}, nil
	}
	entries, err := lru.New[string, []byte](config.Size)
	if err != nil {
		return nil, err
	}
	return &cache{entries: entries}, nil
}

type cache struct {
	entries store
}

func (c *cache) Load(_ context.Context, key string) ([]byte, error) {
	data, ok := c.entries.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", datatransform.ErrCacheMiss, key)
	}
	return append([]byte(nil), data...), nil
}

func (c *cache) Save(_ context.Context, key string, data []byte) error {
	c.entries.Add(key, append([]byte(nil), data...))
	return nil
}
