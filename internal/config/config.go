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

// Package config loads the transformd service configuration from an
// optional YAML file and TRANSFORMD_ environment variables.
package config

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultPath is read when Load is given no path. Its absence is not
	// an error.
	DefaultPath = "transformd.yaml"
	// EnvPrefix marks the environment variables that override file
	// settings. A double underscore separates nesting levels, so
	// TRANSFORMD_CACHE__KEY_PREFIX sets cache.key_prefix.
	EnvPrefix = "TRANSFORMD_"
)

// Cache types accepted in cache.type.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheFile     = "file"
	CacheMemcache = "memcache"
	CacheRedis    = "redis"
	CacheSQLite   = "sqlite"
)

var cacheTypes = []string{CacheNone, CacheMemory, CacheFile, CacheMemcache, CacheRedis, CacheSQLite}

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Cache   CacheConfig   `koanf:"cache"`
	Tracing TracingConfig `koanf:"tracing"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Largest accepted request body, in bytes.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

type CacheConfig struct {
	Type      string `koanf:"type"`
	KeyPrefix string `koanf:"key_prefix"`
	// Entry limit for the memory cache.
	Size int `koanf:"size"`
	// Directory for the file cache, database file for the sqlite cache.
	Path string `koanf:"path"`
	// host:port of the memcached or redis server.
	Address    string        `koanf:"address"`
	Expiration time.Duration `koanf:"expiration"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
}

var defaults = map[string]any{
	"server.port":             8080,
	"server.request_timeout":  "30s",
	"server.shutdown_timeout": "15s",
	"server.max_body_bytes":   1 << 20,
	"log.level":               "info",
	"log.format":              "json",
	"cache.type":              CacheNone,
	"cache.key_prefix":        "datatransform:",
	"cache.size":              1024,
	"tracing.service_name":    "transformd",
}

// Load reads the configuration. An empty path means DefaultPath, which may
// be missing; an explicitly named file must exist. Environment variables
// take precedence over the file, and defaults fill whatever neither sets.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	optional := path == ""
	if optional {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate checks value ranges and the combinations each cache type needs.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout cannot be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if !slices.Contains(cacheTypes, c.Cache.Type) {
		return fmt.Errorf("cache.type must be one of %s, got %q", strings.Join(cacheTypes, ", "), c.Cache.Type)
	}
	if c.Cache.Expiration < 0 {
		return errors.New("cache.expiration cannot be negative")
	}
	switch c.Cache.Type {
	case CacheMemory:
		if c.Cache.Size <= 0 {
			return errors.New("cache.size must be positive for the memory cache")
		}
	case CacheFile, CacheSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the %s cache", c.Cache.Type)
		}
	case CacheMemcache, CacheRedis:
		if c.Cache.Address == "" {
			return fmt.Errorf("cache.address is required for the %s cache", c.Cache.Type)
		}
	}
	return nil
}
