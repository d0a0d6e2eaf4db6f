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

// Package sqlitecache provides an implementation of datatransform.Cache
// that stores run results in a SQLite database file. It uses the pure Go
// driver from modernc.org/sqlite, so no cgo toolchain is needed.
package sqlitecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/bufbuild/datatransform"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DefaultTable is the table used when Config.Table is empty.
const DefaultTable = "run_cache"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Config struct {
	// Required: the database file. It is created if it does not exist.
	Path string
	// Defaults to DefaultTable.
	Table string
	// If non-zero, entries older than this are treated as misses.
	Expiration time.Duration
}

// Cache is a datatransform.Cache backed by a SQLite table. It owns its
// database handle, which Close releases.
type Cache struct {
	db         *sqlx.DB
	expiration time.Duration
	loadQuery  string
	saveQuery  string
	purgeQuery string
	now        func() time.Time
}

var _ datatransform.Cache = (*Cache)(nil)

type row struct {
	Value     []byte `db:"value"`
	ExpiresAt int64  `db:"expires_at"`
}

// New opens (or creates) the database named by config.Path and makes sure
// the cache table exists.
func New(config Config) (*Cache, error) {
	// validate config
	if config.Path == "" {
		return nil, errors.New("path cannot be empty")
	}
	if config.Table == "" {
		config.Table = DefaultTable
	}
	if !tableNamePattern.MatchString(config.Table) {
		return nil, fmt.Errorf("invalid table name %q", config.Table)
	}
	if config.Expiration < 0 {
		return nil, fmt.Errorf("expiration (%v) cannot be negative", config.Expiration)
	}

	db, err := sqlx.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.Path == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	statements := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS ` + config.Table + ` (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return &Cache{
		db:         db,
		expiration: config.Expiration,
		loadQuery:  `SELECT value, expires_at FROM ` + config.Table + ` WHERE key = ?`,
		saveQuery: `INSERT INTO ` + config.Table + ` (key, value, expires_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		purgeQuery: `DELETE FROM ` + config.Table + ` WHERE expires_at != 0 AND expires_at <= ?`,
		now:        time.Now,
	}, nil
}

func (c *Cache) Load(ctx context.Context, key string) ([]byte, error) {
	var entry row
	err := c.db.GetContext(ctx, &entry, c.loadQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", datatransform.ErrCacheMiss, key)
	}
	if err != nil {
		return nil, err
	}
	if entry.ExpiresAt != 0 && entry.ExpiresAt <= c.now().UnixNano() {
		return nil, fmt.Errorf("%w: %s expired", datatransform.ErrCacheMiss, key)
	}
	return entry.Value, nil
}

func (c *Cache) Save(ctx context.Context, key string, data []byte) error {
	var expiresAt int64
	if c.expiration != 0 {
		expiresAt = c.now().Add(c.expiration).UnixNano()
	}
	if data == nil {
		data = []byte{}
	}
	_, err := c.db.ExecContext(ctx, c.saveQuery, key, data, expiresAt)
	return err
}

// Purge deletes expired entries and reports how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, c.purgeQuery, c.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}
