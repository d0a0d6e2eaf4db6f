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

// Command transformd serves the data transformation pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bufbuild/datatransform"
	"github.com/bufbuild/datatransform/cache/sqlitecache"
	"github.com/bufbuild/datatransform/internal/config"
	"github.com/bufbuild/datatransform/internal/server"
	"github.com/bufbuild/datatransform/internal/telemetry"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default "+config.DefaultPath+" if present)")
	flag.Parse()

	// a missing .env file is fine
	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "transformd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdownTracer, err := telemetry.InitTracer(cfg.Tracing.ServiceName, os.Stdout, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error().Err(err).Msg("failed to shut down tracer")
			}
		}()
	}

	cache, closer, err := newCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create %s cache: %w", cfg.Cache.Type, err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close cache")
		}
	}()

	handler := server.New(server.Config{
		Runner: &datatransform.Runner{
			Cache:          cache,
			CacheKeyPrefix: cfg.Cache.KeyPrefix,
			Logger:         &logger,
		},
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})
	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Server.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	if sqliteCache, ok := cache.(*sqlitecache.Cache); ok && cfg.Cache.Expiration > 0 {
		group.Go(func() error {
			sqliteCache.PurgeLoop(groupCtx, cfg.Cache.Expiration, 0.2, func(err error) {
				logger.Warn().Err(err).Msg("failed to purge expired cache entries")
			})
			return nil
		})
	}
	group.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Str("cache", cfg.Cache.Type).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func newLogger(cfg config.LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, err
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "transformd").Logger(), nil
}
