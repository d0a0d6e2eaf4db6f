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

// Package server exposes the datatransform pipeline over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/bufbuild/datatransform"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

type Config struct {
	// Runner executes /v1/run requests. Defaults to a Runner without a cache.
	Runner *datatransform.Runner
	Logger zerolog.Logger
	// Zero means 30s.
	RequestTimeout time.Duration
	// Zero means 1 MiB.
	MaxBodyBytes int64
}

// Server is an http.Handler serving the transformation API.
type Server struct {
	router       chi.Router
	runner       *datatransform.Runner
	maxBodyBytes int64
}

func New(config Config) *Server {
	if config.Runner == nil {
		config.Runner = &datatransform.Runner{}
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaultRequestTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		runner:       config.Runner,
		maxBodyBytes: config.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(config.Logger))
	r.Use(RequestIDMiddleware)
	r.Use(hlog.AccessHandler(logRequest))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.RequestTimeout))
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "transformd")
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Get("/transformations", s.handleTransformations)
		r.Post("/options", s.handleOptions)
		r.Post("/run", s.handleRun)
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func logRequest(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request completed")
}
