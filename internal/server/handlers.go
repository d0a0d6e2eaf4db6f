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

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bufbuild/datatransform"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

type detectRequest struct {
	Input *string `json:"input"`
}

type detectResponse struct {
	Type datatransform.DataType `json:"type"`
}

type chainRequest struct {
	Input *string              `json:"input"`
	Steps []datatransform.Step `json:"steps"`
}

type optionsResponse struct {
	Type    datatransform.DataType `json:"type"`
	Options []datatransform.Option `json:"options"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Input == nil {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	writeJSON(w, http.StatusOK, detectResponse{Type: datatransform.Detect(*req.Input)})
}

func (s *Server) handleTransformations(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("type")
	if name == "" {
		all := datatransform.Transformations()
		options := make([]datatransform.Option, 0, len(all))
		for _, transformation := range all {
			options = append(options, datatransform.Option{Name: transformation.Name, Label: transformation.Label})
		}
		writeJSON(w, http.StatusOK, options)
		return
	}
	dataType, err := datatransform.ParseDataType(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, datatransform.ValidFor(dataType))
}

// handleOptions reports the type at the end of a chain and the steps that
// may be appended to it.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Input == nil {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	dataType := datatransform.CurrentType(*req.Input, req.Steps)
	writeJSON(w, http.StatusOK, optionsResponse{Type: dataType, Options: datatransform.ValidFor(dataType)})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Input == nil {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	result, err := s.runner.Run(r.Context(), *req.Input, req.Steps)
	if err != nil {
		var runErr *datatransform.Error
		if errors.As(err, &runErr) {
			hlog.FromRequest(r).Debug().Err(err).Int("step", runErr.StepIndex).Msg("run failed")
			writeError(w, http.StatusUnprocessableEntity, datatransform.FormatError(err))
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("run failed")
		writeError(w, http.StatusInternalServerError, datatransform.FormatError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBody reads a single JSON object into dst. On failure it writes the
// error response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		if _, trailingErr := dec.Token(); !errors.Is(trailingErr, io.EOF) {
			err = errors.New("unexpected data after JSON object")
		}
	}
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(body)
}
