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
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		callerID string
		keepID   bool
	}{
		{name: "no caller id"},
		{name: "caller uuid kept", callerID: uuid.NewString(), keepID: true},
		{name: "malformed caller id replaced", callerID: "not-a-uuid"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer
			handler := hlog.NewHandler(zerolog.New(&logs))(RequestIDMiddleware(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					hlog.FromRequest(r).Info().Msg("handled")
					w.WriteHeader(http.StatusNoContent)
				}),
			))
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if testCase.callerID != "" {
				req.Header.Set(RequestIDHeader, testCase.callerID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			requestID := rec.Header().Get(RequestIDHeader)
			require.NoError(t, uuid.Validate(requestID))
			if testCase.keepID {
				assert.Equal(t, testCase.callerID, requestID)
			} else {
				assert.NotEqual(t, testCase.callerID, requestID)
			}
			assert.Contains(t, logs.String(), `"request_id":"`+requestID+`"`)
		})
	}
}
