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

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer(t *testing.T) {
	var spans, logs bytes.Buffer
	shutdown, err := InitTracer("transformd-test", &spans, zerolog.New(&logs))
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "run-pipeline")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, spans.String(), `"Name":"run-pipeline"`)
	assert.Contains(t, spans.String(), "transformd-test")
	assert.Contains(t, logs.String(), "tracing initialized")
}
