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

package datatransform

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Cache stores the results of runs so that repeated runs over the same
// input and chain are not recomputed. Implementations must be safe for use
// from multiple goroutines. Load must return an error matching
// [ErrCacheMiss] when there is no entry for the key.
type Cache interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// cacheKey identifies a run by its input and its steps' transformation
// names. Step IDs do not affect the result and are left out.
func cacheKey(prefix, raw string, steps []Step) string {
	hasher := sha256.New()
	writeField := func(s string) {
		var length [8]byte
		binary.LittleEndian.PutUint64(length[:], uint64(len(s)))
		hasher.Write(length[:])
		hasher.Write([]byte(s))
	}
	writeField(raw)
	for _, step := range steps {
		writeField(step.Transformation)
	}
	return prefix + hex.EncodeToString(hasher.Sum(nil))
}

func encodeForCache(result *Result, storedAt time.Time) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, dataType := range result.Trace {
		trace[i] = dataType.String()
	}
	entry, err := structpb.NewStruct(map[string]any{
		"output":    result.Output,
		"type":      result.Type.String(),
		"trace":     trace,
		"stored_at": storedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(entry)
}

func decodeForCache(data []byte) (*Result, time.Time, error) {
	var entry structpb.Struct
	if err := proto.Unmarshal(data, &entry); err != nil {
		return nil, time.Time{}, err
	}
	fields := entry.GetFields()
	dataType, err := ParseDataType(fields["type"].GetStringValue())
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "malformed cache entry")
	}
	result := &Result{
		Output: fields["output"].GetStringValue(),
		Type:   dataType,
	}
	for _, item := range fields["trace"].GetListValue().GetValues() {
		traced, err := ParseDataType(item.GetStringValue())
		if err != nil {
			return nil, time.Time{}, errors.Wrap(err, "malformed cache entry")
		}
		result.Trace = append(result.Trace, traced)
	}
	storedAt, err := time.Parse(time.RFC3339Nano, fields["stored_at"].GetStringValue())
	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, "malformed cache entry")
	}
	return result, storedAt, nil
}
