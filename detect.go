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
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Detect classifies raw text. It never fails; the first matching rule wins:
//
//  1. blank input is Text;
//  2. strictly valid JSON is JSON;
//  3. a YAML document holding a mapping or a sequence is YAML;
//  4. text made only of the standard Base64 alphabet (line breaks allowed),
//     whose length without line breaks is a multiple of four and which
//     decodes, is Base64;
//  5. anything else is Text.
//
// YAML is tried after JSON since every JSON document is also YAML. A bare
// YAML scalar does not count, as any single line of prose is one. The Base64
// rule is lexical and will claim some short words, e.g. "Java".
func Detect(raw string) DataType {
	if strings.TrimSpace(raw) == "" {
		return Text
	}
	if json.Valid([]byte(raw)) {
		return JSON
	}
	if isYAMLCollection(raw) {
		return YAML
	}
	if isBase64(raw) {
		return Base64
	}
	return Text
}

func isYAMLCollection(raw string) bool {
	data, err := decodeYAML(raw)
	if err != nil {
		return false
	}
	switch data.(type) {
	case *Object, []any:
		return true
	default:
		return false
	}
}

func isBase64(raw string) bool {
	var stripped strings.Builder
	stripped.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		char := raw[i]
		switch {
		case char >= 'A' && char <= 'Z',
			char >= 'a' && char <= 'z',
			char >= '0' && char <= '9',
			char == '+' || char == '/' || char == '=':
			stripped.WriteByte(char)
		case char == '\r' || char == '\n':
		default:
			return false
		}
	}
	if stripped.Len()%4 != 0 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(stripped.String())
	return err == nil
}
