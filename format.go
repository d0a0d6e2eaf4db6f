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
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// errCircularAlias is returned when a YAML alias refers to one of its own
// ancestors, which would otherwise yield a value containing itself.
var errCircularAlias = errors.New("circular alias in YAML document")

// errTooManyAliases is returned when expanding aliases would produce more
// than maxAliasedYAMLNodes nodes.
var errTooManyAliases = errors.New("YAML document expands too many aliases")

// decodeJSON strictly parses a single JSON document. Objects decode to
// *Object so that key order is kept, numbers decode to float64.
func decodeJSON(data string) (any, error) {
	if !json.Valid([]byte(data)) {
		return nil, errors.New("invalid JSON syntax")
	}
	dec := json.NewDecoder(strings.NewReader(data))
	value, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return value, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, float64, bool or nil
		return tok, nil
	}
	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
			}
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}

// encodeJSON serializes value as JSON without escaping HTML characters. When
// pretty is true the output is indented with two spaces.
func encodeJSON(value any, pretty bool) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func writeJSON(buf *bytes.Buffer, value any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return err
	}
	// Encode always terminates the value with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}

// decodeYAML parses a single YAML document. Mappings decode to *Object and
// sequences to []any. An empty document decodes to nil.
func decodeYAML(data string) (any, error) {
	dec := yaml.NewDecoder(strings.NewReader(data))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	var next yaml.Node
	switch err := dec.Decode(&next); {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, err
	default:
		return nil, errors.New("expected a single YAML document")
	}
	return fromYAMLNode(&doc, &yamlState{expanding: map[*yaml.Node]struct{}{}})
}

// maxAliasedYAMLNodes bounds how many nodes may be produced by expanding
// aliases in one document. Nested aliases grow exponentially with depth, so
// a few hundred bytes could otherwise expand to billions of nodes.
const maxAliasedYAMLNodes = 10_000

// yamlState tracks alias expansion while a document is decoded.
type yamlState struct {
	// anchors currently being expanded, for cycle detection
	expanding map[*yaml.Node]struct{}
	// nodes produced so far under an alias
	aliased int
}

func fromYAMLNode(node *yaml.Node, st *yamlState) (any, error) {
	if len(st.expanding) > 0 {
		st.aliased++
		if st.aliased > maxAliasedYAMLNodes {
			return nil, errTooManyAliases
		}
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0], st)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind == yaml.ScalarNode && keyNode.Tag == "!!merge" {
				if err := mergeYAML(obj, valueNode, st); err != nil {
					return nil, err
				}
				continue
			}
			key, err := yamlKey(keyNode, st)
			if err != nil {
				return nil, err
			}
			value, err := fromYAMLNode(valueNode, st)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := fromYAMLNode(item, st)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.AliasNode:
		if _, ok := st.expanding[node.Alias]; ok {
			return nil, errCircularAlias
		}
		st.expanding[node.Alias] = struct{}{}
		defer delete(st.expanding, node.Alias)
		return fromYAMLNode(node.Alias, st)
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		if t, ok := value.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
		return value, nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}

// mergeYAML applies a "<<" merge key: keys of the merged mapping(s) are
// added unless already present.
func mergeYAML(obj *Object, valueNode *yaml.Node, st *yamlState) error {
	merged, err := fromYAMLNode(valueNode, st)
	if err != nil {
		return err
	}
	var sources []*Object
	switch merged := merged.(type) {
	case *Object:
		sources = append(sources, merged)
	case []any:
		for _, item := range merged {
			src, ok := item.(*Object)
			if !ok {
				return errors.New("merge key must refer to a mapping or a sequence of mappings")
			}
			sources = append(sources, src)
		}
	default:
		return errors.New("merge key must refer to a mapping or a sequence of mappings")
	}
	for _, src := range sources {
		for _, key := range src.keys {
			if _, ok := obj.values[key]; !ok {
				obj.Set(key, src.values[key])
			}
		}
	}
	return nil
}

func yamlKey(keyNode *yaml.Node, st *yamlState) (string, error) {
	if keyNode.Kind == yaml.ScalarNode {
		if keyNode.Tag == "!!null" {
			return "null", nil
		}
		return keyNode.Value, nil
	}
	// complex keys are stringified in their JSON form
	key, err := fromYAMLNode(keyNode, st)
	if err != nil {
		return "", err
	}
	return encodeJSON(key, false)
}

// encodeYAML serializes value as a YAML document indented with two spaces.
func encodeYAML(value any) (out string, err error) {
	defer func() {
		// yaml.v3 panics on values it cannot represent
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot represent value as YAML: %v", r)
		}
	}()
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func encodeBase64(data string) string {
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// decodeBase64 decodes standard (padded) Base64, ignoring ASCII whitespace.
func decodeBase64(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(stripASCIISpace(data))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func stripASCIISpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		default:
			return r
		}
	}, s)
}
