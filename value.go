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

// Value is the datum flowing through a run. It is either textual (raw text,
// Base64 text, JSON or YAML source) or structured: a decoded graph made of
// *Object, []any, string, float64, int, bool and nil. A decoded JSON or YAML
// document whose top-level value is a string is textual.
//
// Values are immutable; every transformation produces a new one.
type Value struct {
	data any
}

// TextValue returns a textual value.
func TextValue(text string) Value {
	return Value{data: text}
}

// StructuredValue returns a value holding a decoded document. If data is a
// string the value is textual.
func StructuredValue(data any) Value {
	return Value{data: data}
}

// Text returns the value's text and true if the value is textual.
func (v Value) Text() (string, bool) {
	text, ok := v.data.(string)
	return text, ok
}

// IsText reports whether the value is textual.
func (v Value) IsText() bool {
	_, ok := v.data.(string)
	return ok
}

// Data returns the underlying datum.
func (v Value) Data() any {
	return v.data
}

// Render returns the display form of the value: text verbatim, structured
// values as JSON indented with two spaces.
func (v Value) Render() (string, error) {
	if text, ok := v.Text(); ok {
		return text, nil
	}
	return encodeJSON(v.data, true)
}

// redetect returns the type of a value produced by a transformation:
// textual values are run through [Detect], structured values are JSON.
func (v Value) redetect() DataType {
	if text, ok := v.Text(); ok {
		return Detect(text)
	}
	return JSON
}

// parseValue decodes raw input according to its detected type. JSON and YAML
// documents are decoded; Base64 and plain text are kept as they are.
func parseValue(raw string, dataType DataType) (Value, error) {
	switch dataType {
	case JSON:
		data, err := decodeJSON(raw)
		if err != nil {
			return Value{}, err
		}
		return StructuredValue(data), nil
	case YAML:
		data, err := decodeYAML(raw)
		if err != nil {
			return Value{}, err
		}
		return StructuredValue(data), nil
	default:
		// Base64 stays encoded until a decodeBase64 step unwraps it.
		return TextValue(raw), nil
	}
}
