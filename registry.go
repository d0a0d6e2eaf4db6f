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
	"slices"

	"github.com/pkg/errors"
)

// Transformation is a named conversion from the fixed registry.
type Transformation struct {
	// Name is the stable key that steps refer to, e.g. "encodeBase64".
	Name string
	// Label is a human-readable name for display.
	Label string
	// Accepts lists the data types the transformation may be applied to.
	Accepts []DataType
	// Output is the type the transformation nominally produces. It is only a
	// hint: runs re-detect the type of whatever Apply actually returned.
	Output DataType
	// Apply performs the conversion. It never mutates its argument.
	Apply func(Value) (Value, error)
}

// AcceptsType reports whether the transformation may be applied to a value of
// the given type.
func (t *Transformation) AcceptsType(dataType DataType) bool {
	return slices.Contains(t.Accepts, dataType)
}

// Option is an entry of the "add a step" list.
type Option struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// registry is in declaration order, which is also the order of ValidFor.
//
//nolint:gochecknoglobals
var registry = []*Transformation{
	{
		Name:    "encodeBase64",
		Label:   "Encode to Base64",
		Accepts: []DataType{JSON, Text, YAML},
		Output:  Base64,
		Apply:   applyEncodeBase64,
	},
	{
		Name:    "decodeBase64",
		Label:   "Decode Base64",
		Accepts: []DataType{Base64},
		Output:  Text,
		Apply:   applyDecodeBase64,
	},
	{
		Name:    "convertToYAML",
		Label:   "Convert to YAML",
		Accepts: []DataType{JSON},
		Output:  YAML,
		Apply:   applyConvertToYAML,
	},
	{
		Name:    "convertToJSON",
		Label:   "Convert to JSON",
		Accepts: []DataType{YAML},
		Output:  JSON,
		Apply:   applyConvertToJSON,
	},
	{
		Name:    "minify",
		Label:   "Minify JSON",
		Accepts: []DataType{JSON},
		Output:  JSON,
		Apply:   applyMinify,
	},
	{
		Name:    "prettyPrint",
		Label:   "Pretty Print JSON",
		Accepts: []DataType{JSON},
		Output:  JSON,
		Apply:   applyPrettyPrint,
	},
}

// Lookup returns the transformation with the given name.
func Lookup(name string) (*Transformation, error) {
	for _, t := range registry {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownTransformation, "%q", name)
}

// ValidFor lists, in registry order, the transformations that accept the
// given type.
func ValidFor(dataType DataType) []Option {
	var options []Option
	for _, t := range registry {
		if t.AcceptsType(dataType) {
			options = append(options, Option{Name: t.Name, Label: t.Label})
		}
	}
	return options
}

// Transformations returns every registered transformation in registry order.
// The returned slice may be modified but the transformations may not.
func Transformations() []*Transformation {
	return slices.Clone(registry)
}

func applyEncodeBase64(in Value) (Value, error) {
	text, ok := in.Text()
	if !ok {
		serialized, err := encodeJSON(in.Data(), false)
		if err != nil {
			return Value{}, errors.Wrap(err, "invalid input for Base64 encoding")
		}
		text = serialized
	}
	return TextValue(encodeBase64(text)), nil
}

func applyDecodeBase64(in Value) (Value, error) {
	text, ok := in.Text()
	if !ok {
		return Value{}, errors.New("invalid Base64 input: value is not text")
	}
	decoded, err := decodeBase64(text)
	if err != nil {
		return Value{}, errors.Wrap(err, "invalid Base64 input")
	}
	// A JSON payload is decoded so that it renders indented. Anything else,
	// YAML included, stays text and is classified by redetection.
	if Detect(decoded) != JSON {
		return TextValue(decoded), nil
	}
	data, err := decodeJSON(decoded)
	if err != nil {
		return TextValue(decoded), nil //nolint:nilerr // undecodable payloads stay raw text
	}
	return StructuredValue(data), nil
}

func applyConvertToYAML(in Value) (Value, error) {
	data := in.Data()
	if text, ok := in.Text(); ok {
		// JSON source text is converted by value; any other string is
		// emitted as a YAML scalar.
		if decoded, err := decodeJSON(text); err == nil {
			data = decoded
		}
	}
	out, err := encodeYAML(data)
	if err != nil {
		return Value{}, errors.Wrap(err, "error converting to YAML")
	}
	return TextValue(out), nil
}

func applyConvertToJSON(in Value) (Value, error) {
	text, ok := in.Text()
	if !ok {
		// already decoded
		return in, nil
	}
	data, err := decodeYAML(text)
	if err != nil {
		return Value{}, errors.Wrap(err, "error converting to JSON from YAML")
	}
	return StructuredValue(data), nil
}

func applyMinify(in Value) (Value, error) {
	return reencodeJSON(in, false, "invalid JSON input for minification")
}

func applyPrettyPrint(in Value) (Value, error) {
	return reencodeJSON(in, true, "invalid JSON input for pretty-print")
}

func reencodeJSON(in Value, pretty bool, failure string) (Value, error) {
	data := in.Data()
	if text, ok := in.Text(); ok {
		decoded, err := decodeJSON(text)
		if err != nil {
			return Value{}, errors.Wrap(err, failure)
		}
		data = decoded
	}
	out, err := encodeJSON(data, pretty)
	if err != nil {
		return Value{}, errors.Wrap(err, failure)
	}
	return TextValue(out), nil
}
