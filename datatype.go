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
	"fmt"
)

// DataType classifies a value at one point of a run.
type DataType int

const (
	// Text is anything not recognized as one of the other types.
	Text DataType = iota
	// JSON is a strictly valid JSON document.
	JSON
	// YAML is a YAML document holding a mapping or a sequence.
	YAML
	// Base64 is text made only of the standard Base64 alphabet that decodes
	// successfully.
	Base64
)

//nolint:gochecknoglobals
var dataTypeNames = [...]string{
	Text:   "text",
	JSON:   "json",
	YAML:   "yaml",
	Base64: "base64",
}

// DataTypes returns all data types.
func DataTypes() []DataType {
	return []DataType{JSON, YAML, Base64, Text}
}

func (t DataType) String() string {
	if t < 0 || int(t) >= len(dataTypeNames) {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return dataTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(dataTypeNames) {
		return nil, fmt.Errorf("unknown data type %d", int(t))
	}
	return []byte(dataTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDataType returns the data type with the given name: one of "json",
// "yaml", "base64" or "text".
func ParseDataType(name string) (DataType, error) {
	for i, n := range dataTypeNames {
		if n == name {
			return DataType(i), nil
		}
	}
	return Text, fmt.Errorf("unknown data type %q", name)
}
