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
	"github.com/pkg/errors"
)

// Result is the outcome of a successful run.
type Result struct {
	// Output is the rendered final value: text verbatim, structured values
	// as JSON indented with two spaces.
	Output string `json:"output"`
	// Type is the type of the final value, i.e. the type the next appended
	// step would be gated on.
	Type DataType `json:"type"`
	// Trace holds the type observed before each step followed by the type
	// of the final value, so it always has len(steps)+1 entries.
	Trace []DataType `json:"trace"`
}

// Run applies steps, in order, to raw and returns the rendered result.
// A failed run returns an *Error and no output.
func Run(raw string, steps []Step) (string, error) {
	result, err := Execute(raw, steps)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}

// Execute is like [Run] but also reports the observed types.
//
// The raw input is detected and parsed, then each step is looked up,
// gated on the current type, and applied. The type of each intermediate
// value is re-detected from the value itself; the transformation's declared
// output type is never trusted, since e.g. decoding Base64 may produce JSON,
// YAML or plain text.
func Execute(raw string, steps []Step) (*Result, error) {
	dataType := Detect(raw)
	value, err := parseValue(raw, dataType)
	if err != nil {
		return nil, &Error{
			Kind:      ErrParse,
			StepIndex: -1,
			DataType:  dataType,
			Cause:     errors.Wrapf(err, "input cannot be parsed as %s", dataType),
		}
	}
	trace := make([]DataType, 0, len(steps)+1)
	for i, step := range steps {
		trace = append(trace, dataType)
		transformation, err := Lookup(step.Transformation)
		if err != nil {
			return nil, &Error{
				Kind:           ErrUnknownTransformation,
				StepIndex:      i,
				Transformation: step.Transformation,
				DataType:       dataType,
			}
		}
		if !transformation.AcceptsType(dataType) {
			return nil, &Error{
				Kind:           ErrInvalidChain,
				StepIndex:      i,
				Transformation: step.Transformation,
				DataType:       dataType,
			}
		}
		value, err = transformation.Apply(value)
		if err != nil {
			return nil, &Error{
				Kind:           ErrTransformation,
				StepIndex:      i,
				Transformation: step.Transformation,
				DataType:       dataType,
				Cause:          err,
			}
		}
		dataType = value.redetect()
	}
	trace = append(trace, dataType)
	output, err := value.Render()
	if err != nil {
		return nil, &Error{
			Kind:      ErrTransformation,
			StepIndex: len(steps) - 1,
			DataType:  dataType,
			Cause:     errors.Wrap(err, "output cannot be rendered"),
		}
	}
	return &Result{Output: output, Type: dataType, Trace: trace}, nil
}

// CurrentType returns the type of the value at the end of the chain, which
// decides what [ValidFor] offers as the next step. Steps are applied without
// gating; at the first failure the type observed so far is returned.
func CurrentType(raw string, steps []Step) DataType {
	dataType := Detect(raw)
	value, err := parseValue(raw, dataType)
	if err != nil {
		return dataType
	}
	for _, step := range steps {
		transformation, err := Lookup(step.Transformation)
		if err != nil {
			return dataType
		}
		value, err = transformation.Apply(value)
		if err != nil {
			return dataType
		}
		dataType = value.redetect()
	}
	return dataType
}
