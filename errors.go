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

	"github.com/pkg/errors"
)

var (
	// ErrParse indicates that the raw input could not be parsed as the type
	// it was detected as.
	ErrParse = errors.New("input cannot be parsed as its detected type")
	// ErrTransformation indicates that a transformation failed on an input of
	// an accepted type.
	ErrTransformation = errors.New("transformation failed")
	// ErrInvalidChain indicates that a step does not accept the type of the
	// value it was given.
	ErrInvalidChain = errors.New("invalid transformation chain")
	// ErrUnknownTransformation indicates that a step names a transformation
	// that is not in the registry.
	ErrUnknownTransformation = errors.New("unknown transformation")
	// ErrCacheMiss is matched by errors a [Cache] returns from Load when it
	// holds no entry for the key.
	ErrCacheMiss = errors.New("cache miss")
)

// Error describes why a run failed. Use errors.Is with one of the Err*
// sentinels to find out what kind of failure it was.
type Error struct {
	// Kind is one of ErrParse, ErrTransformation, ErrInvalidChain or
	// ErrUnknownTransformation.
	Kind error
	// StepIndex is the zero-based index of the failing step, or -1 if the
	// initial parse failed.
	StepIndex int
	// Transformation is the name of the failing step's transformation.
	Transformation string
	// DataType is the type of the value the failing step was given.
	DataType DataType
	// Cause is the underlying failure, if any.
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidChain:
		return fmt.Sprintf("%v: %s cannot be applied to %s", e.Kind, e.Transformation, e.DataType)
	case ErrUnknownTransformation:
		return fmt.Sprintf("%v: %q", e.Kind, e.Transformation)
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Kind.Error()
}

// Is makes errors.Is(err, ErrInvalidChain) and friends work.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// FormatError returns the message a user interface shows in place of the
// output of a failed run.
func FormatError(err error) string {
	return "Error: " + err.Error()
}
