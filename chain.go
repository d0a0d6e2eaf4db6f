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
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	// ErrStepNotFound is returned by [Chain.Remove] for an unknown step ID.
	ErrStepNotFound = errors.New("step not found")
	// ErrNotLastStep is returned by [Chain.Remove] when asked to remove a
	// step other than the most recently added one.
	ErrNotLastStep = errors.New("only the last step can be removed")
)

// Step is one element of a chain.
type Step struct {
	// ID uniquely identifies the step within its chain.
	ID string `json:"id"`
	// Transformation is the registry name of the step's transformation.
	Transformation string `json:"transformation"`
}

// Chain is an ordered list of steps that behaves as a stack: steps are
// appended at the end, and only the last one can be removed individually.
// The zero value is an empty chain. A Chain must not be mutated
// concurrently.
type Chain struct {
	steps []Step
}

// NewChain returns a chain holding the given steps. Steps without an ID are
// given one.
func NewChain(steps ...Step) (*Chain, error) {
	chain := &Chain{steps: make([]Step, 0, len(steps))}
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if _, err := Lookup(step.Transformation); err != nil {
			return nil, err
		}
		if step.ID == "" {
			step.ID = uuid.NewString()
		}
		if _, ok := seen[step.ID]; ok {
			return nil, errors.Errorf("duplicate step id %q", step.ID)
		}
		seen[step.ID] = struct{}{}
		chain.steps = append(chain.steps, step)
	}
	return chain, nil
}

// Append adds a step for the named transformation at the end of the chain.
func (c *Chain) Append(transformation string) (Step, error) {
	if _, err := Lookup(transformation); err != nil {
		return Step{}, err
	}
	step := Step{ID: uuid.NewString(), Transformation: transformation}
	c.steps = append(c.steps, step)
	return step, nil
}

// Remove removes the step with the given ID, which must be the last step.
func (c *Chain) Remove(id string) error {
	for i, step := range c.steps {
		if step.ID != id {
			continue
		}
		if i != len(c.steps)-1 {
			return errors.Wrapf(ErrNotLastStep, "step %q is at position %d of %d", id, i+1, len(c.steps))
		}
		c.Pop()
		return nil
	}
	return errors.Wrapf(ErrStepNotFound, "%q", id)
}

// Pop removes and returns the last step. It returns false if the chain is
// empty.
func (c *Chain) Pop() (Step, bool) {
	if len(c.steps) == 0 {
		return Step{}, false
	}
	last := c.steps[len(c.steps)-1]
	c.steps = c.steps[:len(c.steps)-1]
	return last, true
}

// Clear removes all steps.
func (c *Chain) Clear() {
	c.steps = nil
}

// Len returns the number of steps.
func (c *Chain) Len() int {
	return len(c.steps)
}

// Steps returns a copy of the steps in application order.
func (c *Chain) Steps() []Step {
	return append([]Step(nil), c.steps...)
}
