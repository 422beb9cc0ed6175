// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slice

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies slice query validation failures.
type ErrorKind int

const (
	// ComponentCountMismatch means more fixed and varying components were
	// supplied than the entity key declares.
	ComponentCountMismatch ErrorKind = iota + 1
	// MissingFixedComponent means an exact-match component was left open.
	MissingFixedComponent
	// NonContiguousComponents means the supplied components do not follow
	// the declared key order starting at position 0.
	NonContiguousComponents
	// InvalidBound means a bound or fixed value was rejected by its codec,
	// was null, or was given without a varying component.
	InvalidBound
	// InvalidMode means an undeclared ordering or bounding mode was used.
	InvalidMode
)

func (k ErrorKind) String() string {
	switch k {
	case ComponentCountMismatch:
		return "component_count_mismatch"
	case MissingFixedComponent:
		return "missing_fixed_component"
	case NonContiguousComponents:
		return "non_contiguous_components"
	case InvalidBound:
		return "invalid_bound"
	case InvalidMode:
		return "invalid_mode"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// SliceQueryError is returned by the planner when a slice query does not
// fit the entity key. These are programming errors and are never retried.
type SliceQueryError struct {
	Kind ErrorKind
	// Position of the offending component, -1 when not tied to one.
	Position int
	Message  string
}

func (e *SliceQueryError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("slice query %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("slice query %s at component %d: %s",
		e.Kind, e.Position, e.Message)
}

func newError(kind ErrorKind, position int, format string, args ...interface{}) error {
	return &SliceQueryError{
		Kind:     kind,
		Position: position,
		Message:  fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of a slice query error, looking through wrapping.
func KindOf(err error) (ErrorKind, bool) {
	if e, ok := errors.Cause(err).(*SliceQueryError); ok {
		return e.Kind, true
	}
	return 0, false
}

func isKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsComponentCountMismatch returns true for ComponentCountMismatch errors.
func IsComponentCountMismatch(err error) bool {
	return isKind(err, ComponentCountMismatch)
}

// IsMissingFixedComponent returns true for MissingFixedComponent errors.
func IsMissingFixedComponent(err error) bool {
	return isKind(err, MissingFixedComponent)
}

// IsNonContiguousComponents returns true for NonContiguousComponents errors.
func IsNonContiguousComponents(err error) bool {
	return isKind(err, NonContiguousComponents)
}

// IsInvalidBound returns true for InvalidBound errors.
func IsInvalidBound(err error) bool {
	return isKind(err, InvalidBound)
}

// IsInvalidMode returns true for InvalidMode errors.
func IsInvalidMode(err error) bool {
	return isKind(err, InvalidMode)
}
