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
	"strings"

	"github.com/uber/sliceplan/pkg/storage/composite"
)

// OrderingMode is the direction in which the varying component is scanned.
type OrderingMode int

const (
	// Ascending scans from the smallest value up.
	Ascending OrderingMode = iota
	// Descending scans from the largest value down.
	Descending
)

func (o OrderingMode) String() string {
	switch o {
	case Ascending:
		return "ASC"
	case Descending:
		return "DESC"
	}
	return fmt.Sprintf("OrderingMode(%d)", int(o))
}

// Valid returns true for a declared ordering.
func (o OrderingMode) Valid() bool {
	return o == Ascending || o == Descending
}

// ParseOrdering reads an ordering from its textual form.
func ParseOrdering(s string) (OrderingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown ordering %q", s)
}

// BoundingMode declares which edges of a range include their value.
type BoundingMode int

const (
	// InclusiveBounds includes both the start and the end value.
	InclusiveBounds BoundingMode = iota
	// ExclusiveBounds excludes both the start and the end value.
	ExclusiveBounds
	// InclusiveStartOnly includes the start value and excludes the end.
	InclusiveStartOnly
	// InclusiveEndOnly excludes the start value and includes the end.
	InclusiveEndOnly
)

func (b BoundingMode) String() string {
	switch b {
	case InclusiveBounds:
		return "INCLUSIVE_BOUNDS"
	case ExclusiveBounds:
		return "EXCLUSIVE_BOUNDS"
	case InclusiveStartOnly:
		return "INCLUSIVE_START_BOUND_ONLY"
	case InclusiveEndOnly:
		return "INCLUSIVE_END_BOUND_ONLY"
	}
	return fmt.Sprintf("BoundingMode(%d)", int(b))
}

// Valid returns true for a declared bounding mode.
func (b BoundingMode) Valid() bool {
	return b >= InclusiveBounds && b <= InclusiveEndOnly
}

// ParseBounding reads a bounding mode from its textual form.
func ParseBounding(s string) (BoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inclusive", "inclusive_bounds":
		return InclusiveBounds, nil
	case "exclusive", "exclusive_bounds":
		return ExclusiveBounds, nil
	case "start", "inclusive_start", "inclusive_start_bound_only":
		return InclusiveStartOnly, nil
	case "end", "inclusive_end", "inclusive_end_bound_only":
		return InclusiveEndOnly, nil
	}
	return 0, fmt.Errorf("unknown bounding mode %q", s)
}

// RelationalMarker is the comparison resolved for one bound.
type RelationalMarker = composite.RelationalMarker

// Relational markers, re-exported for callers of this package.
const (
	Equal              = composite.Equal
	GreaterThanOrEqual = composite.GreaterThanOrEqual
	LessThanOrEqual    = composite.LessThanOrEqual
	GreaterThan        = composite.GreaterThan
	LessThan           = composite.LessThan
)
