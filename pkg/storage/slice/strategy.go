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
	"github.com/pkg/errors"

	"github.com/uber/sliceplan/pkg/storage/composite"
)

// OutputStrategy renders a Resolution into one shape of a RangePlan.
type OutputStrategy interface {
	Render(res *Resolution, plan *RangePlan) error
}

// PredicateStrategy renders column comparisons for query builders.
type PredicateStrategy struct{}

// Render appends the fixed equalities followed by the start and end bounds.
func (PredicateStrategy) Render(res *Resolution, plan *RangePlan) error {
	preds := make([]Predicate, 0, len(res.Fixed)+2)
	for _, v := range res.Fixed {
		preds = append(preds, Predicate{
			Column: v.Spec.Name,
			Marker: Equal,
			Value:  v.Value,
		})
	}
	for _, b := range []*Bound{res.Start, res.End} {
		if b == nil {
			continue
		}
		preds = append(preds, Predicate{
			Column: b.Value.Spec.Name,
			Marker: b.Marker,
			Value:  b.Value.Value,
		})
	}
	plan.Predicates = preds
	return nil
}

// KeyRangeStrategy renders the pair of encoded composite keys a storage
// scan runs between. The scan is inclusive of both keys; inclusivity of the
// requested values is carried by the marker byte of each key. For a
// Descending plan the start key is the upper one and the scan runs in
// reverse.
type KeyRangeStrategy struct{}

// Render encodes the start and end keys of the plan.
func (KeyRangeStrategy) Render(res *Resolution, plan *RangePlan) error {
	// Open edges and a collapsed single value cover every key of their
	// prefix, which is what inclusive bounds resolve to.
	openStart, openEnd := ResolveEquality(InclusiveBounds, res.Ordering)

	startVals, startMarker := res.Fixed, openStart
	endVals, endMarker := res.Fixed, openEnd
	switch {
	case res.Collapsed:
		startVals = withValue(res.Fixed, res.Start.Value)
		endVals = startVals
	default:
		if res.Start != nil {
			startVals = withValue(res.Fixed, res.Start.Value)
			startMarker = res.Start.Marker
		}
		if res.End != nil {
			endVals = withValue(res.Fixed, res.End.Value)
			endMarker = res.End.Marker
		}
	}

	start, err := boundKey(startVals, startMarker)
	if err != nil {
		return errors.Wrap(err, "encode start key")
	}
	end, err := boundKey(endVals, endMarker)
	if err != nil {
		return errors.Wrap(err, "encode end key")
	}
	plan.StartKey = start
	plan.EndKey = end
	return nil
}

func withValue(fixed []TypedValue, v TypedValue) []TypedValue {
	out := make([]TypedValue, 0, len(fixed)+1)
	out = append(out, fixed...)
	return append(out, v)
}

// boundKey returns nil for an empty tuple, which leaves that edge of the
// scan open.
func boundKey(vals []TypedValue, marker RelationalMarker) (composite.Key, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	return composite.EncodeBound(vals, marker)
}
