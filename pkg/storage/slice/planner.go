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
	"github.com/uber/sliceplan/pkg/storage/composite"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

// Bound is one resolved edge of the varying component.
type Bound struct {
	Value  TypedValue
	Marker RelationalMarker
}

// Resolution is the protocol independent outcome of planning a slice
// query. Output strategies render it into predicates or encoded keys.
type Resolution struct {
	// Fixed holds the normalized exact-match components.
	Fixed []TypedValue
	// Varying is the ranged component, nil when none was requested.
	Varying *ComponentSpec
	// Start is the resolved start bound, nil when open.
	Start *Bound
	// End is the resolved end bound, nil when open. Always nil when
	// Collapsed is set.
	End *Bound
	// Ordering is the scan direction over the varying component.
	Ordering OrderingMode
	// Collapsed is set when start and end named the same value and the
	// range became a single Equal match held in Start.
	Collapsed bool
	// Unbounded is set when no bound was given on the varying component.
	Unbounded bool
}

// Predicate is one column comparison of the textual form of a plan.
type Predicate struct {
	Column string
	Marker RelationalMarker
	Value  interface{}
}

// Operator returns the CQL operator of the predicate.
func (p Predicate) Operator() string {
	return p.Marker.Operator()
}

// RangePlan is the result of planning a slice query. Both shapes are
// rendered from the same Resolution.
type RangePlan struct {
	Resolution
	// Predicates are ordered fixed components first, then the start
	// bound, then the end bound.
	Predicates []Predicate
	// StartKey is the encoded bound the scan starts at, nil when open.
	StartKey composite.Key
	// EndKey is the encoded bound the scan ends at, nil when open.
	EndKey composite.Key
}

// Planner turns slice queries over one entity key into range plans. A
// Planner holds no mutable state and is safe for concurrent use.
type Planner struct {
	key     *EntityKey
	metrics *plannerMetrics
}

// NewPlanner returns a planner for the entity key.
func NewPlanner(key *EntityKey, scope tally.Scope) *Planner {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Planner{
		key: key,
		metrics: newPlannerMetrics(
			scope.SubScope("slice").Tagged(map[string]string{"entity": key.Name})),
	}
}

// Key returns the entity key the planner validates against.
func (p *Planner) Key() *EntityKey {
	return p.key
}

// Plan validates spec and renders both the predicate and the key shape.
func (p *Planner) Plan(spec SliceQuerySpec) (*RangePlan, error) {
	return p.PlanWith(spec, PredicateStrategy{}, KeyRangeStrategy{})
}

// PlanWith validates spec and renders it with the given strategies only.
func (p *Planner) PlanWith(
	spec SliceQuerySpec,
	strategies ...OutputStrategy,
) (*RangePlan, error) {
	res, err := p.Resolve(spec)
	if err != nil {
		return nil, err
	}
	plan := &RangePlan{Resolution: *res}
	for _, s := range strategies {
		if err := s.Render(res, plan); err != nil {
			p.metrics.fail(InvalidBound)
			return nil, err
		}
	}
	p.metrics.planSuccess.Inc(1)
	return plan, nil
}

// Resolve validates spec against the entity key and resolves the markers
// of its bounds.
func (p *Planner) Resolve(spec SliceQuerySpec) (*Resolution, error) {
	res, err := p.resolve(spec)
	if err != nil {
		kind, _ := KindOf(err)
		p.metrics.fail(kind)
		log.WithFields(log.Fields{
			"entity": p.key.Name,
			"kind":   kind.String(),
		}).WithError(err).Debug("slice query rejected")
		return nil, err
	}
	switch {
	case res.Unbounded:
		p.metrics.unbounded.Inc(1)
	case res.Collapsed:
		p.metrics.collapsed.Inc(1)
	}
	return res, nil
}

func (p *Planner) resolve(spec SliceQuerySpec) (*Resolution, error) {
	if !spec.Ordering.Valid() {
		return nil, newError(InvalidMode, -1, "undeclared ordering %s", spec.Ordering)
	}
	if !spec.Bounding.Valid() {
		return nil, newError(InvalidMode, -1, "undeclared bounding %s", spec.Bounding)
	}

	declared := len(p.key.Components)
	requested := len(spec.Fixed)
	if spec.Varying != nil {
		requested++
	}
	if requested > declared {
		return nil, newError(ComponentCountMismatch, -1,
			"%d components requested, entity %s declares %d",
			requested, p.key.Name, declared)
	}

	for i, v := range spec.Fixed {
		if v.IsAbsent() {
			return nil, newError(MissingFixedComponent, i,
				"fixed component %s has no value", p.key.Components[i].Name)
		}
		if err := p.checkPosition(v.Spec, i); err != nil {
			return nil, err
		}
	}
	fixed := make([]TypedValue, len(spec.Fixed))
	for i, v := range spec.Fixed {
		n, err := p.normalize(v, i)
		if err != nil {
			return nil, err
		}
		fixed[i] = n
	}

	res := &Resolution{
		Fixed:    fixed,
		Ordering: spec.Ordering,
	}

	if spec.Varying == nil {
		if !spec.Start.IsAbsent() || !spec.End.IsAbsent() {
			return nil, newError(InvalidBound, len(spec.Fixed),
				"bounds given without a varying component")
		}
		res.Unbounded = true
		return res, nil
	}

	pos := len(spec.Fixed)
	if err := p.checkPosition(*spec.Varying, pos); err != nil {
		return nil, err
	}
	varying := p.key.Components[pos]
	res.Varying = &varying

	var start, end *TypedValue
	for _, b := range []struct {
		in  TypedValue
		out **TypedValue
	}{{spec.Start, &start}, {spec.End, &end}} {
		if b.in.IsAbsent() {
			continue
		}
		if b.in.Spec.Position != pos || b.in.Spec.Name != varying.Name {
			return nil, newError(InvalidBound, pos,
				"bound on %s does not target varying component %s",
				b.in.Spec.Name, varying.Name)
		}
		n, err := p.normalize(b.in, pos)
		if err != nil {
			return nil, err
		}
		*b.out = &n
	}

	switch {
	case start == nil && end == nil:
		res.Unbounded = true
		return res, nil
	case start != nil && end != nil:
		cmp, err := varying.Codec.Compare(start.Value, end.Value)
		if err != nil {
			return nil, newError(InvalidBound, pos, "%v", err)
		}
		if cmp == 0 {
			res.Collapsed = true
			res.Start = &Bound{Value: *start, Marker: Equal}
			return res, nil
		}
	}

	startMarker, endMarker := ResolveEquality(spec.Bounding, spec.Ordering)
	if start != nil {
		res.Start = &Bound{Value: *start, Marker: startMarker}
	}
	if end != nil {
		res.End = &Bound{Value: *end, Marker: endMarker}
	}
	return res, nil
}

// checkPosition verifies that c is the declared component at position i.
func (p *Planner) checkPosition(c ComponentSpec, i int) error {
	declared, ok := p.key.Component(i)
	if !ok {
		return newError(ComponentCountMismatch, i,
			"entity %s declares %d components", p.key.Name, len(p.key.Components))
	}
	if c.Position != i || c.Name != declared.Name || c.Type != declared.Type {
		return newError(NonContiguousComponents, i,
			"got component %s at position %d, expected %s",
			c.Name, c.Position, declared.Name)
	}
	return nil
}

func (p *Planner) normalize(v TypedValue, i int) (TypedValue, error) {
	declared := p.key.Components[i]
	if v.IsNull() {
		return TypedValue{}, newError(InvalidBound, i,
			"component %s is null", declared.Name)
	}
	n, err := declared.Codec.Normalize(v.Value)
	if err != nil {
		return TypedValue{}, newError(InvalidBound, i, "%v", err)
	}
	return composite.Value(declared, n), nil
}

type plannerMetrics struct {
	scope       tally.Scope
	planSuccess tally.Counter
	collapsed   tally.Counter
	unbounded   tally.Counter
}

func newPlannerMetrics(scope tally.Scope) *plannerMetrics {
	return &plannerMetrics{
		scope:       scope,
		planSuccess: scope.Counter("plan.success"),
		collapsed:   scope.Counter("plan.fixed_key_collapse"),
		unbounded:   scope.Counter("plan.unbounded"),
	}
}

func (m *plannerMetrics) fail(kind ErrorKind) {
	m.scope.Tagged(map[string]string{"kind": kind.String()}).
		Counter("plan.fail").Inc(1)
}
