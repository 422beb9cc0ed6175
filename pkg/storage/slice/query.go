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

	"github.com/uber/sliceplan/pkg/storage/composite"
	"github.com/uber/sliceplan/pkg/storage/composite/codec"
)

// ComponentSpec describes one clustering component.
type ComponentSpec = composite.ComponentSpec

// TypedValue binds a value, a null, or nothing to a component.
type TypedValue = composite.TypedValue

// ClusteringColumn declares one clustering column of an entity.
type ClusteringColumn struct {
	Name string
	Type codec.LogicalType
}

// EntityKey is the key declaration of an entity: its partition key columns
// and its ordered clustering components. It is built once when the schema
// is registered and shared read-only afterwards.
type EntityKey struct {
	// Name of the entity.
	Name string
	// Table holding the entity rows.
	Table string
	// PartitionKeys are the partition key column names.
	PartitionKeys []string
	// Components are the clustering components in declaration order.
	Components []ComponentSpec
}

// NewEntityKey resolves codecs for the clustering columns from registry.
func NewEntityKey(
	name string,
	table string,
	partitionKeys []string,
	columns []ClusteringColumn,
	registry *codec.Registry,
) (*EntityKey, error) {
	if len(partitionKeys) == 0 {
		return nil, fmt.Errorf("entity %q declares no partition key", name)
	}
	seen := make(map[string]struct{}, len(partitionKeys)+len(columns))
	for _, pk := range partitionKeys {
		if _, ok := seen[pk]; ok {
			return nil, fmt.Errorf("entity %q repeats column %q", name, pk)
		}
		seen[pk] = struct{}{}
	}
	comps := make([]ComponentSpec, 0, len(columns))
	for i, col := range columns {
		if _, ok := seen[col.Name]; ok {
			return nil, fmt.Errorf("entity %q repeats column %q", name, col.Name)
		}
		seen[col.Name] = struct{}{}
		spec, err := composite.NewComponentSpec(i, col.Name, col.Type, registry)
		if err != nil {
			return nil, fmt.Errorf("entity %q: %v", name, err)
		}
		comps = append(comps, spec)
	}
	if table == "" {
		table = name
	}
	return &EntityKey{
		Name:          name,
		Table:         table,
		PartitionKeys: partitionKeys,
		Components:    comps,
	}, nil
}

// Component returns the clustering component at position i.
func (k *EntityKey) Component(i int) (ComponentSpec, bool) {
	if i < 0 || i >= len(k.Components) {
		return ComponentSpec{}, false
	}
	return k.Components[i], true
}

// Row binds a full clustering tuple to the components of the key.
func (k *EntityKey) Row(values ...interface{}) ([]TypedValue, error) {
	if len(values) != len(k.Components) {
		return nil, newError(ComponentCountMismatch, -1,
			"%d values for %d clustering components",
			len(values), len(k.Components))
	}
	row := make([]TypedValue, len(values))
	for i, v := range values {
		row[i] = composite.Value(k.Components[i], v)
	}
	return row, nil
}

// SliceQuerySpec describes one slice query over the clustering key. It is
// immutable once built and consumed by a single Plan call.
type SliceQuerySpec struct {
	// Fixed components are matched exactly, in key order from position 0.
	Fixed []TypedValue
	// Varying is the component a range is requested on, nil for none.
	Varying *ComponentSpec
	// Start is the first value wanted; absent for an open start.
	Start TypedValue
	// End is the last value wanted; absent for an open end.
	End TypedValue
	// Ordering is the scan direction over the varying component.
	Ordering OrderingMode
	// Bounding declares which edges include their value.
	Bounding BoundingMode
}

// SpecBuilder assembles a SliceQuerySpec against an entity key.
type SpecBuilder struct {
	key  *EntityKey
	spec SliceQuerySpec
}

// NewQuery starts a slice query whose fixed components take the given
// values, in key order.
func (k *EntityKey) NewQuery(fixed ...interface{}) *SpecBuilder {
	b := &SpecBuilder{key: k}
	for i, v := range fixed {
		b.spec.Fixed = append(b.spec.Fixed, composite.Value(b.componentAt(i), v))
	}
	return b
}

// componentAt returns the declared component at i, or a codec-less spec that
// fails validation when i is past the declared key.
func (b *SpecBuilder) componentAt(i int) ComponentSpec {
	if c, ok := b.key.Component(i); ok {
		return c
	}
	return ComponentSpec{Position: i, Name: fmt.Sprintf("undeclared_%d", i)}
}

func (b *SpecBuilder) varying() ComponentSpec {
	if b.spec.Varying == nil {
		c := b.componentAt(len(b.spec.Fixed))
		b.spec.Varying = &c
	}
	return *b.spec.Varying
}

// AbsentFixed appends an open fixed component. Such a query never plans.
func (b *SpecBuilder) AbsentFixed() *SpecBuilder {
	b.spec.Fixed = append(b.spec.Fixed,
		composite.Absent(b.componentAt(len(b.spec.Fixed))))
	return b
}

// Varying declares the next component as varying without bounding it.
func (b *SpecBuilder) Varying() *SpecBuilder {
	b.varying()
	return b
}

// From sets the start bound.
func (b *SpecBuilder) From(v interface{}) *SpecBuilder {
	b.spec.Start = composite.Value(b.varying(), v)
	return b
}

// To sets the end bound.
func (b *SpecBuilder) To(v interface{}) *SpecBuilder {
	b.spec.End = composite.Value(b.varying(), v)
	return b
}

// Range sets both bounds.
func (b *SpecBuilder) Range(start, end interface{}) *SpecBuilder {
	return b.From(start).To(end)
}

// Ordering sets the scan direction.
func (b *SpecBuilder) Ordering(o OrderingMode) *SpecBuilder {
	b.spec.Ordering = o
	return b
}

// Bounding sets the bounding mode.
func (b *SpecBuilder) Bounding(m BoundingMode) *SpecBuilder {
	b.spec.Bounding = m
	return b
}

// Build returns the assembled spec.
func (b *SpecBuilder) Build() SliceQuerySpec {
	spec := b.spec
	spec.Fixed = append([]TypedValue(nil), b.spec.Fixed...)
	if b.spec.Varying != nil {
		v := *b.spec.Varying
		spec.Varying = &v
	}
	return spec
}
