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

package composite

import (
	"fmt"

	"github.com/uber/sliceplan/pkg/storage/composite/codec"
)

// RelationalMarker is the comparison applied to one component of a bound.
type RelationalMarker int

const (
	// Equal matches the component value exactly.
	Equal RelationalMarker = iota
	// GreaterThanOrEqual matches values at or after the component value.
	GreaterThanOrEqual
	// LessThanOrEqual matches values at or before the component value.
	LessThanOrEqual
	// GreaterThan matches values strictly after the component value.
	GreaterThan
	// LessThan matches values strictly before the component value.
	LessThan
)

// String returns the marker name.
func (m RelationalMarker) String() string {
	switch m {
	case Equal:
		return "EQUAL"
	case GreaterThanOrEqual:
		return "GREATER_THAN_EQUAL"
	case LessThanOrEqual:
		return "LESS_THAN_EQUAL"
	case GreaterThan:
		return "GREATER_THAN"
	case LessThan:
		return "LESS_THAN"
	}
	return fmt.Sprintf("RelationalMarker(%d)", int(m))
}

// Operator returns the CQL operator for the marker.
func (m RelationalMarker) Operator() string {
	switch m {
	case Equal:
		return "="
	case GreaterThanOrEqual:
		return ">="
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	}
	panic(fmt.Sprintf("unknown relational marker %d", int(m)))
}

// EOC is the end-of-component byte appended to the final component of a
// bound. Its value places the bound relative to every stored key that
// shares the bound's components.
//
// The wire values are 0x00, 0x01 and 0xff:
//
//	0x00  >= and <   (EOCLower)
//	0x01  =          (EOCEqual, every row key ends with it)
//	0xff  <= and >   (EOCUpper)
//
// They are not the legacy 0/1/2 marker ordinals. Those cannot place an
// inclusive upper bound after a stored row key that carries its own
// trailing byte, so keys written with 0/1/2 markers do not scan correctly
// against these bounds.
type EOC byte

const (
	// EOCLower sorts before every stored key with the same components.
	EOCLower EOC = 0x00
	// EOCEqual is the byte stored row keys end with.
	EOCEqual EOC = 0x01
	// EOCUpper sorts after every stored key with the same components.
	EOCUpper EOC = 0xff
)

// EOC returns the end-of-component byte for the marker. The byte only
// depends on the marker: a bound that must include the value from below
// (>=) or exclude it from above (<) sits before the value's keys, a bound
// that includes it from above (<=) or excludes it from below (>) sits
// after them.
func (m RelationalMarker) EOC() EOC {
	switch m {
	case Equal:
		return EOCEqual
	case GreaterThanOrEqual, LessThan:
		return EOCLower
	case LessThanOrEqual, GreaterThan:
		return EOCUpper
	}
	panic(fmt.Sprintf("unknown relational marker %d", int(m)))
}

func validEOC(b byte) bool {
	switch EOC(b) {
	case EOCLower, EOCEqual, EOCUpper:
		return true
	}
	return false
}

// ComponentSpec describes one clustering component of an entity key.
type ComponentSpec struct {
	// Position of the component within the clustering key, starting at 0.
	Position int
	// Name is the column name of the component.
	Name string
	// Type is the logical type of the component.
	Type codec.LogicalType
	// Codec encodes values of Type. Resolved once when the spec is built.
	Codec codec.Codec
}

// NewComponentSpec resolves the codec for a component from the registry.
func NewComponentSpec(
	position int,
	name string,
	t codec.LogicalType,
	registry *codec.Registry,
) (ComponentSpec, error) {
	if position < 0 {
		return ComponentSpec{}, fmt.Errorf(
			"component %q has negative position %d", name, position)
	}
	c, err := registry.Lookup(t)
	if err != nil {
		return ComponentSpec{}, err
	}
	return ComponentSpec{
		Position: position,
		Name:     name,
		Type:     t,
		Codec:    c,
	}, nil
}

// TypedValue binds a value to a component. A TypedValue is either absent
// (open ended), a present null, or a present value.
type TypedValue struct {
	Spec    ComponentSpec
	Value   interface{}
	present bool
}

// Value returns a present value for the component.
func Value(spec ComponentSpec, v interface{}) TypedValue {
	return TypedValue{Spec: spec, Value: v, present: true}
}

// Absent returns an open ended value for the component.
func Absent(spec ComponentSpec) TypedValue {
	return TypedValue{Spec: spec}
}

// IsAbsent returns true when the value was left open.
func (v TypedValue) IsAbsent() bool {
	return !v.present
}

// IsNull returns true for a present null value.
func (v TypedValue) IsNull() bool {
	return v.present && v.Value == nil
}

func (v TypedValue) String() string {
	if !v.present {
		return fmt.Sprintf("%s=<absent>", v.Spec.Name)
	}
	return fmt.Sprintf("%s=%v", v.Spec.Name, v.Value)
}
