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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEqualityTable(t *testing.T) {
	tt := []struct {
		ordering OrderingMode
		bounding BoundingMode
		start    RelationalMarker
		end      RelationalMarker
	}{
		{Ascending, InclusiveBounds, GreaterThanOrEqual, LessThanOrEqual},
		{Ascending, ExclusiveBounds, GreaterThan, LessThan},
		{Ascending, InclusiveStartOnly, GreaterThanOrEqual, LessThan},
		{Ascending, InclusiveEndOnly, GreaterThan, LessThanOrEqual},
		{Descending, InclusiveBounds, LessThanOrEqual, GreaterThanOrEqual},
		{Descending, ExclusiveBounds, LessThan, GreaterThan},
		{Descending, InclusiveStartOnly, LessThanOrEqual, GreaterThan},
		{Descending, InclusiveEndOnly, LessThan, GreaterThanOrEqual},
	}
	for _, test := range tt {
		start, end := ResolveEquality(test.bounding, test.ordering)
		assert.Equal(t, test.start, start, "%s/%s", test.ordering, test.bounding)
		assert.Equal(t, test.end, end, "%s/%s", test.ordering, test.bounding)
	}
}

func TestResolveEqualityPanicsOnUndeclaredMode(t *testing.T) {
	assert.Panics(t, func() { ResolveEquality(BoundingMode(9), Ascending) })
	assert.Panics(t, func() { ResolveEquality(InclusiveBounds, OrderingMode(-1)) })
}

func TestParseModes(t *testing.T) {
	o, err := ParseOrdering("DESC")
	assert.NoError(t, err)
	assert.Equal(t, Descending, o)
	o, err = ParseOrdering("ascending")
	assert.NoError(t, err)
	assert.Equal(t, Ascending, o)
	_, err = ParseOrdering("sideways")
	assert.Error(t, err)

	for in, want := range map[string]BoundingMode{
		"inclusive":                  InclusiveBounds,
		"EXCLUSIVE_BOUNDS":           ExclusiveBounds,
		"start":                      InclusiveStartOnly,
		"inclusive_end_bound_only":   InclusiveEndOnly,
		"INCLUSIVE_START_BOUND_ONLY": InclusiveStartOnly,
	} {
		b, err := ParseBounding(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, b, in)
	}
	_, err = ParseBounding("half")
	assert.Error(t, err)

	assert.Equal(t, "ASC", Ascending.String())
	assert.Equal(t, "INCLUSIVE_END_BOUND_ONLY", InclusiveEndOnly.String())
	assert.Equal(t, "OrderingMode(5)", OrderingMode(5).String())
	assert.False(t, BoundingMode(4).Valid())
}
