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
)

type markerPair struct {
	start RelationalMarker
	end   RelationalMarker
}

// equalityTable maps (ordering, bounding) to the markers applied to the
// start and the end of a range. Start and end are the first and last values
// the caller wants; the table absorbs the flip of scan direction for
// Descending.
var equalityTable = [2][4]markerPair{
	Ascending: {
		InclusiveBounds:    {GreaterThanOrEqual, LessThanOrEqual},
		ExclusiveBounds:    {GreaterThan, LessThan},
		InclusiveStartOnly: {GreaterThanOrEqual, LessThan},
		InclusiveEndOnly:   {GreaterThan, LessThanOrEqual},
	},
	Descending: {
		InclusiveBounds:    {LessThanOrEqual, GreaterThanOrEqual},
		ExclusiveBounds:    {LessThan, GreaterThan},
		InclusiveStartOnly: {LessThanOrEqual, GreaterThan},
		InclusiveEndOnly:   {LessThan, GreaterThanOrEqual},
	},
}

// ResolveEquality returns the markers for the start and end bound of a
// range scanned with the given ordering. It panics on undeclared modes;
// callers validate modes first.
func ResolveEquality(
	bounding BoundingMode,
	ordering OrderingMode,
) (start RelationalMarker, end RelationalMarker) {
	if !ordering.Valid() || !bounding.Valid() {
		panic(fmt.Sprintf("no equality for %s/%s", ordering, bounding))
	}
	p := equalityTable[ordering][bounding]
	return p.start, p.end
}
