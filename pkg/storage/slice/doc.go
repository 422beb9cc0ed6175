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

/*
Package slice plans range reads over the clustering key of a wide row.

A slice query names a prefix of fixed clustering components, at most one
varying component after them, optional start and end values for the varying
component, a scan direction and a bounding mode. The Planner validates the
query against the declared EntityKey and resolves it into a RangePlan:

  * Predicates - one relational predicate per constrained column, in key
                 order. The Cassandra connector folds these into a CQL
                 WHERE clause.

  * StartKey/EndKey - composite keys whose trailing end-of-component byte
                 makes a byte-wise scan include or exclude the edges. The
                 memstore connector scans with these.

Which edge is inclusive follows from the ordering and bounding modes through
ResolveEquality. Equal start and end values collapse into a single
equality on the varying component.
*/
package slice
