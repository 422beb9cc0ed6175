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

package orm

import (
	"context"

	"github.com/uber/sliceplan/pkg/storage/slice"
)

// Column holds a column name and value.
type Column struct {
	// Name of the column
	Name string
	// Value of the column
	Value interface{}
}

// SliceRequest is one slice read against an entity.
type SliceRequest struct {
	// Partition binds every partition key column, in declaration order.
	Partition []Column
	// Spec is the slice over the clustering key.
	Spec slice.SliceQuerySpec
	// Columns to read; every column when empty.
	Columns []string
	// Limit caps the number of rows; 0 reads all.
	Limit uint64
	// PageSize overrides the backend page size when positive.
	PageSize int
}

// Connector is the interface that must be implemented for a backend service
type Connector interface {
	// Slice plans req with planner and returns the selected rows as column
	// maps, in the order of the slice.
	Slice(
		ctx context.Context,
		planner *slice.Planner,
		req *SliceRequest,
	) ([]map[string]interface{}, error)
}
