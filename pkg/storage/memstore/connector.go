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

package memstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/uber-go/tally"
	"go.uber.org/yarpc/yarpcerrors"

	"github.com/uber/sliceplan/pkg/storage/orm"
	"github.com/uber/sliceplan/pkg/storage/slice"
)

// ValueColumn is the column the row payload is returned under.
const ValueColumn = "value"

var _ orm.Connector = (*Connector)(nil)

// Connector serves slice requests from in-memory column families, one per
// entity. Column families are created on first write.
type Connector struct {
	sync.Mutex

	scope    tally.Scope
	families map[string]*ColumnFamily
}

// NewConnector returns an empty in-memory connector.
func NewConnector(scope tally.Scope) *Connector {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Connector{
		scope:    scope,
		families: make(map[string]*ColumnFamily),
	}
}

func (c *Connector) family(key *slice.EntityKey) *ColumnFamily {
	c.Lock()
	defer c.Unlock()
	cf, ok := c.families[key.Name]
	if !ok {
		cf = NewColumnFamily(key, c.scope)
		c.families[key.Name] = cf
	}
	return cf
}

// partitionKey encodes the partition values after checking them against the
// declared partition key columns. Each value is written as its Go type and
// its rendering, both length prefixed, so values of different types or
// containing separator bytes never share a partition.
func partitionKey(key *slice.EntityKey, partition []orm.Column) (string, error) {
	if len(partition) != len(key.PartitionKeys) {
		return "", yarpcerrors.InvalidArgumentErrorf(
			"entity %s needs %d partition key values, got %d",
			key.Name, len(key.PartitionKeys), len(partition))
	}
	var buf bytes.Buffer
	for i, col := range partition {
		if col.Name != key.PartitionKeys[i] {
			return "", yarpcerrors.InvalidArgumentErrorf(
				"partition key %d of %s is %s, got %s",
				i, key.Name, key.PartitionKeys[i], col.Name)
		}
		if col.Value == nil {
			return "", yarpcerrors.InvalidArgumentErrorf(
				"partition key %s of %s is null", col.Name, key.Name)
		}
		writeLengthPrefixed(&buf, fmt.Sprintf("%T", col.Value))
		writeLengthPrefixed(&buf, fmt.Sprintf("%v", col.Value))
	}
	return buf.String(), nil
}

func writeLengthPrefixed(buf *bytes.Buffer, s string) {
	var n [binary.MaxVarintLen64]byte
	buf.Write(n[:binary.PutUvarint(n[:], uint64(len(s)))])
	buf.WriteString(s)
}

// Put stores one row of the entity.
func (c *Connector) Put(
	ctx context.Context,
	key *slice.EntityKey,
	partition []orm.Column,
	clustering []interface{},
	value []byte,
) error {
	pk, err := partitionKey(key, partition)
	if err != nil {
		return err
	}
	return c.family(key).Put(pk, clustering, value)
}

// Slice implements orm.Connector. Rows carry the partition columns, the
// clustering columns and the payload under ValueColumn.
func (c *Connector) Slice(
	ctx context.Context,
	planner *slice.Planner,
	req *orm.SliceRequest,
) ([]map[string]interface{}, error) {
	key := planner.Key()
	pk, err := partitionKey(key, req.Partition)
	if err != nil {
		return nil, err
	}
	plan, err := planner.PlanWith(req.Spec, slice.KeyRangeStrategy{})
	if err != nil {
		return nil, yarpcerrors.InvalidArgumentErrorf("invalid slice query: %v", err)
	}
	rows, err := c.family(key).Slice(pk, plan, int(req.Limit))
	if err != nil {
		return nil, errors.Wrapf(err, "slice %s", key.Name)
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		m := make(map[string]interface{}, len(req.Partition)+len(r.Clustering)+1)
		for _, col := range req.Partition {
			m[col.Name] = col.Value
		}
		for _, v := range r.Clustering {
			m[v.Spec.Name] = v.Value
		}
		m[ValueColumn] = r.Value
		out = append(out, project(m, req.Columns))
	}
	return out, nil
}

func project(row map[string]interface{}, columns []string) map[string]interface{} {
	if len(columns) == 0 {
		return row
	}
	out := make(map[string]interface{}, len(columns))
	for _, c := range columns {
		if v, ok := row[c]; ok {
			out[c] = v
		}
	}
	return out
}
