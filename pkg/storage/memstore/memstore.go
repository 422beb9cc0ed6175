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

// Package memstore is an in-memory column family whose clustering columns
// are stored under composite row keys. Slices are served by scanning the
// encoded bounds of a range plan, so it exercises the binary composite
// protocol end to end.
package memstore

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/uber/sliceplan/pkg/storage/composite"
	"github.com/uber/sliceplan/pkg/storage/slice"
)

const _btreeDegree = 32

// Row is one stored row of a partition.
type Row struct {
	// Clustering holds the decoded clustering components.
	Clustering []composite.TypedValue
	// Key is the encoded row key.
	Key composite.Key
	// Value is the opaque row payload.
	Value []byte
}

type item struct {
	key   composite.Key
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// ColumnFamily stores the rows of one entity, grouped by partition.
// ColumnFamily is safe for concurrent use.
type ColumnFamily struct {
	sync.RWMutex

	key        *slice.EntityKey
	partitions map[string]*btree.BTreeG[item]
	metrics    *metrics
}

// NewColumnFamily returns an empty column family for the entity key.
func NewColumnFamily(key *slice.EntityKey, scope tally.Scope) *ColumnFamily {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &ColumnFamily{
		key:        key,
		partitions: make(map[string]*btree.BTreeG[item]),
		metrics: newMetrics(
			scope.SubScope("memstore").Tagged(map[string]string{"entity": key.Name})),
	}
}

// Put stores a row under the full clustering tuple, replacing any previous
// value.
func (cf *ColumnFamily) Put(
	partition string,
	clustering []interface{},
	value []byte,
) error {
	row, err := cf.key.Row(clustering...)
	if err != nil {
		return err
	}
	k, err := composite.EncodeRow(row)
	if err != nil {
		return errors.Wrap(err, "encode row key")
	}

	cf.Lock()
	defer cf.Unlock()
	tree, ok := cf.partitions[partition]
	if !ok {
		tree = btree.NewG[item](_btreeDegree, less)
		cf.partitions[partition] = tree
	}
	tree.ReplaceOrInsert(item{key: k, value: value})
	cf.metrics.put.Inc(1)
	return nil
}

// Delete removes a row. It returns false if the row did not exist.
func (cf *ColumnFamily) Delete(partition string, clustering []interface{}) (bool, error) {
	row, err := cf.key.Row(clustering...)
	if err != nil {
		return false, err
	}
	k, err := composite.EncodeRow(row)
	if err != nil {
		return false, errors.Wrap(err, "encode row key")
	}

	cf.Lock()
	defer cf.Unlock()
	tree, ok := cf.partitions[partition]
	if !ok {
		return false, nil
	}
	_, found := tree.Delete(item{key: k})
	return found, nil
}

// Len returns the number of rows in a partition.
func (cf *ColumnFamily) Len(partition string) int {
	cf.RLock()
	defer cf.RUnlock()
	if tree, ok := cf.partitions[partition]; ok {
		return tree.Len()
	}
	return 0
}

// Slice returns the rows of a partition selected by a range plan, in plan
// order. A non-positive limit returns every matching row.
func (cf *ColumnFamily) Slice(
	partition string,
	plan *slice.RangePlan,
	limit int,
) ([]Row, error) {
	return cf.Scan(partition, plan.StartKey, plan.EndKey, plan.Ordering, limit)
}

// Scan returns the rows whose keys lie between start and end, both
// inclusive. A nil key leaves that edge open. For Descending, start is the
// upper key and rows are returned from the top down.
func (cf *ColumnFamily) Scan(
	partition string,
	start composite.Key,
	end composite.Key,
	ordering slice.OrderingMode,
	limit int,
) ([]Row, error) {
	cf.RLock()
	defer cf.RUnlock()

	tree, ok := cf.partitions[partition]
	if !ok {
		cf.metrics.scan(0)
		return nil, nil
	}

	var (
		rows    []Row
		scanErr error
	)
	visit := func(it item) bool {
		if ordering == slice.Descending {
			if end != nil && bytes.Compare(it.key, end) < 0 {
				return false
			}
		} else if end != nil && bytes.Compare(it.key, end) > 0 {
			return false
		}
		values, err := composite.Decode(it.key, cf.key.Components)
		if err != nil {
			scanErr = errors.Wrapf(err, "decode row key %s", it.key)
			return false
		}
		rows = append(rows, Row{Clustering: values, Key: it.key, Value: it.value})
		return limit <= 0 || len(rows) < limit
	}

	switch {
	case ordering == slice.Descending && start == nil:
		tree.Descend(visit)
	case ordering == slice.Descending:
		tree.DescendLessOrEqual(item{key: start}, visit)
	case start == nil:
		tree.Ascend(visit)
	default:
		tree.AscendGreaterOrEqual(item{key: start}, visit)
	}

	if scanErr != nil {
		log.WithFields(log.Fields{
			"entity":    cf.key.Name,
			"partition": partition,
		}).WithError(scanErr).Error("memstore scan failed")
		cf.metrics.scanFail.Inc(1)
		return nil, scanErr
	}
	cf.metrics.scan(len(rows))
	return rows, nil
}

type metrics struct {
	put      tally.Counter
	scans    tally.Counter
	scanRows tally.Counter
	scanFail tally.Counter
}

func newMetrics(scope tally.Scope) *metrics {
	return &metrics{
		put:      scope.Counter("put"),
		scans:    scope.Counter("scan"),
		scanRows: scope.Counter("scan.rows"),
		scanFail: scope.Counter("scan.fail"),
	}
}

func (m *metrics) scan(rows int) {
	m.scans.Inc(1)
	m.scanRows.Inc(int64(rows))
}
