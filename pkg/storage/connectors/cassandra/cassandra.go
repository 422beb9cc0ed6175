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

package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/uber/sliceplan/pkg/storage/orm"
	qb "github.com/uber/sliceplan/pkg/storage/querybuilder"
	"github.com/uber/sliceplan/pkg/storage/slice"

	"github.com/gocql/gocql"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	"go.uber.org/yarpc/yarpcerrors"
)

const (
	// operation tag for metrics
	sliceOp = "slice"
)

// Column holds a column name and value.
type Column = orm.Column

// SliceRequest is one slice read against an entity.
type SliceRequest = orm.SliceRequest

var _ orm.Connector = (*Connector)(nil)

// Connector serves slice queries from Cassandra. Range plans are folded
// into a conjunctive CQL filter in predicate order.
type Connector struct {
	runner QueryRunner
	// scope is the storage scope for metrics
	scope tally.Scope
	// executeSuccessScope is the storage scope for success metrics
	executeSuccessScope tally.Scope
	// executeFailScope is the storage scope for failure metrics
	executeFailScope tally.Scope
}

// NewConnector returns a connector executing statements through runner.
func NewConnector(runner QueryRunner, scope tally.Scope) *Connector {
	if scope == nil {
		scope = tally.NoopScope
	}
	storeScope := scope.SubScope("cql")
	return &Connector{
		runner: runner,
		scope:  storeScope,
		executeSuccessScope: storeScope.Tagged(
			map[string]string{"result": "success"}),
		executeFailScope: storeScope.Tagged(
			map[string]string{"result": "fail"}),
	}
}

// NewCassandraConnector opens a session from config and returns a
// connector over it.
func NewCassandraConnector(config *Config, scope tally.Scope) (*Connector, error) {
	session, err := CreateStoreSession(config)
	if err != nil {
		return nil, err
	}
	if scope == nil {
		scope = tally.NoopScope
	}
	return NewConnector(
		NewSessionRunner(session),
		scope.Tagged(map[string]string{"store": config.Keyspace}),
	), nil
}

// SliceStatement plans req with planner and builds the select statement
// for it. Planner validation errors are returned as InvalidArgument.
func (c *Connector) SliceStatement(
	planner *slice.Planner,
	req *SliceRequest,
) (qb.SelectBuilder, error) {
	plan, err := planner.PlanWith(req.Spec, slice.PredicateStrategy{})
	if err != nil {
		return qb.SelectBuilder{}, yarpcerrors.InvalidArgumentErrorf(
			"invalid slice query: %v", err)
	}
	stmt, err := BuildSelect(planner.Key(), req.Partition, plan, req.Columns, req.Limit)
	if err != nil {
		return qb.SelectBuilder{}, err
	}
	return stmt.PageSize(req.PageSize), nil
}

// BuildSelect builds the select statement of a planned slice. The partition
// equalities come first, followed by the plan predicates in order.
func BuildSelect(
	key *slice.EntityKey,
	partition []Column,
	plan *slice.RangePlan,
	columns []string,
	limit uint64,
) (qb.SelectBuilder, error) {
	if len(partition) != len(key.PartitionKeys) {
		return qb.SelectBuilder{}, yarpcerrors.InvalidArgumentErrorf(
			"entity %s needs %d partition key values, got %d",
			key.Name, len(key.PartitionKeys), len(partition))
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	stmt := qb.Select(columns...).From(key.Table)
	for i, col := range partition {
		if col.Name != key.PartitionKeys[i] {
			return qb.SelectBuilder{}, yarpcerrors.InvalidArgumentErrorf(
				"partition key %d of %s is %s, got %s",
				i, key.Name, key.PartitionKeys[i], col.Name)
		}
		stmt = stmt.Where(qb.Eq{col.Name: bindValue(col.Value)})
	}
	for _, p := range plan.Predicates {
		stmt = stmt.Where(predicateExpr(p))
	}

	if n := orderedColumns(key, plan); n > 0 {
		orderBys := make([]string, 0, n)
		for _, comp := range key.Components[:n] {
			orderBys = append(orderBys,
				fmt.Sprintf("%s %s", comp.Name, plan.Ordering))
		}
		stmt = stmt.OrderBy(orderBys...)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	return stmt, nil
}

// orderedColumns returns how many leading clustering columns the ORDER BY
// clause lists. Without a varying component only a descending plan needs
// one, so rows come back in the same order as a reverse key scan.
func orderedColumns(key *slice.EntityKey, plan *slice.RangePlan) int {
	switch {
	case plan.Varying != nil:
		return plan.Varying.Position + 1
	case plan.Ordering != slice.Descending:
		return 0
	case len(plan.Fixed) > 0:
		return len(plan.Fixed)
	case len(key.Components) > 0:
		return 1
	}
	return 0
}

// predicateExpr maps a plan predicate to its query builder expression.
func predicateExpr(p slice.Predicate) qb.Sqlizer {
	v := bindValue(p.Value)
	switch p.Marker {
	case slice.Equal:
		return qb.Eq{p.Column: v}
	case slice.GreaterThanOrEqual:
		return qb.GtOrEq{p.Column: v}
	case slice.LessThanOrEqual:
		return qb.LtOrEq{p.Column: v}
	case slice.GreaterThan:
		return qb.Gt{p.Column: v}
	case slice.LessThan:
		return qb.Lt{p.Column: v}
	}
	panic(fmt.Sprintf("unknown relational marker %s", p.Marker))
}

// bindValue converts normalized component values to types gocql binds.
func bindValue(v interface{}) interface{} {
	switch x := v.(type) {
	case uuid.UUID:
		var u gocql.UUID
		copy(u[:], x)
		return u
	}
	return v
}

// Slice plans and executes a slice read, returning rows as column maps.
func (c *Connector) Slice(
	ctx context.Context,
	planner *slice.Planner,
	req *SliceRequest,
) ([]map[string]interface{}, error) {
	table := planner.Key().Table

	stmt, err := c.SliceStatement(planner, req)
	if err != nil {
		sendCounters(c.executeFailScope, table, sliceOp, err)
		return nil, err
	}
	query, args, options, err := stmt.ToUql()
	if err != nil {
		sendCounters(c.executeFailScope, table, sliceOp, err)
		return nil, err
	}

	start := time.Now()
	pageSize, _ := options[qb.PageSizeOption].(int)
	rows, err := c.runner.SliceMap(ctx, query, args, pageSize)
	if err != nil {
		log.WithFields(log.Fields{
			"table": table,
			"query": query,
		}).WithError(err).Error("slice query failed")
		sendCounters(c.executeFailScope, table, sliceOp, err)
		return nil, err
	}

	sendLatency(c.scope, table, sliceOp, time.Since(start))
	sendCounters(c.executeSuccessScope, table, sliceOp, nil)
	return rows, nil
}

// getGocqlErrorTag gets a error tag for metrics based on gocql error
// We cannot just use err.Error() as a tag because it contains invalid
// characters like = : etc. which will be rejected by M3
func getGocqlErrorTag(err error) string {
	if yarpcerrors.IsInvalidArgument(err) {
		return "invalid_argument"
	}
	switch errors.Cause(err).(type) {
	case *gocql.RequestErrReadFailure:
		return "read_failure"
	case *gocql.RequestErrReadTimeout:
		return "read_timeout"
	case *gocql.RequestErrUnavailable:
		return "unavailable"
	case *gocql.RequestErrFunctionFailure:
		return "function_failure"
	case *gocql.RequestErrUnprepared:
		return "unprepared"
	default:
		return "unknown"
	}
}

// helper function to record call latency metric
func sendLatency(
	scope tally.Scope,
	table, operation string,
	d time.Duration,
) {
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
	})
	s.Timer("execute_latency").Record(d)
}

// helper function to record cql query success/failure metrics
func sendCounters(
	scope tally.Scope,
	table, operation string,
	err error,
) {
	errMsg := "none"
	if err != nil {
		errMsg = getGocqlErrorTag(err)
	}
	s := scope.Tagged(map[string]string{
		"table":     table,
		"operation": operation,
		"error":     errMsg,
	})
	s.Counter("execute").Inc(1)
}
