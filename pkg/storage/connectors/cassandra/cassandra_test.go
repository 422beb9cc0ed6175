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
	"testing"

	"github.com/uber/sliceplan/pkg/storage/composite/codec"
	"github.com/uber/sliceplan/pkg/storage/connectors/cassandra/mocks"
	"github.com/uber/sliceplan/pkg/storage/memstore"
	"github.com/uber/sliceplan/pkg/storage/slice"

	"github.com/gocql/gocql"
	"github.com/golang/mock/gomock"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"
	"go.uber.org/yarpc/yarpcerrors"
)

type ConnectorTestSuite struct {
	suite.Suite

	ctrl      *gomock.Controller
	runner    *mocks.MockQueryRunner
	scope     tally.TestScope
	connector *Connector
	key       *slice.EntityKey
	planner   *slice.Planner
}

func TestConnectorTestSuite(t *testing.T) {
	suite.Run(t, new(ConnectorTestSuite))
}

func (suite *ConnectorTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.runner = mocks.NewMockQueryRunner(suite.ctrl)
	suite.scope = tally.NewTestScope("", nil)
	suite.connector = NewConnector(suite.runner, suite.scope)

	key, err := slice.NewEntityKey(
		"events",
		"events_by_user",
		[]string{"user"},
		[]slice.ClusteringColumn{
			{Name: "day", Type: codec.Int},
			{Name: "seq", Type: codec.BigInt},
			{Name: "kind", Type: codec.Text},
		},
		codec.Default(),
	)
	suite.NoError(err)
	suite.key = key
	suite.planner = slice.NewPlanner(key, suite.scope)
}

func (suite *ConnectorTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ConnectorTestSuite) partition() []Column {
	return []Column{{Name: "user", Value: "u1"}}
}

func (suite *ConnectorTestSuite) TestSliceStatementAscending() {
	stmt, err := suite.connector.SliceStatement(suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec: suite.key.NewQuery(20).
			Range(int64(5), int64(9)).
			Bounding(slice.InclusiveStartOnly).
			Build(),
		Limit: 100,
	})
	suite.NoError(err)

	sql, args, err := stmt.ToSQL()
	suite.NoError(err)
	suite.Equal(
		"SELECT * FROM events_by_user WHERE user = ? AND day = ? AND seq >= ? AND seq < ? "+
			"ORDER BY day ASC, seq ASC LIMIT 100",
		sql)
	suite.Equal([]interface{}{"u1", int32(20), int64(5), int64(9)}, args)
}

func (suite *ConnectorTestSuite) TestSliceStatementDescending() {
	stmt, err := suite.connector.SliceStatement(suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec: suite.key.NewQuery(20).
			Range(int64(9), int64(5)).
			Ordering(slice.Descending).
			Bounding(slice.ExclusiveBounds).
			Build(),
		Columns: []string{"seq", "payload"},
	})
	suite.NoError(err)

	sql, args, err := stmt.ToSQL()
	suite.NoError(err)
	suite.Equal(
		"SELECT seq, payload FROM events_by_user WHERE user = ? AND day = ? "+
			"AND seq < ? AND seq > ? ORDER BY day DESC, seq DESC",
		sql)
	suite.Equal([]interface{}{"u1", int32(20), int64(9), int64(5)}, args)
}

func (suite *ConnectorTestSuite) TestSliceStatementCollapsed() {
	stmt, err := suite.connector.SliceStatement(suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec: suite.key.NewQuery(20).
			Range(int64(7), int64(7)).
			Bounding(slice.ExclusiveBounds).
			Build(),
	})
	suite.NoError(err)

	sql, args, err := stmt.ToSQL()
	suite.NoError(err)
	suite.Equal(
		"SELECT * FROM events_by_user WHERE user = ? AND day = ? AND seq = ? "+
			"ORDER BY day ASC, seq ASC",
		sql)
	suite.Equal([]interface{}{"u1", int32(20), int64(7)}, args)
}

func (suite *ConnectorTestSuite) TestSliceStatementWholePartition() {
	stmt, err := suite.connector.SliceStatement(suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec:      suite.key.NewQuery().Build(),
	})
	suite.NoError(err)

	sql, args, err := stmt.ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events_by_user WHERE user = ?", sql)
	suite.Equal([]interface{}{"u1"}, args)
}

// A descending plan without a varying component orders the CQL rows the
// same way the key scan of the memstore does.
func (suite *ConnectorTestSuite) TestDescendingWithoutVaryingMatchesKeyScan() {
	cf := memstore.NewColumnFamily(suite.key, tally.NoopScope)
	for _, row := range [][]interface{}{
		{20, int64(1), "a"},
		{20, int64(2), "a"},
		{20, int64(3), "a"},
		{21, int64(1), "a"},
	} {
		suite.NoError(cf.Put("u1", row, nil))
	}

	tt := map[string]struct {
		spec slice.SliceQuerySpec
		sql  string
		seqs []int64
	}{
		"fixed prefix": {
			spec: suite.key.NewQuery(20).Ordering(slice.Descending).Build(),
			sql: "SELECT * FROM events_by_user WHERE user = ? AND day = ? " +
				"ORDER BY day DESC",
			seqs: []int64{3, 2, 1},
		},
		"whole partition": {
			spec: suite.key.NewQuery().Ordering(slice.Descending).Build(),
			sql: "SELECT * FROM events_by_user WHERE user = ? " +
				"ORDER BY day DESC",
			seqs: []int64{1, 3, 2, 1},
		},
		"fixed prefix ascending": {
			spec: suite.key.NewQuery(20).Build(),
			sql:  "SELECT * FROM events_by_user WHERE user = ? AND day = ?",
			seqs: []int64{1, 2, 3},
		},
	}
	for name, test := range tt {
		plan, err := suite.planner.Plan(test.spec)
		suite.NoError(err, name)

		stmt, err := BuildSelect(suite.key, suite.partition(), plan, nil, 0)
		suite.NoError(err, name)
		sql, _, err := stmt.ToSQL()
		suite.NoError(err, name)
		suite.Equal(test.sql, sql, name)

		rows, err := cf.Slice("u1", plan, 0)
		suite.NoError(err, name)
		var seqs []int64
		for _, r := range rows {
			seqs = append(seqs, r.Clustering[1].Value.(int64))
		}
		suite.Equal(test.seqs, seqs, name)
	}
}

func (suite *ConnectorTestSuite) TestSliceStatementInvalidSpec() {
	_, err := suite.connector.SliceStatement(suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec:      suite.key.NewQuery(1, 2, "a", 4).Build(),
	})
	suite.Error(err)
	suite.True(yarpcerrors.IsInvalidArgument(err))
}

func (suite *ConnectorTestSuite) TestBuildSelectPartitionMismatch() {
	plan, err := suite.planner.Plan(suite.key.NewQuery().Build())
	suite.NoError(err)

	_, err = BuildSelect(suite.key, nil, plan, nil, 0)
	suite.True(yarpcerrors.IsInvalidArgument(err))

	_, err = BuildSelect(suite.key, []Column{{Name: "tenant", Value: "x"}}, plan, nil, 0)
	suite.True(yarpcerrors.IsInvalidArgument(err))
}

func (suite *ConnectorTestSuite) TestBindValueConvertsUUID() {
	u := uuid.Parse("e3a94b81-ebb3-4607-8a65-10a30fab0efd")
	v := bindValue(u)
	gu, ok := v.(gocql.UUID)
	suite.True(ok)
	suite.Equal("e3a94b81-ebb3-4607-8a65-10a30fab0efd", gu.String())

	suite.Equal("x", bindValue("x"))
}

func (suite *ConnectorTestSuite) TestSlice() {
	rows := []map[string]interface{}{
		{"user": "u1", "day": 20, "seq": int64(5)},
	}
	suite.runner.EXPECT().
		SliceMap(
			gomock.Any(),
			"SELECT * FROM events_by_user WHERE user = ? AND day = ? AND seq >= ? "+
				"ORDER BY day ASC, seq ASC LIMIT 1",
			[]interface{}{"u1", int32(20), int64(5)},
			25).
		Return(rows, nil)

	result, err := suite.connector.Slice(context.Background(), suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec:      suite.key.NewQuery(20).From(int64(5)).Build(),
		Limit:     1,
		PageSize:  25,
	})
	suite.NoError(err)
	suite.Equal(rows, result)

	snapshot := suite.scope.Snapshot().Counters()
	c, ok := snapshot["cql.execute+error=none,operation=slice,result=success,table=events_by_user"]
	suite.True(ok)
	suite.Equal(int64(1), c.Value())
}

func (suite *ConnectorTestSuite) TestSliceRunnerError() {
	suite.runner.EXPECT().
		SliceMap(gomock.Any(), gomock.Any(), gomock.Any(), 0).
		Return(nil, errors.Wrap(&gocql.RequestErrReadTimeout{}, "SliceMap failed"))

	_, err := suite.connector.Slice(context.Background(), suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec:      suite.key.NewQuery(20).Build(),
	})
	suite.Error(err)

	snapshot := suite.scope.Snapshot().Counters()
	c, ok := snapshot["cql.execute+error=read_timeout,operation=slice,result=fail,table=events_by_user"]
	suite.True(ok)
	suite.Equal(int64(1), c.Value())
}

func (suite *ConnectorTestSuite) TestSliceInvalidSpecSkipsRunner() {
	_, err := suite.connector.Slice(context.Background(), suite.planner, &SliceRequest{
		Partition: suite.partition(),
		Spec:      suite.key.NewQuery().AbsentFixed().Varying().Build(),
	})
	suite.True(yarpcerrors.IsInvalidArgument(err))

	snapshot := suite.scope.Snapshot().Counters()
	c, ok := snapshot["cql.execute+error=invalid_argument,operation=slice,result=fail,table=events_by_user"]
	suite.True(ok)
	suite.Equal(int64(1), c.Value())
}

func (suite *ConnectorTestSuite) TestGocqlErrorTag() {
	suite.Equal("read_failure", getGocqlErrorTag(&gocql.RequestErrReadFailure{}))
	suite.Equal("unavailable", getGocqlErrorTag(&gocql.RequestErrUnavailable{}))
	suite.Equal("function_failure", getGocqlErrorTag(&gocql.RequestErrFunctionFailure{}))
	suite.Equal("unprepared", getGocqlErrorTag(&gocql.RequestErrUnprepared{}))
	suite.Equal("unknown", getGocqlErrorTag(errors.New("boom")))
}
