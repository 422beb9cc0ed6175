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

package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type SelectTestSuite struct {
	suite.Suite
}

func TestSelectTestSuite(t *testing.T) {
	suite.Run(t, new(SelectTestSuite))
}

// A slice read: partition equality, fixed prefix, varying bounds in
// predicate order, clustering order and a limit.
func (suite *SelectTestSuite) TestSliceSelect() {
	stmt := Select("*").
		From("events_by_user").
		Where(Eq{"user": "u1"}).
		Where(Eq{"day": int32(20)}).
		Where(LtOrEq{"seq": int64(9)}).
		Where(Gt{"seq": int64(5)}).
		OrderBy("day DESC", "seq DESC").
		Limit(10)

	sql, args, err := stmt.ToSQL()
	suite.NoError(err)
	suite.Equal(
		"SELECT * FROM events_by_user WHERE user = ? AND day = ? AND seq <= ? AND seq > ? "+
			"ORDER BY day DESC, seq DESC LIMIT 10",
		sql)
	suite.Equal([]interface{}{"u1", int32(20), int64(9), int64(5)}, args)
}

func (suite *SelectTestSuite) TestColumnsAndNoWhere() {
	sql, args, err := Select("seq", "payload").From("events").ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT seq, payload FROM events", sql)
	suite.Empty(args)
}

func (suite *SelectTestSuite) TestEmptyWherePartsOmitClause() {
	sql, _, err := Select("*").From("events").Where(Eq{}).ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events", sql)

	sql, args, err := Select("*").From("events").
		Where(Eq{}).
		Where(GtOrEq{"seq": 1}).
		ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events WHERE seq >= ?", sql)
	suite.Equal([]interface{}{1}, args)
}

func (suite *SelectTestSuite) TestBuilderIsImmutable() {
	base := Select("*").From("events").Where(Eq{"user": "u1"})
	ordered := base.OrderBy("seq ASC")
	limited := base.Limit(3)

	sql, _, err := base.ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events WHERE user = ?", sql)

	sql, _, err = ordered.ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events WHERE user = ? ORDER BY seq ASC", sql)

	sql, _, err = limited.ToSQL()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events WHERE user = ? LIMIT 3", sql)
}

func (suite *SelectTestSuite) TestNoColumns() {
	_, _, err := Select().From("events").ToSQL()
	suite.Equal(ErrNoColumns, err)
}

func (suite *SelectTestSuite) TestWhereErrorPropagates() {
	_, _, err := Select("*").From("events").Where(Lt{"seq": nil}).ToSQL()
	suite.EqualError(err, "cannot use null with < operator")
}

func (suite *SelectTestSuite) TestToUqlPageSize() {
	stmt := Select("*").From("events").Where(Eq{"user": "u1"})

	query, args, options, err := stmt.ToUql()
	suite.NoError(err)
	suite.Equal("SELECT * FROM events WHERE user = ?", query)
	suite.Equal([]interface{}{"u1"}, args)
	suite.Equal(0, options[PageSizeOption])

	_, _, options, err = stmt.PageSize(50).ToUql()
	suite.NoError(err)
	suite.Equal(50, options[PageSizeOption])
}
