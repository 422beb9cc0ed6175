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

	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks github.com/uber/sliceplan/pkg/storage/connectors/cassandra QueryRunner

// QueryRunner executes a built CQL statement and returns its rows.
type QueryRunner interface {
	// SliceMap runs stmt with args and returns every row as a column map.
	// A positive pageSize overrides the session page size.
	SliceMap(
		ctx context.Context,
		stmt string,
		args []interface{},
		pageSize int,
	) ([]map[string]interface{}, error)
}

type sessionRunner struct {
	session *gocql.Session
}

// NewSessionRunner returns a QueryRunner over a gocql session.
func NewSessionRunner(session *gocql.Session) QueryRunner {
	return &sessionRunner{session: session}
}

func (r *sessionRunner) SliceMap(
	ctx context.Context,
	stmt string,
	args []interface{},
	pageSize int,
) ([]map[string]interface{}, error) {
	q := r.session.Query(stmt, args...).WithContext(ctx)
	if pageSize > 0 {
		q = q.PageSize(pageSize)
	}
	iter := q.Iter()
	rows, err := iter.SliceMap()
	if cerr := iter.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrap(err, "SliceMap failed")
	}
	return rows, nil
}
