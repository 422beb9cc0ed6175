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
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/lann/builder"
)

// PageSizeOption is the ToUql option key carrying the page size.
const PageSizeOption = "PageSize"

// ErrNoColumns is returned for a select without result columns.
var ErrNoColumns = errors.New("select statements must have at least one result column")

type selectData struct {
	Columns    []Sqlizer
	From       string
	WhereParts []Sqlizer
	OrderBys   []string
	Limit      string
	PageSize   int
}

func (d *selectData) ToSQL() (sqlStr string, args []interface{}, err error) {
	if len(d.Columns) == 0 {
		err = ErrNoColumns
		return
	}

	sql := &bytes.Buffer{}
	sql.WriteString("SELECT ")
	if args, _, err = appendToSQL(d.Columns, sql, ", ", args); err != nil {
		return
	}

	if len(d.From) > 0 {
		sql.WriteString(" FROM ")
		sql.WriteString(d.From)
	}

	if len(d.WhereParts) > 0 {
		where := &bytes.Buffer{}
		var wrote bool
		if args, wrote, err = appendToSQL(d.WhereParts, where, " AND ", args); err != nil {
			return
		}
		if wrote {
			sql.WriteString(" WHERE ")
			sql.Write(where.Bytes())
		}
	}

	if len(d.OrderBys) > 0 {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(d.OrderBys, ", "))
	}

	if len(d.Limit) > 0 {
		sql.WriteString(" LIMIT ")
		sql.WriteString(d.Limit)
	}

	sqlStr = sql.String()
	return
}

// Builder

// SelectBuilder builds CQL SELECT statements. It is immutable: every method
// returns a new builder.
type SelectBuilder builder.Builder

func init() {
	builder.Register(SelectBuilder{}, selectData{})
}

// Select starts a select of the given columns.
func Select(columns ...string) SelectBuilder {
	return SelectBuilder(builder.EmptyBuilder).Columns(columns...)
}

// ToSQL builds the query into a CQL string and bound args.
func (b SelectBuilder) ToSQL() (string, []interface{}, error) {
	data := builder.GetStruct(b).(selectData)
	return data.ToSQL()
}

// ToUql builds the query into a CQL string and bound args.
// As a runtime optimization, it also returns query options
func (b SelectBuilder) ToUql() (query string, args []interface{},
	options map[string]interface{}, err error) {
	data := builder.GetStruct(b).(selectData)
	query, args, err = data.ToSQL()
	options = map[string]interface{}{
		PageSizeOption: data.PageSize,
	}
	return
}

// Columns adds result columns to the query.
func (b SelectBuilder) Columns(columns ...string) SelectBuilder {
	parts := make([]interface{}, 0, len(columns))
	for _, str := range columns {
		parts = append(parts, expression(str))
	}
	return builder.Extend(b, "Columns", parts).(SelectBuilder)
}

// From sets the FROM clause of the query.
func (b SelectBuilder) From(from string) SelectBuilder {
	return builder.Set(b, "From", from).(SelectBuilder)
}

// Where adds an expression to the WHERE clause of the query. Expressions
// are ANDed in the order they are added.
func (b SelectBuilder) Where(pred Sqlizer) SelectBuilder {
	return builder.Append(b, "WhereParts", pred).(SelectBuilder)
}

// OrderBy adds ORDER BY expressions to the query.
func (b SelectBuilder) OrderBy(orderBys ...string) SelectBuilder {
	return builder.Extend(b, "OrderBys", orderBys).(SelectBuilder)
}

// Limit sets a LIMIT clause on the query.
func (b SelectBuilder) Limit(limit uint64) SelectBuilder {
	return builder.Set(b, "Limit", strconv.FormatUint(limit, 10)).(SelectBuilder)
}

// PageSize sets the page size option returned by ToUql.
func (b SelectBuilder) PageSize(size int) SelectBuilder {
	return builder.Set(b, "PageSize", size).(SelectBuilder)
}
