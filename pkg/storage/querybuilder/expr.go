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
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/gocql/gocql"
)

// Sqlizer is anything that renders to a CQL fragment and its bound args.
type Sqlizer interface {
	ToSQL() (string, []interface{}, error)
}

type expr struct {
	sql  string
	args []interface{}
}

// expression returns a raw CQL fragment with bound args.
func expression(sql string, args ...interface{}) expr {
	return expr{sql: sql, args: args}
}

func (e expr) ToSQL() (string, []interface{}, error) {
	return e.sql, e.args, nil
}

// Eq is an equality over one or more columns.
//
// Ex:
//     .Where(Eq{"id": 1})
type Eq map[string]interface{}

// ToSQL renders the equality.
func (eq Eq) ToSQL() (sql string, args []interface{}, err error) {
	return compare(eq, "=")
}

// Lt is a strict less than comparison.
//
// Ex:
//     .Where(Lt{"id": 1})
type Lt map[string]interface{}

// ToSQL renders the comparison.
func (lt Lt) ToSQL() (sql string, args []interface{}, err error) {
	return compare(lt, "<")
}

// LtOrEq is a less than or equal comparison.
type LtOrEq Lt

// ToSQL renders the comparison.
func (ltOrEq LtOrEq) ToSQL() (sql string, args []interface{}, err error) {
	return compare(ltOrEq, "<=")
}

// Gt is a strict greater than comparison.
type Gt map[string]interface{}

// ToSQL renders the comparison.
func (gt Gt) ToSQL() (sql string, args []interface{}, err error) {
	return compare(gt, ">")
}

// GtOrEq is a greater than or equal comparison.
type GtOrEq Gt

// ToSQL renders the comparison.
func (gtOrEq GtOrEq) ToSQL() (sql string, args []interface{}, err error) {
	return compare(gtOrEq, ">=")
}

// compare renders one "col opr ?" per column, in column order. Clustering
// slices bind scalars only, so nulls and lists are rejected.
func compare(m map[string]interface{}, opr string) (sql string, args []interface{}, err error) {
	var exprs []string
	for _, key := range sortedKeys(m) {
		val := m[key]
		if val == nil {
			err = fmt.Errorf("cannot use null with %s operator", opr)
			return
		}
		if isListType(val) {
			err = fmt.Errorf("cannot use array or slice with %s operator", opr)
			return
		}
		exprs = append(exprs, fmt.Sprintf("%s %s ?", key, opr))
		args = append(args, val)
	}
	sql = strings.Join(exprs, " AND ")
	return
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// isListType reports slices and arrays except byte strings and uuids,
// which bind as single values.
func isListType(val interface{}) bool {
	switch val.(type) {
	case gocql.UUID, *gocql.UUID:
		return false
	}
	valVal := reflect.ValueOf(val)
	switch valVal.Kind() {
	case reflect.Slice:
		return valVal.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

// appendToSQL renders parts separated by sep into w. Parts rendering to
// nothing are skipped along with their separator. It reports whether
// anything was written.
func appendToSQL(
	parts []Sqlizer,
	w *bytes.Buffer,
	sep string,
	args []interface{},
) ([]interface{}, bool, error) {
	wrote := false
	for _, p := range parts {
		partSQL, partArgs, err := p.ToSQL()
		if err != nil {
			return nil, false, err
		}
		if len(partSQL) == 0 {
			continue
		}
		if wrote {
			w.WriteString(sep)
		}
		w.WriteString(partSQL)
		args = append(args, partArgs...)
		wrote = true
	}
	return args, wrote, nil
}
