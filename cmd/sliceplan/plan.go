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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/uber/sliceplan/pkg/storage/composite"
	"github.com/uber/sliceplan/pkg/storage/composite/codec"
	"github.com/uber/sliceplan/pkg/storage/connectors/cassandra"
	"github.com/uber/sliceplan/pkg/storage/slice"
	"github.com/uber/sliceplan/pkg/storage/slice/config"

	"github.com/pkg/errors"
	"github.com/uber-go/tally"
)

// request is a slice query in its textual command line form.
type request struct {
	Entity    string
	Partition []string
	Fixed     []string
	Start     string
	End       string
	Order     string
	Bounds    string
	Limit     uint64
}

type planned struct {
	planner *slice.Planner
	req     *cassandra.SliceRequest
	plan    *slice.RangePlan
}

// newPlanner parses req against the entity declaration and plans it.
func newPlanner(schema *config.Schema, r *request) (*planned, error) {
	planner, err := schema.Planner(r.Entity)
	if err != nil {
		return nil, err
	}
	key := planner.Key()

	ordering, err := slice.ParseOrdering(r.Order)
	if err != nil {
		return nil, err
	}
	bounding, err := slice.ParseBounding(r.Bounds)
	if err != nil {
		return nil, err
	}

	fixed := make([]interface{}, len(r.Fixed))
	for i, s := range r.Fixed {
		if fixed[i], err = parseComponent(key, i, s); err != nil {
			return nil, err
		}
	}
	b := key.NewQuery(fixed...).Ordering(ordering).Bounding(bounding)
	if len(fixed) < len(key.Components) {
		b.Varying()
	}
	if r.Start != "" {
		v, err := parseComponent(key, len(fixed), r.Start)
		if err != nil {
			return nil, err
		}
		b.From(v)
	}
	if r.End != "" {
		v, err := parseComponent(key, len(fixed), r.End)
		if err != nil {
			return nil, err
		}
		b.To(v)
	}
	spec := b.Build()

	plan, err := planner.Plan(spec)
	if err != nil {
		return nil, err
	}

	partition := make([]cassandra.Column, 0, len(r.Partition))
	for i, v := range r.Partition {
		if i >= len(key.PartitionKeys) {
			return nil, errors.Errorf("entity %s has %d partition keys, got %d values",
				key.Name, len(key.PartitionKeys), len(r.Partition))
		}
		partition = append(partition, cassandra.Column{Name: key.PartitionKeys[i], Value: v})
	}

	return &planned{
		planner: planner,
		plan:    plan,
		req: &cassandra.SliceRequest{
			Partition: partition,
			Spec:      spec,
			Limit:     r.Limit,
		},
	}, nil
}

func parseComponent(key *slice.EntityKey, pos int, s string) (interface{}, error) {
	c, ok := key.Component(pos)
	if !ok {
		return nil, errors.Errorf("entity %s declares %d clustering components",
			key.Name, len(key.Components))
	}
	v, err := c.Codec.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "component %s (%s)", c.Name, c.Type)
	}
	return v, nil
}

// print writes the CQL form and both encoded bounds of the plan.
func (p *planned) print(w io.Writer) error {
	key := p.planner.Key()
	if len(p.req.Partition) == len(key.PartitionKeys) {
		stmt, err := cassandra.BuildSelect(key, p.req.Partition, p.plan, nil, p.req.Limit)
		if err != nil {
			return err
		}
		query, args, err := stmt.ToSQL()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "cql:   %s\n", query)
		fmt.Fprintf(w, "args:  %v\n", args)
	}
	for _, pred := range p.plan.Predicates {
		fmt.Fprintf(w, "where: %s %s %v\n", pred.Column, pred.Operator(), pred.Value)
	}
	fmt.Fprintf(w, "order: %s\n", p.plan.Ordering)
	if err := printKey(w, "start", p.plan.StartKey); err != nil {
		return err
	}
	return printKey(w, "end", p.plan.EndKey)
}

func printKey(w io.Writer, name string, k composite.Key) error {
	if k == nil {
		fmt.Fprintf(w, "%s: open\n", name)
		return nil
	}
	fmt.Fprintf(w, "%s: %s\n", name, k)
	comps, eoc, err := composite.Split(k)
	if err != nil {
		return err
	}
	for _, c := range comps {
		typeName := "unknown"
		if cd, ok := codec.Default().LookupTag(c.Tag); ok {
			typeName = cd.Type().String()
		}
		fmt.Fprintf(w, "  @%d %s %x\n", c.Offset, typeName, c.Value)
	}
	if eoc != nil {
		fmt.Fprintf(w, "  eoc 0x%02x\n", byte(*eoc))
	}
	return nil
}

// execute runs the plan against Cassandra and prints the returned rows.
func (p *planned) execute(
	ctx context.Context,
	cfg *cassandra.Config,
	scope tally.Scope,
	w io.Writer,
) error {
	conn, err := cassandra.NewCassandraConnector(cfg, scope)
	if err != nil {
		return err
	}
	rows, err := conn.Slice(ctx, p.planner, p.req)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Fprintf(w, "row:   %v\n", row)
	}
	return nil
}
