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

package config

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/uber/sliceplan/pkg/storage/composite/codec"
	"github.com/uber/sliceplan/pkg/storage/slice"
)

// Schema holds one planner per registered entity. It is built once and is
// read-only afterwards.
type Schema struct {
	planners map[string]*slice.Planner
}

// NewSchema resolves the entity declarations against registry. Unknown
// type names and duplicate entities fail the whole registration.
func NewSchema(
	entities []EntityConfig,
	registry *codec.Registry,
	scope tally.Scope,
) (*Schema, error) {
	if registry == nil {
		registry = codec.Default()
	}
	s := &Schema{planners: make(map[string]*slice.Planner, len(entities))}
	for _, e := range entities {
		if _, ok := s.planners[e.Name]; ok {
			return nil, errors.Errorf("entity %q declared twice", e.Name)
		}
		key, err := EntityKey(e, registry)
		if err != nil {
			return nil, err
		}
		s.planners[e.Name] = slice.NewPlanner(key, scope)
		log.WithFields(log.Fields{
			"entity":     key.Name,
			"table":      key.Table,
			"clustering": len(key.Components),
		}).Debug("Registered entity key")
	}
	return s, nil
}

// EntityKey converts one declaration into an entity key.
func EntityKey(e EntityConfig, registry *codec.Registry) (*slice.EntityKey, error) {
	cols := make([]slice.ClusteringColumn, 0, len(e.ClusteringKeys))
	for _, c := range e.ClusteringKeys {
		t, err := codec.ParseType(c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "entity %q column %q", e.Name, c.Name)
		}
		cols = append(cols, slice.ClusteringColumn{Name: c.Name, Type: t})
	}
	return slice.NewEntityKey(e.Name, e.Table, e.PartitionKeys, cols, registry)
}

// Planner returns the planner of an entity.
func (s *Schema) Planner(entity string) (*slice.Planner, error) {
	p, ok := s.planners[entity]
	if !ok {
		return nil, errors.Errorf("unknown entity %q", entity)
	}
	return p, nil
}

// Entities returns the registered entity names, sorted.
func (s *Schema) Entities() []string {
	names := make([]string, 0, len(s.planners))
	for n := range s.planners {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
