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

// Package config declares entity keys in yaml and registers them as slice
// planners.
package config

import (
	common_config "github.com/uber/sliceplan/pkg/common/config"
	"github.com/uber/sliceplan/pkg/common/metrics"
	"github.com/uber/sliceplan/pkg/storage/connectors/cassandra"
)

// Config is the configuration of the slice planning tool.
type Config struct {
	// Entities are the entity key declarations.
	Entities []EntityConfig `yaml:"entities" validate:"nonzero"`
	// Cassandra is the textual backend, optional.
	Cassandra *cassandra.Config `yaml:"cassandra"`
	// Metrics configuration.
	Metrics metrics.Config `yaml:"metrics"`
}

// EntityConfig declares the key of one entity.
type EntityConfig struct {
	Name string `yaml:"name" validate:"nonzero"`
	// Table defaults to Name.
	Table          string         `yaml:"table"`
	PartitionKeys  []string       `yaml:"partition_keys" validate:"nonzero"`
	ClusteringKeys []ColumnConfig `yaml:"clustering_keys"`
}

// ColumnConfig declares one clustering column.
type ColumnConfig struct {
	Name string `yaml:"name" validate:"nonzero"`
	// Type is a logical type name such as int, text or timeuuid.
	Type string `yaml:"type" validate:"nonzero"`
}

// Load parses and merges the config files.
func Load(files ...string) (*Config, error) {
	var cfg Config
	if err := common_config.Parse(&cfg, files...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
