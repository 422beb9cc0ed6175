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
	"os"

	"github.com/uber/sliceplan/pkg/common/logging"
	"github.com/uber/sliceplan/pkg/common/metrics"
	"github.com/uber/sliceplan/pkg/storage/slice/config"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	version string
	app     = kingpin.New("sliceplan", "Plan slice queries over composite clustering keys")

	debug = app.Flag(
		"debug", "enable debug logging").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	cfgFiles = app.Flag(
		"config",
		"YAML config files (can be provided multiple times to merge configs)").
		Short('c').
		Required().
		Envar("SLICEPLAN_CONFIG").
		ExistingFiles()

	entity = app.Flag(
		"entity", "Entity to plan the slice for").
		Short('e').
		Required().
		String()

	partition = app.Flag(
		"partition", "Partition key value, in declaration order (repeatable)").
		Short('p').
		Strings()

	fixed = app.Flag(
		"fixed", "Exact match clustering value, in key order (repeatable)").
		Short('f').
		Strings()

	start = app.Flag(
		"start", "First value of the varying component, empty for open").
		Default("").
		String()

	end = app.Flag(
		"end", "Last value of the varying component, empty for open").
		Default("").
		String()

	order = app.Flag(
		"order", "Scan order (asc|desc)").
		Default("asc").
		Enum("asc", "desc", "ASC", "DESC")

	bounds = app.Flag(
		"bounds", "Bounding mode (inclusive|exclusive|start|end)").
		Default("inclusive").
		String()

	limit = app.Flag(
		"limit", "Row limit, 0 for none").
		Default("0").
		Uint64()

	execute = app.Flag(
		"execute", "Run the statement against the configured Cassandra").
		Default("false").
		Envar("SLICEPLAN_EXECUTE").
		Bool()
)

func main() {
	app.Version(version)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logging.ConfigureLogging(app.Name, *debug)

	if err := run(); err != nil {
		log.WithError(err).Fatal("sliceplan failed")
	}
}

// run owns the metric scope so its final flush happens before main exits.
func run() error {
	log.WithField("files", *cfgFiles).Debug("Loading sliceplan config")
	cfg, err := config.Load(*cfgFiles...)
	if err != nil {
		return errors.Wrap(err, "cannot parse yaml config")
	}

	scope, closer, err := metrics.InitMetricScope(&cfg.Metrics, app.Name)
	if err != nil {
		return err
	}
	defer closer.Close()

	schema, err := config.NewSchema(cfg.Entities, nil, scope)
	if err != nil {
		return errors.Wrap(err, "cannot register entities")
	}

	req := &request{
		Entity:    *entity,
		Partition: *partition,
		Fixed:     *fixed,
		Start:     *start,
		End:       *end,
		Order:     *order,
		Bounds:    *bounds,
		Limit:     *limit,
	}
	p, err := newPlanner(schema, req)
	if err != nil {
		return errors.Wrap(err, "cannot plan slice query")
	}
	if err := p.print(os.Stdout); err != nil {
		return errors.Wrap(err, "cannot render slice query")
	}

	if !*execute {
		return nil
	}
	if cfg.Cassandra == nil {
		return errors.New("--execute needs a cassandra config block")
	}
	return errors.Wrap(
		p.execute(context.Background(), cfg.Cassandra, scope, os.Stdout),
		"slice query failed")
}
