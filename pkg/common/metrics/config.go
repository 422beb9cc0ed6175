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

package metrics

import (
	"io"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	tallystatsd "github.com/uber-go/tally/statsd"
)

const _defaultFlushInterval = 10 * time.Second

var _statsdOptions = tallystatsd.Options{}

// Config is the metrics section of the yaml configuration.
type Config struct {
	Statsd *StatsdConfig `yaml:"statsd"`
	// Log reports every metric through the standard logger when set and
	// statsd is disabled.
	Log bool `yaml:"log"`
	// FlushInterval between two reports, defaults to 10s.
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// StatsdConfig enables the statsd reporter.
type StatsdConfig struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
}

type scopeCloser struct {
	scope  io.Closer
	client statsd.Statter
}

// Close reports the metrics one last time, then closes the statsd client.
func (c scopeCloser) Close() error {
	err := c.scope.Close()
	if c.client != nil {
		if cerr := c.client.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// InitMetricScope returns a root scope and its closer. Closing the scope
// reports the metrics one last time.
func InitMetricScope(
	cfg *Config,
	rootMetricScope string,
) (tally.Scope, io.Closer, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	var (
		reporter tally.StatsReporter
		client   statsd.Statter
	)
	switch {
	case cfg.Statsd != nil && cfg.Statsd.Enable:
		log.Infof("Metrics configured with statsd endpoint %s", cfg.Statsd.Endpoint)
		c, err := statsd.NewClient(cfg.Statsd.Endpoint, "")
		if err != nil {
			return nil, nil, errors.Wrap(err, "unable to setup statsd client")
		}
		client = c
		reporter = tallystatsd.NewReporter(c, _statsdOptions)
	case cfg.Log:
		reporter = NewLogReporter(log.StandardLogger())
	default:
		log.Debug("No metrics backends configured, using the statsd noop client")
		c, _ := statsd.NewNoopClient()
		reporter = tallystatsd.NewReporter(c, _statsdOptions)
	}

	interval := _defaultFlushInterval
	if cfg.FlushInterval > 0 {
		interval = cfg.FlushInterval
	}

	// tally panics if scope name contains "-", hence force convert to "_"
	rootMetricScope = strings.Replace(rootMetricScope, "-", "_", -1)
	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:    rootMetricScope,
		Tags:      map[string]string{},
		Reporter:  reporter,
		Separator: tally.DefaultSeparator,
	}, interval)
	return scope, scopeCloser{scope: closer, client: client}, nil
}
