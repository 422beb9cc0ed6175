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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
)

// LogReporter is a tally reporter writing one Info entry per reported
// metric. It suits command line tools that exit before any metrics
// backend would scrape them.
type LogReporter struct {
	logger log.FieldLogger
}

// NewLogReporter returns a reporter writing to logger.
func NewLogReporter(logger log.FieldLogger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) entry(kind, name string, tags map[string]string) *log.Entry {
	fields := log.Fields{
		"metric_type": kind,
		"metric":      name,
	}
	for k, v := range tags {
		fields["tag_"+k] = v
	}
	return r.logger.WithFields(fields)
}

// ReportCounter logs a counter delta.
func (r *LogReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.entry("counter", name, tags).WithField("value", value).Info("metric")
}

// ReportGauge logs a gauge value.
func (r *LogReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.entry("gauge", name, tags).WithField("value", value).Info("metric")
}

// ReportTimer logs a timer sample.
func (r *LogReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.entry("timer", name, tags).WithField("value", interval.String()).Info("metric")
}

// ReportHistogramValueSamples logs the samples of one value bucket.
func (r *LogReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound float64,
	samples int64,
) {
	r.entry("histogram", name, tags).WithFields(log.Fields{
		"lower":   bucketLowerBound,
		"upper":   bucketUpperBound,
		"samples": samples,
	}).Info("metric")
}

// ReportHistogramDurationSamples logs the samples of one duration bucket.
func (r *LogReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound,
	bucketUpperBound time.Duration,
	samples int64,
) {
	r.entry("histogram", name, tags).WithFields(log.Fields{
		"lower":   bucketLowerBound.String(),
		"upper":   bucketUpperBound.String(),
		"samples": samples,
	}).Info("metric")
}

// Capabilities reports tagging support.
func (r *LogReporter) Capabilities() tally.Capabilities {
	return r
}

// Reporting is always true.
func (r *LogReporter) Reporting() bool {
	return true
}

// Tagging is always true.
func (r *LogReporter) Tagging() bool {
	return true
}

// Flush is a no-op, entries are written as they are reported.
func (r *LogReporter) Flush() {}
