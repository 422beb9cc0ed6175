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

package logging

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// AppLogField is the field every entry of a process carries its name in.
const AppLogField = "app"

// LogFieldFormatter adds a fixed set of fields to every entry before
// handing it to the wrapped formatter.
type LogFieldFormatter struct {
	log.Formatter
	Fields log.Fields
}

// Format adds the default fields to the entry. Fields already set on the
// entry win.
func (f LogFieldFormatter) Format(e *log.Entry) ([]byte, error) {
	data := make(log.Fields, len(e.Data)+len(f.Fields))
	for k, v := range f.Fields {
		data[k] = v
	}
	for k, v := range e.Data {
		data[k] = v
	}
	e.Data = data
	return f.Formatter.Format(e)
}

// ConfigureLogging sets the standard logger up for a command line tool:
// JSON entries tagged with the app name on stderr, at Debug level when
// debug is set and Info otherwise.
func ConfigureLogging(app string, debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&LogFieldFormatter{
		Formatter: &log.JSONFormatter{},
		Fields:    log.Fields{AppLogField: app},
	})

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}
