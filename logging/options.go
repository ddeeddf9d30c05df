// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import "io"

type config struct {
	format  Format
	output  io.Writer
	level   Level
	source  bool
	service string
	version string
}

// Option configures [New].
type Option func(*config)

// WithFormat selects the handler.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithJSONHandler selects JSON output.
func WithJSONHandler() Option {
	return WithFormat(FormatJSON)
}

// WithTextHandler selects key=value text output.
func WithTextHandler() Option {
	return WithFormat(FormatText)
}

// WithOutput sets the destination writer. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithLevel sets the initial minimum level.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithServiceName adds a "service" attribute to every entry.
func WithServiceName(name string) Option {
	return func(c *config) { c.service = name }
}

// WithServiceVersion adds a "version" attribute to every entry.
func WithServiceVersion(version string) Option {
	return func(c *config) { c.version = version }
}

// WithSource adds the caller's file:line as a "source" attribute.
func WithSource(enabled bool) Option {
	return func(c *config) { c.source = enabled }
}
