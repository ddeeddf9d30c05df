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

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rivaas.dev/procedure/logging"
)

type rootOptions struct {
	configFile string
	logLevel   string
	logSource  bool
	traces     bool
	metrics    bool
	stderr     io.Writer
}

// load reads the configuration named by --config, applies the flag overrides
// and builds the demo. --log-level is applied to the running logger so that
// it wins over log.level.
func (o *rootOptions) load() (*demo, error) {
	cfg, err := loadConfig(o.configFile)
	if err != nil {
		return nil, err
	}
	cfg.Log.Source = cfg.Log.Source || o.logSource
	cfg.Telemetry.Traces = cfg.Telemetry.Traces || o.traces
	cfg.Telemetry.Metrics = cfg.Telemetry.Metrics || o.metrics

	d, err := newDemo(cfg, o.stderr)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		level, err := logging.ParseLevel(o.logLevel)
		if err != nil {
			_ = d.close(context.Background())
			return nil, fmt.Errorf("%w: --log-level: %w", errInvalidConfig, err)
		}
		d.log.SetLevel(level)
	}
	d.logger.Debug("demo ready", "level", d.log.Level().String(), "books", d.store.Len())

	return d, nil
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}

	cmd := &cobra.Command{
		Use:   "procedure-demo",
		Short: "Hydrate the bookstore API and call its procedures",
		Long: `procedure-demo hydrates an in-memory bookstore blueprint once per session
and calls its procedures, printing results as JSON and failures as
RFC 9457 problem details.

Examples:
  procedure-demo list
  procedure-demo call books.get '{"id":"dune"}'
  procedure-demo call admin.stats --user root --admin
  procedure-demo run script.yaml`,
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (YAML or TOML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.logSource, "log-source", false, "add file:line to log entries")
	cmd.PersistentFlags().BoolVar(&opts.traces, "traces", false, "export procedure spans to stderr")
	cmd.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "export procedure metrics to stderr on exit")

	cmd.AddCommand(
		newListCmd(opts),
		newCallCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
	)

	return cmd
}
