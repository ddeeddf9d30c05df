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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"rivaas.dev/procedure"
	"rivaas.dev/procedure/internal/bookstore"
	"rivaas.dev/procedure/internal/problem"
	"rivaas.dev/procedure/internal/telemetry"
	"rivaas.dev/procedure/logging"
	"rivaas.dev/procedure/middleware"
)

// demo holds everything shared by the sessions of one invocation: a single
// store and a single blueprint, hydrated once per session.
type demo struct {
	cfg       Config
	log       *logging.Logger
	logger    *slog.Logger
	store     *bookstore.Store
	blueprint *procedure.Blueprint[bookstore.Session]
	problems  *problem.Formatter
	telemetry *telemetry.Providers
}

func newDemo(cfg Config, stderr io.Writer) (*demo, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	l, err := logging.New(
		logging.WithFormat(format),
		logging.WithOutput(stderr),
		logging.WithLevel(level),
		logging.WithSource(cfg.Log.Source),
		logging.WithServiceName(cfg.Log.Service),
		logging.WithServiceVersion(bookstore.Version),
	)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger := l.Logger()

	idOpts := []middleware.RequestIDOption{middleware.WithRequestLogger(logger)}
	if strings.EqualFold(cfg.RequestIDs, "ulid") {
		idOpts = append(idOpts, middleware.WithULID())
	}

	providers, err := telemetry.New(telemetry.Options{
		Traces:         cfg.Telemetry.Traces,
		Metrics:        cfg.Telemetry.Metrics,
		PrettyPrint:    cfg.Telemetry.Pretty,
		Output:         stderr,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: bookstore.Version,
	})
	if err != nil {
		return nil, err
	}

	bp, err := bookstore.Blueprint(bookstore.Options{
		Procedure: []procedure.Option{
			procedure.WithLogger(logger),
			procedure.WithRecover(cfg.Recover),
			procedure.WithTracerProvider(providers.TracerProvider),
			procedure.WithMeterProvider(providers.MeterProvider),
		},
		RequestID: idOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("build blueprint: %w", err)
	}

	return &demo{
		cfg:       cfg,
		log:       l,
		logger:    logger,
		store:     bookstore.NewStore(cfg.Books...),
		blueprint: bp,
		problems:  problem.New(cfg.ProblemURL),
		telemetry: providers,
	}, nil
}

// close flushes exported telemetry.
func (d *demo) close(ctx context.Context) error {
	if err := d.telemetry.Shutdown(ctx); err != nil {
		return fmt.Errorf("flush telemetry: %w", err)
	}
	return nil
}

func (d *demo) session(user string, admin bool) *procedure.API {
	return procedure.Hydrate(d.blueprint, bookstore.Session{Store: d.store, User: user, Admin: admin})
}

// outcome is one line of call output.
type outcome struct {
	Session int             `json:"session"`
	Path    string          `json:"path"`
	Result  any             `json:"result,omitempty"`
	Problem *problem.Detail `json:"problem,omitempty"`
}

func (d *demo) call(ctx context.Context, api *procedure.API, path string, input any) outcome {
	out := outcome{Path: path}

	result, err := api.Call(ctx, path, input)
	if err != nil {
		p := d.problems.Format(path, err)
		out.Problem = &p
		d.logger.Debug("call failed", "path", path, "status", p.Status, "error", err)
		return out
	}

	out.Result = result
	return out
}

// parseInput turns a command-line argument into call input. JSON text is
// passed through for the schema to decode, an empty argument means no input.
func parseInput(arg string) (any, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, nil
	}
	if !json.Valid([]byte(arg)) {
		return nil, fmt.Errorf("input is not valid JSON: %s", arg)
	}
	return json.RawMessage(arg), nil
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
