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
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"rivaas.dev/procedure/middleware"
)

var errCallsFailed = errors.New("calls failed")

// Script is a sequence of sessions, each hydrating its own API over the
// shared store.
type Script struct {
	Sessions []ScriptSession `yaml:"sessions"`
}

// ScriptSession is one root context and the calls made through it.
type ScriptSession struct {
	User      string       `yaml:"user"`
	Admin     bool         `yaml:"admin"`
	RequestID string       `yaml:"request_id"`
	Calls     []ScriptCall `yaml:"calls"`
}

// ScriptCall is a single procedure invocation.
type ScriptCall struct {
	Path  string `yaml:"path"`
	Input any    `yaml:"input"`
}

func loadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}

	var s Script
	if err = yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	for i, sess := range s.Sessions {
		for j, c := range sess.Calls {
			if c.Path == "" {
				return Script{}, fmt.Errorf("parse script %s: session %d call %d has no path", path, i, j)
			}
		}
	}
	return s, nil
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		parallel bool
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a YAML script of sessions and calls",
		Long: `Run hydrates one API per script session and performs its calls in order,
printing one JSON line per call. With --parallel, sessions run
concurrently; output order still follows the script.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			script, err := loadScript(args[0])
			if err != nil {
				return err
			}

			d, err := opts.load()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := d.close(context.WithoutCancel(cmd.Context())); err == nil {
					err = cerr
				}
			}()

			results := d.runScript(cmd.Context(), script, parallel)

			failed := 0
			for _, session := range results {
				for _, res := range session {
					if res.Problem != nil {
						failed++
					}
					if err = writeJSON(cmd.OutOrStdout(), res, false); err != nil {
						return err
					}
				}
			}

			d.logger.Info("script finished", "sessions", len(script.Sessions), "failed", failed)
			if strict && failed > 0 {
				return fmt.Errorf("%w: %d", errCallsFailed, failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&parallel, "parallel", false, "run sessions concurrently")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when any call fails")

	return cmd
}

func (d *demo) runScript(ctx context.Context, script Script, parallel bool) [][]outcome {
	runSession := func(i int, sess ScriptSession) []outcome {
		api := d.session(sess.User, sess.Admin)

		sctx := ctx
		if sess.RequestID != "" {
			sctx = middleware.ContextWithRequestID(ctx, sess.RequestID)
		}

		out := make([]outcome, 0, len(sess.Calls))
		for _, c := range sess.Calls {
			res := d.call(sctx, api, c.Path, c.Input)
			res.Session = i
			out = append(out, res)
		}
		return out
	}

	if !parallel {
		results := make([][]outcome, len(script.Sessions))
		for i, sess := range script.Sessions {
			results[i] = runSession(i, sess)
		}
		return results
	}

	indexed := make([]int, len(script.Sessions))
	for i := range indexed {
		indexed[i] = i
	}
	return iter.Map(indexed, func(i *int) []outcome {
		return runSession(*i, script.Sessions[*i])
	})
}
