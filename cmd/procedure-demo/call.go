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

	"github.com/spf13/cobra"

	"rivaas.dev/procedure/middleware"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var (
		user      string
		admin     bool
		requestID string
	)

	cmd := &cobra.Command{
		Use:   "call <path> [json-input]",
		Short: "Call one procedure in a fresh session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			input, err := parseInput(raw)
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

			ctx := cmd.Context()
			if requestID != "" {
				ctx = middleware.ContextWithRequestID(ctx, requestID)
			}

			res := d.call(ctx, d.session(user, admin), args[0], input)
			if res.Problem != nil {
				if err = writeJSON(cmd.OutOrStdout(), res.Problem, true); err != nil {
					return err
				}
				return fmt.Errorf("%s failed with status %d", args[0], res.Problem.Status)
			}
			return writeJSON(cmd.OutOrStdout(), res.Result, true)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "signed-in user (empty for anonymous)")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the session admin rights")
	cmd.Flags().StringVar(&requestID, "request-id", "", "request ID to propagate instead of generating one")

	return cmd
}
