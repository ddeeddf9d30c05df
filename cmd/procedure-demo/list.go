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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"rivaas.dev/procedure"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the procedures and literals of the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := opts.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return d.session("", false).Walk(func(path string, h procedure.Hydrated) error {
				switch v := h.(type) {
				case procedure.Value:
					b, err := json.Marshal(v.V)
					if err != nil {
						return fmt.Errorf("encode literal %s: %w", path, err)
					}
					_, err = fmt.Fprintf(out, "%-14s literal    %s\n", path, b)
					return err
				default:
					_, err := fmt.Fprintf(out, "%-14s procedure\n", path)
					return err
				}
			})
		},
	}
}
