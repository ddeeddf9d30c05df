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
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/procedure/internal/bookstore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfig_MergesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "demo.yaml", `
log:
  level: debug
recover: true
request_ids: ulid
books:
  - id: kindred
    title: Kindred
    author: Octavia E. Butler
    year: 1979
    tags: [sf]
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "format comes from defaults")
	assert.Equal(t, "procedure-demo", cfg.Log.Service)
	assert.True(t, cfg.Recover)
	assert.Equal(t, "ulid", cfg.RequestIDs)
	assert.Equal(t, []bookstore.Book{{ID: "kindred", Title: "Kindred", Author: "Octavia E. Butler", Year: 1979, Tags: []string{"sf"}}}, cfg.Books)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = loadConfig(writeFile(t, "bad.yaml", "log: [unclosed"))
	require.Error(t, err)

	_, err = loadConfig(writeFile(t, "invalid.yaml", "log:\n  format: xml\nrequest_ids: serial\n"))
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "request_ids")
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "procedure-demo bookstore API "+bookstore.Version+"\n", out)
}

func TestListCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "books.get"))
	assert.Contains(t, lines[0], "procedure")
	assert.Contains(t, lines[6], `"1.0.0"`)
	assert.Contains(t, lines[7], `"max_page":100`)
}

func TestCallCmd(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "call", "books.get", `{"id":"dune"}`)
	require.NoError(t, err)

	var book bookstore.Book
	require.NoError(t, json.Unmarshal([]byte(out), &book))
	assert.Equal(t, "Dune", book.Title)

	out, _, err = execute(t, "call", "admin.stats", "--user", "root", "--admin", "--request-id", "cli-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"books":4,"user":"root","request_id":"cli-1"}`, out)
}

func TestCallCmd_Failure(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "call", "books.get", `{"id":"nope"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "not-found", p["type"])
	assert.Equal(t, "books.get", p["instance"])
	assert.EqualValues(t, 404, p["status"])

	_, _, err = execute(t, "call", "books.get", `{not json`)
	require.Error(t, err)

	_, _, err = execute(t, "call", "books.missing", `{}`)
	require.Error(t, err)
}

func TestCallCmd_FieldErrors(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "call", "books.create", "--user", "ada",
		`{"title":"Wild Seed","author":"Octavia E. Butler","year":1980,"tags":["sf","sf"]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")

	var p struct {
		Type   string `json:"type"`
		Status int    `json:"status"`
		Errors []struct {
			Path string `json:"path"`
			Code string `json:"code"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "validation_error", p.Type)
	assert.Equal(t, 422, p.Status)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "tags.1", p.Errors[0].Path)
	assert.Equal(t, "tags.duplicate", p.Errors[0].Code)
}

const script = `
sessions:
  - user: ada
    request_id: ada-1
    calls:
      - path: books.create
        input:
          title: Kindred
          author: Octavia E. Butler
          year: 1979
          tags: [sf]
      - path: books.search
        input: {q: kindred}
  - calls:
      - path: books.create
        input: {title: Nope, author: Nobody, year: 2000}
  - user: root
    admin: true
    request_id: root-1
    calls:
      - path: admin.stats
`

func TestRunCmd(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "script.yaml", script)

	out, stderr, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "script finished")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)

	var results []outcome
	for _, line := range lines {
		var o struct {
			outcome
			Problem map[string]any `json:"problem"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &o))
		if o.Problem != nil {
			assert.EqualValues(t, 401, o.Problem["status"])
			assert.Equal(t, "anonymous", o.Problem["code"])
		}
		results = append(results, o.outcome)
	}

	assert.Equal(t, []int{0, 0, 1, 2}, []int{results[0].Session, results[1].Session, results[2].Session, results[3].Session})
	assert.Equal(t, map[string]any{"books": float64(5), "user": "root", "request_id": "root-1"}, results[3].Result)
	assert.Len(t, results[1].Result, 1)

	_, _, err = execute(t, "run", path, "--strict")
	require.ErrorIs(t, err, errCallsFailed)
}

func TestRunCmd_Parallel(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "script.yaml", script)

	out, _, err := execute(t, "run", path, "--parallel", "--log-level", "error")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)
}

func TestRunCmd_BadScript(t *testing.T) {
	t.Parallel()

	_, _, err := execute(t, "run", writeFile(t, "script.yaml", "sessions:\n  - calls:\n      - input: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no path")
}

func TestLoadConfig_TOML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "demo.toml", `
request_ids = "ulid"
problem_url = "https://books.example/problems"

[log]
format = "json"

[telemetry]
traces = true

[[books]]
id = "kindred"
title = "Kindred"
author = "Octavia E. Butler"
year = 1979
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "ulid", cfg.RequestIDs)
	assert.Equal(t, "https://books.example/problems", cfg.ProblemURL)
	assert.True(t, cfg.Telemetry.Traces)
	require.Len(t, cfg.Books, 1)
	assert.Equal(t, "Kindred", cfg.Books[0].Title)
}

func TestCallCmd_Traces(t *testing.T) {
	t.Parallel()

	_, stderr, err := execute(t, "call", "books.get", `{"id":"dune"}`, "--traces", "--metrics")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"Name":"procedure.invoke"`)
	assert.Contains(t, stderr, `"Value":"books.get"`)
	assert.Contains(t, stderr, `"Name":"procedure.invocations"`)
}

func TestRootCmd_LogFlags(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "quiet.yaml", "log:\n  level: error\n  format: json\n")

	_, stderr, err := execute(t, "list", "--config", path)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "demo ready", "log.level error hides debug entries")

	_, stderr, err = execute(t, "list", "--config", path, "--log-level", "debug", "--log-source")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"demo ready"`)
	assert.Contains(t, stderr, `"level":"DEBUG"`)
	assert.Regexp(t, `"source":"root\.go:\d+"`, stderr)

	_, _, err = execute(t, "list", "--log-level", "loud")
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, err.Error(), "--log-level")
}
