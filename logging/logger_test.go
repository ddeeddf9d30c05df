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

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		wantErr  error
		contains string
	}{
		{name: "json", opts: []Option{WithJSONHandler()}, contains: `"msg":"hello"`},
		{name: "text", opts: []Option{WithTextHandler()}, contains: `msg=hello`},
		{name: "unknown", opts: []Option{WithFormat("xml")}, wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := New(append(tt.opts, WithOutput(&buf))...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			logger.Logger().Info("hello")
			assert.Contains(t, buf.String(), tt.contains)
		})
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(WithOutput(nil))
	require.ErrorIs(t, err, ErrNilOutput)

	assert.Panics(t, func() { MustNew(WithFormat("nope")) })
}

func TestLogger_Redaction(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t)
	th.Logger.Logger().Info("login", "user", "ada", "password", "hunter2")

	th.AssertLog(t, "INFO", "login", map[string]any{
		"user":     "ada",
		"password": "***REDACTED***",
	})
}

func TestLogger_ServiceAttributes(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t, WithServiceName("bookstore"), WithServiceVersion("1.2.3"))
	th.Logger.Logger().Warn("careful")

	th.AssertLog(t, "WARN", "careful", map[string]any{
		"service": "bookstore",
		"version": "1.2.3",
	})
}

func TestLogger_SetLevel(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t, WithLevel(LevelWarn))
	assert.Equal(t, LevelWarn, th.Logger.Level())

	th.Logger.Logger().Info("dropped")
	assert.False(t, th.ContainsLog("dropped"))

	th.Logger.SetLevel(LevelDebug)
	th.Logger.Logger().Debug("kept")
	assert.True(t, th.ContainsLog("kept"))
	assert.Equal(t, LevelDebug, th.Logger.Level())
}

func TestLogger_Source(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t, WithSource(true))
	th.Logger.Logger().Info("located")

	entry, err := th.LastLog()
	require.NoError(t, err)
	source, ok := entry.Attrs["source"].(string)
	require.True(t, ok, "source should be flattened to a string, got %T", entry.Attrs["source"])
	assert.Regexp(t, `^logger_test\.go:\d+$`, source)

	plain := NewTestHelper(t)
	plain.Logger.Logger().Info("unlocated")
	entry, err = plain.LastLog()
	require.NoError(t, err)
	assert.NotContains(t, entry.Attrs, "source")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("logfmt")
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "warn", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "info+2", want: LevelInfo + 2},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	require.ErrorIs(t, err, ErrInvalidLevel)
}
