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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// LogEntry represents a parsed log entry for testing.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) snapshot() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

// ParseJSONLogEntries parses JSON lines into [LogEntry] values.
func ParseJSONLogEntries(data []byte) ([]LogEntry, error) {
	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, err
		}

		le := LogEntry{Attrs: make(map[string]any)}
		le.Message, _ = entry["msg"].(string)
		le.Level, _ = entry["level"].(string)
		if ts, ok := entry["time"].(string); ok {
			le.Time, _ = time.Parse(time.RFC3339Nano, ts)
		}

		for k, v := range entry {
			if k != "time" && k != "level" && k != "msg" {
				le.Attrs[k] = v
			}
		}

		entries = append(entries, le)
	}

	return entries, scanner.Err()
}

// TestHelper captures JSON log output in memory.
type TestHelper struct {
	Logger *Logger
	buf    *syncBuffer
}

// NewTestHelper creates a [TestHelper] logging at debug level.
// Additional [Option] values can be passed to customize the logger.
func NewTestHelper(t *testing.T, opts ...Option) *TestHelper {
	t.Helper()

	buf := &syncBuffer{}
	defaultOpts := []Option{
		WithJSONHandler(),
		WithOutput(buf),
		WithLevel(LevelDebug),
	}
	defaultOpts = append(defaultOpts, opts...)

	logger, err := New(defaultOpts...)
	require.NoError(t, err)

	return &TestHelper{Logger: logger, buf: buf}
}

// Logs returns all parsed log entries.
func (th *TestHelper) Logs() ([]LogEntry, error) {
	return ParseJSONLogEntries(th.buf.snapshot())
}

// LastLog returns the most recent log entry.
func (th *TestHelper) LastLog() (*LogEntry, error) {
	entries, err := th.Logs()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no log entries found")
	}

	return &entries[len(entries)-1], nil
}

// ContainsLog checks if any log entry has the given message.
func (th *TestHelper) ContainsLog(msg string) bool {
	entries, err := th.Logs()
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.Message == msg {
			return true
		}
	}

	return false
}

// CountLevel returns the number of log entries at the given level.
func (th *TestHelper) CountLevel(level string) int {
	entries, err := th.Logs()
	if err != nil {
		return 0
	}

	count := 0
	for _, entry := range entries {
		if entry.Level == level {
			count++
		}
	}

	return count
}

// AssertLog checks that a log entry exists with the given level, message and
// attributes. Numbers are compared after JSON decoding.
func (th *TestHelper) AssertLog(t *testing.T, level, msg string, attrs map[string]any) {
	t.Helper()

	entries, err := th.Logs()
	require.NoError(t, err, "failed to parse logs")

	for _, entry := range entries {
		if entry.Level != level || entry.Message != msg {
			continue
		}
		if attrsMatch(entry.Attrs, attrs) {
			return
		}
	}

	require.Fail(t, "log entry not found", "level=%s msg=%s attrs=%v", level, msg, attrs)
}

func attrsMatch(actual, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok {
			return false
		}

		switch w := want.(type) {
		case int:
			if g, isFloat := got.(float64); !isFloat || int(g) != w {
				return false
			}
		case float64:
			if g, isFloat := got.(float64); !isFloat || g != w {
				return false
			}
		default:
			if fmt.Sprint(got) != fmt.Sprint(want) {
				return false
			}
		}
	}
	return true
}
