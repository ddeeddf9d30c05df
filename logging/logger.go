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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	// FormatJSON writes one JSON object per entry.
	FormatJSON Format = "json"
	// FormatText writes key=value pairs.
	FormatText Format = "text"
)

// Level is a slog level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
}

// ParseFormat accepts "json" or "text" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// ParseLevel accepts the slog level names (debug, info, warn, error), in any
// case and with an optional offset such as "info+2".
func ParseLevel(s string) (Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}

// Logger owns a configured [slog.Logger] whose level can be changed after
// construction. It is safe for concurrent use.
type Logger struct {
	slogger *slog.Logger
	level   *slog.LevelVar
}

// New builds a Logger. The defaults are JSON output on stdout at info level.
func New(opts ...Option) (*Logger, error) {
	cfg := &config{format: FormatJSON, output: os.Stdout, level: LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.output == nil {
		return nil, ErrNilOutput
	}

	level := &slog.LevelVar{}
	level.Set(cfg.level)

	hopts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.source,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch cfg.format {
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.output, hopts)
	case FormatText:
		handler = slog.NewTextHandler(cfg.output, hopts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, cfg.format)
	}

	logger := slog.New(handler)
	if cfg.service != "" {
		logger = logger.With("service", cfg.service)
	}
	if cfg.version != "" {
		logger = logger.With("version", cfg.version)
	}

	return &Logger{slogger: logger, level: level}, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging: " + err.Error())
	}
	return l
}

// replaceAttr redacts sensitive keys and shortens source locations to
// file:line.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "***REDACTED***")
	}
	if a.Key == slog.SourceKey {
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	}
	return a
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger
}

// SetLevel changes the minimum level of every logger derived from l.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}
