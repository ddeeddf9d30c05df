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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"rivaas.dev/procedure/internal/bookstore"
	"rivaas.dev/procedure/logging"
)

var errInvalidConfig = errors.New("invalid configuration")

// Config is the demo configuration file.
type Config struct {
	Log        LogConfig        `yaml:"log" toml:"log"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" toml:"telemetry"`
	Recover    bool             `yaml:"recover" toml:"recover"`
	RequestIDs string           `yaml:"request_ids" toml:"request_ids"`
	ProblemURL string           `yaml:"problem_url" toml:"problem_url"`
	Books      []bookstore.Book `yaml:"books" toml:"books"`
}

// LogConfig selects the slog handler used for diagnostics on stderr.
type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Format  string `yaml:"format" toml:"format"`
	Service string `yaml:"service" toml:"service"`
	Source  bool   `yaml:"source" toml:"source"`
}

// TelemetryConfig enables the stdout span and metric exporters.
type TelemetryConfig struct {
	Traces  bool `yaml:"traces" toml:"traces"`
	Metrics bool `yaml:"metrics" toml:"metrics"`
	Pretty  bool `yaml:"pretty" toml:"pretty"`
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "text",
			Service: "procedure-demo",
		},
		RequestIDs: "uuid",
		Books:      bookstore.Seed(),
	}
}

// loadConfig reads path, when set, and fills every field left empty from the
// defaults. An empty book list means the seed catalog. Files ending in .toml
// are decoded as TOML, anything else as YAML.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		unmarshal := yaml.Unmarshal
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			unmarshal = toml.Unmarshal
		}
		if err = unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := mergo.Merge(&cfg, defaultConfig()); err != nil {
		return Config{}, fmt.Errorf("merge config defaults: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %w", errInvalidConfig, err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.format: %w", errInvalidConfig, err))
	}
	switch strings.ToLower(c.RequestIDs) {
	case "uuid", "ulid":
	default:
		errs = append(errs, fmt.Errorf("%w: request_ids must be uuid or ulid, got %q", errInvalidConfig, c.RequestIDs))
	}

	return errors.Join(errs...)
}
