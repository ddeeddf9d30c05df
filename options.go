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

package procedure

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// config holds the settings shared by every builder derived from one Init call.
type config struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	recover        bool
}

// Option configures the builders returned by [Init].
type Option func(*config)

// WithLogger sets the logger used for invocation logs.
// By default logs are discarded.
//
// Example:
//
//	logger := logging.MustNew(logging.WithJSONHandler())
//	base := procedure.Init[*DB](procedure.WithLogger(logger.Logger()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider used to create one
// span per invocation. Defaults to the global provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = provider
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used for the
// procedure.invocations counter and procedure.duration histogram.
// Defaults to the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}

// WithRecover converts panics raised by middleware or handlers into an
// [*Error] with status 500. Disabled by default: panics propagate.
//
// Example:
//
//	base := procedure.Init[*DB](procedure.WithRecover(true))
func WithRecover(enabled bool) Option {
	return func(c *config) {
		c.recover = enabled
	}
}

func newConfig() *config {
	return &config{}
}

// normalize fills unset fields with defaults.
func (c *config) normalize() {
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}
}
