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

// Package telemetry builds the OpenTelemetry providers the demo hands to
// procedures: stdout exporters for spans and metrics, flushed on Shutdown.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Options selects which signals are exported and where.
type Options struct {
	Traces         bool
	Metrics        bool
	Output         io.Writer
	ServiceName    string
	ServiceVersion string
	PrettyPrint    bool
}

// Providers holds the tracer and meter providers. Disabled signals get noop
// providers so callers never branch on configuration.
type Providers struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	shutdown []func(context.Context) error
}

// New creates the providers described by opts.
func New(opts Options) (*Providers, error) {
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	p := &Providers{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	}
	res := createResource(opts.ServiceName, opts.ServiceVersion)

	if opts.Traces {
		traceOpts := []stdouttrace.Option{stdouttrace.WithWriter(opts.Output)}
		if opts.PrettyPrint {
			traceOpts = append(traceOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(traceOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}

		// Synchronous export keeps span output ordered with the command output.
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		p.TracerProvider = tp
		p.shutdown = append(p.shutdown, tp.Shutdown)
	}

	if opts.Metrics {
		metricOpts := []stdoutmetric.Option{stdoutmetric.WithWriter(opts.Output)}
		if opts.PrettyPrint {
			metricOpts = append(metricOpts, stdoutmetric.WithPrettyPrint())
		}
		exporter, err := stdoutmetric.New(metricOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metric exporter: %w", err)
		}

		// The periodic reader exports once more on shutdown, which is the
		// export a short-lived command relies on.
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(res),
		)
		p.MeterProvider = mp
		p.shutdown = append(p.shutdown, mp.Shutdown)
	}

	return p, nil
}

// Shutdown flushes and stops every SDK provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
