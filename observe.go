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
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/procedure/logging"
)

const (
	instrumentationName = "rivaas.dev/procedure"

	spanName = "procedure.invoke"

	metricInvocations = "procedure.invocations"
	metricDuration    = "procedure.duration"

	// maxStackSize caps the stack trace logged for a recovered panic.
	maxStackSize = 4 << 10
)

// Outcome labels recorded on the invocation counter.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeAborted = "aborted"
	outcomeError   = "error"
)

// observer holds the instrumentation shared by all procedures built from one
// Init call.
type observer struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	recover bool

	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

var (
	defaultObserver     *observer
	defaultObserverOnce sync.Once
)

// getDefaultObserver serves zero-value builders that never went through Init.
func getDefaultObserver() *observer {
	defaultObserverOnce.Do(func() {
		cfg := newConfig()
		cfg.normalize()
		defaultObserver = newObserver(cfg)
	})
	return defaultObserver
}

func newObserver(cfg *config) *observer {
	o := &observer{
		logger:  cfg.logger,
		tracer:  cfg.tracerProvider.Tracer(instrumentationName),
		recover: cfg.recover,
	}

	meter := cfg.meterProvider.Meter(instrumentationName)

	var err error
	o.invocations, err = meter.Int64Counter(metricInvocations,
		metric.WithDescription("Number of procedure invocations by outcome"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		o.logger.Warn("failed to create metric", "metric", metricInvocations, "error", err)
		o.invocations = metricnoop.Int64Counter{}
	}

	o.duration, err = meter.Float64Histogram(metricDuration,
		metric.WithDescription("Duration of procedure invocations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		o.logger.Warn("failed to create metric", "metric", metricDuration, "error", err)
		o.duration = metricnoop.Float64Histogram{}
	}

	return o
}

// invocation tracks a single call from validation to handler completion.
type invocation struct {
	obs    *observer
	ctx    context.Context
	span   trace.Span
	logger *slog.Logger
	name   string
	start  time.Time
}

func (o *observer) start(ctx context.Context, name string, steps int) (context.Context, *invocation) {
	ctx, span := o.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("procedure.name", name),
			attribute.Int("procedure.steps", steps),
		),
	)

	return ctx, &invocation{
		obs:    o,
		ctx:    ctx,
		span:   span,
		logger: logging.WithTrace(ctx, o.logger.With("procedure", name)),
		name:   name,
		start:  time.Now(),
	}
}

// rejected logs schema diagnostics, which are never surfaced on the error.
func (inv *invocation) rejected(cause error) {
	inv.logger.DebugContext(inv.ctx, "procedure input rejected", "error", cause)
}

// panicked converts a recovered panic value into an error and logs it.
func (inv *invocation) panicked(v any) *Error {
	stack := debug.Stack()
	if len(stack) > maxStackSize {
		stack = stack[:maxStackSize]
	}
	inv.logger.ErrorContext(inv.ctx, "procedure panicked", "panic", v, "stack", string(stack))
	return errPanic(v)
}

func (inv *invocation) end(err error) {
	elapsed := time.Since(inv.start)
	outcome, status := classify(err)

	inv.span.SetAttributes(attribute.Int("procedure.status", status))
	if err != nil {
		inv.span.RecordError(err)
		inv.span.SetStatus(codes.Error, err.Error())
	}
	inv.span.End()

	attrs := metric.WithAttributes(
		attribute.String("procedure.name", inv.name),
		attribute.String("outcome", outcome),
	)
	inv.obs.invocations.Add(inv.ctx, 1, attrs)
	inv.obs.duration.Record(inv.ctx, elapsed.Seconds(), attrs)

	switch outcome {
	case outcomeOK:
		inv.logger.DebugContext(inv.ctx, "procedure completed", "duration", elapsed)
	case outcomeInvalid:
		inv.logger.DebugContext(inv.ctx, "procedure input not valid", "duration", elapsed)
	case outcomeAborted:
		inv.logger.InfoContext(inv.ctx, "procedure aborted", "status", status, "error", err, "duration", elapsed)
	default:
		if status > 0 {
			inv.logger.WarnContext(inv.ctx, "procedure failed", "status", status, "error", err, "duration", elapsed)
			return
		}
		inv.logger.ErrorContext(inv.ctx, "procedure failed", "error", err, "duration", elapsed)
	}
}

// classify maps an invocation result to an outcome label and status.
// Errors that are not an [*Error] report status 0.
func classify(err error) (outcome string, status int) {
	if err == nil {
		return outcomeOK, http.StatusOK
	}

	var perr *Error
	if !errors.As(err, &perr) {
		return outcomeError, 0
	}

	switch {
	case errors.Is(perr, ErrInputNotValid):
		return outcomeInvalid, perr.Status
	case perr.Status < http.StatusInternalServerError:
		return outcomeAborted, perr.Status
	default:
		return outcomeError, perr.Status
	}
}
