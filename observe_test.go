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

package procedure_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rivaas.dev/procedure"
	"rivaas.dev/procedure/logging"
)

type telemetry struct {
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *logging.TestHelper
	opts   []procedure.Option
}

func newTelemetry(t *testing.T) *telemetry {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	logs := logging.NewTestHelper(t)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	return &telemetry{
		spans:  spans,
		reader: reader,
		logs:   logs,
		opts: []procedure.Option{
			procedure.WithTracerProvider(tp),
			procedure.WithMeterProvider(mp),
			procedure.WithLogger(logs.Logger.Logger()),
		},
	}
}

// invocations returns the counter value per outcome for the named procedure.
func (tm *telemetry) invocations(t *testing.T, name string) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, tm.reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "procedure.invocations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "procedure.invocations is %T", m.Data)
			for _, dp := range sum.DataPoints {
				if v, _ := dp.Attributes.Value("procedure.name"); v.AsString() != name {
					continue
				}
				outcome, _ := dp.Attributes.Value("outcome")
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestObserve_SpanPerInvocation(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	proc := procedure.Query(
		procedure.Input(procedure.Init[rootCtx](tm.opts...), atoi).
			Use(func(_ context.Context, p procedure.Params[rootCtx, int]) (rootCtx, error) { return p.Ctx, nil }),
		func(_ context.Context, p procedure.Params[rootCtx, int]) (int, error) {
			if p.Input < 0 {
				return 0, procedure.NewError(http.StatusForbidden, "negative")
			}
			return p.Input, nil
		},
	).Named("numbers.echo")

	call := proc.Bind(rootCtx{})
	_, err := call(context.Background(), 1)
	require.NoError(t, err)
	_, err = call(context.Background(), -1)
	require.Error(t, err)

	ended := tm.spans.Ended()
	require.Len(t, ended, 2)

	ok, failed := ended[0], ended[1]
	assert.Equal(t, "procedure.invoke", ok.Name())

	name, found := spanAttr(ok, "procedure.name")
	require.True(t, found)
	assert.Equal(t, "numbers.echo", name.AsString())

	steps, found := spanAttr(ok, "procedure.steps")
	require.True(t, found)
	assert.Equal(t, int64(1), steps.AsInt64())

	status, found := spanAttr(failed, "procedure.status")
	require.True(t, found)
	assert.Equal(t, int64(http.StatusForbidden), status.AsInt64())
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.Equal(t, codes.Unset, ok.Status().Code)
}

func TestObserve_OutcomeMetrics(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	errBackend := errors.New("backend down")

	proc := procedure.Query(procedure.Input(procedure.Init[rootCtx](tm.opts...), atoi),
		func(_ context.Context, p procedure.Params[rootCtx, int]) (int, error) {
			switch p.Input {
			case 1:
				return 0, procedure.NewError(http.StatusNotFound, "missing")
			case 2:
				return 0, errBackend
			default:
				return p.Input, nil
			}
		}).Named("metrics")
	call := proc.Bind(rootCtx{})

	for _, raw := range []any{0, 5, 1, 2, "bad"} {
		_, _ = call(context.Background(), raw)
	}

	assert.Equal(t, map[string]int64{
		"ok":      2,
		"aborted": 1,
		"error":   1,
		"invalid": 1,
	}, tm.invocations(t, "metrics"))
}

func TestObserve_HydratedNamesFollowPath(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	b := procedure.Input(procedure.Init[rootCtx](tm.opts...), atoi)
	handler := func(_ context.Context, p procedure.Params[rootCtx, int]) (int, error) { return p.Input, nil }

	bp := procedure.NewBlueprint[rootCtx]().
		Group("books", procedure.NewBlueprint[rootCtx]().
			Set("get", procedure.Query(b, handler)).
			Set("list", procedure.Query(b.Named("books.all"), handler)))
	api := procedure.Hydrate(bp, rootCtx{})

	_, err := api.Call(context.Background(), "books.get", 1)
	require.NoError(t, err)
	_, err = api.Call(context.Background(), "books.list", 1)
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"ok": 1}, tm.invocations(t, "books.get"))
	assert.Equal(t, map[string]int64{"ok": 1}, tm.invocations(t, "books.all"))
}

func TestObserve_Logs(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	proc := procedure.Query(procedure.Input(procedure.Init[rootCtx](tm.opts...), atoi),
		func(_ context.Context, p procedure.Params[rootCtx, int]) (int, error) {
			if p.Input == 0 {
				return 0, procedure.NewError(http.StatusConflict, "taken")
			}
			return p.Input, nil
		}).Named("logged")
	call := proc.Bind(rootCtx{})

	_, _ = call(context.Background(), "x")
	tm.logs.AssertLog(t, "DEBUG", "procedure input rejected", map[string]any{"procedure": "logged"})
	tm.logs.AssertLog(t, "DEBUG", "procedure input not valid", map[string]any{"procedure": "logged"})

	_, _ = call(context.Background(), 0)
	tm.logs.AssertLog(t, "INFO", "procedure aborted", map[string]any{
		"procedure": "logged",
		"status":    http.StatusConflict,
		"error":     "taken",
	})

	entry, err := tm.logs.LastLog()
	require.NoError(t, err)
	assert.NotEmpty(t, entry.Attrs["trace_id"], "logs carry the invocation span")
}

func TestObserve_RecoveredPanicIsLogged(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	opts := append([]procedure.Option{procedure.WithRecover(true)}, tm.opts...)
	proc := procedure.Query(procedure.Input(procedure.Init[rootCtx](opts...), atoi),
		func(context.Context, procedure.Params[rootCtx, int]) (int, error) {
			panic("kaboom")
		}).Named("panics")

	_, err := proc.Bind(rootCtx{})(context.Background(), 1)
	require.ErrorIs(t, err, procedure.ErrPanic)

	tm.logs.AssertLog(t, "ERROR", "procedure panicked", map[string]any{"panic": "kaboom"})
	assert.Equal(t, map[string]int64{"error": 1}, tm.invocations(t, "panics"))
	require.Len(t, tm.spans.Ended(), 1)
	assert.Equal(t, codes.Error, tm.spans.Ended()[0].Status().Code)
}

func TestObserve_UnrecoveredPanicEndsSpan(t *testing.T) {
	t.Parallel()

	tm := newTelemetry(t)
	proc := procedure.Query(procedure.Input(procedure.Init[rootCtx](tm.opts...), atoi),
		func(context.Context, procedure.Params[rootCtx, int]) (int, error) {
			panic("kaboom")
		}).Named("crashes")

	assert.Panics(t, func() { _, _ = proc.Bind(rootCtx{})(context.Background(), 1) })

	require.Len(t, tm.spans.Ended(), 1)
	assert.Equal(t, codes.Error, tm.spans.Ended()[0].Status().Code)
	assert.Equal(t, map[string]int64{"error": 1}, tm.invocations(t, "crashes"))
}
