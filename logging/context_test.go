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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestWithTrace(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	th := NewTestHelper(t)
	WithTrace(ctx, th.Logger.Logger()).Info("inside span")
	WithTrace(context.Background(), th.Logger.Logger()).Info("outside span")

	entries, err := th.Logs()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].Attrs["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[0].Attrs["span_id"])
	assert.NotContains(t, entries[1].Attrs, "trace_id")
}

func TestWithTrace_FollowsLevelChanges(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	th := NewTestHelper(t, WithLevel(LevelWarn))
	traced := WithTrace(ctx, th.Logger.Logger())

	traced.DebugContext(ctx, "before")
	th.Logger.SetLevel(LevelDebug)
	traced.DebugContext(ctx, "after")
	traced.ErrorContext(ctx, "boom")

	assert.False(t, th.ContainsLog("before"))
	assert.Equal(t, 1, th.CountLevel("DEBUG"))
	assert.Equal(t, 1, th.CountLevel("ERROR"))
	th.AssertLog(t, "DEBUG", "after", map[string]any{"trace_id": span.SpanContext().TraceID().String()})
}
