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

package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	p, err := New(Options{})
	require.NoError(t, err)
	assert.IsType(t, tracenoop.TracerProvider{}, p.TracerProvider)
	assert.IsType(t, metricnoop.MeterProvider{}, p.MeterProvider)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_ExportsToOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := New(Options{
		Traces:         true,
		Metrics:        true,
		Output:         &buf,
		ServiceName:    "procedure-demo",
		ServiceVersion: "1.0.0",
	})
	require.NoError(t, err)

	_, span := p.TracerProvider.Tracer("test").Start(context.Background(), "books.get")
	span.End()

	counter, err := p.MeterProvider.Meter("test").Int64Counter("calls")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"books.get"`)
	assert.Contains(t, out, `"Name":"calls"`)
	assert.Contains(t, out, "procedure-demo")
}
