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

package middleware

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/procedure"
)

type requestIDKey struct{}

// Identified is the context produced by [RequestID].
type Identified[C any] struct {
	Ctx C

	// ID identifies this invocation.
	ID string

	// Logger carries a request_id attribute.
	Logger *slog.Logger
}

// RequestIDOption configures [RequestID].
type RequestIDOption func(*requestIDConfig)

type requestIDConfig struct {
	generator     func() string
	allowCallerID bool
	logger        *slog.Logger
}

func defaultRequestIDConfig() *requestIDConfig {
	return &requestIDConfig{
		generator:     generateUUIDv7,
		allowCallerID: true,
		logger:        slog.New(slog.DiscardHandler),
	}
}

// generateUUIDv7 returns a time-ordered UUID (RFC 9562).
func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ulidEntropy gives monotonic ordering within one millisecond.
var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// WithULID generates 26-character ULIDs instead of UUID v7.
func WithULID() RequestIDOption {
	return func(c *requestIDConfig) {
		c.generator = generateULID
	}
}

// WithGenerator sets a custom ID generator.
func WithGenerator(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.generator = fn
	}
}

// WithAllowCallerID controls whether an ID placed in the context with
// [ContextWithRequestID] is reused. Enabled by default.
func WithAllowCallerID(allow bool) RequestIDOption {
	return func(c *requestIDConfig) {
		c.allowCallerID = allow
	}
}

// WithRequestLogger sets the logger that [Identified.Logger] is derived from.
func WithRequestLogger(logger *slog.Logger) RequestIDOption {
	return func(c *requestIDConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// RequestID returns a middleware that assigns an ID to each invocation.
//
// Example:
//
//	base := procedure.Use(procedure.Init[*Store](), middleware.RequestID[*Store, any](
//	    middleware.WithULID(),
//	    middleware.WithRequestLogger(logger),
//	))
func RequestID[C, I any](opts ...RequestIDOption) procedure.Middleware[C, I, Identified[C]] {
	cfg := defaultRequestIDConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx context.Context, p procedure.Params[C, I]) (Identified[C], error) {
		var id string
		if cfg.allowCallerID {
			id = RequestIDFromContext(ctx)
		}
		if id == "" {
			id = cfg.generator()
		}

		return Identified[C]{
			Ctx:    p.Ctx,
			ID:     id,
			Logger: cfg.logger.With("request_id", id),
		}, nil
	}
}

// ContextWithRequestID returns a copy of ctx carrying id, for callers that
// already have a correlation ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the ID stored by [ContextWithRequestID], or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
