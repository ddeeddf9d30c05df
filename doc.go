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

// Package procedure builds type-safe request handling units ("procedures")
// out of an input schema, an ordered chain of context-transforming middleware
// and a terminal handler, and binds trees of them to a runtime root context.
//
// # Building
//
// Start from [Init], parameterized by the root context type, and chain
// [Input], [Use] and [Query]:
//
//	type Store struct{ /* database handle */ }
//	type Session struct {
//		Store *Store
//		User  string
//	}
//
//	base := procedure.Init[*Store]()
//
//	authed := procedure.Use(base, func(ctx context.Context, p procedure.Params[*Store, any]) (Session, error) {
//		return Session{Store: p.Ctx, User: userFrom(ctx)}, nil
//	})
//
//	getBook := procedure.Query(
//		procedure.Input(authed, validation.Struct[GetBook]()),
//		func(ctx context.Context, p procedure.Params[Session, GetBook]) (*Book, error) {
//			return p.Ctx.Store.Book(ctx, p.Input.ID)
//		},
//	)
//
// Builders are immutable values; every call returns a new one, so a builder
// can be shared as the prefix of many procedures.
//
// # Invocation
//
// A [Procedure] is bound to a root context with [Procedure.Bind]. Each call of
// the resulting [Func]:
//
//  1. parses the raw input with the schema; on failure it returns an [*Error]
//     with status 400 and message "input-not-valid" and no middleware runs,
//  2. runs every middleware step in insertion order, each one receiving the
//     context returned by the previous step (the root context for the first),
//  3. calls the handler with the last context and the parsed input.
//
// Errors returned by middleware and handlers propagate unchanged. A procedure
// finalized without [Input] fails every call with [ErrNoSchema].
//
// # Blueprints and hydration
//
// A [Blueprint] is an ordered tree of procedures, nested blueprints and
// literal values. [Hydrate] binds a root context into every procedure and
// returns an [API] of the same shape:
//
//	bp := procedure.NewBlueprint[*Store]().
//		Set("getBook", getBook).
//		Group("admin", procedure.NewBlueprint[*Store]().Set("deleteBook", deleteBook)).
//		Literal("version", "v1")
//
//	api := procedure.Hydrate(bp, store)
//	book, err := procedure.CallAs[*Book](ctx, api, "getBook", raw)
//
// # Observability
//
// Every invocation creates an OpenTelemetry span, updates the
// procedure.invocations counter and procedure.duration histogram and writes
// trace-correlated slog entries. See [WithLogger], [WithTracerProvider] and
// [WithMeterProvider].
package procedure
