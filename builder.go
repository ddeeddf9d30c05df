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
	"reflect"
)

// Params is what every middleware step and the handler receive: the context
// accumulated so far and the validated input.
type Params[C, I any] struct {
	Ctx   C
	Input I
}

// Middleware transforms the current context C into the next context N.
// It observes the validated input. A non-nil error stops the pipeline and is
// returned to the caller unmodified.
type Middleware[C, I, N any] func(ctx context.Context, p Params[C, I]) (N, error)

// Handler is the terminal step of a procedure.
type Handler[C, I, O any] func(ctx context.Context, p Params[C, I]) (O, error)

// step is a middleware with its context and input types erased so that one
// slice can hold a chain whose context type changes at every step.
type step func(ctx context.Context, cur, input any) (any, error)

// Builder accumulates an input schema and an ordered list of middleware.
//
// R is the root context supplied when a procedure is bound, C the context type
// at the current point of the chain and I the validated input type.
//
// A Builder is an immutable value: [Input], [Use] and their method forms
// return a new Builder and never modify the receiver, so one Builder can be
// the common prefix of several procedures.
//
// Example:
//
//	base := procedure.Init[*Store]()
//	authed := procedure.Use(base, requireUser)
//
//	getBook := procedure.Query(
//	    procedure.Input(authed, validation.Struct[GetBook]()),
//	    func(ctx context.Context, p procedure.Params[Session, GetBook]) (*Book, error) {
//	        return p.Ctx.Store.Book(ctx, p.Input.ID)
//	    },
//	)
type Builder[R, C, I any] struct {
	schema Schema[I]
	steps  []step
	name   string
	obs    *observer
}

// Init returns an empty [Builder] for procedures bound to a root context of
// type R: no schema, no middleware.
func Init[R any](opts ...Option) Builder[R, R, any] {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.normalize()

	return Builder[R, R, any]{obs: newObserver(cfg)}
}

// Input returns a copy of b validating raw input with s.
//
// Calling Input again replaces the previous schema without notice. Middleware
// added before the replacement still expects the old input type; if the new
// type differs, invocations fail with [ErrContextShape].
func Input[R, C, I, O any](b Builder[R, C, I], s Schema[O]) Builder[R, C, O] {
	if isNil(s) {
		panic("procedure: Input called with a nil schema")
	}
	if b.schema != nil {
		b.observer().logger.Debug("procedure schema replaced", "procedure", b.name)
	}

	return Builder[R, C, O]{
		schema: s,
		steps:  b.steps,
		name:   b.name,
		obs:    b.obs,
	}
}

// Use returns a copy of b with mw appended to the middleware chain.
// The next step, or the handler, receives the context mw returns.
func Use[R, C, I, N any](b Builder[R, C, I], mw Middleware[C, I, N]) Builder[R, N, I] {
	if mw == nil {
		panic("procedure: Use called with a nil middleware")
	}

	idx := len(b.steps)
	wrapped := func(ctx context.Context, cur, input any) (any, error) {
		c, ok := assertAs[C](cur)
		if !ok {
			return nil, errShape(idx, "context", cur, typeName[C]())
		}
		in, ok := assertAs[I](input)
		if !ok {
			return nil, errShape(idx, "input", input, typeName[I]())
		}
		return mw(ctx, Params[C, I]{Ctx: c, Input: in})
	}

	steps := make([]step, idx, idx+1)
	copy(steps, b.steps)
	steps = append(steps, wrapped)

	return Builder[R, N, I]{
		schema: b.schema,
		steps:  steps,
		name:   b.name,
		obs:    b.obs,
	}
}

// Input is the method form of [Input] for a schema of the current input type.
func (b Builder[R, C, I]) Input(s Schema[I]) Builder[R, C, I] {
	return Input(b, s)
}

// Use is the method form of [Use] for middleware that keeps the context type.
func (b Builder[R, C, I]) Use(mw Middleware[C, I, C]) Builder[R, C, I] {
	return Use(b, mw)
}

// Named returns a copy of b whose procedures report name in logs, spans and
// metrics. Unnamed procedures take their blueprint path when hydrated.
func (b Builder[R, C, I]) Named(name string) Builder[R, C, I] {
	b.name = name
	return b
}

// Len returns the number of middleware steps.
func (b Builder[R, C, I]) Len() int {
	return len(b.steps)
}

// HasSchema reports whether an input schema has been set.
func (b Builder[R, C, I]) HasSchema() bool {
	return b.schema != nil
}

func (b Builder[R, C, I]) observer() *observer {
	if b.obs == nil {
		return getDefaultObserver()
	}
	return b.obs
}

// assertAs converts a type-erased value back to T. A nil value converts to the
// zero T when T can hold nil.
func assertAs[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}

	var zero T
	if v != nil {
		return zero, false
	}

	switch reflect.TypeFor[T]().Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return zero, true
	default:
		return zero, false
	}
}

// isNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
