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

// Func is a procedure bound to a root context. Each call validates raw, runs
// the middleware chain in order and returns the handler's result.
type Func[O any] func(ctx context.Context, raw any) (O, error)

// Procedure is a finalized chain: schema, middleware and handler. It is
// created by [Query] and never changes afterwards; bind it to a root context
// with [Procedure.Bind] or place it in a [Blueprint].
type Procedure[R, I, O any] struct {
	schema  Schema[I]
	steps   []step
	handler func(ctx context.Context, cur any, input I) (O, error)
	name    string
	obs     *observer
}

// Query finalizes b with handler h.
//
// Finalization never fails because of a missing schema: a procedure built
// without [Input] returns an [*Error] wrapping [ErrNoSchema] on every call.
func Query[R, C, I, O any](b Builder[R, C, I], h Handler[C, I, O]) *Procedure[R, I, O] {
	if h == nil {
		panic("procedure: Query called with a nil handler")
	}

	idx := len(b.steps)
	handler := func(ctx context.Context, cur any, input I) (O, error) {
		c, ok := assertAs[C](cur)
		if !ok {
			var zero O
			return zero, errShape(idx, "context", cur, typeName[C]())
		}
		return h(ctx, Params[C, I]{Ctx: c, Input: input})
	}

	steps := make([]step, len(b.steps))
	copy(steps, b.steps)

	return &Procedure[R, I, O]{
		schema:  b.schema,
		steps:   steps,
		handler: handler,
		name:    b.name,
		obs:     b.obs,
	}
}

// Name returns the name set with [Builder.Named] or [Procedure.Named].
func (p *Procedure[R, I, O]) Name() string {
	return p.name
}

// Named returns a copy of p reporting name in logs, spans and metrics.
func (p *Procedure[R, I, O]) Named(name string) *Procedure[R, I, O] {
	c := *p
	c.name = name
	return &c
}

// Bind fixes the root context and returns the callable. The same Func may be
// called any number of times, concurrently, with different inputs.
func (p *Procedure[R, I, O]) Bind(root R) Func[O] {
	return p.bind(root, p.name)
}

func (p *Procedure[R, I, O]) bind(root R, name string) Func[O] {
	if name == "" {
		name = "procedure"
	}
	return func(ctx context.Context, raw any) (O, error) {
		return p.invoke(ctx, name, root, raw)
	}
}

func (p *Procedure[R, I, O]) invoke(ctx context.Context, name string, root R, raw any) (out O, err error) {
	obs := p.observer()
	ctx, inv := obs.start(ctx, name, len(p.steps))
	defer func() {
		if v := recover(); v != nil {
			perr := inv.panicked(v)
			if !obs.recover {
				inv.end(perr)
				panic(v)
			}
			var zero O
			out, err = zero, perr
		}
		inv.end(err)
	}()

	if p.schema == nil {
		return out, errNoSchema()
	}

	input, perr := p.schema.Parse(ctx, raw)
	if perr != nil {
		inv.rejected(perr)
		return out, errInputNotValid()
	}

	var cur any = root
	for _, s := range p.steps {
		cur, err = s(ctx, cur, input)
		if err != nil {
			return out, err
		}
	}

	return p.handler(ctx, cur, input)
}

// hydrate implements [Node].
func (p *Procedure[R, I, O]) hydrate(root R, path string) Hydrated {
	name := p.name
	if name == "" {
		name = path
	}
	f := p.bind(root, name)
	return Call(func(ctx context.Context, raw any) (any, error) {
		return f(ctx, raw)
	})
}

func (p *Procedure[R, I, O]) observer() *observer {
	if p.obs == nil {
		return getDefaultObserver()
	}
	return p.obs
}

func (p *Procedure[R, I, O]) rootType() reflect.Type {
	return reflect.TypeFor[R]()
}
