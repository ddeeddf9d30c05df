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
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Hydrated is an entry of an [API]: a [Call], a nested [*API] or a [Value].
type Hydrated interface {
	hydrated()
}

// Call is a procedure bound to the root context of the hydration that
// produced it.
type Call func(ctx context.Context, raw any) (any, error)

func (Call) hydrated() {}

// Value is a blueprint literal passed through unchanged.
type Value struct {
	V any
}

func (Value) hydrated() {}

// API is the result of [Hydrate]: a tree with the shape of the blueprint in
// which every procedure has been bound to one root context. An API is created
// per root context and is safe for concurrent use.
type API struct {
	entries *orderedmap.OrderedMap[string, Hydrated]
}

func (*API) hydrated() {}

func newAPI(size int) *API {
	return &API{entries: orderedmap.New[string, Hydrated](size)}
}

// Hydrate binds root into every procedure of bp and returns the resulting
// tree. Nested blueprints are hydrated recursively; literals are copied as is.
// bp is not modified and nothing is cached: each call returns a fresh API.
//
// Procedures without an explicit name are named after their dotted path in bp.
// A nil bp hydrates to an empty API.
//
// Example:
//
//	api := procedure.Hydrate(blueprint, store)
//	book, err := api.Call(ctx, "books.get", map[string]any{"id": "42"})
func Hydrate[R any](bp *Blueprint[R], root R) *API {
	if bp == nil {
		return newAPI(0)
	}
	return bp.hydrateAPI(root, "")
}

// Keys returns the keys in blueprint order.
func (a *API) Keys() []string {
	keys := make([]string, 0, a.entries.Len())
	for pair := a.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of direct entries.
func (a *API) Len() int {
	return a.entries.Len()
}

// Get returns the direct entry stored under key.
func (a *API) Get(key string) (Hydrated, bool) {
	return a.entries.Get(key)
}

// Lookup resolves a dotted path, descending through nested groups.
func (a *API) Lookup(path string) (Hydrated, error) {
	var cur Hydrated = a
	for _, key := range strings.Split(path, ".") {
		group, ok := cur.(*API)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
		if cur, ok = group.entries.Get(key); !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
		}
	}
	return cur, nil
}

// Func returns the callable at path.
func (a *API) Func(path string) (Call, error) {
	h, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	call, ok := h.(Call)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotCallable, path, kindOf(h))
	}
	return call, nil
}

// Group returns the nested API at path.
func (a *API) Group(path string) (*API, error) {
	h, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	group, ok := h.(*API)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, not a group", ErrNotCallable, path, kindOf(h))
	}
	return group, nil
}

// Literal returns the literal value at path.
func (a *API) Literal(path string) (any, error) {
	h, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	v, ok := h.(Value)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %s, not a literal", ErrNotCallable, path, kindOf(h))
	}
	return v.V, nil
}

// Call invokes the procedure at path with raw input.
func (a *API) Call(ctx context.Context, path string, raw any) (any, error) {
	call, err := a.Func(path)
	if err != nil {
		return nil, err
	}
	return call(ctx, raw)
}

// Walk calls fn for every callable and literal in blueprint order, depth
// first. Groups are not reported themselves. A non-nil error from fn stops the
// walk and is returned.
func (a *API) Walk(fn func(path string, h Hydrated) error) error {
	return a.walk("", fn)
}

func (a *API) walk(prefix string, fn func(path string, h Hydrated) error) error {
	for pair := a.entries.Oldest(); pair != nil; pair = pair.Next() {
		path := joinPath(prefix, pair.Key)
		if group, ok := pair.Value.(*API); ok {
			if err := group.walk(path, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(path, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// CallAs invokes the procedure at path and asserts its result to O.
func CallAs[O any](ctx context.Context, api *API, path string, raw any) (O, error) {
	var zero O

	v, err := api.Call(ctx, path, raw)
	if err != nil {
		return zero, err
	}

	out, ok := assertAs[O](v)
	if !ok {
		return zero, fmt.Errorf("%w: %q returned %T, want %s", ErrResultType, path, v, typeName[O]())
	}
	return out, nil
}

func kindOf(h Hydrated) string {
	switch h.(type) {
	case Call:
		return "a procedure"
	case *API:
		return "a group"
	default:
		return "a literal"
	}
}
