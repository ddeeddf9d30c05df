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
	"fmt"
	"maps"
	"reflect"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// maxDepth bounds recursion when classifying nested maps in [FromMap].
const maxDepth = 100

// Node is an entry of a [Blueprint]. The set of variants is closed:
// [*Procedure] leaves, nested [*Blueprint] groups and [Literal] values.
type Node[R any] interface {
	hydrate(root R, path string) Hydrated
	rootType() reflect.Type
}

// Literal is an opaque blueprint value. It is copied into the hydrated API as
// a [Value] and never inspected, whatever its dynamic type (slices, maps,
// times and structs included).
type Literal[R any] struct {
	Value any
}

func (l Literal[R]) hydrate(R, string) Hydrated {
	return Value{V: l.Value}
}

func (l Literal[R]) rootType() reflect.Type {
	return reflect.TypeFor[R]()
}

// Blueprint is an ordered tree of procedures, nested blueprints and literal
// values sharing the root context type R. Keys keep their insertion order.
//
// A Blueprint is built once, typically at startup, and then only read;
// [Hydrate] never modifies it. Building is not safe for concurrent use.
//
// Example:
//
//	api := procedure.NewBlueprint[*Store]().
//	    Set("getBook", getBook).
//	    Group("admin", procedure.NewBlueprint[*Store]().
//	        Set("deleteBook", deleteBook)).
//	    Literal("version", "v1")
type Blueprint[R any] struct {
	entries *orderedmap.OrderedMap[string, Node[R]]
}

// NewBlueprint returns an empty [Blueprint].
func NewBlueprint[R any]() *Blueprint[R] {
	return &Blueprint[R]{entries: orderedmap.New[string, Node[R]]()}
}

// Set stores node under key. Replacing an existing key keeps its position.
// A nil node or nil blueprint is stored as a nil [Literal].
// Set panics if node is a Blueprint that contains b, which would make the tree
// cyclic.
func (b *Blueprint[R]) Set(key string, node Node[R]) *Blueprint[R] {
	if node == nil {
		node = Literal[R]{}
	}
	if sub, ok := node.(*Blueprint[R]); ok {
		switch {
		case sub == nil:
			node = Literal[R]{}
		case sub == b || sub.contains(b):
			panic(fmt.Sprintf("procedure: blueprint group %q would create a cycle", key))
		}
	}
	b.entries.Set(key, node)
	return b
}

// Group stores a nested blueprint under key.
func (b *Blueprint[R]) Group(key string, sub *Blueprint[R]) *Blueprint[R] {
	return b.Set(key, sub)
}

// Literal stores an opaque value under key.
func (b *Blueprint[R]) Literal(key string, value any) *Blueprint[R] {
	return b.Set(key, Literal[R]{Value: value})
}

// Get returns the node stored under key.
func (b *Blueprint[R]) Get(key string) (Node[R], bool) {
	return b.entries.Get(key)
}

// Keys returns the keys in insertion order.
func (b *Blueprint[R]) Keys() []string {
	keys := make([]string, 0, b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of direct entries.
func (b *Blueprint[R]) Len() int {
	return b.entries.Len()
}

func (b *Blueprint[R]) contains(target *Blueprint[R]) bool {
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		sub, ok := pair.Value.(*Blueprint[R])
		if !ok {
			continue
		}
		if sub == target || sub.contains(target) {
			return true
		}
	}
	return false
}

func (b *Blueprint[R]) hydrate(root R, path string) Hydrated {
	return b.hydrateAPI(root, path)
}

func (b *Blueprint[R]) hydrateAPI(root R, path string) *API {
	api := newAPI(b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		api.entries.Set(pair.Key, pair.Value.hydrate(root, joinPath(path, pair.Key)))
	}
	return api
}

func (b *Blueprint[R]) rootType() reflect.Type {
	return reflect.TypeFor[R]()
}

// FromMap builds a [Blueprint] from a plain map. Values that already are a
// [Node] keep their variant, non-nil maps with string keys (of any element
// type, named or not) become nested groups and everything else becomes a
// [Literal]. Keys are added in sorted order.
//
// FromMap returns an error when a procedure or blueprint expects a root
// context other than R, or when maps nest deeper than 100 levels.
func FromMap[R any](m map[string]any) (*Blueprint[R], error) {
	return fromMap[R](m, "", 0)
}

func fromMap[R any](m map[string]any, path string, depth int) (*Blueprint[R], error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("procedure: blueprint %q nests deeper than %d levels", path, maxDepth)
	}

	want := reflect.TypeFor[R]()
	bp := NewBlueprint[R]()
	for _, key := range slices.Sorted(maps.Keys(m)) {
		keyPath := joinPath(path, key)
		switch v := m[key].(type) {
		case Node[R]:
			bp.Set(key, v)
		case map[string]any:
			sub, err := fromMap[R](v, keyPath, depth+1)
			if err != nil {
				return nil, err
			}
			bp.Set(key, sub)
		case interface{ rootType() reflect.Type }:
			return nil, fmt.Errorf("procedure: blueprint entry %q expects root context %s, want %s",
				keyPath, v.rootType(), want)
		default:
			nested, ok := stringKeyed(v)
			if !ok {
				bp.Set(key, Literal[R]{Value: v})
				continue
			}
			sub, err := fromMap[R](nested, keyPath, depth+1)
			if err != nil {
				return nil, err
			}
			bp.Set(key, sub)
		}
	}
	return bp, nil
}

// stringKeyed copies a non-nil map whose key kind is string into a
// map[string]any.
func stringKeyed(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		out[it.Key().String()] = it.Value().Interface()
	}
	return out, true
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
