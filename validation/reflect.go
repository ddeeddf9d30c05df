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

package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	invjsonschema "github.com/invopop/jsonschema"
)

// ReflectSchema validates raw input against a JSON Schema generated from T
// and then decodes it into T.
//
// The schema follows invopop/jsonschema conventions: fields without
// `omitempty` are required and `jsonschema:"…"` tags add constraints such as
// minimum, maxLength or enum.
type ReflectSchema[T any] struct {
	json *JSONSchema
	doc  []byte
}

// Reflect builds a [ReflectSchema] for T with the default [Validator].
// It panics when T cannot be reflected into a valid schema.
//
// Example:
//
//	type Search struct {
//	    Query string `json:"q" jsonschema:"minLength=1"`
//	    Page  int    `json:"page,omitempty" jsonschema:"minimum=1"`
//	}
//
//	search := validation.Reflect[Search]()
func Reflect[T any](opts ...Option) *ReflectSchema[T] {
	s, err := ReflectWith[T](getDefaultValidator(), opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.Reflect: %v", err))
	}
	return s
}

// ReflectWith builds a [ReflectSchema] for T backed by v.
func ReflectWith[T any](v *Validator, opts ...Option) (*ReflectSchema[T], error) {
	cfg := applyOptions(v.cfg, opts...)

	r := &invjsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: cfg.allowAdditionalProperties,
	}
	doc, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return nil, fmt.Errorf("%w: encode reflected schema: %w", ErrSchemaCompile, err)
	}

	id := fmt.Sprintf("reflect:%s:additional=%t", qualifiedTypeName(reflect.TypeFor[T]()), cfg.allowAdditionalProperties)
	js, err := v.JSON(id, string(doc), opts...)
	if err != nil {
		return nil, err
	}

	return &ReflectSchema[T]{json: js, doc: doc}, nil
}

// Parse validates raw against the reflected schema and decodes it into T.
func (s *ReflectSchema[T]) Parse(ctx context.Context, raw any) (T, error) {
	var out T

	data, err := s.json.Parse(ctx, raw)
	if err != nil {
		return out, err
	}

	b, err := json.Marshal(data)
	if err == nil {
		err = json.Unmarshal(b, &out)
	}
	if err != nil {
		var zero T
		return zero, &Error{Fields: []FieldError{{Code: "decode", Message: err.Error()}}}
	}

	return out, nil
}

// qualifiedTypeName names t by import path, so same-named types from
// different packages get distinct schema ids.
func qualifiedTypeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Document returns the generated JSON Schema.
func (s *ReflectSchema[T]) Document() json.RawMessage {
	return json.RawMessage(s.doc)
}
