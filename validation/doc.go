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

// Package validation provides input schemas for procedures: each schema
// attempts to parse a raw value into a typed input and reports why it could
// not.
//
// # Schemas
//
// Three schema kinds are available, all with a Parse(ctx, raw) method:
//
//  1. [Struct] decodes maps or JSON into a struct with weak typing, fills
//     `default` tags and checks go-playground/validator `validate` tags
//  2. [JSON] validates against a hand-written JSON Schema document and returns
//     the JSON-normalized value
//  3. [Reflect] generates a JSON Schema from a Go type, validates against it and
//     decodes into that type
//
// Example:
//
//	type CreateBook struct {
//		Title  string   `json:"title" validate:"required,max=200"`
//		Year   int      `json:"year" validate:"min=1450"`
//		Format string   `json:"format" default:"paperback" validate:"oneof=paperback hardcover ebook"`
//		Tags   []string `json:"tags"`
//	}
//
//	create := procedure.Query(
//		procedure.Input(base, validation.Struct[CreateBook]()),
//		handler,
//	)
//
// # Errors
//
// Parse failures are an [*Error] holding one [FieldError] per failed check,
// sorted by path. Paths use json names ("items.2.price") and codes are stable
// ("tag.required", "schema.minLength", "decode").
//
//	var verr *validation.Error
//	if errors.As(err, &verr) && verr.Has("title") {
//		// ...
//	}
//
// # Validator
//
// A [Validator] owns the go-playground engine (with the built-in "username",
// "slug" and "strong_password" tags plus any [WithCustomTag] registrations)
// and a cache of compiled JSON Schemas keyed by schema id. Package-level
// constructors use a shared default Validator; use [New] with [StructWith],
// [ReflectWith] or [Validator.JSON] for a custom one.
//
// # Thread Safety
//
// Validators and schemas are safe for concurrent use.
//
// # Security
//
// Recursion over nested errors and defaults is bounded (max depth: 100), the
// number of reported errors can be capped with [WithMaxErrors] and sensitive
// values can be hidden with [WithRedactor].
package validation
