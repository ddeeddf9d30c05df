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
	"fmt"
)

// StructSchema parses raw input into T and checks it.
//
// Accepted raw values:
//   - T or *T, used as is (nil pointers are rejected)
//   - maps, decoded with weak typing: "42" fills an int, "1h" a time.Duration,
//     RFC 3339 strings a time.Time, "a,b" a []string
//   - []byte and json.RawMessage holding a JSON document
//
// Zero fields with a `default:"…"` tag are then filled, `validate:"…"` tags are
// checked and finally the ValidateContext or Validate method of *T, if any, is
// called. Every failure is reported as an [*Error].
type StructSchema[T any] struct {
	v   *Validator
	cfg *config
}

// Struct returns a [StructSchema] backed by the default [Validator].
//
// Example:
//
//	type GetBook struct {
//	    ID    string `json:"id" validate:"required"`
//	    Limit int    `json:"limit" default:"20" validate:"min=1,max=100"`
//	}
//
//	getBook := procedure.Query(
//	    procedure.Input(base, validation.Struct[GetBook]()),
//	    handler,
//	)
func Struct[T any](opts ...Option) *StructSchema[T] {
	return StructWith[T](getDefaultValidator(), opts...)
}

// StructWith returns a [StructSchema] backed by v, for custom tags and
// messages registered with [New].
func StructWith[T any](v *Validator, opts ...Option) *StructSchema[T] {
	return &StructSchema[T]{v: v, cfg: applyOptions(v.cfg, opts...)}
}

// Parse converts raw into a checked T.
func (s *StructSchema[T]) Parse(ctx context.Context, raw any) (T, error) {
	var out T

	switch v := raw.(type) {
	case nil:
		return out, &Error{Fields: []FieldError{{Code: "decode", Message: ErrNilInput.Error()}}}
	case T:
		out = v
	case *T:
		if v == nil {
			return out, &Error{Fields: []FieldError{{Code: "decode", Message: ErrNilInput.Error()}}}
		}
		out = *v
	default:
		if err := decodeInto(raw, &out, s.cfg); err != nil {
			var zero T
			return zero, decodeErrors(err)
		}
	}

	if err := applyDefaults(&out); err != nil {
		var zero T
		return zero, &Error{Fields: []FieldError{{Code: "default", Message: err.Error()}}}
	}

	if err := s.v.validate(ctx, &out, s.cfg); err != nil {
		var zero T
		return zero, err
	}

	return out, nil
}

// String describes the schema for logs.
func (s *StructSchema[T]) String() string {
	var zero T
	return fmt.Sprintf("struct schema %T", zero)
}
