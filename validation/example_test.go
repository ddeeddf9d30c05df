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

package validation_test

import (
	"context"
	"errors"
	"fmt"

	"rivaas.dev/procedure/validation"
)

func ExampleStruct() {
	type ListBooks struct {
		Author string `json:"author" validate:"required"`
		Limit  int    `json:"limit" default:"20" validate:"min=1,max=100"`
	}

	schema := validation.Struct[ListBooks]()

	in, err := schema.Parse(context.Background(), map[string]any{"author": "Le Guin"})
	fmt.Println(in.Author, in.Limit, err)

	in, err = schema.Parse(context.Background(), map[string]any{"author": "Herbert", "limit": "5"})
	fmt.Println(in.Author, in.Limit, err)

	_, err = schema.Parse(context.Background(), map[string]any{"limit": 500})
	var verr *validation.Error
	if errors.As(err, &verr) {
		for _, f := range verr.Fields {
			fmt.Println(f.Path, f.Code)
		}
	}

	// Output:
	// Le Guin 20 <nil>
	// Herbert 5 <nil>
	// author tag.required
	// limit tag.max
}

func ExampleMustJSON() {
	schema := validation.MustJSON("isbn-lookup", `{
		"type": "object",
		"properties": {"isbn": {"type": "string", "pattern": "^[0-9-]{10,17}$"}},
		"required": ["isbn"]
	}`)

	v, err := schema.Parse(context.Background(), map[string]any{"isbn": "978-0441172719"})
	fmt.Println(v, err)

	_, err = schema.Parse(context.Background(), map[string]any{"isbn": "n/a"})
	fmt.Println(errors.Is(err, validation.ErrValidation))

	// Output:
	// map[isbn:978-0441172719] <nil>
	// true
}
