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

import "context"

// Schema describes an expected input shape. Parse attempts to turn raw input
// into the normalized value T; any non-nil error is a parse failure.
//
// The output may differ from the raw input (coercion, defaults): middleware and
// handlers only ever observe the value returned by Parse.
//
// Implementations live in rivaas.dev/procedure/validation; any type with a
// matching method works.
type Schema[T any] interface {
	Parse(ctx context.Context, raw any) (T, error)
}

// SchemaFunc adapts a function to the [Schema] interface.
//
// Example:
//
//	positive := procedure.SchemaFunc[int](func(_ context.Context, raw any) (int, error) {
//	    n, ok := raw.(int)
//	    if !ok || n <= 0 {
//	        return 0, errors.New("want a positive int")
//	    }
//	    return n, nil
//	})
type SchemaFunc[T any] func(ctx context.Context, raw any) (T, error)

// Parse calls f(ctx, raw).
func (f SchemaFunc[T]) Parse(ctx context.Context, raw any) (T, error) {
	return f(ctx, raw)
}
