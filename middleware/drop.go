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

package middleware

import (
	"context"
	"net/http"

	"rivaas.dev/procedure"
)

// Messages maps abort keys to the messages reported to callers.
type Messages map[string]string

// DropFunc builds the error for an abort key. The status defaults to 400.
// Callers return the error; the procedure stops at that step.
type DropFunc func(key string, status ...int) error

// Dropping is the context produced by [Drop]: the previous context, unchanged,
// plus the Drop function.
type Dropping[C any] struct {
	Ctx  C
	Drop DropFunc
}

// Drop returns a middleware giving later steps a way to abort with a message
// taken from messages. An unknown key is used as the message itself.
//
// Example:
//
//	messages := middleware.Messages{
//	    "not-found": "no book with this id",
//	    "forbidden": "this book is private",
//	}
//
//	getBook := procedure.Query(
//	    procedure.Use(procedure.Input(base, schema), middleware.Drop[Session, GetBook](messages)),
//	    func(ctx context.Context, p procedure.Params[middleware.Dropping[Session], GetBook]) (*Book, error) {
//	        book, ok := p.Ctx.Ctx.Store.Book(p.Input.ID)
//	        if !ok {
//	            return nil, p.Ctx.Drop("not-found", http.StatusNotFound)
//	        }
//	        return book, nil
//	    },
//	)
func Drop[C, I any](messages Messages) procedure.Middleware[C, I, Dropping[C]] {
	drop := newDropFunc(messages)

	return func(_ context.Context, p procedure.Params[C, I]) (Dropping[C], error) {
		return Dropping[C]{Ctx: p.Ctx, Drop: drop}, nil
	}
}

func newDropFunc(messages Messages) DropFunc {
	return func(key string, status ...int) error {
		code := http.StatusBadRequest
		if len(status) > 0 && status[0] != 0 {
			code = status[0]
		}

		msg, ok := messages[key]
		if !ok {
			msg = key
		}

		return procedure.NewError(code, msg).WithCode(key)
	}
}
