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

package bookstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"rivaas.dev/procedure"
	"rivaas.dev/procedure/middleware"
	"rivaas.dev/procedure/validation"
)

// Version is published in the blueprint as a literal.
const Version = "1.0.0"

// Session is the root context: one per connected user.
type Session struct {
	Store *Store
	User  string
	Admin bool
}

// Request is the context every bookstore handler receives.
type Request struct {
	Session
	ID     string
	Logger *slog.Logger
	Drop   middleware.DropFunc
}

// Limits is published in the blueprint as a literal.
type Limits struct {
	DefaultPage int `json:"default_page"`
	MaxPage     int `json:"max_page"`
}

var messages = middleware.Messages{
	"not-found": "no book with this id",
	"duplicate": "this book is already in the catalog",
	"anonymous": "sign in first",
	"forbidden": "admin only",
}

// GetBook is the input of books.get.
type GetBook struct {
	ID string `json:"id" validate:"required"`
}

// ListBooks is the input of books.list.
type ListBooks struct {
	Author string `json:"author,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Limit  int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=100"`
	Offset int    `json:"offset,omitempty" jsonschema:"minimum=0"`
}

// CreateBook is the input of books.create.
type CreateBook struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Author  string   `json:"author" validate:"required"`
	Year    int      `json:"year" validate:"min=1450,max=2100"`
	Tags    []string `json:"tags" validate:"max=5,dive,slug"`
	Private bool     `json:"private"`
}

// DeleteBook is the input of admin.delete.
type DeleteBook struct {
	ID string `json:"id" validate:"required"`
}

// Stats is the output of admin.stats.
type Stats struct {
	Books     int    `json:"books"`
	User      string `json:"user"`
	RequestID string `json:"request_id"`
}

const searchSchema = `{
	"type": "object",
	"properties": {
		"q": {"type": "string", "minLength": 2}
	},
	"required": ["q"]
}`

const statsSchema = `{"type": ["object", "null"]}`

// Options configures the procedures built by [Blueprint].
type Options struct {
	Procedure []procedure.Option
	RequestID []middleware.RequestIDOption
}

// chain is the prefix shared by every bookstore procedure: request ID, abort
// helper, then a flat [Request] context.
func chain(opts Options) procedure.Builder[Session, Request, any] {
	withID := procedure.Use(procedure.Init[Session](opts.Procedure...), middleware.RequestID[Session, any](opts.RequestID...))
	dropping := procedure.Use(withID, middleware.Drop[middleware.Identified[Session], any](messages))

	return procedure.Use(dropping, func(_ context.Context, p procedure.Params[middleware.Dropping[middleware.Identified[Session]], any]) (Request, error) {
		id := p.Ctx.Ctx
		return Request{
			Session: id.Ctx,
			ID:      id.ID,
			Logger:  id.Logger.With("user", id.Ctx.User),
			Drop:    p.Ctx.Drop,
		}, nil
	})
}

func requireUser(_ context.Context, p procedure.Params[Request, any]) (Request, error) {
	if p.Ctx.User == "" {
		return p.Ctx, p.Ctx.Drop("anonymous", http.StatusUnauthorized)
	}
	return p.Ctx, nil
}

func requireAdmin(_ context.Context, p procedure.Params[Request, any]) (Request, error) {
	if !p.Ctx.Admin {
		return p.Ctx, p.Ctx.Drop("forbidden", http.StatusForbidden)
	}
	return p.Ctx, nil
}

// Blueprint describes the bookstore API:
//
//	books.get     books.list     books.search     books.create
//	admin.delete  admin.stats
//	version       limits
func Blueprint(opts Options) (*procedure.Blueprint[Session], error) {
	base := chain(opts)
	signedIn := base.Use(requireUser)
	admin := signedIn.Use(requireAdmin)

	adminGroup, err := procedure.FromMap[Session](map[string]any{
		"delete": deleteBook(admin),
		"stats":  stats(admin),
	})
	if err != nil {
		return nil, fmt.Errorf("admin procedures: %w", err)
	}

	return procedure.NewBlueprint[Session]().
		Group("books", procedure.NewBlueprint[Session]().
			Set("get", getBook(base)).
			Set("list", listBooks(base)).
			Set("search", searchBooks(base)).
			Set("create", createBook(signedIn))).
		Group("admin", adminGroup).
		Literal("version", Version).
		Literal("limits", Limits{DefaultPage: 20, MaxPage: 100}), nil
}

func visible(s Session) func(Book) bool {
	return func(b Book) bool {
		return !b.Private || s.Admin
	}
}

func getBook(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, GetBook, Book] {
	return procedure.Query(procedure.Input(b, validation.Struct[GetBook]()),
		func(_ context.Context, p procedure.Params[Request, GetBook]) (Book, error) {
			book, ok := p.Ctx.Store.Get(p.Input.ID)
			if !ok || !visible(p.Ctx.Session)(book) {
				return Book{}, p.Ctx.Drop("not-found", http.StatusNotFound)
			}
			return book, nil
		})
}

func listBooks(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, ListBooks, []Book] {
	return procedure.Query(procedure.Input(b, validation.Reflect[ListBooks]()),
		func(_ context.Context, p procedure.Params[Request, ListBooks]) ([]Book, error) {
			in := p.Input
			if in.Limit == 0 {
				in.Limit = 20
			}

			show := visible(p.Ctx.Session)
			return p.Ctx.Store.Filter(func(book Book) bool {
				if !show(book) {
					return false
				}
				if in.Author != "" && !strings.EqualFold(book.Author, in.Author) {
					return false
				}
				return in.Tag == "" || containsFold(book.Tags, in.Tag)
			}, in.Offset, in.Limit), nil
		})
}

func searchBooks(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, any, []Book] {
	return procedure.Query(procedure.Input(b, validation.MustJSON("bookstore.search", searchSchema)),
		func(_ context.Context, p procedure.Params[Request, any]) ([]Book, error) {
			in, _ := p.Input.(map[string]any)
			q, _ := in["q"].(string)
			q = strings.ToLower(q)

			show := visible(p.Ctx.Session)
			return p.Ctx.Store.Filter(func(book Book) bool {
				return show(book) && (strings.Contains(strings.ToLower(book.Title), q) ||
					strings.Contains(strings.ToLower(book.Author), q))
			}, 0, 0), nil
		})
}

func createBook(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, CreateBook, Book] {
	return procedure.Query(procedure.Input(b, validation.Struct[CreateBook]()),
		func(_ context.Context, p procedure.Params[Request, CreateBook]) (Book, error) {
			if err := distinctTags(p.Input.Tags); err != nil {
				return Book{}, err
			}

			book, err := p.Ctx.Store.Add(Book{
				Title:   p.Input.Title,
				Author:  p.Input.Author,
				Year:    p.Input.Year,
				Tags:    p.Input.Tags,
				Private: p.Input.Private,
			})
			if errors.Is(err, ErrDuplicate) {
				return Book{}, p.Ctx.Drop("duplicate", http.StatusConflict)
			}
			if err != nil {
				return Book{}, err
			}

			p.Ctx.Logger.Info("book created", "id", book.ID, "title", book.Title)
			return book, nil
		})
}

// distinctTags reports every repeated tag as a field error pointing at the
// repetition.
func distinctTags(tags []string) error {
	var verr validation.Error
	seen := make(map[string]int, len(tags))
	for i, tag := range tags {
		if first, ok := seen[tag]; ok {
			verr.Add(fmt.Sprintf("tags.%d", i), "tags.duplicate",
				fmt.Sprintf("repeats tags.%d", first), map[string]any{"tag": tag})
			continue
		}
		seen[tag] = i
	}

	if len(verr.Fields) == 0 {
		return nil
	}
	return &verr
}

func deleteBook(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, DeleteBook, bool] {
	return procedure.Query(procedure.Input(b, validation.Struct[DeleteBook]()),
		func(_ context.Context, p procedure.Params[Request, DeleteBook]) (bool, error) {
			if !p.Ctx.Store.Delete(p.Input.ID) {
				return false, p.Ctx.Drop("not-found", http.StatusNotFound)
			}
			p.Ctx.Logger.Info("book deleted", "id", p.Input.ID)
			return true, nil
		})
}

func stats(b procedure.Builder[Session, Request, any]) *procedure.Procedure[Session, any, Stats] {
	return procedure.Query(procedure.Input(b, validation.MustJSON("bookstore.stats", statsSchema)),
		func(_ context.Context, p procedure.Params[Request, any]) (Stats, error) {
			return Stats{Books: p.Ctx.Store.Len(), User: p.Ctx.User, RequestID: p.Ctx.ID}, nil
		})
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
