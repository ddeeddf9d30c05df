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
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ErrDuplicate is returned by [Store.Add] for a title already held for the
// same author.
var ErrDuplicate = errors.New("book already exists")

// Book is a catalog entry.
type Book struct {
	ID      string   `json:"id" yaml:"id" toml:"id"`
	Title   string   `json:"title" yaml:"title" toml:"title"`
	Author  string   `json:"author" yaml:"author" toml:"author"`
	Year    int      `json:"year" yaml:"year" toml:"year"`
	Tags    []string `json:"tags,omitempty" yaml:"tags" toml:"tags"`
	Private bool     `json:"private,omitempty" yaml:"private" toml:"private"`
}

// Store is an in-memory catalog safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	books  map[string]Book
	order  []string
	nextID int
}

// NewStore returns a store holding books. Books without an ID get one.
func NewStore(books ...Book) *Store {
	s := &Store{books: make(map[string]Book, len(books))}
	for _, b := range books {
		_, _ = s.Add(b)
	}
	return s
}

// Add stores b and returns it with its ID set.
func (s *Store) Add(b Book) (Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.books {
		if strings.EqualFold(existing.Title, b.Title) && strings.EqualFold(existing.Author, b.Author) {
			return Book{}, ErrDuplicate
		}
	}

	if b.ID == "" {
		s.nextID++
		b.ID = "b" + strconv.Itoa(s.nextID)
	}
	if _, ok := s.books[b.ID]; ok {
		return Book{}, ErrDuplicate
	}

	b.Tags = slices.Clone(b.Tags)
	s.books[b.ID] = b
	s.order = append(s.order, b.ID)
	return b, nil
}

// Get returns the book with the given ID.
func (s *Store) Get(id string) (Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	return b, ok
}

// Delete removes a book and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return false
	}
	delete(s.books, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}

// Filter selects books in insertion order. A nil match selects everything.
func (s *Store) Filter(match func(Book) bool, offset, limit int) []Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Book{}
	skipped := 0
	for _, id := range s.order {
		b := s.books[id]
		if match != nil && !match(b) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, b)
	}
	return out
}

// Len returns the number of books.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Seed returns the books the demo starts with.
func Seed() []Book {
	return []Book{
		{ID: "dune", Title: "Dune", Author: "Frank Herbert", Year: 1965, Tags: []string{"sf"}},
		{ID: "earthsea", Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Year: 1968, Tags: []string{"fantasy"}},
		{ID: "dispossessed", Title: "The Dispossessed", Author: "Ursula K. Le Guin", Year: 1974, Tags: []string{"sf"}},
		{ID: "drafts", Title: "Unpublished Drafts", Author: "Anonymous", Year: 2024, Private: true},
	}
}
