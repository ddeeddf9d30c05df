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

package bookstore_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/procedure"
	"rivaas.dev/procedure/internal/bookstore"
	"rivaas.dev/procedure/middleware"
)

func statusOf(err error) int {
	var perr *procedure.Error
	if !errors.As(err, &perr) {
		return 0
	}
	return perr.Status
}

var _ = Describe("Bookstore Integration", func() {
	var (
		bp    *procedure.Blueprint[bookstore.Session]
		store *bookstore.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		bp, err = bookstore.Blueprint(bookstore.Options{
			RequestID: []middleware.RequestIDOption{middleware.WithULID()},
		})
		Expect(err).NotTo(HaveOccurred())

		store = bookstore.NewStore(bookstore.Seed()...)
		ctx = context.Background()
	})

	Describe("Hydration", func() {
		It("should build one API per session from the same blueprint", func() {
			reader := procedure.Hydrate(bp, bookstore.Session{Store: store, User: "ada"})
			admin := procedure.Hydrate(bp, bookstore.Session{Store: store, User: "root", Admin: true})

			Expect(reader.Keys()).To(Equal(admin.Keys()))

			_, err := reader.Call(ctx, "admin.stats", nil)
			Expect(statusOf(err)).To(Equal(http.StatusForbidden))

			st, err := procedure.CallAs[bookstore.Stats](ctx, admin, "admin.stats", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.User).To(Equal("root"))
			Expect(st.RequestID).To(HaveLen(26))
		})

		It("should expose literals untouched", func() {
			api := procedure.Hydrate(bp, bookstore.Session{Store: store})

			version, err := api.Literal("version")
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(Equal(bookstore.Version))
		})
	})

	Describe("Request IDs", func() {
		It("should reuse an ID carried by the caller context", func() {
			api := procedure.Hydrate(bp, bookstore.Session{Store: store, User: "root", Admin: true})

			st, err := procedure.CallAs[bookstore.Stats](middleware.ContextWithRequestID(ctx, "trace-me"), api, "admin.stats", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.RequestID).To(Equal("trace-me"))
		})
	})

	DescribeTable("should map failures to statuses",
		func(user string, admin bool, path string, input any, expected int) {
			api := procedure.Hydrate(bp, bookstore.Session{Store: store, User: user, Admin: admin})
			_, err := api.Call(ctx, path, input)
			Expect(statusOf(err)).To(Equal(expected))
		},
		Entry("missing book", "", false, "books.get", map[string]any{"id": "missing"}, http.StatusNotFound),
		Entry("short query", "", false, "books.search", map[string]any{"q": "a"}, http.StatusBadRequest),
		Entry("anonymous create", "", false, "books.create", map[string]any{"title": "T", "author": "A", "year": 2000}, http.StatusUnauthorized),
		Entry("duplicate create", "ada", false, "books.create", map[string]any{"title": "dune", "author": "frank herbert", "year": 1965}, http.StatusConflict),
		Entry("non-admin delete", "ada", false, "admin.delete", map[string]any{"id": "dune"}, http.StatusForbidden),
		Entry("unknown list field", "", false, "books.list", map[string]any{"page": 2}, http.StatusBadRequest),
	)

	Describe("Concurrency", func() {
		It("should serve many sessions against one store", func() {
			const sessions = 20
			var wg sync.WaitGroup

			for i := range sessions {
				wg.Add(1)
				go func(n int) {
					defer GinkgoRecover()
					defer wg.Done()

					api := procedure.Hydrate(bp, bookstore.Session{Store: store, User: fmt.Sprintf("user-%d", n)})
					_, err := api.Call(ctx, "books.create", map[string]any{
						"title":  fmt.Sprintf("Volume %d", n),
						"author": "Many Hands",
						"year":   2000 + n,
					})
					Expect(err).NotTo(HaveOccurred())
				}(i)
			}
			wg.Wait()

			api := procedure.Hydrate(bp, bookstore.Session{Store: store})
			books, err := procedure.CallAs[[]bookstore.Book](ctx, api, "books.list", map[string]any{"author": "many hands", "limit": 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(books).To(HaveLen(sessions))
		})
	})
})

//nolint:paralleltest // Ginkgo test suite manages its own parallelization
func TestBookstoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "Bookstore Integration Suite")
}
