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

// Package middleware provides reusable procedure middleware.
//
// # Drop
//
// [Drop] adds an abort helper to the context. Later steps call
// Drop(key, status) and return the resulting [procedure.Error]; the message is
// looked up in a [Messages] table.
//
// # Request IDs
//
// [RequestID] assigns every invocation an ID and a logger carrying it:
//
//   - UUID v7 (default): 018f3e9a-1b2c-7def-8000-abcdef123456 (36 chars)
//   - ULID via [WithULID]: 01ARZ3NDEKTSV4RRFFQ69G5FAV (26 chars)
//   - anything else via [WithGenerator]
//
// An ID already placed in the Go context with [ContextWithRequestID] is reused
// unless [WithAllowCallerID] is false.
//
// Both middleware wrap the previous context instead of replacing it, so they
// compose in any order:
//
//	chain := procedure.Use(
//	    procedure.Use(procedure.Input(base, schema), middleware.RequestID[*Store, In]()),
//	    middleware.Drop[middleware.Identified[*Store], In](messages),
//	)
package middleware
