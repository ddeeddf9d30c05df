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

package problem

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/procedure"
	"rivaas.dev/procedure/validation"
)

func TestFormat_ProcedureError(t *testing.T) {
	t.Parallel()

	f := &Formatter{BaseURL: "https://books.example/problems", ErrorIDGenerator: func() string { return "err-1" }}
	p := f.Format("books.get", procedure.NewError(http.StatusNotFound, "no book with this id").WithCode("not-found"))

	assert.Equal(t, "https://books.example/problems/not-found", p.Type)
	assert.Equal(t, "Not Found", p.Title)
	assert.Equal(t, http.StatusNotFound, p.Status)
	assert.Equal(t, "books.get", p.Instance)
	assert.Equal(t, "err-1", p.Extensions["error_id"])
	assert.Equal(t, "not-found", p.Extensions["code"])
	assert.NotContains(t, p.Extensions, "errors")
}

func TestFormat_ValidationDetails(t *testing.T) {
	t.Parallel()

	verr := &validation.Error{}
	verr.Add("q", "min_length", "too short", nil)

	f := New("")
	f.DisableErrorID = true
	p := f.Format("books.search", verr)

	assert.Equal(t, "validation_error", p.Type)
	assert.Equal(t, http.StatusUnprocessableEntity, p.Status)
	assert.Equal(t, verr.Fields, p.Extensions["errors"])
	assert.NotContains(t, p.Extensions, "error_id")
}

func TestFormat_PlainError(t *testing.T) {
	t.Parallel()

	p := New("").Format("", errors.New("boom"))
	assert.Equal(t, "about:blank", p.Type)
	assert.Equal(t, http.StatusInternalServerError, p.Status)
	assert.Regexp(t, `^err-[0-9a-f-]{36}$`, p.Extensions["error_id"])
}

func TestDetail_MarshalJSON(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Detail{
		Type:       "about:blank",
		Title:      "Conflict",
		Status:     http.StatusConflict,
		Extensions: map[string]any{"status": 200, "code": "duplicate"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"about:blank","title":"Conflict","status":409,"code":"duplicate"}`, string(b))
}
