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
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrValidation is the sentinel wrapped by every [Error] and [FieldError].
var ErrValidation = errors.New("validation")

var (
	// ErrNilInput is reported when a struct schema receives a nil raw value.
	ErrNilInput = errors.New("input is nil")

	// ErrSchemaCompile is returned when a JSON Schema document cannot be compiled.
	ErrSchemaCompile = errors.New("schema compile failed")
)

// FieldError is one failed check. Path is a dotted JSON path such as
// "items.2.price"; Code is stable ("tag.required", "schema.type", "decode").
type FieldError struct {
	Path    string         `json:"path"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Error returns "path: message", or the message alone for root-level errors.
func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns [ErrValidation].
func (e FieldError) Unwrap() error {
	return ErrValidation
}

// Error collects the [FieldError] values produced by one Parse call.
//
// Procedures never return it to their callers: it is logged as the diagnostic
// behind a generic "input-not-valid" failure. Used on its own, it maps to
// 422 Unprocessable Entity.
//
//nolint:recvcheck // Error must use value receiver for error interface compatibility, mutating methods use pointer
type Error struct {
	Fields    []FieldError `json:"errors"`
	Truncated bool         `json:"truncated,omitempty"`
}

// Error joins the field errors into one line.
func (v Error) Error() string {
	if len(v.Fields) == 0 {
		return ""
	}

	suffix := ""
	if v.Truncated {
		suffix = " (truncated)"
	}

	if len(v.Fields) == 1 {
		return v.Fields[0].Error() + suffix
	}

	msgs := make([]string, 0, len(v.Fields))
	for _, err := range v.Fields {
		msgs = append(msgs, err.Error())
	}

	return fmt.Sprintf("validation failed: %s%s", strings.Join(msgs, "; "), suffix)
}

// Unwrap returns [ErrValidation].
func (v Error) Unwrap() error {
	return ErrValidation
}

// HTTPStatus returns 422.
func (v Error) HTTPStatus() int {
	return http.StatusUnprocessableEntity
}

// Details returns the field errors.
func (v Error) Details() any {
	return v.Fields
}

// Code returns "validation_error".
func (v Error) Code() string {
	return "validation_error"
}

// Add appends a [FieldError].
func (v *Error) Add(path, code, message string, meta map[string]any) {
	v.Fields = append(v.Fields, FieldError{
		Path:    path,
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// AddError appends err. [FieldError] and [Error] values are merged field by
// field; any other error becomes a root-level entry with the given code.
func (v *Error) AddError(code string, err error) {
	if err == nil {
		return
	}

	var fe FieldError
	if errors.As(err, &fe) {
		v.Fields = append(v.Fields, fe)
		return
	}

	var ve *Error
	if errors.As(err, &ve) {
		v.Fields = append(v.Fields, ve.Fields...)
		v.Truncated = v.Truncated || ve.Truncated
		return
	}

	v.Fields = append(v.Fields, FieldError{Code: code, Message: err.Error()})
}

// HasErrors reports whether any field error was collected.
func (v Error) HasErrors() bool {
	return len(v.Fields) > 0
}

// HasCode reports whether any field error has the given code.
func (v Error) HasCode(code string) bool {
	for _, e := range v.Fields {
		if e.Code == code {
			return true
		}
	}

	return false
}

// Has reports whether path has an error.
func (v Error) Has(path string) bool {
	return v.GetField(path) != nil
}

// GetField returns the first [FieldError] for path, or nil.
func (v Error) GetField(path string) *FieldError {
	for i := range v.Fields {
		if v.Fields[i].Path == path {
			return &v.Fields[i]
		}
	}

	return nil
}

// Sort orders errors by path, then by code.
func (v *Error) Sort() {
	sort.SliceStable(v.Fields, func(i, j int) bool {
		if v.Fields[i].Path != v.Fields[j].Path {
			return v.Fields[i].Path < v.Fields[j].Path
		}

		return v.Fields[i].Code < v.Fields[j].Code
	})
}

// limit marks the error truncated once maxErrors is reached.
func (v *Error) limit(maxErrors int) bool {
	if maxErrors > 0 && len(v.Fields) >= maxErrors {
		v.Fields = v.Fields[:maxErrors]
		v.Truncated = true
		return true
	}
	return false
}

// orNil returns v as an error when it holds field errors.
func (v *Error) orNil() error {
	if !v.HasErrors() {
		return nil
	}
	v.Sort()
	return v
}
