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

// Package problem renders procedure failures as RFC 9457 problem details so
// that every caller of a hydrated API, whatever its transport, reports errors
// in one shape.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// ErrorType allows errors to declare their own status code.
// procedure.Error and validation.Error implement it.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows errors to expose structured details, such as the field
// errors of a validation failure.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// Detail is an RFC 9457 problem detail. Extensions are marshaled inline.
type Detail struct {
	Type       string
	Title      string
	Status     int
	Detail     string
	Instance   string
	Extensions map[string]any
}

// MarshalJSON merges extensions into the object without letting them replace
// the reserved members.
func (p Detail) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
	}
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	for k, v := range p.Extensions {
		switch k {
		case "type", "title", "status", "detail", "instance":
		default:
			m[k] = v
		}
	}

	return json.Marshal(m)
}

// Formatter converts errors returned by procedure calls into problem
// details.
type Formatter struct {
	// BaseURL is prepended to error codes to build the problem type URI.
	// When empty the bare code is used.
	BaseURL string

	// ErrorIDGenerator generates the error_id extension. Defaults to UUID v7.
	ErrorIDGenerator func() string

	// DisableErrorID drops the error_id extension.
	DisableErrorID bool
}

// New returns a Formatter using baseURL for problem types.
func New(baseURL string) *Formatter {
	return &Formatter{BaseURL: baseURL}
}

// Format builds the problem detail for err. instance is the procedure path
// that failed.
func (f *Formatter) Format(instance string, err error) Detail {
	status := StatusOf(err)

	p := Detail{
		Type:       f.problemType(err),
		Title:      http.StatusText(status),
		Status:     status,
		Detail:     err.Error(),
		Instance:   instance,
		Extensions: make(map[string]any),
	}

	if !f.DisableErrorID {
		gen := f.ErrorIDGenerator
		if gen == nil {
			gen = newErrorID
		}
		p.Extensions["error_id"] = gen()
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		p.Extensions["errors"] = detailed.Details()
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
	}

	return p
}

// StatusOf returns the status declared by err, or 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

func (f *Formatter) problemType(err error) string {
	var coded ErrorCode
	if !errors.As(err, &coded) {
		return "about:blank"
	}
	if f.BaseURL != "" {
		return f.BaseURL + "/" + coded.Code()
	}
	return coded.Code()
}

func newErrorID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "err-" + uuid.NewString()
	}
	return "err-" + id.String()
}
