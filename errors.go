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

import (
	"errors"
	"fmt"
	"net/http"
)

// Fixed messages carried by errors raised by the pipeline itself.
const (
	// MessageInputNotValid is the message of every input validation failure.
	MessageInputNotValid = "input-not-valid"

	// MessageNoSchema is the message returned when a procedure was finalized
	// without an input schema.
	MessageNoSchema = "no schema provided for query"

	// MessageInternal is the message used for recovered panics and
	// context shape mismatches.
	MessageInternal = "internal-error"
)

// Sentinel errors. Use errors.Is to classify an error returned by a procedure.
var (
	// ErrInputNotValid marks a failed attempt to parse raw input.
	ErrInputNotValid = errors.New(MessageInputNotValid)

	// ErrNoSchema marks an invocation of a procedure built without Input.
	ErrNoSchema = errors.New(MessageNoSchema)

	// ErrContextShape is reported when a value flowing between steps does not
	// have the type the next step was built for.
	ErrContextShape = errors.New("unexpected context shape")

	// ErrPanic marks a panic recovered by WithRecover.
	ErrPanic = errors.New("procedure panicked")

	// ErrNotFound is returned by API lookups for a missing path.
	ErrNotFound = errors.New("not found")

	// ErrNotCallable is returned when a path resolves to a group or a literal
	// where a callable was expected, or the other way around.
	ErrNotCallable = errors.New("not callable")

	// ErrResultType is returned by CallAs when the result has another type.
	ErrResultType = errors.New("unexpected result type")
)

// Error is the failure signal used uniformly by the pipeline: validation
// failures, configuration failures and controlled aborts raised by middleware.
// It carries a numeric status and a message and is returned, never swallowed.
//
// Error implements the HTTPStatus and Code methods understood by problem-detail
// formatters, so a transport layer can translate it without knowing this package.
//
// Example:
//
//	_, err := getUser(ctx, raw)
//	var perr *procedure.Error
//	if errors.As(err, &perr) {
//	    log.Printf("status=%d message=%s", perr.Status, perr.Message)
//	}
type Error struct {
	Status  int    `json:"status"`
	Message string `json:"message"`

	code  string
	cause error
}

// NewError creates an [*Error] with the given status and message.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// WithCode returns a copy of e carrying a machine-readable code.
func (e *Error) WithCode(code string) *Error {
	c := *e
	c.code = code
	return &c
}

// Error returns the message, or the status text when the message is empty.
func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Status)
	}
	return e.Message
}

// Unwrap returns the sentinel or cause attached by the pipeline, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus reports Status to problem formatters.
func (e *Error) HTTPStatus() int {
	return e.Status
}

// Code returns a machine-readable code.
func (e *Error) Code() string {
	if e.code != "" {
		return e.code
	}
	switch {
	case errors.Is(e.cause, ErrInputNotValid):
		return "input_not_valid"
	case errors.Is(e.cause, ErrNoSchema):
		return "no_schema"
	case e.Status >= http.StatusInternalServerError:
		return "internal_error"
	default:
		return "procedure_error"
	}
}

func errInputNotValid() *Error {
	return &Error{Status: http.StatusBadRequest, Message: MessageInputNotValid, cause: ErrInputNotValid}
}

func errNoSchema() *Error {
	return &Error{Status: http.StatusInternalServerError, Message: MessageNoSchema, cause: ErrNoSchema}
}

func errShape(step int, what string, got any, want string) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: MessageInternal,
		cause:   fmt.Errorf("%w: step %d: %s is %T, want %s", ErrContextShape, step, what, got, want),
	}
}

func errPanic(v any) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: MessageInternal,
		cause:   fmt.Errorf("%w: %v", ErrPanic, v),
	}
}
