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
	"maps"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// MessageFunc builds the message for a parameterized tag such as "min" or
// "oneof". It receives the tag parameter and the kind of the failing field.
type MessageFunc func(param string, kind reflect.Kind) string

// Redactor reports whether the value at path must be hidden in messages.
//
// Example:
//
//	redactor := func(path string) bool {
//	    return strings.Contains(path, "password") || strings.Contains(path, "token")
//	}
type Redactor func(path string) bool

type customTag struct {
	name string
	fn   validator.Func
}

type config struct {
	maxErrors                 int
	maxCachedSchemas          int
	disallowUnknownFields     bool
	allowAdditionalProperties bool
	fieldNameMapper           func(string) string
	redactor                  Redactor
	customTags                []customTag
	messages                  map[string]string
	messageFuncs              map[string]MessageFunc
}

func (c *config) validate() error {
	if c.maxErrors < 0 {
		return errors.New("maxErrors must be non-negative")
	}
	if c.maxCachedSchemas < 0 {
		return errors.New("maxCachedSchemas must be non-negative")
	}

	return nil
}

func (c *config) clone() *config {
	clone := *c
	if c.customTags != nil {
		clone.customTags = append(make([]customTag, 0, len(c.customTags)), c.customTags...)
	}
	if c.messages != nil {
		clone.messages = maps.Clone(c.messages)
	}
	if c.messageFuncs != nil {
		clone.messageFuncs = maps.Clone(c.messageFuncs)
	}

	return &clone
}

// Option configures a [Validator] or a single schema built from one.
//
// Engine options ([WithCustomTag], [WithMaxCachedSchemas]) only take effect in
// [New]; the others may also be passed to schema constructors, where they
// override the engine's settings for that schema alone.
type Option func(*config)

// WithMaxErrors limits the number of field errors reported. 0 means unlimited.
func WithMaxErrors(maxErrors int) Option {
	return func(c *config) {
		c.maxErrors = maxErrors
	}
}

// WithDisallowUnknownFields makes struct schemas reject input keys that do
// not map to a field.
func WithDisallowUnknownFields(disallow bool) Option {
	return func(c *config) {
		c.disallowUnknownFields = disallow
	}
}

// WithAllowAdditionalProperties lets reflected schemas accept properties that
// are not declared by the Go type. They are rejected by default.
func WithAllowAdditionalProperties(allow bool) Option {
	return func(c *config) {
		c.allowAdditionalProperties = allow
	}
}

// WithFieldNameMapper transforms field paths in reported errors.
//
// Example:
//
//	validation.WithFieldNameMapper(func(name string) string {
//	    return strings.ReplaceAll(name, "_", " ")
//	})
func WithFieldNameMapper(mapper func(string) string) Option {
	return func(c *config) {
		c.fieldNameMapper = mapper
	}
}

// WithRedactor hides the values of matching fields in error messages and metadata.
func WithRedactor(redactor Redactor) Option {
	return func(c *config) {
		c.redactor = redactor
	}
}

// WithMaxCachedSchemas bounds the compiled JSON Schema cache. 0 means 1024.
func WithMaxCachedSchemas(maxCachedSchemas int) Option {
	return func(c *config) {
		c.maxCachedSchemas = maxCachedSchemas
	}
}

// WithCustomTag registers a validation tag usable in `validate:"…"` struct tags.
//
// Example:
//
//	v := validation.MustNew(
//	    validation.WithCustomTag("isbn", func(fl validator.FieldLevel) bool {
//	        return isbnPattern.MatchString(fl.Field().String())
//	    }),
//	)
func WithCustomTag(name string, fn validator.Func) Option {
	return func(c *config) {
		c.customTags = append(c.customTags, customTag{name: name, fn: fn})
	}
}

// WithMessages overrides the default message of the given tags.
func WithMessages(messages map[string]string) Option {
	return func(c *config) {
		if c.messages == nil {
			c.messages = make(map[string]string, len(messages))
		}
		maps.Copy(c.messages, messages)
	}
}

// WithMessageFunc sets a message generator for a parameterized tag.
//
// Example:
//
//	validation.WithMessageFunc("min", func(param string, kind reflect.Kind) string {
//	    if kind == reflect.String {
//	        return fmt.Sprintf("too short (min %s chars)", param)
//	    }
//	    return fmt.Sprintf("too small (min %s)", param)
//	})
func WithMessageFunc(tag string, fn MessageFunc) Option {
	return func(c *config) {
		if c.messageFuncs == nil {
			c.messageFuncs = make(map[string]MessageFunc)
		}
		c.messageFuncs[tag] = fn
	}
}

func newConfig() *config {
	return &config{}
}

// applyOptions layers per-schema options over base without modifying it.
func applyOptions(base *config, opts ...Option) *config {
	if len(opts) == 0 {
		return base
	}
	cfg := base.clone()
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
