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
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const redacted = "***REDACTED***"

// validateTags runs go-playground/validator over a struct or struct pointer.
func (v *Validator) validateTags(val any, cfg *config) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := v.tagValidator.Struct(val)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return v.formatTagErrors(verrs, rv.Type(), cfg)
	}

	return &Error{Fields: []FieldError{{Code: "tag_error", Message: err.Error()}}}
}

func (v *Validator) formatTagErrors(errs validator.ValidationErrors, structType reflect.Type, cfg *config) error {
	var result Error

	for _, e := range errs {
		// Drop the top-level struct name from the namespace.
		ns := e.StructNamespace()
		if idx := strings.Index(ns, "."); idx != -1 {
			ns = ns[idx+1:]
		}

		path := v.jsonPath(ns, structType)
		if cfg.fieldNameMapper != nil {
			path = cfg.fieldNameMapper(path)
		}

		msg := tagMessage(e, cfg)
		value := fmt.Sprint(e.Value())
		if cfg.redactor != nil && cfg.redactor(path) {
			if value != "" {
				msg = strings.ReplaceAll(msg, value, redacted)
			}
			value = redacted
		}

		result.Add(path, "tag."+e.Tag(), msg, map[string]any{
			"tag":   e.Tag(),
			"param": e.Param(),
			"value": value,
		})

		if result.limit(cfg.maxErrors) {
			break
		}
	}

	result.Sort()
	return &result
}

// namespaceToJSONPath converts a Go field namespace ("Items[2].Price") to a
// JSON path ("items.2.price") using json tags.
func namespaceToJSONPath(ns string, structType reflect.Type) string {
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	parts := strings.Split(ns, ".")
	result := make([]string, 0, len(parts))

	currentType := structType
	for _, part := range parts {
		for currentType.Kind() == reflect.Pointer {
			currentType = currentType.Elem()
		}

		if _, err := strconv.Atoi(part); err == nil {
			result = append(result, part)
			if currentType.Kind() == reflect.Slice || currentType.Kind() == reflect.Array {
				currentType = currentType.Elem()
			}
			continue
		}

		if currentType.Kind() == reflect.Struct {
			if field, found := currentType.FieldByName(part); found {
				result = append(result, jsonFieldName(field))
				currentType = field.Type
				continue
			}
		}

		if currentType.Kind() == reflect.Map {
			result = append(result, part)
			currentType = currentType.Elem()
			continue
		}

		result = append(result, strings.ToLower(part))
	}

	return strings.Join(result, ".")
}

// jsonFieldName returns the json name of a struct field, or its Go name.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}

// tagMessage resolves the message for e: static overrides first, then
// message functions, then the built-in English messages.
func tagMessage(e validator.FieldError, cfg *config) string {
	if msg, ok := cfg.messages[e.Tag()]; ok {
		return msg
	}
	if fn, ok := cfg.messageFuncs[e.Tag()]; ok {
		return fn(e.Param(), e.Kind())
	}
	return defaultTagMessage(e)
}

func defaultTagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min", "gte":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max", "lte":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "username":
		return "must be 3-20 alphanumeric characters or underscore"
	case "slug":
		return "must be lowercase letters, numbers, and hyphens"
	case "strong_password":
		return "must be at least 8 characters"
	default:
		return fmt.Sprintf("failed validation (%s)", e.Tag())
	}
}
