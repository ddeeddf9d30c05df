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
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// defaultMaxCachedSchemas is used when [WithMaxCachedSchemas] is not set.
	defaultMaxCachedSchemas = 1024

	// maxRecursionDepth bounds the walk over nested schema errors.
	maxRecursionDepth = 100
)

var schemaPrinter = message.NewPrinter(language.English)

// JSONSchema validates raw input against a JSON Schema document. Parse
// returns the input in its JSON-normalized form: structs become
// map[string]any and numbers become float64.
type JSONSchema struct {
	id     string
	schema *jsonschema.Schema
	cfg    *config
}

// JSON compiles schemaJSON with the default [Validator]. A non-empty id keys
// the compiled schema in the cache.
//
// Example:
//
//	search := validation.MustJSON("search", `{
//	    "type": "object",
//	    "properties": {"q": {"type": "string", "minLength": 1}},
//	    "required": ["q"]
//	}`)
func JSON(id, schemaJSON string, opts ...Option) (*JSONSchema, error) {
	return getDefaultValidator().JSON(id, schemaJSON, opts...)
}

// MustJSON is like [JSON] but panics on error.
func MustJSON(id, schemaJSON string, opts ...Option) *JSONSchema {
	s, err := JSON(id, schemaJSON, opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustJSON: %v", err))
	}
	return s
}

// JSON compiles schemaJSON, reusing the cached schema when id was seen before.
func (v *Validator) JSON(id, schemaJSON string, opts ...Option) (*JSONSchema, error) {
	schema, err := v.getOrCompileSchema(id, schemaJSON)
	if err != nil {
		return nil, err
	}

	return &JSONSchema{id: id, schema: schema, cfg: applyOptions(v.cfg, opts...)}, nil
}

// ID returns the cache key the schema was compiled under.
func (s *JSONSchema) ID() string {
	return s.id
}

// Parse normalizes raw to JSON values and validates it.
func (s *JSONSchema) Parse(_ context.Context, raw any) (any, error) {
	data, err := normalizeJSON(raw)
	if err != nil {
		return nil, &Error{Fields: []FieldError{{Code: "decode", Message: err.Error()}}}
	}

	if err := validateSchema(s.schema, data, s.cfg); err != nil {
		return nil, err
	}

	return data, nil
}

// normalizeJSON turns raw into the generic value encoding/json would decode
// from its JSON form. Byte slices are taken to be JSON documents.
func normalizeJSON(raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("encode input: %w", err)
		}
		data = b
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}

	return out, nil
}

func validateSchema(schema *jsonschema.Schema, data any, cfg *config) error {
	err := schema.Validate(data)
	if err == nil {
		return nil
	}

	if verr, ok := err.(*jsonschema.ValidationError); ok {
		return formatSchemaErrors(verr, cfg)
	}

	return &Error{Fields: []FieldError{{Code: "schema_validation_error", Message: err.Error()}}}
}

func compileSchema(id, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()
	compiler.AssertContent()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema JSON: %w", ErrSchemaCompile, err)
	}

	url := id
	if url == "" {
		url = "schema.json"
	}
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("%w: add resource %q: %w", ErrSchemaCompile, url, err)
	}

	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaCompile, err)
	}

	return schema, nil
}

// formatSchemaErrors flattens the ValidationError tree into sorted field errors.
func formatSchemaErrors(verr *jsonschema.ValidationError, cfg *config) error {
	var result Error
	collectSchemaErrors(verr, &result, cfg, 0)

	result.Sort()
	return &result
}

func collectSchemaErrors(verr *jsonschema.ValidationError, result *Error, cfg *config, depth int) {
	if verr == nil || depth > maxRecursionDepth || result.Truncated {
		return
	}

	if len(verr.Causes) == 0 {
		keyword := strings.Join(verr.ErrorKind.KeywordPath(), ".")
		meta := map[string]any{"keyword": keyword, "schema_url": verr.SchemaURL}

		// Report missing and unexpected properties at their own path.
		switch k := verr.ErrorKind.(type) {
		case *kind.Required:
			for _, name := range k.Missing {
				addSchemaError(result, cfg, slices.Concat(verr.InstanceLocation, []string{name}), keyword, "is required", meta)
			}
		case *kind.AdditionalProperties:
			for _, name := range k.Properties {
				addSchemaError(result, cfg, slices.Concat(verr.InstanceLocation, []string{name}), keyword, "is not allowed", meta)
			}
		default:
			addSchemaError(result, cfg, verr.InstanceLocation, keyword,
				verr.ErrorKind.LocalizedString(schemaPrinter), meta)
		}
		return
	}

	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, result, cfg, depth+1)
	}
}

func addSchemaError(result *Error, cfg *config, location []string, keyword, message string, meta map[string]any) {
	if result.Truncated {
		return
	}

	path := strings.Join(location, ".")
	if cfg.fieldNameMapper != nil && path != "" {
		path = cfg.fieldNameMapper(path)
	}
	if cfg.redactor != nil && cfg.redactor(path) {
		message = redacted
	}

	result.Add(path, "schema."+keyword, message, meta)
	result.limit(cfg.maxErrors)
}
