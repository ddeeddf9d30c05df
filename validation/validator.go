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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidatorInterface is implemented by input types with checks that struct
// tags cannot express. Struct schemas call it after tag validation.
//
// Example:
//
//	func (r *CreateBook) Validate() error {
//	    if r.Published.After(time.Now()) {
//	        return validation.FieldError{Path: "published", Code: "future", Message: "is in the future"}
//	    }
//	    return nil
//	}
type ValidatorInterface interface {
	Validate() error
}

// ValidatorWithContext is the context-aware form of [ValidatorInterface].
// It takes precedence when both are implemented.
type ValidatorWithContext interface {
	ValidateContext(ctx context.Context) error
}

// Validator is the engine behind the schemas of this package: a lazily
// initialized go-playground validator, a compiled JSON Schema cache and a
// namespace-to-path cache.
//
// Validator is safe for concurrent use. Package-level constructors such as
// [Struct] and [JSON] share one default Validator.
type Validator struct {
	cfg *config

	tagValidator     *validator.Validate
	tagValidatorOnce sync.Once
	tagValidatorErr  error

	schemaCache   map[string]*schemaCacheEntry
	schemaCacheMu sync.RWMutex

	// reflect.Type -> *sync.Map[namespace]path
	pathCache sync.Map
}

// schemaCacheEntry holds a compiled schema and its last access time for LRU eviction.
type schemaCacheEntry struct {
	schema     *jsonschema.Schema
	lastAccess atomic.Int64
}

var (
	defaultValidator     *Validator
	defaultValidatorOnce sync.Once
)

func getDefaultValidator() *Validator {
	defaultValidatorOnce.Do(func() {
		defaultValidator = MustNew()
	})
	return defaultValidator
}

// New creates a [Validator]. It fails on invalid options or when a custom tag
// cannot be registered.
//
// Example:
//
//	v, err := validation.New(
//	    validation.WithMaxErrors(10),
//	    validation.WithCustomTag("isbn", isbnTag),
//	)
func New(opts ...Option) (*Validator, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	v := &Validator{
		cfg:         cfg,
		schemaCache: make(map[string]*schemaCacheEntry),
	}

	if err := v.initTagValidator(); err != nil {
		return nil, fmt.Errorf("initialize tag validator: %w", err)
	}

	return v, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Validator {
	v, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("validation.MustNew: %v", err))
	}

	return v
}

// Validate checks val, a struct or pointer to struct, against its `validate`
// tags and then its [ValidatorWithContext] or [ValidatorInterface] method.
// Non-struct values pass. The returned error is an [*Error].
func (v *Validator) Validate(ctx context.Context, val any, opts ...Option) error {
	return v.validate(ctx, val, applyOptions(v.cfg, opts...))
}

// Validate checks val with the default [Validator].
func Validate(ctx context.Context, val any, opts ...Option) error {
	return getDefaultValidator().Validate(ctx, val, opts...)
}

func (v *Validator) validate(ctx context.Context, val any, cfg *config) error {
	if val == nil {
		return &Error{Fields: []FieldError{{Code: "nil", Message: ErrNilInput.Error()}}}
	}

	var result Error
	if err := v.validateTags(val, cfg); err != nil {
		result.AddError("tag_error", err)
	}
	if result.limit(cfg.maxErrors) {
		return result.orNil()
	}

	switch impl := val.(type) {
	case ValidatorWithContext:
		result.AddError("custom", impl.ValidateContext(ctx))
	case ValidatorInterface:
		result.AddError("custom", impl.Validate())
	}
	result.limit(cfg.maxErrors)

	return result.orNil()
}

func (v *Validator) initTagValidator() error {
	v.tagValidatorOnce.Do(func() {
		v.tagValidator = validator.New(validator.WithRequiredStructEnabled())

		// Report json names instead of Go field names.
		v.tagValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "-" {
				return ""
			}
			if idx := strings.Index(name, ","); idx != -1 {
				name = name[:idx]
			}
			if name == "" {
				return fld.Name
			}

			return name
		})

		if err := v.registerBuiltinValidators(); err != nil {
			v.tagValidatorErr = fmt.Errorf("register built-in validators: %w", err)
			return
		}

		for _, ct := range v.cfg.customTags {
			if err := v.tagValidator.RegisterValidation(ct.name, ct.fn); err != nil {
				v.tagValidatorErr = fmt.Errorf("register custom tag %q: %w", ct.name, err)
				return
			}
		}
	})

	return v.tagValidatorErr
}

var (
	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func (v *Validator) registerBuiltinValidators() error {
	builtins := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool {
			return reUsername.MatchString(fl.Field().String())
		},
		"slug": func(fl validator.FieldLevel) bool {
			return reSlug.MatchString(fl.Field().String())
		},
		"strong_password": func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) >= 8
		},
	}

	for name, fn := range builtins {
		if err := v.tagValidator.RegisterValidation(name, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", name, err)
		}
	}

	return nil
}

// jsonPath returns the cached JSON path for a validator namespace of structType.
func (v *Validator) jsonPath(ns string, structType reflect.Type) string {
	cacheVal, _ := v.pathCache.LoadOrStore(structType, &sync.Map{})
	typeCache, _ := cacheVal.(*sync.Map)

	if cached, ok := typeCache.Load(ns); ok {
		if path, isString := cached.(string); isString {
			return path
		}
	}

	path := namespaceToJSONPath(ns, structType)
	typeCache.Store(ns, path)

	return path
}

// getOrCompileSchema returns the schema cached under id or compiles it.
// An empty id bypasses the cache.
func (v *Validator) getOrCompileSchema(id, schemaJSON string) (*jsonschema.Schema, error) {
	now := time.Now()
	key := schemaCacheKey(id, schemaJSON)

	if id != "" {
		v.schemaCacheMu.RLock()
		if entry, ok := v.schemaCache[key]; ok {
			schema := entry.schema
			v.schemaCacheMu.RUnlock()
			entry.lastAccess.Store(now.UnixNano())

			return schema, nil
		}
		v.schemaCacheMu.RUnlock()
	}

	schema, err := compileSchema(id, schemaJSON)
	if err != nil {
		return nil, err
	}

	if id == "" {
		return schema, nil
	}

	v.schemaCacheMu.Lock()
	defer v.schemaCacheMu.Unlock()

	maxCache := v.cfg.maxCachedSchemas
	if maxCache == 0 {
		maxCache = defaultMaxCachedSchemas
	}

	if _, exists := v.schemaCache[key]; !exists && len(v.schemaCache) >= maxCache {
		v.evictOldestLocked()
	}

	entry := &schemaCacheEntry{schema: schema}
	entry.lastAccess.Store(now.UnixNano())
	v.schemaCache[key] = entry

	return schema, nil
}

// schemaCacheKey combines id with a digest of the schema text, so the same id
// registered with two different documents yields two compiled schemas.
func schemaCacheKey(id, schemaJSON string) string {
	sum := sha256.Sum256([]byte(schemaJSON))
	return id + "#" + hex.EncodeToString(sum[:16])
}

func (v *Validator) evictOldestLocked() {
	var oldestID string
	var oldestNano int64
	found := false

	for id, entry := range v.schemaCache {
		if nano := entry.lastAccess.Load(); !found || nano < oldestNano {
			oldestID, oldestNano, found = id, nano, true
		}
	}

	if found {
		delete(v.schemaCache, oldestID)
	}
}

// cachedSchemas returns the number of compiled schemas held by the cache.
func (v *Validator) cachedSchemas() int {
	v.schemaCacheMu.RLock()
	defer v.schemaCacheMu.RUnlock()
	return len(v.schemaCache)
}
