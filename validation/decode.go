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
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// decodeInto fills out from raw. Byte slices are decoded as JSON first;
// everything else goes through mapstructure with weak typing, so "42" fills
// an int field and "true" a bool.
func decodeInto(raw any, out any, cfg *config) error {
	switch v := raw.(type) {
	case json.RawMessage:
		return decodeJSON(v, out, cfg)
	case []byte:
		return decodeJSON(v, out, cfg)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		ErrorUnused:      cfg.disallowUnknownFields,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToURLHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	return dec.Decode(raw)
}

func decodeJSON(data []byte, out any, cfg *config) error {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode JSON input: %w", err)
	}
	if generic == nil {
		return ErrNilInput
	}
	return decodeInto(generic, out, cfg)
}

// decodeErrors converts a decoding failure into field errors.
func decodeErrors(err error) *Error {
	var result Error

	// mapstructure joins one error per failing field.
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			result.Add("", "decode", e.Error(), nil)
		}
	}
	if !result.HasErrors() {
		result.Add("", "decode", err.Error(), nil)
	}

	return &result
}

// applyDefaults fills zero fields of the struct behind target from their
// `default` tags.
func applyDefaults(target any) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return nil
	}

	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return nil
	}

	return setDefaults(val, 0)
}

func setDefaults(val reflect.Value, depth int) error {
	if depth > maxRecursionDepth {
		return nil
	}

	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeFor[time.Time]() {
			if err := setDefaults(field, depth+1); err != nil {
				return err
			}
			continue
		}

		defaultTag, ok := fieldType.Tag.Lookup("default")
		if !ok || !field.IsZero() {
			continue
		}

		if err := setDefaultValue(field, defaultTag); err != nil {
			return fmt.Errorf("default for field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setDefaultValue(field reflect.Value, defaultVal string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(defaultVal)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := cast.ToDurationE(defaultVal)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := cast.ToInt64E(defaultVal)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := cast.ToUint64E(defaultVal)
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(defaultVal)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(defaultVal)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type for default tag: %s", field.Type())
		}
		field.Set(reflect.ValueOf(cast.ToStringSlice(defaultVal)).Convert(field.Type()))
	default:
		return fmt.Errorf("unsupported type for default tag: %s", field.Kind())
	}
	return nil
}
