package archetype

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"strconv"
)

// PropertyType is the contract concrete property types satisfy.
// Sanitize normalizes an incoming value; Validate checks a sanitized one.
type PropertyType interface {
	Name() string
	Sanitize(value any) (any, error)
	Validate(ctx context.Context, value any, fc FieldContext) error
}

// builtinTypes returns the type registry used by schema documents and tags.
func builtinTypes() map[string]PropertyType {
	return map[string]PropertyType{
		"string":  StringType(),
		"boolean": BooleanType(),
		"object":  ObjectType(),
	}
}

type stringType struct{}

// StringType accepts strings, byte slices and fmt.Stringer values.
func StringType() PropertyType {
	return stringType{}
}

func (stringType) Name() string { return "string" }

func (stringType) Sanitize(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return nil, fmt.Errorf("expected a string, got %T", value)
	}
}

func (stringType) Validate(_ context.Context, value any, fc FieldContext) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(string); !ok {
		return NewValidationError(fc.Property.Name(), "expected a string")
	}
	return nil
}

type booleanType struct{}

// BooleanType accepts booleans and their common string forms.
func BooleanType() PropertyType {
	return booleanType{}
}

func (booleanType) Name() string { return "boolean" }

func (booleanType) Sanitize(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected a boolean, got %T", value)
	}
}

func (booleanType) Validate(_ context.Context, value any, fc FieldContext) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(bool); !ok {
		return NewValidationError(fc.Property.Name(), "expected a boolean")
	}
	return nil
}

type objectType struct{}

// ObjectType accepts string keyed maps, including named map types produced
// by codecs. Sanitize copies the map so the caller's value is never aliased.
func ObjectType() PropertyType {
	return objectType{}
}

func (objectType) Name() string { return "object" }

func (objectType) Sanitize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return maps.Clone(v), nil
	case Record:
		return map[string]any(v.Clone()), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("expected an object, got %T", value)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

func (objectType) Validate(_ context.Context, value any, fc FieldContext) error {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return NewValidationError(fc.Property.Name(), "expected an object")
	}
	return nil
}
