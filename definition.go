package archetype

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register declaration and compound tags with sentinel
	sentinel.Tag("json")
	sentinel.Tag("archetype")
	sentinel.Tag("default")
	sentinel.Tag("type")
	sentinel.Tag("get.decrypt")
	sentinel.Tag("get.mask")
	sentinel.Tag("get.redact")
	sentinel.Tag("set.hash")
	sentinel.Tag("set.encrypt")
}

// Definition declares an entity. Build one by hand, with Define, or with
// Factory.ParseSchema.
type Definition struct {
	Name   string
	Source string // archive source, defaults to Name

	// Identifier replaces the factory identifier when set.
	Identifier *PropertyDef
	Properties []PropertyDef

	Filters     map[string]any
	OrderBy     *OrderBy
	Validations []EntityValidation

	Procedures Procedures
	Proxies    []ProxyDef
	Hooks      []HookDef
}

// Procedures holds the procedures of a definition by scope. Map entries are
// registered in name order.
type Procedures struct {
	Entity map[string]Procedure
	Model  map[string]Procedure
}

// ProxyDef declares a proxy registration.
type ProxyDef struct {
	Scope    Scope
	Selector Selector
	Proxy    Proxy
}

// HookDef declares a hook registration.
type HookDef struct {
	Scope    Scope
	Selector Selector
	Hook     Hook
}

// Define derives a Definition for T.
//
// Types implementing Definable supply their own. Otherwise the exported
// fields of T are scanned:
//
//	archetype:"name,required,unique,private,identifier"
//	default:"literal"
//	type:"string"
//	get.decrypt:"aes"  get.mask:"email"  get.redact:"***"
//	set.hash:"argon2"  set.encrypt:"aes"
//
// The property name falls back to the json tag, then the field name.
// Fields tagged "-" are skipped. A unique or identifier field cannot carry
// set.encrypt or a salted set.hash, whose outputs never repeat.
func Define[T any](f *Factory) (Definition, error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() == reflect.Pointer {
		// A fresh element keeps value and pointer receivers off a nil pointer.
		if d, ok := reflect.New(rt.Elem()).Interface().(Definable); ok {
			return d.Definition(), nil
		}
	} else {
		var zero T
		if d, ok := any(zero).(Definable); ok {
			return d.Definition(), nil
		}
		if d, ok := any(&zero).(Definable); ok {
			return d.Definition(), nil
		}
	}

	if rt.Kind() != reflect.Struct {
		return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: rt.String()}
	}

	meta := sentinel.Scan[T]()
	def := Definition{Name: rt.Name()}

	for _, field := range meta.Fields {
		pd, identifier, skip, err := definePropertyFromField(f, field)
		if err != nil {
			return Definition{}, err
		}
		if skip {
			continue
		}
		if identifier {
			if def.Identifier != nil {
				return Definition{}, &ConfigError{Err: ErrInvalidTag, Field: pd.Name, Algorithm: "identifier"}
			}
			def.Identifier = &pd
			continue
		}
		def.Properties = append(def.Properties, pd)
	}

	return def, nil
}

// definePropertyFromField builds a property declaration from one field.
func definePropertyFromField(f *Factory, field sentinel.FieldMetadata) (PropertyDef, bool, bool, error) {
	var identifier bool
	pd := PropertyDef{Name: field.Name}

	if jsonTag, ok := field.Tags["json"]; ok {
		name, _, _ := strings.Cut(jsonTag, ",")
		if name == "-" {
			return pd, false, true, nil
		}
		if name != "" {
			pd.Name = name
		}
	}

	if tag, ok := field.Tags["archetype"]; ok {
		if tag == "-" {
			return pd, false, true, nil
		}
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			pd.Name = parts[0]
		}
		for _, flag := range parts[1:] {
			switch strings.TrimSpace(flag) {
			case "required":
				pd.Required = true
			case "unique":
				pd.Unique = true
			case "private":
				pd.Private = true
			case "identifier":
				identifier = true
			case "":
			default:
				return pd, false, false, &ConfigError{Err: ErrInvalidTag, Field: pd.Name, Algorithm: flag}
			}
		}
	}

	if name, ok := field.Tags["type"]; ok {
		t, found := f.propertyType(name)
		if !found {
			return pd, false, false, &ConfigError{Err: ErrUnknownType, Field: pd.Name, Algorithm: name}
		}
		pd.Type = t
	} else {
		pd.Type = inferType(field.ReflectType)
	}

	if raw, ok := field.Tags["default"]; ok {
		v, err := parseLiteral(field.ReflectType, raw)
		if err != nil {
			return pd, false, false, &ConfigError{Err: ErrInvalidTag, Field: pd.Name, Algorithm: "default"}
		}
		pd.Default = Literal(v)
	}

	isText := field.ReflectType.Kind() == reflect.String ||
		(field.ReflectType.Kind() == reflect.Slice && field.ReflectType.Elem().Kind() == reflect.Uint8)

	// Get chains decrypt before masking or redacting; set chains hash before encrypting.
	for _, step := range []struct {
		tag, action string
		set         bool
	}{
		{"get.decrypt", "decrypt", false},
		{"get.mask", "mask", false},
		{"get.redact", "redact", false},
		{"set.hash", "hash", true},
		{"set.encrypt", "encrypt", true},
	} {
		arg, ok := field.Tags[step.tag]
		if !ok {
			continue
		}
		if !isText {
			return pd, false, false, &ConfigError{Err: ErrInvalidTag, Field: pd.Name, Algorithm: step.tag}
		}
		t, err := f.transform(pd.Name, step.action, arg)
		if err != nil {
			return pd, false, false, err
		}
		if step.set {
			pd.Set = append(pd.Set, t)
		} else {
			pd.Get = append(pd.Get, t)
		}
	}

	if pd.Unique || identifier {
		for _, tag := range []string{"set.hash", "set.encrypt"} {
			if arg, ok := field.Tags[tag]; ok && randomized(strings.TrimPrefix(tag, "set."), arg) {
				return pd, false, false, &ConfigError{Err: ErrInvalidTag, Field: pd.Name, Algorithm: tag}
			}
		}
	}

	if identifier {
		pd.Required = true
		pd.Unique = true
		if pd.Default == nil && field.ReflectType.Kind() == reflect.String {
			pd.Default = f.identifier.Default
		}
	}

	return pd, identifier, false, nil
}

// inferType maps a Go field type onto a builtin property type.
func inferType(rt reflect.Type) PropertyType {
	switch {
	case rt.Kind() == reflect.String:
		return StringType()
	case rt.Kind() == reflect.Bool:
		return BooleanType()
	case rt.Kind() == reflect.Map && rt.Key().Kind() == reflect.String:
		return ObjectType()
	default:
		return nil
	}
}

// parseLiteral converts a default tag value to the field's kind.
func parseLiteral(rt reflect.Type, raw string) (any, error) {
	switch rt.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(raw, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(raw, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(raw, 64)
	case reflect.String:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported default for kind %s", rt.Kind())
	}
}
