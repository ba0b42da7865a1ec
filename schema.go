package archetype

import (
	"fmt"
	"reflect"
	"strings"
)

// ParseSchema decodes a schema document through codec into a Definition.
//
//	name: User
//	source: users
//	identifier: {name: uid, type: string}
//	properties:
//	  - {name: email, type: string, required: true, get: ["mask:email"]}
//	  - {name: password, private: true, set: ["hash:argon2"]}
//	  - {name: active, type: boolean, default: true}
//	filters: {active: true}
//	order_by: {property: email, descending: false}
//
// A property has a default when its "default" key is present, even with a
// null value. Transform entries use the "action:arg" form; see WithType for
// custom type names.
func (f *Factory) ParseSchema(codec Codec, data []byte) (Definition, error) {
	var raw map[string]any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return Definition{}, NewCodecError(ErrUnmarshal, err)
	}
	doc, ok := normalize(raw).(map[string]any)
	if !ok {
		return Definition{}, &ConfigError{Err: ErrInvalidSchema}
	}

	var def Definition
	var err error
	if def.Name, err = schemaString(doc, "name", ""); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: "name"}
	}
	if def.Source, err = schemaString(doc, "source", def.Name); err != nil {
		return Definition{}, err
	}

	if v, ok := doc["identifier"]; ok && v != nil {
		entry, ok := v.(map[string]any)
		if !ok {
			return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: "identifier"}
		}
		pd, err := f.schemaProperty(entry, "identifier")
		if err != nil {
			return Definition{}, err
		}
		pd.Required = true
		pd.Unique = true
		if _, hasDefault := entry["default"]; !hasDefault {
			pd.Default = f.identifier.Default
		}
		def.Identifier = &pd
	}

	if v, ok := doc["properties"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: "properties"}
		}
		for i, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: fmt.Sprintf("properties[%d]", i)}
			}
			pd, err := f.schemaProperty(entry, fmt.Sprintf("properties[%d]", i))
			if err != nil {
				return Definition{}, err
			}
			def.Properties = append(def.Properties, pd)
		}
	}

	if v, ok := doc["filters"]; ok && v != nil {
		filters, ok := v.(map[string]any)
		if !ok {
			return Definition{}, &ConfigError{Err: ErrInvalidSchema, Field: "filters"}
		}
		def.Filters = filters
	}

	if v, ok := doc["order_by"]; ok && v != nil {
		ob, err := schemaOrderBy(v)
		if err != nil {
			return Definition{}, err
		}
		def.OrderBy = &ob
	}

	return def, nil
}

func (f *Factory) schemaProperty(entry map[string]any, path string) (PropertyDef, error) {
	var pd PropertyDef
	var err error

	if pd.Name, err = schemaString(entry, "name", ""); err != nil {
		return pd, err
	}
	if pd.Name == "" {
		return pd, &ConfigError{Err: ErrInvalidSchema, Field: path + ".name"}
	}
	if pd.Private, err = schemaBool(entry, "private"); err != nil {
		return pd, err
	}
	if pd.Required, err = schemaBool(entry, "required"); err != nil {
		return pd, err
	}
	if pd.Unique, err = schemaBool(entry, "unique"); err != nil {
		return pd, err
	}

	typeName, err := schemaString(entry, "type", "")
	if err != nil {
		return pd, err
	}
	if typeName != "" {
		t, ok := f.propertyType(typeName)
		if !ok {
			return pd, &ConfigError{Err: ErrUnknownType, Field: pd.Name, Algorithm: typeName}
		}
		pd.Type = t
	}

	if v, ok := entry["default"]; ok {
		pd.Default = Literal(v)
	}

	if pd.Get, _, err = f.schemaTransforms(entry, "get", pd.Name); err != nil {
		return pd, err
	}
	var random bool
	if pd.Set, random, err = f.schemaTransforms(entry, "set", pd.Name); err != nil {
		return pd, err
	}
	if random && (pd.Unique || path == "identifier") {
		return pd, &ConfigError{Err: ErrInvalidSchema, Field: path + ".set"}
	}
	return pd, nil
}

// schemaTransforms resolves the transform list under key. It also reports
// whether any step stores a different value on every write.
func (f *Factory) schemaTransforms(entry map[string]any, key, field string) ([]Transform, bool, error) {
	v, ok := entry[key]
	if !ok || v == nil {
		return nil, false, nil
	}

	var decls []string
	switch tv := v.(type) {
	case string:
		decls = []string{tv}
	case []any:
		for _, item := range tv {
			s, ok := item.(string)
			if !ok {
				return nil, false, &ConfigError{Err: ErrInvalidSchema, Field: field + "." + key}
			}
			decls = append(decls, s)
		}
	default:
		return nil, false, &ConfigError{Err: ErrInvalidSchema, Field: field + "." + key}
	}

	out := make([]Transform, 0, len(decls))
	random := false
	for _, decl := range decls {
		action, arg, _ := strings.Cut(decl, ":")
		action, arg = strings.TrimSpace(action), strings.TrimSpace(arg)
		t, err := f.transform(field, action, arg)
		if err != nil {
			return nil, false, err
		}
		out = append(out, t)
		random = random || randomized(action, arg)
	}
	return out, random, nil
}

func schemaOrderBy(v any) (OrderBy, error) {
	switch tv := v.(type) {
	case string:
		if name, ok := strings.CutPrefix(tv, "-"); ok {
			return OrderBy{Property: name, Descending: true}, nil
		}
		return OrderBy{Property: tv}, nil
	case map[string]any:
		var ob OrderBy
		var err error
		if ob.Property, err = schemaString(tv, "property", ""); err != nil {
			return ob, err
		}
		if ob.Descending, err = schemaBool(tv, "descending"); err != nil {
			return ob, err
		}
		return ob, nil
	default:
		return OrderBy{}, &ConfigError{Err: ErrInvalidSchema, Field: "order_by"}
	}
}

func schemaString(doc map[string]any, key, fallback string) (string, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ConfigError{Err: ErrInvalidSchema, Field: key}
	}
	return s, nil
}

func schemaBool(doc map[string]any, key string) (bool, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, &ConfigError{Err: ErrInvalidSchema, Field: key}
	}
	return b, nil
}

// normalize rewrites decoded maps to map[string]any and slices to []any so
// documents from every codec share one shape.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	default:
		return v
	}
}
