package archetype

import (
	"context"
	"fmt"
)

// PropertyDef is the raw declaration of a property.
type PropertyDef struct {
	Name     string
	Type     PropertyType // optional
	Private  bool
	Required bool
	Unique   bool // compared on stored values, after the set chain

	// Validate is a single ValidatorFunc, a validator object, or an ordered
	// Validators list.
	Validate Validator

	// Get and Set are ordered transform chains.
	Get []Transform
	Set []Transform

	// Default is nil when no default is configured.
	Default Default
}

// Property is the validation, transform and default contract of one field.
// It is immutable once built.
type Property struct {
	def PropertyDef
}

// NewProperty builds a property from its declaration.
func NewProperty(def PropertyDef) *Property {
	def.Get = append([]Transform(nil), def.Get...)
	def.Set = append([]Transform(nil), def.Set...)
	return &Property{def: def}
}

// Name returns the property name.
func (p *Property) Name() string { return p.def.Name }

// Type returns the property type, or nil when untyped.
func (p *Property) Type() PropertyType { return p.def.Type }

// IsPrivate reports whether the property is hidden from public views.
func (p *Property) IsPrivate() bool { return p.def.Private }

// IsRequired reports whether the property must hold a value.
func (p *Property) IsRequired() bool { return p.def.Required }

// IsUnique reports whether the property value must be unique.
func (p *Property) IsUnique() bool { return p.def.Unique }

// Definition returns a copy of the declaration the property was built from.
func (p *Property) Definition() PropertyDef {
	def := p.def
	def.Get = append([]Transform(nil), p.def.Get...)
	def.Set = append([]Transform(nil), p.def.Set...)
	return def
}

// Validate runs the configured validation against value.
// With no validation configured every value is valid. The first error
// produced is returned unchanged.
func (p *Property) Validate(ctx context.Context, value any, record Record) error {
	if p.def.Validate == nil {
		return nil
	}
	return p.def.Validate.Validate(ctx, value, FieldContext{Property: p, Record: record})
}

// GetProxy applies the get transform chain to value.
func (p *Property) GetProxy(ctx context.Context, value any, record Record) (any, error) {
	return p.apply(ctx, p.def.Get, value, record)
}

// SetProxy applies the set transform chain to value.
func (p *Property) SetProxy(ctx context.Context, value any, record Record) (any, error) {
	return p.apply(ctx, p.def.Set, value, record)
}

func (p *Property) apply(ctx context.Context, chain []Transform, value any, record Record) (any, error) {
	fc := FieldContext{Property: p, Record: record}
	current := value
	for _, t := range chain {
		next, err := t(ctx, current, fc)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// Sanitize normalizes value through the property type. Untyped properties
// and nil values pass through unchanged.
func (p *Property) Sanitize(value any) (any, error) {
	if p.def.Type == nil || value == nil {
		return value, nil
	}
	out, err := p.def.Type.Sanitize(value)
	if err != nil {
		return nil, fmt.Errorf("sanitize %s: %w", p.def.Name, err)
	}
	return out, nil
}

// HasDefault reports whether a default was configured, regardless of
// whether the default value is nil.
func (p *Property) HasDefault() bool {
	return p.def.Default != nil
}

// Default resolves the configured default. It returns (nil, nil) when no
// default is configured.
func (p *Property) Default(ctx context.Context) (any, error) {
	if p.def.Default == nil {
		return nil, nil
	}
	return p.def.Default.resolve(ctx)
}

// SyncDefault returns the default without a context. Literal and
// DefaultFunc defaults resolve normally; a DefaultResolver fails with
// ErrAsyncDefault instead of handing back an unresolved value.
func (p *Property) SyncDefault() (any, error) {
	if p.def.Default == nil {
		return nil, nil
	}
	return p.def.Default.value()
}
