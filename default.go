package archetype

import "context"

// Default is a property's configured default value.
// Build one with Literal, DefaultFunc or DefaultResolver.
type Default interface {
	resolve(ctx context.Context) (any, error)
	value() (any, error)
}

type literalDefault struct {
	v any
}

// Literal returns a default that always yields v. Literal(nil) is a
// configured default whose value is nil.
func Literal(v any) Default {
	return literalDefault{v: v}
}

func (d literalDefault) resolve(context.Context) (any, error) { return d.v, nil }
func (d literalDefault) value() (any, error)                  { return d.v, nil }

type funcDefault struct {
	fn func() any
}

// DefaultFunc returns a default computed by fn on every resolution.
// A nil fn configures no default.
func DefaultFunc(fn func() any) Default {
	if fn == nil {
		return nil
	}
	return funcDefault{fn: fn}
}

func (d funcDefault) resolve(context.Context) (any, error) { return d.fn(), nil }
func (d funcDefault) value() (any, error)                  { return d.fn(), nil }

type resolverDefault struct {
	fn func(ctx context.Context) (any, error)
}

// DefaultResolver returns a default that may block or fail while resolving,
// such as a sequence fetched from a backend. It cannot be read with
// Property.SyncDefault. A nil fn configures no default.
func DefaultResolver(fn func(ctx context.Context) (any, error)) Default {
	if fn == nil {
		return nil
	}
	return resolverDefault{fn: fn}
}

func (d resolverDefault) resolve(ctx context.Context) (any, error) { return d.fn(ctx) }
func (d resolverDefault) value() (any, error)                      { return nil, ErrAsyncDefault }
