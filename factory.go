package archetype

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Factory builds entities bound to one archive and owns the capabilities
// struct and schema declarations resolve against.
//
// Factories are safe for concurrent use.
type Factory struct {
	archive    Archive
	identifier PropertyDef

	mu         sync.RWMutex
	encryptors map[EncryptAlgo]Encryptor
	hashers    map[HashAlgo]Hasher
	maskers    map[MaskType]Masker
	types      map[string]PropertyType

	entities map[string]*Entity
	order    []string
	byType   map[reflect.Type]*Entity
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithIdentifier replaces the identifier property given to entities that
// do not declare their own.
func WithIdentifier(def PropertyDef) FactoryOption {
	return func(f *Factory) {
		f.identifier = def
	}
}

// WithEncryptor registers an encryptor for algo.
func WithEncryptor(algo EncryptAlgo, enc Encryptor) FactoryOption {
	return func(f *Factory) {
		f.encryptors[algo] = enc
	}
}

// WithHasher registers or replaces the hasher for algo.
func WithHasher(algo HashAlgo, h Hasher) FactoryOption {
	return func(f *Factory) {
		f.hashers[algo] = h
	}
}

// WithMasker registers or replaces the masker for mt.
func WithMasker(mt MaskType, m Masker) FactoryOption {
	return func(f *Factory) {
		f.maskers[mt] = m
	}
}

// WithType registers a property type under its name for struct tags and
// schema documents.
func WithType(t PropertyType) FactoryOption {
	return func(f *Factory) {
		f.types[t.Name()] = t
	}
}

// NewFactory creates a factory for archive. Builtin hashers, maskers and
// property types are registered; encryptors must be supplied.
// A nil archive is allowed: entities then skip the archive proxy stages.
func NewFactory(archive Archive, opts ...FactoryOption) *Factory {
	f := &Factory{
		archive:    archive,
		identifier: DefaultIdentifier(),
		encryptors: make(map[EncryptAlgo]Encryptor),
		hashers:    builtinHashers(),
		maskers:    builtinMaskers(),
		types:      builtinTypes(),
		entities:   make(map[string]*Entity),
		byType:     make(map[reflect.Type]*Entity),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// DefaultIdentifier returns the identifier property entities receive when
// none is declared: a required, unique string named "id" defaulting to a
// random UUID.
func DefaultIdentifier() PropertyDef {
	return PropertyDef{
		Name:     "id",
		Type:     StringType(),
		Required: true,
		Unique:   true,
		Default:  DefaultFunc(func() any { return uuid.NewString() }),
	}
}

// Identifier returns the identifier declaration used by this factory.
func (f *Factory) Identifier() PropertyDef { return f.identifier }

// Archive returns the archive entities of this factory execute against.
func (f *Factory) Archive() Archive { return f.archive }

// Entity builds and registers an entity. Names are unique per factory.
func (f *Factory) Entity(def Definition) (*Entity, error) {
	f.mu.RLock()
	_, exists := f.entities[def.Name]
	f.mu.RUnlock()
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, def.Name)
	}

	e, err := newEntity(f, def)
	if err != nil {
		return nil, err
	}
	return f.register(e, nil)
}

// register stores e under its name and, when typ is set, its Go type.
// If typ was registered concurrently the cached entity is returned instead.
func (f *Factory) register(e *Entity, typ reflect.Type) (*Entity, error) {
	f.mu.Lock()
	if typ != nil {
		if cached, ok := f.byType[typ]; ok {
			f.mu.Unlock()
			return cached, nil
		}
	}
	if _, exists := f.entities[e.name]; exists {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.name)
	}
	f.entities[e.name] = e
	f.order = append(f.order, e.name)
	if typ != nil {
		f.byType[typ] = e
	}
	f.mu.Unlock()

	emitEntityCreated(context.Background(), e.name, len(e.order), len(e.Procedures(ScopeEntity)))
	return e, nil
}

// Lookup returns the entity registered under name.
func (f *Factory) Lookup(name string) (*Entity, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entities[name]
	return e, ok
}

// Entities returns every registered entity in creation order.
func (f *Factory) Entities() []*Entity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Entity, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.entities[name])
	}
	return out
}

// Reset forgets every registered entity, including those cached by Use.
// This is primarily useful for test isolation.
func (f *Factory) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities = make(map[string]*Entity)
	f.order = nil
	f.byType = make(map[reflect.Type]*Entity)
}

func (f *Factory) encryptor(algo EncryptAlgo) (Encryptor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.encryptors[algo]
	return e, ok
}

func (f *Factory) hasher(algo HashAlgo) (Hasher, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	h, ok := f.hashers[algo]
	return h, ok
}

func (f *Factory) masker(mt MaskType) (Masker, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.maskers[mt]
	return m, ok
}

func (f *Factory) propertyType(name string) (PropertyType, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.types[name]
	return t, ok
}

// Types returns the registered property types keyed by name.
func (f *Factory) Types() map[string]PropertyType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.types)
}

// transform resolves an "action:arg" declaration into a transform for
// field. Actions are mask, redact, hash, encrypt and decrypt.
func (f *Factory) transform(field, action, arg string) (Transform, error) {
	switch action {
	case "mask":
		m, ok := f.masker(MaskType(arg))
		if !ok {
			if !IsValidMaskType(MaskType(arg)) {
				return nil, &ConfigError{Err: ErrInvalidTag, Field: field, Algorithm: arg}
			}
			return nil, newConfigError(ErrMissingMasker, arg, field)
		}
		return MaskTransform(m), nil
	case "redact":
		return RedactTransform(arg), nil
	case "hash":
		h, ok := f.hasher(HashAlgo(arg))
		if !ok {
			if !IsValidHashAlgo(HashAlgo(arg)) {
				return nil, &ConfigError{Err: ErrInvalidTag, Field: field, Algorithm: arg}
			}
			return nil, newConfigError(ErrMissingHasher, arg, field)
		}
		return HashTransform(h), nil
	case "encrypt", "decrypt":
		enc, ok := f.encryptor(EncryptAlgo(arg))
		if !ok {
			if !IsValidEncryptAlgo(EncryptAlgo(arg)) {
				return nil, &ConfigError{Err: ErrInvalidTag, Field: field, Algorithm: arg}
			}
			return nil, newConfigError(ErrMissingEncryptor, arg, field)
		}
		if action == "encrypt" {
			return EncryptTransform(enc), nil
		}
		return DecryptTransform(enc), nil
	default:
		return nil, &ConfigError{Err: ErrInvalidTag, Field: field, Algorithm: action}
	}
}
