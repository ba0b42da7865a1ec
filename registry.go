package archetype

import "reflect"

// Use returns the entity cached for T on f, or defines and registers it.
// T is declared with struct tags or by implementing Definable.
func Use[T any](f *Factory) (*Entity, error) {
	typ := reflect.TypeFor[T]()

	// Fast path: read-lock cache check
	f.mu.RLock()
	if cached, ok := f.byType[typ]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	// Slow path: build outside the lock; register double-checks the cache
	def, err := Define[T](f)
	if err != nil {
		return nil, err
	}
	e, err := newEntity(f, def)
	if err != nil {
		return nil, err
	}
	return f.register(e, typ)
}
