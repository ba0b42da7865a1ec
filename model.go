package archetype

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Model is a bound instance of an entity. It holds record values and the
// model scoped procedures, proxies and hooks transferred at materialization.
//
// Values are safe for concurrent use; registrations follow the same
// append-only rules as Entity.
type Model struct {
	entity *Entity

	mu         sync.RWMutex
	values     Record
	procedures procedureTable
	proxies    proxyList
	hooks      hookList
}

// Entity returns the entity the model was materialized from.
func (m *Model) Entity() *Entity { return m.entity }

// AddProcedure registers a procedure on this model only. The first
// registration of a name wins.
func (m *Model) AddProcedure(name string, p Procedure) *Model {
	m.mu.Lock()
	exists := m.procedures.has(name)
	added := m.procedures.add(name, p)
	m.mu.Unlock()

	if !added {
		sentinel := ErrInvalidProcedureName
		if exists {
			sentinel = ErrProcedureConflict
		}
		emitProcedureConflict(context.Background(), &ProcedureError{Err: sentinel, Entity: m.entity.name, Procedure: name, Scope: ScopeModel})
	}
	return m
}

// ProxyProcedure appends a proxy on this model only. AllProcedures is
// accepted as an alias of Wildcard.
func (m *Model) ProxyProcedure(selector Selector, p Proxy) *Model {
	if p == nil {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.proxies = append(m.proxies, ProxyRegistration{Selector: selector, Proxy: p})
	return m
}

// HookProcedure appends a hook on this model only.
func (m *Model) HookProcedure(selector Selector, h Hook) *Model {
	if h == nil {
		return m
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, HookRegistration{Selector: selector, Hook: h})
	return m
}

// Procedures returns model procedure names in registration order.
func (m *Model) Procedures() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.procedures.names()
}

// Proxies returns the model proxies matching procedure.
func (m *Model) Proxies(procedure string) []ProxyRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.proxies.matching(procedure)
}

// Hooks returns the model hooks matching procedure.
func (m *Model) Hooks(procedure string) []HookRegistration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooks.matching(procedure)
}

// Execute runs a model procedure through the pipeline. Matching hooks
// observe the invocation before the first proxy and after the outcome is
// known. An unknown procedure fails before any proxy or hook runs.
func (m *Model) Execute(ctx context.Context, procedure string, pctx ProcedureContext) (Response, error) {
	m.mu.RLock()
	proc, ok := m.procedures.get(procedure)
	proxies := slices.Clone(m.proxies)
	hooks := slices.Clone(m.hooks)
	m.mu.RUnlock()

	if !ok {
		err := newProcedureError(ErrUnknownProcedure, m.entity.name, procedure, ScopeModel)
		emitProcedureComplete(ctx, m.entity.name, procedure, ScopeModel, stageResolve, 0, err)
		return Response{}, err
	}

	inv := newInvocation(m.entity.name, ScopeModel, m.entity.archive, proxies, procedure, proc)

	req := Request{Context: pctx, Entity: m.entity, Model: m, Procedure: procedure}
	hooks.fire(ctx, procedure, HookEvent{Moment: HookBefore, Request: req})

	res, err := inv.dispatch(ctx, req)

	hooks.fire(ctx, procedure, HookEvent{Moment: HookAfter, Request: req, Response: res, Err: err})
	return res, err
}

func (m *Model) property(name string) (*Property, error) {
	p, ok := m.entity.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s on entity %s", ErrUnknownProperty, name, m.entity.name)
	}
	return p, nil
}

// Get returns the value of name passed through the property's get chain.
func (m *Model) Get(ctx context.Context, name string) (any, error) {
	p, err := m.property(name)
	if err != nil {
		return nil, err
	}
	record := m.Values()
	return p.GetProxy(ctx, record[name], record)
}

// Set sanitizes value, passes it through the property's set chain and
// stores the result. On error the stored value is left unchanged.
func (m *Model) Set(ctx context.Context, name string, value any) error {
	p, err := m.property(name)
	if err != nil {
		return err
	}
	sanitized, err := p.Sanitize(value)
	if err != nil {
		return err
	}
	out, err := p.SetProxy(ctx, sanitized, m.Values())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = out
	return nil
}

// Raw returns the stored value of name without any transform.
func (m *Model) Raw(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Load replaces the stored values with rec as-is. Archives use it for
// records read back from storage, which already went through set chains.
func (m *Model) Load(rec Record) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = rec.Clone()
	if m.values == nil {
		m.values = make(Record)
	}
	return m
}

// Values returns a copy of the stored values.
func (m *Model) Values() Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values.Clone()
}

// ID returns the stored identifier value.
func (m *Model) ID() (any, bool) {
	return m.Raw(m.entity.identifier.Name())
}

// Public returns every stored value of a non-private property passed
// through its get chain.
func (m *Model) Public(ctx context.Context) (Record, error) {
	record := m.Values()
	out := make(Record, len(record))
	for _, p := range m.entity.Properties() {
		if p.IsPrivate() {
			continue
		}
		v, ok := record[p.Name()]
		if !ok {
			continue
		}
		got, err := p.GetProxy(ctx, v, record)
		if err != nil {
			return nil, err
		}
		out[p.Name()] = got
	}
	return out, nil
}

// ApplyDefaults stores the resolved default of every property that has one
// and holds no value yet. Defaults are stored as resolved, without running
// the set chain.
func (m *Model) ApplyDefaults(ctx context.Context) error {
	for _, p := range m.entity.Properties() {
		if !p.HasDefault() {
			continue
		}
		if _, ok := m.Raw(p.Name()); ok {
			continue
		}
		v, err := p.Default(ctx)
		if err != nil {
			return fmt.Errorf("default %s: %w", p.Name(), err)
		}
		m.mu.Lock()
		if _, ok := m.values[p.Name()]; !ok {
			m.values[p.Name()] = v
		}
		m.mu.Unlock()
	}
	return nil
}

// Validate checks every property in declaration order, then the entity's
// record level validations. For each property the required check runs
// first, then the property type, then the configured validation. The first
// failure is returned.
func (m *Model) Validate(ctx context.Context) error {
	record := m.Values()
	for _, p := range m.entity.Properties() {
		v, present := record[p.Name()]
		if p.IsRequired() && (!present || v == nil) {
			return &ValidationError{Err: ErrRequired, Property: p.Name()}
		}
		if !present {
			continue
		}
		fc := FieldContext{Property: p, Record: record}
		if t := p.Type(); t != nil {
			if err := t.Validate(ctx, v, fc); err != nil {
				return err
			}
		}
		if err := p.Validate(ctx, v, record); err != nil {
			return err
		}
	}
	return m.entity.Validate(ctx, m)
}
