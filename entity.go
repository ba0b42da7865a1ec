package archetype

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// OrderBy is the default ordering of an entity's records.
type OrderBy struct {
	Property   string `json:"property" yaml:"property"`
	Descending bool   `json:"descending,omitempty" yaml:"descending,omitempty"`
}

// EntityValidation is a record level validation run by Entity.Validate.
type EntityValidation struct {
	Name     string
	Validate func(ctx context.Context, m *Model) error
}

// Entity is a named schema of properties and procedures.
//
// Properties are fixed at construction. Procedures, proxies and hooks can be
// added afterwards; registries are append-only and every execution works on
// a snapshot taken under a read lock.
type Entity struct {
	name    string
	source  string
	factory *Factory
	archive Archive

	identifier *Property
	properties map[string]*Property
	order      []string

	filters     map[string]any
	orderBy     *OrderBy
	validations []EntityValidation

	mu            sync.RWMutex
	entityProcs   procedureTable
	modelProcs    procedureTable
	entityProxies proxyList
	modelProxies  proxyList
	entityHooks   hookList
	modelHooks    hookList
}

// newEntity builds an entity from def. The identifier property is the
// definition's own or the factory default.
func newEntity(f *Factory, def Definition) (*Entity, error) {
	if def.Name == "" {
		return nil, &ConfigError{Err: ErrInvalidSchema, Field: "name"}
	}

	e := &Entity{
		name:       def.Name,
		source:     def.Source,
		factory:    f,
		properties: make(map[string]*Property),
		filters:    maps.Clone(def.Filters),
	}
	if e.source == "" {
		e.source = def.Name
	}
	if f != nil {
		e.archive = f.archive
	}
	if def.OrderBy != nil {
		ob := *def.OrderBy
		e.orderBy = &ob
	}
	e.validations = append(e.validations, def.Validations...)

	idDef := DefaultIdentifier()
	if f != nil {
		idDef = f.identifier
	}
	if def.Identifier != nil {
		idDef = *def.Identifier
	}
	if err := e.addProperty(idDef); err != nil {
		return nil, err
	}
	e.identifier = e.properties[idDef.Name]

	for _, pd := range def.Properties {
		if err := e.addProperty(pd); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(def.Procedures.Entity) {
		e.AddEntityProcedure(name, def.Procedures.Entity[name])
	}
	for _, name := range sortedKeys(def.Procedures.Model) {
		e.AddModelProcedure(name, def.Procedures.Model[name])
	}
	if provider, ok := e.archive.(ProcedureProvider); ok {
		provided := provider.Procedures()
		for _, name := range sortedKeys(provided) {
			if !e.entityProcs.has(name) {
				e.AddEntityProcedure(name, provided[name])
			}
		}
	}

	for _, pd := range def.Proxies {
		switch pd.Scope {
		case ScopeModel:
			e.ProxyModelProcedure(pd.Selector, pd.Proxy)
		default:
			e.ProxyEntityProcedure(pd.Selector, pd.Proxy)
		}
	}
	for _, hd := range def.Hooks {
		switch hd.Scope {
		case ScopeModel:
			e.AddModelProcedureHook(hd.Selector, hd.Hook)
		default:
			e.AddEntityProcedureHook(hd.Selector, hd.Hook)
		}
	}

	return e, nil
}

func (e *Entity) addProperty(def PropertyDef) error {
	if def.Name == "" {
		return &ConfigError{Err: ErrInvalidSchema, Field: e.name + ".<unnamed property>"}
	}
	if _, exists := e.properties[def.Name]; exists {
		return fmt.Errorf("%w: %s on entity %s", ErrDuplicateProperty, def.Name, e.name)
	}
	e.properties[def.Name] = NewProperty(def)
	e.order = append(e.order, def.Name)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// Name returns the entity name.
func (e *Entity) Name() string { return e.name }

// Source returns the archive source name, which defaults to the entity name.
func (e *Entity) Source() string { return e.source }

// Archive returns the archive procedures execute against.
func (e *Entity) Archive() Archive { return e.archive }

// Factory returns the factory that built the entity, if any.
func (e *Entity) Factory() *Factory { return e.factory }

// Identifier returns the identifier property.
func (e *Entity) Identifier() *Property { return e.identifier }

// Property returns the named property.
func (e *Entity) Property(name string) (*Property, bool) {
	p, ok := e.properties[name]
	return p, ok
}

// Properties returns every property, identifier first, in declaration order.
func (e *Entity) Properties() []*Property {
	out := make([]*Property, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.properties[name])
	}
	return out
}

// Filters returns a copy of the entity's default filters.
func (e *Entity) Filters() map[string]any {
	if e.filters == nil {
		return map[string]any{}
	}
	return maps.Clone(e.filters)
}

// HasFilters reports whether default filters are configured.
func (e *Entity) HasFilters() bool { return len(e.filters) > 0 }

// OrderBy returns the default ordering.
func (e *Entity) OrderBy() (OrderBy, bool) {
	if e.orderBy == nil {
		return OrderBy{}, false
	}
	return *e.orderBy, true
}

// HasOrdering reports whether a default ordering is configured.
func (e *Entity) HasOrdering() bool { return e.orderBy != nil }

// Execute runs an entity procedure through the pipeline.
//
// An unregistered procedure fails with a ProcedureError wrapping
// ErrUnknownProcedure before any proxy runs. Otherwise the first error
// returned by any proxy or the procedure itself is returned unchanged.
func (e *Entity) Execute(ctx context.Context, procedure string, pctx ProcedureContext) (Response, error) {
	e.mu.RLock()
	proc, ok := e.entityProcs.get(procedure)
	proxies := slices.Clone(e.entityProxies)
	e.mu.RUnlock()

	if !ok {
		err := newProcedureError(ErrUnknownProcedure, e.name, procedure, ScopeEntity)
		emitProcedureComplete(ctx, e.name, procedure, ScopeEntity, stageResolve, 0, err)
		return Response{}, err
	}

	inv := newInvocation(e.name, ScopeEntity, e.archive, proxies, procedure, proc)
	return inv.dispatch(ctx, Request{Context: pctx, Entity: e, Procedure: procedure})
}

// AddEntityProcedure registers an entity procedure. A name already taken
// keeps its first procedure; the conflict is signalled, not returned.
func (e *Entity) AddEntityProcedure(name string, p Procedure) *Entity {
	e.addProcedure(ScopeEntity, name, p)
	return e
}

// AddModelProcedure registers a model procedure with the same first-wins
// policy as AddEntityProcedure.
func (e *Entity) AddModelProcedure(name string, p Procedure) *Entity {
	e.addProcedure(ScopeModel, name, p)
	return e
}

func (e *Entity) addProcedure(scope Scope, name string, p Procedure) {
	e.mu.Lock()
	table := &e.entityProcs
	if scope == ScopeModel {
		table = &e.modelProcs
	}
	exists := table.has(name)
	added := table.add(name, p)
	e.mu.Unlock()

	if added {
		return
	}
	sentinel := ErrInvalidProcedureName
	if exists {
		sentinel = ErrProcedureConflict
	}
	emitProcedureConflict(context.Background(), &ProcedureError{Err: sentinel, Entity: e.name, Procedure: name, Scope: scope})
}

// ProxyEntityProcedure appends an entity scoped proxy. AllProcedures is
// accepted as an alias of Wildcard and runs in the wildcard stage.
func (e *Entity) ProxyEntityProcedure(selector Selector, p Proxy) *Entity {
	if p == nil {
		return e
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entityProxies = append(e.entityProxies, ProxyRegistration{Selector: selector, Proxy: p})
	return e
}

// ProxyModelProcedure appends a model scoped proxy. It takes effect on
// models materialized afterwards. AllProcedures is accepted as an alias of
// Wildcard.
func (e *Entity) ProxyModelProcedure(selector Selector, p Proxy) *Entity {
	if p == nil {
		return e
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelProxies = append(e.modelProxies, ProxyRegistration{Selector: selector, Proxy: p})
	return e
}

// AddEntityProcedureHook appends an entity scoped hook.
func (e *Entity) AddEntityProcedureHook(selector Selector, h Hook) *Entity {
	if h == nil {
		return e
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entityHooks = append(e.entityHooks, HookRegistration{Selector: selector, Hook: h})
	return e
}

// AddModelProcedureHook appends a model scoped hook.
func (e *Entity) AddModelProcedureHook(selector Selector, h Hook) *Entity {
	if h == nil {
		return e
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modelHooks = append(e.modelHooks, HookRegistration{Selector: selector, Hook: h})
	return e
}

// Procedures returns the procedure names of scope in registration order.
func (e *Entity) Procedures(scope Scope) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if scope == ScopeModel {
		return e.modelProcs.names()
	}
	return e.entityProcs.names()
}

// HasProcedure reports whether name is registered in scope.
func (e *Entity) HasProcedure(scope Scope, name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if scope == ScopeModel {
		return e.modelProcs.has(name)
	}
	return e.entityProcs.has(name)
}

// Proxies returns the proxies of scope whose selector matches procedure.
// An empty procedure returns every proxy of the scope.
func (e *Entity) Proxies(scope Scope, procedure string) []ProxyRegistration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if scope == ScopeModel {
		return e.modelProxies.matching(procedure)
	}
	return e.entityProxies.matching(procedure)
}

// Hooks returns the hooks of scope whose selector matches procedure.
// An empty procedure returns every hook of the scope.
func (e *Entity) Hooks(scope Scope, procedure string) []HookRegistration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if scope == ScopeModel {
		return e.modelHooks.matching(procedure)
	}
	return e.entityHooks.matching(procedure)
}

// Model materializes a bound model. Model procedures, proxies and hooks are
// copied in registration order; later registrations on the entity do not
// reach models that already exist.
func (e *Entity) Model() *Model {
	m := &Model{
		entity: e,
		values: make(Record),
	}

	e.mu.RLock()
	for _, name := range e.modelProcs.names() {
		p, _ := e.modelProcs.get(name)
		m.procedures.add(name, p)
	}
	m.proxies = slices.Clone(e.modelProxies)
	m.hooks = slices.Clone(e.modelHooks)
	e.mu.RUnlock()

	emitModelMaterialized(context.Background(), e.name, len(m.procedures.order), len(m.proxies), len(m.hooks))
	return m
}

// Validate runs the entity level validations against m in order and returns
// the first failure.
func (e *Entity) Validate(ctx context.Context, m *Model) error {
	for _, v := range e.validations {
		if err := v.Validate(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
