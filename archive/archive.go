// Package archive provides a record archive for archetype entities.
//
// An Archive encodes model values with a Codec and persists them in a Store.
// It contributes the create, read, update, delete and list procedures to
// every entity built on it, and carries archive-wide proxies through its
// embedded ProxyTable:
//
//	arc := archive.New(archive.NewMemoryStore(), json.New())
//	arc.Proxy("audit", archetype.AllProcedures, archetype.RequestProxy(audit))
//
//	f := archetype.NewFactory(arc)
//	users, _ := f.Entity(def)
//	res, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"email": "a@b.co"})
package archive

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/zoobzio/archetype"
)

// Procedure names contributed by an Archive.
const (
	ProcedureCreate = "create"
	ProcedureRead   = "read"
	ProcedureUpdate = "update"
	ProcedureDelete = "delete"
	ProcedureList   = "list"
)

// Archive persists entity records.
//
// Writes to one source are serialized within an Archive, so unique checks
// and the write that follows them cannot interleave. Identifier conflicts
// are also caught by Store.Create across processes sharing a store.
type Archive struct {
	archetype.ProxyTable

	store Store
	codec archetype.Codec

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an archive over store encoding records with codec.
func New(store Store, codec archetype.Codec) *Archive {
	return &Archive{store: store, codec: codec, locks: make(map[string]*sync.Mutex)}
}

// lock acquires the write lock of source and returns its release.
func (a *Archive) lock(source string) func() {
	a.mu.Lock()
	if a.locks == nil {
		a.locks = make(map[string]*sync.Mutex)
	}
	l, ok := a.locks[source]
	if !ok {
		l = &sync.Mutex{}
		a.locks[source] = l
	}
	a.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Store returns the underlying store.
func (a *Archive) Store() Store { return a.store }

// Codec returns the record codec.
func (a *Archive) Codec() archetype.Codec { return a.codec }

// Procedures implements archetype.ProcedureProvider.
func (a *Archive) Procedures() map[string]archetype.Procedure {
	return map[string]archetype.Procedure{
		ProcedureCreate: archetype.ProcedureFunc(a.create),
		ProcedureRead:   archetype.ProcedureFunc(a.read),
		ProcedureUpdate: archetype.ProcedureFunc(a.update),
		ProcedureDelete: archetype.ProcedureFunc(a.delete),
		ProcedureList:   archetype.ProcedureFunc(a.list),
	}
}

// create builds a model from the request context, applies defaults,
// validates and stores it. Context keys that name no property are ignored.
func (a *Archive) create(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	e := req.Entity
	m := e.Model()
	if err := assign(ctx, m, req.Context, ""); err != nil {
		return archetype.Response{}, err
	}
	if err := m.ApplyDefaults(ctx); err != nil {
		return archetype.Response{}, err
	}
	if err := m.Validate(ctx); err != nil {
		return archetype.Response{}, err
	}

	id, ok := identifierOf(m.Values(), e)
	if !ok {
		return archetype.Response{}, ErrMissingIdentifier
	}
	return a.save(ctx, req, m, id, true)
}

// read loads the record named by the identifier in the request context.
func (a *Archive) read(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	m, _, err := a.load(ctx, req)
	if err != nil {
		return archetype.Response{}, err
	}
	return archetype.Response{Request: req, Records: []archetype.Record{m.Values()}, Value: m}, nil
}

// update loads a record, sets every other context key and stores it again.
// The load happens under the source write lock so concurrent updates of one
// record apply in turn.
func (a *Archive) update(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	unlock := a.lock(req.Entity.Source())
	defer unlock()

	m, id, err := a.load(ctx, req)
	if err != nil {
		return archetype.Response{}, err
	}
	if err := assign(ctx, m, req.Context, req.Entity.Identifier().Name()); err != nil {
		return archetype.Response{}, err
	}
	if err := m.Validate(ctx); err != nil {
		return archetype.Response{}, err
	}
	return a.write(ctx, req, m, id, false)
}

// delete removes the record named by the identifier in the request context.
func (a *Archive) delete(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	e := req.Entity
	id, ok := identifierOf(archetype.Record(req.Context), e)
	if !ok {
		return archetype.Response{}, ErrMissingIdentifier
	}
	if err := a.store.Delete(ctx, e.Source(), id); err != nil {
		return archetype.Response{}, err
	}
	archetype.EmitArchiveRemoved(ctx, e.Name(), id)
	return archetype.Response{Request: req, Value: id}, nil
}

// list returns every stored record matching the entity's filters, sorted by
// the entity ordering or else by identifier.
func (a *Archive) list(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	e := req.Entity
	records, err := a.records(ctx, e)
	if err != nil {
		return archetype.Response{}, err
	}

	filters := e.Filters()
	out := make([]archetype.Record, 0, len(records))
	for _, id := range slices.Sorted(maps.Keys(records)) {
		if matches(records[id], filters) {
			out = append(out, records[id])
		}
	}

	if ob, ok := e.OrderBy(); ok {
		slices.SortStableFunc(out, func(x, y archetype.Record) int {
			c := compareValues(x[ob.Property], y[ob.Property])
			if ob.Descending {
				return -c
			}
			return c
		})
	}

	return archetype.Response{Request: req, Records: out, Value: len(out)}, nil
}

// load reads and decodes the record named in the request context into a
// fresh model.
func (a *Archive) load(ctx context.Context, req archetype.Request) (*archetype.Model, string, error) {
	e := req.Entity
	id, ok := identifierOf(archetype.Record(req.Context), e)
	if !ok {
		return nil, "", ErrMissingIdentifier
	}
	data, err := a.store.Get(ctx, e.Source(), id)
	if err != nil {
		return nil, "", err
	}
	var rec archetype.Record
	if err := a.codec.Unmarshal(data, &rec); err != nil {
		return nil, "", err
	}
	return e.Model().Load(rec), id, nil
}

// save takes the source write lock and writes m under id.
func (a *Archive) save(ctx context.Context, req archetype.Request, m *archetype.Model, id string, insert bool) (archetype.Response, error) {
	unlock := a.lock(req.Entity.Source())
	defer unlock()
	return a.write(ctx, req, m, id, insert)
}

// write checks unique properties, encodes and stores m under id. An insert
// fails with ErrConflict when id is taken. Callers hold the source lock.
func (a *Archive) write(ctx context.Context, req archetype.Request, m *archetype.Model, id string, insert bool) (archetype.Response, error) {
	e := req.Entity
	values := m.Values()
	if err := a.checkUnique(ctx, e, id, values); err != nil {
		return archetype.Response{}, err
	}

	data, err := a.codec.Marshal(values)
	if err != nil {
		return archetype.Response{}, err
	}
	if insert {
		err = a.store.Create(ctx, e.Source(), id, data)
		if errors.Is(err, ErrConflict) {
			return archetype.Response{}, fmt.Errorf("%w: %s %s", ErrConflict, e.Name(), id)
		}
	} else {
		err = a.store.Put(ctx, e.Source(), id, data)
	}
	if err != nil {
		return archetype.Response{}, err
	}
	archetype.EmitArchiveStored(ctx, e.Name(), id, a.codec.ContentType(), len(data))
	return archetype.Response{Request: req, Records: []archetype.Record{values}, Value: m}, nil
}

// checkUnique rejects values that repeat a unique property of another record.
// Values are compared as stored, after the set chain. Struct tags and schema
// documents refuse unique properties whose set chain encrypts or salts,
// since those values never compare equal.
func (a *Archive) checkUnique(ctx context.Context, e *archetype.Entity, id string, values archetype.Record) error {
	var unique []string
	for _, p := range e.Properties() {
		if p.IsUnique() && p != e.Identifier() {
			if values[p.Name()] != nil {
				unique = append(unique, p.Name())
			}
		}
	}
	if len(unique) == 0 {
		return nil
	}

	records, err := a.records(ctx, e)
	if err != nil {
		return err
	}
	for otherID, rec := range records {
		if otherID == id {
			continue
		}
		for _, name := range unique {
			if compareValues(rec[name], values[name]) == 0 {
				return fmt.Errorf("%w: %s.%s", ErrConflict, e.Name(), name)
			}
		}
	}
	return nil
}

func (a *Archive) records(ctx context.Context, e *archetype.Entity) (map[string]archetype.Record, error) {
	raw, err := a.store.List(ctx, e.Source())
	if err != nil {
		return nil, err
	}
	out := make(map[string]archetype.Record, len(raw))
	for id, data := range raw {
		var rec archetype.Record
		if err := a.codec.Unmarshal(data, &rec); err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, nil
}

// assign sets every context key naming a property, skipping skip.
func assign(ctx context.Context, m *archetype.Model, pctx archetype.ProcedureContext, skip string) error {
	for _, key := range slices.Sorted(maps.Keys(pctx)) {
		if key == skip {
			continue
		}
		if _, ok := m.Entity().Property(key); !ok {
			continue
		}
		if err := m.Set(ctx, key, pctx[key]); err != nil {
			return err
		}
	}
	return nil
}

func identifierOf(values archetype.Record, e *archetype.Entity) (string, bool) {
	v, ok := values[e.Identifier().Name()]
	if !ok || v == nil {
		return "", false
	}
	id := fmt.Sprint(v)
	return id, id != ""
}

func matches(rec archetype.Record, filters map[string]any) bool {
	for k, want := range filters {
		if compareValues(rec[k], want) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders decoded values. Numbers compare numerically across
// codec representations; everything else compares by its printed form.
func compareValues(x, y any) int {
	if fx, ok := number(x); ok {
		if fy, ok := number(y); ok {
			return cmp.Compare(fx, fy)
		}
	}
	return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
