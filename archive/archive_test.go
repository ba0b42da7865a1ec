package archive_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/archetype"
	"github.com/zoobzio/archetype/archive"
	"github.com/zoobzio/archetype/bson"
	"github.com/zoobzio/archetype/json"
	"github.com/zoobzio/archetype/msgpack"
	archetypetest "github.com/zoobzio/archetype/testing"
	"github.com/zoobzio/archetype/yaml"
)

var codecs = []archetype.Codec{json.New(), yaml.New(), msgpack.New(), bson.New()}

func newUsers(t *testing.T, codec archetype.Codec) (*archive.Archive, *archetype.Entity) {
	t.Helper()
	arc := archive.New(archive.NewMemoryStore(), codec)
	users, err := archetype.Use[archetypetest.User](archetypetest.TestFactory(t, arc))
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	return arc, users
}

func TestArchive_Procedures(t *testing.T) {
	arc := archetypetest.TestArchive(t)
	var names []string
	for name := range arc.Procedures() {
		names = append(names, name)
	}
	slices.Sort(names)
	want := []string{archive.ProcedureCreate, archive.ProcedureDelete, archive.ProcedureList, archive.ProcedureRead, archive.ProcedureUpdate}
	if !slices.Equal(names, want) {
		t.Errorf("Procedures() = %v, want %v", names, want)
	}
	if arc.Codec().ContentType() != json.ContentType {
		t.Errorf("Codec() = %s, want json", arc.Codec().ContentType())
	}
}

func TestArchive_CRUD(t *testing.T) {
	for _, codec := range codecs {
		t.Run(codec.ContentType(), func(t *testing.T) {
			ctx := context.Background()
			arc, users := newUsers(t, codec)

			res, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{
				"email":    "alice@example.com",
				"password": "hunter2",
				"ssn":      "123-45-6789",
				"unknown":  "ignored",
			})
			if err != nil {
				t.Fatalf("create error: %v", err)
			}
			created, ok := res.Record()
			if !ok {
				t.Fatal("create returned no record")
			}
			id, _ := created["id"].(string)
			if id == "" {
				t.Fatalf("create assigned no identifier: %v", created)
			}
			if _, ok := created["unknown"]; ok {
				t.Error("unknown context keys must be ignored")
			}
			if created["active"] != true {
				t.Errorf("active = %v, want default true", created["active"])
			}
			if created["password"] == "hunter2" || created["ssn"] == "123-45-6789" {
				t.Error("set chains should hash and encrypt before storing")
			}

			raw, err := arc.Store().Get(ctx, users.Source(), id)
			if err != nil || len(raw) == 0 {
				t.Fatalf("store Get() = %d bytes, %v", len(raw), err)
			}

			res, err = users.Execute(ctx, archive.ProcedureRead, archetype.ProcedureContext{"id": id})
			if err != nil {
				t.Fatalf("read error: %v", err)
			}
			m, ok := res.Value.(*archetype.Model)
			if !ok {
				t.Fatalf("read value %T, want *Model", res.Value)
			}
			if v, err := m.Get(ctx, "ssn"); err != nil || v != "123-45-6789" {
				t.Errorf("Get(ssn) = %v, %v; want decrypted", v, err)
			}
			if v, _ := m.Get(ctx, "email"); v != "a***@example.com" {
				t.Errorf("Get(email) = %v, want masked", v)
			}

			_, err = users.Execute(ctx, archive.ProcedureUpdate, archetype.ProcedureContext{"id": id, "note": "vip"})
			if err != nil {
				t.Fatalf("update error: %v", err)
			}
			res, _ = users.Execute(ctx, archive.ProcedureRead, archetype.ProcedureContext{"id": id})
			if rec, _ := res.Record(); rec["note"] != "vip" || rec["email"] != "alice@example.com" {
				t.Errorf("record after update = %v", rec)
			}

			if _, err := users.Execute(ctx, archive.ProcedureDelete, archetype.ProcedureContext{"id": id}); err != nil {
				t.Fatalf("delete error: %v", err)
			}
			if _, err := users.Execute(ctx, archive.ProcedureRead, archetype.ProcedureContext{"id": id}); !errors.Is(err, archive.ErrNotFound) {
				t.Errorf("read after delete error = %v, want ErrNotFound", err)
			}
			if _, err := users.Execute(ctx, archive.ProcedureDelete, archetype.ProcedureContext{"id": id}); !errors.Is(err, archive.ErrNotFound) {
				t.Errorf("second delete error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestArchive_Errors(t *testing.T) {
	ctx := context.Background()
	arc, users := newUsers(t, json.New())

	if _, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"note": "no email"}); !errors.Is(err, archetype.ErrRequired) {
		t.Errorf("create without email error = %v, want ErrRequired", err)
	}
	if all, _ := arc.Store().List(ctx, users.Source()); len(all) != 0 {
		t.Error("invalid records must not be stored")
	}

	_, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"id": "u1", "email": "a@example.com"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"id": "u1", "email": "b@example.com"}); !errors.Is(err, archive.ErrConflict) {
		t.Errorf("duplicate id error = %v, want ErrConflict", err)
	}
	if _, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"email": "a@example.com"}); !errors.Is(err, archive.ErrConflict) {
		t.Errorf("duplicate email error = %v, want ErrConflict", err)
	}

	_, _ = users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"id": "u2", "email": "c@example.com"})
	if _, err := users.Execute(ctx, archive.ProcedureUpdate, archetype.ProcedureContext{"id": "u2", "email": "a@example.com"}); !errors.Is(err, archive.ErrConflict) {
		t.Errorf("update onto a taken email error = %v, want ErrConflict", err)
	}
	if _, err := users.Execute(ctx, archive.ProcedureUpdate, archetype.ProcedureContext{"id": "u2", "email": "c@example.com"}); err != nil {
		t.Errorf("update keeping its own email error: %v", err)
	}

	for _, proc := range []string{archive.ProcedureRead, archive.ProcedureUpdate, archive.ProcedureDelete} {
		if _, err := users.Execute(ctx, proc, archetype.ProcedureContext{}); !errors.Is(err, archive.ErrMissingIdentifier) {
			t.Errorf("%s without id error = %v, want ErrMissingIdentifier", proc, err)
		}
	}
	if _, err := users.Execute(ctx, archive.ProcedureUpdate, archetype.ProcedureContext{"id": "nobody"}); !errors.Is(err, archive.ErrNotFound) {
		t.Errorf("update of a missing record error = %v, want ErrNotFound", err)
	}
}

func TestArchive_List(t *testing.T) {
	for _, codec := range codecs {
		t.Run(codec.ContentType(), func(t *testing.T) {
			ctx := context.Background()
			arc := archive.New(archive.NewMemoryStore(), codec)
			tasks, err := archetype.NewFactory(arc).Entity(archetype.Definition{
				Name:   "Task",
				Source: "tasks",
				Properties: []archetype.PropertyDef{
					{Name: "title", Type: archetype.StringType()},
					{Name: "done", Type: archetype.BooleanType(), Default: archetype.Literal(false)},
					{Name: "rank"},
				},
				Filters: map[string]any{"done": false},
				OrderBy: &archetype.OrderBy{Property: "rank", Descending: true},
			})
			if err != nil {
				t.Fatalf("Entity() error: %v", err)
			}

			for _, task := range []archetype.ProcedureContext{
				{"id": "a", "title": "low", "rank": 1},
				{"id": "b", "title": "high", "rank": 10},
				{"id": "c", "title": "finished", "rank": 5, "done": true},
				{"id": "d", "title": "mid", "rank": 2},
			} {
				if _, err := tasks.Execute(ctx, archive.ProcedureCreate, task); err != nil {
					t.Fatalf("create %v error: %v", task["id"], err)
				}
			}

			res, err := tasks.Execute(ctx, archive.ProcedureList, nil)
			if err != nil {
				t.Fatalf("list error: %v", err)
			}
			var titles []string
			for _, rec := range res.Records {
				titles = append(titles, rec["title"].(string))
			}
			if want := []string{"high", "mid", "low"}; !slices.Equal(titles, want) {
				t.Errorf("list = %v, want %v", titles, want)
			}
			if res.Value != 3 {
				t.Errorf("list count = %v, want 3", res.Value)
			}
		})
	}
}

func TestArchive_Proxies(t *testing.T) {
	ctx := context.Background()
	var rec archetypetest.Recorder
	errReadOnly := errors.New("deletes are disabled")

	arc, users := newUsers(t, json.New())
	arc.Proxy("audit", archetype.AllProcedures, rec.RequestProxy("audit"))
	arc.Proxy("writes", archetype.AnyOf(archive.ProcedureCreate, archive.ProcedureUpdate), rec.ResponseProxy("written"))
	arc.Proxy("read-only", archetype.Exact(archive.ProcedureDelete), archetype.RequestProxy(func(context.Context, archetype.Request) (archetype.Request, error) {
		return archetype.Request{}, errReadOnly
	}))
	users.AddEntityProcedure("ping", rec.Procedure("ping"))

	res, err := users.Execute(ctx, archive.ProcedureCreate, archetype.ProcedureContext{"email": "a@example.com"})
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if _, err := users.Execute(ctx, "ping", nil); err != nil {
		t.Fatalf("ping error: %v", err)
	}
	created, _ := res.Record()
	if _, err := users.Execute(ctx, archive.ProcedureDelete, archetype.ProcedureContext{"id": created["id"]}); err != errReadOnly {
		t.Fatalf("delete error = %v, want the proxy error", err)
	}
	if _, err := arc.Store().Get(ctx, users.Source(), created["id"].(string)); err != nil {
		t.Errorf("rejected delete removed the record: %v", err)
	}

	want := []string{"audit", "written", "audit", "ping", "audit"}
	if got := rec.Events(); !slices.Equal(got, want) {
		t.Errorf("ran %v, want %v", got, want)
	}

	if n := len(arc.RequestProxies(archive.ProcedureDelete)); n != 2 {
		t.Errorf("RequestProxies(delete) = %d, want 2", n)
	}
	if n := len(arc.AllProxies()); n != 3 {
		t.Errorf("AllProxies() = %d, want 3", n)
	}
}

// slowStore widens the window between reading existing records and writing.
type slowStore struct {
	*archive.MemoryStore
}

func (s slowStore) Get(ctx context.Context, source, id string) ([]byte, error) {
	time.Sleep(2 * time.Millisecond)
	return s.MemoryStore.Get(ctx, source, id)
}

func (s slowStore) List(ctx context.Context, source string) (map[string][]byte, error) {
	time.Sleep(2 * time.Millisecond)
	return s.MemoryStore.List(ctx, source)
}

func TestArchive_ConcurrentCreate(t *testing.T) {
	tests := []struct {
		name string
		pctx func(i int) archetype.ProcedureContext
	}{
		{"same identifier", func(i int) archetype.ProcedureContext {
			return archetype.ProcedureContext{"id": "same", "email": fmt.Sprintf("user%d@example.com", i)}
		}},
		{"same unique email", func(i int) archetype.ProcedureContext {
			return archetype.ProcedureContext{"id": fmt.Sprintf("u%d", i), "email": "a@example.com"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := slowStore{archive.NewMemoryStore()}
			arc := archive.New(store, json.New())
			users, err := archetype.Use[archetypetest.User](archetypetest.TestFactory(t, arc))
			if err != nil {
				t.Fatalf("Use() error: %v", err)
			}

			const workers = 20
			var wg sync.WaitGroup
			errs := make([]error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = users.Execute(ctx, archive.ProcedureCreate, tt.pctx(i))
				}(i)
			}
			wg.Wait()

			var created int
			for _, err := range errs {
				switch {
				case err == nil:
					created++
				case !errors.Is(err, archive.ErrConflict):
					t.Errorf("create error = %v, want ErrConflict", err)
				}
			}
			if created != 1 {
				t.Errorf("%d creates succeeded, want exactly 1", created)
			}
			if all, _ := store.List(ctx, users.Source()); len(all) != 1 {
				t.Errorf("store holds %d records, want 1", len(all))
			}
		})
	}
}
