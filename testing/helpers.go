// Package testing provides fixtures for archetype tests: keys, factories,
// declared entities and order recording proxies.
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/zoobzio/archetype"
	"github.com/zoobzio/archetype/archive"
	"github.com/zoobzio/archetype/json"
)

// TestKey returns a valid 32-byte AES key for testing.
func TestKey(tb testing.TB) []byte {
	tb.Helper()
	return []byte("32-byte-key-for-aes-256-encrypt!")
}

// TestEncryptor returns an AES encryptor configured for testing.
func TestEncryptor(tb testing.TB) archetype.Encryptor {
	tb.Helper()
	enc, err := archetype.AES(TestKey(tb))
	if err != nil {
		tb.Fatalf("AES() error: %v", err)
	}
	return enc
}

// TestArchive returns an empty in-memory archive with a JSON codec.
func TestArchive(tb testing.TB) *archive.Archive {
	tb.Helper()
	return archive.New(archive.NewMemoryStore(), json.New())
}

// TestFactory returns a factory over arc with the test encryptor registered.
func TestFactory(tb testing.TB, arc archetype.Archive) *archetype.Factory {
	tb.Helper()
	return archetype.NewFactory(arc, archetype.WithEncryptor(archetype.EncryptAES, TestEncryptor(tb)))
}

// User is a struct declared entity exercising flags, defaults and
// capability transforms.
type User struct {
	ID       string `json:"id" archetype:",identifier"`
	Email    string `json:"email" archetype:",required,unique" get.mask:"email"`
	Password string `json:"password" archetype:",private" set.hash:"sha256"`
	SSN      string `json:"ssn" set.encrypt:"aes" get.decrypt:"aes"`
	Note     string `json:"note" get.redact:"[REDACTED]"`
	Active   bool   `json:"active" default:"true"`
}

// Account declares its own definition.
type Account struct{}

// Definition implements archetype.Definable.
func (Account) Definition() archetype.Definition {
	return archetype.Definition{
		Name:   "Account",
		Source: "accounts",
		Properties: []archetype.PropertyDef{
			{Name: "owner", Type: archetype.StringType(), Required: true},
			{Name: "settings", Type: archetype.ObjectType(), Default: archetype.Literal(nil)},
		},
	}
}

// UserDefinition returns a hand-built User definition with a signUp entity
// procedure and an email validator.
func UserDefinition() archetype.Definition {
	return archetype.Definition{
		Name: "User",
		Properties: []archetype.PropertyDef{
			{
				Name:     "email",
				Type:     archetype.StringType(),
				Required: true,
				Unique:   true,
				Validate: archetype.ValidatorFunc(func(_ context.Context, value any, fc archetype.FieldContext) error {
					if s, _ := value.(string); s == "" {
						return archetype.NewValidationError(fc.Property.Name(), "must not be empty")
					}
					return nil
				}),
			},
			{Name: "active", Type: archetype.BooleanType(), Default: archetype.Literal(false)},
		},
		Procedures: archetype.Procedures{
			Entity: map[string]archetype.Procedure{
				"signUp": archetype.ProcedureFunc(SignUp),
			},
		},
	}
}

// SignUp builds a model from the "email" context value, applies defaults
// and validates it. The model is returned as the response value.
func SignUp(ctx context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
	m := req.Entity.Model()
	if err := m.Set(ctx, "email", req.Context["email"]); err != nil {
		return archetype.Response{}, err
	}
	if err := m.ApplyDefaults(ctx); err != nil {
		return archetype.Response{}, err
	}
	if err := m.Validate(ctx); err != nil {
		return archetype.Response{}, err
	}
	return archetype.Response{Request: req, Records: []archetype.Record{m.Values()}, Value: m}, nil
}

// Recorder records the order pipeline steps run in.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Record appends label.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, label)
}

// Events returns a copy of the recorded labels.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// Reset forgets every recorded label.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// RequestProxy returns a request proxy recording label.
func (r *Recorder) RequestProxy(label string) archetype.RequestProxy {
	return func(_ context.Context, req archetype.Request) (archetype.Request, error) {
		r.Record(label)
		return req, nil
	}
}

// ResponseProxy returns a response proxy recording label.
func (r *Recorder) ResponseProxy(label string) archetype.ResponseProxy {
	return func(_ context.Context, res archetype.Response) (archetype.Response, error) {
		r.Record(label)
		return res, nil
	}
}

// FailingRequestProxy returns a request proxy recording label and failing with err.
func (r *Recorder) FailingRequestProxy(label string, err error) archetype.RequestProxy {
	return func(_ context.Context, _ archetype.Request) (archetype.Request, error) {
		r.Record(label)
		return archetype.Request{}, err
	}
}

// Procedure returns a procedure recording label and echoing the request.
func (r *Recorder) Procedure(label string) archetype.Procedure {
	return archetype.ProcedureFunc(func(_ context.Context, _ archetype.Archive, req archetype.Request) (archetype.Response, error) {
		r.Record(label)
		return archetype.Response{Request: req, Value: label}, nil
	})
}

// Hook returns a hook recording "label:moment".
func (r *Recorder) Hook(label string) archetype.Hook {
	return func(_ context.Context, ev archetype.HookEvent) {
		r.Record(fmt.Sprintf("%s:%s", label, ev.Moment))
	}
}
