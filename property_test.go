package archetype

import (
	"context"
	"errors"
	"testing"
)

func TestPropertyFlags(t *testing.T) {
	p := NewProperty(PropertyDef{Name: "email", Type: StringType(), Private: true, Required: true, Unique: true})

	if p.Name() != "email" || p.Type().Name() != "string" {
		t.Errorf("unexpected name/type: %s/%s", p.Name(), p.Type().Name())
	}
	if !p.IsPrivate() || !p.IsRequired() || !p.IsUnique() {
		t.Error("flags should be carried from the declaration")
	}
	if p.HasDefault() {
		t.Error("HasDefault() should be false without a default")
	}
}

func TestPropertyHasDefault(t *testing.T) {
	tests := []struct {
		name string
		def  Default
		want bool
	}{
		{"none", nil, false},
		{"literal nil", Literal(nil), true},
		{"literal zero", Literal(0), true},
		{"literal false", Literal(false), true},
		{"func", DefaultFunc(func() any { return nil }), true},
		{"resolver", DefaultResolver(func(context.Context) (any, error) { return nil, nil }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProperty(PropertyDef{Name: "x", Default: tt.def})
			if got := p.HasDefault(); got != tt.want {
				t.Errorf("HasDefault() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPropertyNilDefaultFuncs(t *testing.T) {
	tests := []struct {
		name string
		def  Default
	}{
		{"func", DefaultFunc(nil)},
		{"resolver", DefaultResolver(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.def != nil {
				t.Fatalf("got %T, want nil", tt.def)
			}
			p := NewProperty(PropertyDef{Name: "x", Default: tt.def})
			if p.HasDefault() {
				t.Error("HasDefault() should be false")
			}
			if v, err := p.Default(context.Background()); v != nil || err != nil {
				t.Errorf("Default() = %v, %v; want nil, nil", v, err)
			}
			if v, err := p.SyncDefault(); v != nil || err != nil {
				t.Errorf("SyncDefault() = %v, %v; want nil, nil", v, err)
			}
		})
	}
}

func TestPropertyDefaults(t *testing.T) {
	ctx := context.Background()
	calls := 0
	counter := DefaultFunc(func() any {
		calls++
		return calls
	})
	boom := errors.New("sequence unavailable")

	tests := []struct {
		name     string
		def      Default
		want     any
		wantErr  error
		syncWant any
		syncErr  error
	}{
		{name: "none", def: nil},
		{name: "literal", def: Literal("guest"), want: "guest", syncWant: "guest"},
		{name: "literal nil", def: Literal(nil)},
		{name: "resolver", def: DefaultResolver(func(context.Context) (any, error) { return 42, nil }), want: 42, syncErr: ErrAsyncDefault},
		{name: "resolver error", def: DefaultResolver(func(context.Context) (any, error) { return nil, boom }), wantErr: boom, syncErr: ErrAsyncDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProperty(PropertyDef{Name: "x", Default: tt.def})

			got, err := p.Default(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Default() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Default() = %v, want %v", got, tt.want)
			}

			sync, err := p.SyncDefault()
			if !errors.Is(err, tt.syncErr) {
				t.Fatalf("SyncDefault() error = %v, want %v", err, tt.syncErr)
			}
			if sync != tt.syncWant {
				t.Errorf("SyncDefault() = %v, want %v", sync, tt.syncWant)
			}
		})
	}

	p := NewProperty(PropertyDef{Name: "seq", Default: counter})
	first, _ := p.Default(ctx)
	second, _ := p.SyncDefault()
	if first != 1 || second != 2 {
		t.Errorf("DefaultFunc should run on every resolution, got %v then %v", first, second)
	}
}

func TestPropertyValidateShortCircuits(t *testing.T) {
	ctx := context.Background()
	first := errors.New("first")
	secondRan := false

	p := NewProperty(PropertyDef{
		Name: "email",
		Validate: Validators{
			ValidatorFunc(func(context.Context, any, FieldContext) error { return first }),
			ValidatorFunc(func(context.Context, any, FieldContext) error {
				secondRan = true
				return nil
			}),
		},
	})

	if err := p.Validate(ctx, "x", nil); err != first {
		t.Errorf("Validate() = %v, want the first validator's error unchanged", err)
	}
	if secondRan {
		t.Error("second validator must not run after the first fails")
	}
}

func TestPropertyValidateContext(t *testing.T) {
	var seen FieldContext
	p := NewProperty(PropertyDef{
		Name: "email",
		Validate: ValidatorFunc(func(_ context.Context, _ any, fc FieldContext) error {
			seen = fc
			return nil
		}),
	})
	record := Record{"email": "a@b.co"}

	if err := p.Validate(context.Background(), "a@b.co", record); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if seen.Property != p || seen.Record["email"] != "a@b.co" {
		t.Errorf("validator received %+v", seen)
	}

	if err := NewProperty(PropertyDef{Name: "free"}).Validate(context.Background(), 123, nil); err != nil {
		t.Errorf("unvalidated property should accept anything, got %v", err)
	}
}

func TestPropertyTransformChains(t *testing.T) {
	ctx := context.Background()
	appendStep := func(s string) Transform {
		return func(_ context.Context, v any, _ FieldContext) (any, error) {
			return v.(string) + s, nil
		}
	}
	boom := errors.New("boom")
	failing := func(context.Context, any, FieldContext) (any, error) { return nil, boom }

	p := NewProperty(PropertyDef{
		Name: "x",
		Get:  []Transform{appendStep("-g1"), appendStep("-g2")},
		Set:  []Transform{appendStep("-s1"), failing, appendStep("-s3")},
	})

	got, err := p.GetProxy(ctx, "v", nil)
	if err != nil || got != "v-g1-g2" {
		t.Errorf("GetProxy() = %v, %v; want v-g1-g2", got, err)
	}

	if _, err := p.SetProxy(ctx, "v", nil); err != boom {
		t.Errorf("SetProxy() error = %v, want boom", err)
	}

	plain := NewProperty(PropertyDef{Name: "y"})
	if got, _ := plain.GetProxy(ctx, 7, nil); got != 7 {
		t.Errorf("empty chain should return the value unchanged, got %v", got)
	}
}

func TestPropertyDefinitionIsCopied(t *testing.T) {
	chain := []Transform{RedactTransform("***")}
	p := NewProperty(PropertyDef{Name: "x", Get: chain})
	chain[0] = RedactTransform("changed")

	got, _ := p.GetProxy(context.Background(), "secret", nil)
	if got != "***" {
		t.Errorf("NewProperty should copy chains, got %v", got)
	}

	def := p.Definition()
	def.Get = nil
	if len(p.Definition().Get) != 1 {
		t.Error("Definition() should return a copy")
	}
}

func TestPropertySanitize(t *testing.T) {
	p := NewProperty(PropertyDef{Name: "active", Type: BooleanType()})

	got, err := p.Sanitize("true")
	if err != nil || got != true {
		t.Errorf("Sanitize(\"true\") = %v, %v", got, err)
	}
	if got, err := p.Sanitize(nil); err != nil || got != nil {
		t.Errorf("Sanitize(nil) = %v, %v", got, err)
	}
	if _, err := p.Sanitize(3.5); err == nil {
		t.Error("Sanitize(3.5) should fail for a boolean")
	}

	untyped := NewProperty(PropertyDef{Name: "any"})
	if got, _ := untyped.Sanitize(3.5); got != 3.5 {
		t.Errorf("untyped Sanitize should pass through, got %v", got)
	}
}
