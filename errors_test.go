package archetype

import (
	"errors"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unknown procedure",
			err:  newProcedureError(ErrUnknownProcedure, "User", "signUp", ScopeEntity),
			want: `unknown procedure: entity procedure "signUp" on entity User`,
		},
		{
			name: "procedure conflict",
			err:  newProcedureError(ErrProcedureConflict, "User", "save", ScopeModel),
			want: `procedure already registered: model procedure "save" on entity User`,
		},
		{
			name: "validation with reason",
			err:  NewValidationError("email", "must not be empty"),
			want: "validation failed (property email): must not be empty",
		},
		{
			name: "required",
			err:  &ValidationError{Err: ErrRequired, Property: "email"},
			want: "property is required (property email)",
		},
		{
			name: "config full context",
			err:  newConfigError(ErrMissingEncryptor, "aes", "ssn"),
			want: `missing encryptor for algorithm "aes" (field ssn)`,
		},
		{
			name: "config algorithm only",
			err:  &ConfigError{Err: ErrMissingHasher, Algorithm: "argon2"},
			want: `missing hasher for algorithm "argon2"`,
		},
		{
			name: "config field only",
			err:  &ConfigError{Err: ErrInvalidSchema, Field: "name"},
			want: "invalid schema (field name)",
		},
		{
			name: "config sentinel only",
			err:  &ConfigError{Err: ErrInvalidSchema},
			want: "invalid schema",
		},
		{
			name: "transform with cause",
			err:  newTransformError(ErrDecrypt, "decrypt", "ssn", errors.New("authentication failed")),
			want: "decrypt field ssn: authentication failed",
		},
		{
			name: "transform without cause",
			err:  newTransformError(ErrMask, "mask", "email", nil),
			want: "mask field email",
		},
		{
			name: "codec with cause",
			err:  NewCodecError(ErrUnmarshal, errors.New("unexpected end of JSON input")),
			want: "unmarshal failed: unexpected end of JSON input",
		},
		{
			name: "codec without cause",
			err:  NewCodecError(ErrMarshal, nil),
			want: "marshal failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorsUnwrapToSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		other  error
	}{
		{"procedure", newProcedureError(ErrUnknownProcedure, "User", "x", ScopeEntity), ErrUnknownProcedure, ErrProcedureConflict},
		{"validation", NewValidationError("email", "bad"), ErrValidation, ErrRequired},
		{"required", &ValidationError{Err: ErrRequired, Property: "email"}, ErrRequired, ErrValidation},
		{"config", newConfigError(ErrMissingEncryptor, "aes", "ssn"), ErrMissingEncryptor, ErrMissingHasher},
		{"transform", newTransformError(ErrEncrypt, "encrypt", "ssn", nil), ErrEncrypt, ErrDecrypt},
		{"codec", NewCodecError(ErrUnmarshal, nil), ErrUnmarshal, ErrMarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("expected errors.Is(%v, %v)", tt.err, tt.target)
			}
			if errors.Is(tt.err, tt.other) {
				t.Errorf("did not expect errors.Is(%v, %v)", tt.err, tt.other)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	var pe *ProcedureError
	if !errors.As(newProcedureError(ErrUnknownProcedure, "User", "signUp", ScopeModel), &pe) {
		t.Fatal("expected *ProcedureError")
	}
	if pe.Entity != "User" || pe.Procedure != "signUp" || pe.Scope != ScopeModel {
		t.Errorf("unexpected fields: %+v", pe)
	}

	var ce *ConfigError
	if !errors.As(newConfigError(ErrMissingMasker, "email", "contact"), &ce) {
		t.Fatal("expected *ConfigError")
	}
	if ce.Algorithm != "email" || ce.Field != "contact" {
		t.Errorf("unexpected fields: %+v", ce)
	}

	var te *TransformError
	cause := errors.New("boom")
	if !errors.As(newTransformError(ErrHash, "hash", "password", cause), &te) {
		t.Fatal("expected *TransformError")
	}
	if te.Cause != cause || te.Operation != "hash" {
		t.Errorf("unexpected fields: %+v", te)
	}
}
