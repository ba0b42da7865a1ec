package archetype

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnknownProcedure indicates the requested procedure is not registered
	// in the requested scope.
	ErrUnknownProcedure = errors.New("unknown procedure")

	// ErrProcedureConflict indicates a procedure name was registered twice in
	// one scope. The first registration is kept.
	ErrProcedureConflict = errors.New("procedure already registered")

	// ErrInvalidProcedureName indicates an empty procedure name or a nil procedure.
	ErrInvalidProcedureName = errors.New("invalid procedure")

	// ErrUnknownProperty indicates a property name absent from the entity.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrDuplicateProperty indicates two properties share a name.
	ErrDuplicateProperty = errors.New("duplicate property")

	// ErrDuplicateEntity indicates two entities share a name within a factory.
	ErrDuplicateEntity = errors.New("duplicate entity")

	// ErrValidation is the base of errors built with NewValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrRequired indicates a required property has no value.
	ErrRequired = errors.New("property is required")

	// ErrAsyncDefault indicates SyncDefault was called on a property whose
	// default must be resolved with a context.
	ErrAsyncDefault = errors.New("default requires asynchronous resolution")

	// ErrUnknownType indicates a property type name with no registered type.
	ErrUnknownType = errors.New("unknown property type")

	// ErrInvalidSchema indicates a schema document has an invalid shape.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrMissingEncryptor indicates a required encryptor was not registered.
	ErrMissingEncryptor = errors.New("missing encryptor")

	// ErrMissingHasher indicates a required hasher was not registered.
	ErrMissingHasher = errors.New("missing hasher")

	// ErrMissingMasker indicates a required masker was not registered.
	ErrMissingMasker = errors.New("missing masker")

	// ErrInvalidTag indicates a struct tag has an invalid format or value.
	ErrInvalidTag = errors.New("invalid tag")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")

	// ErrEncrypt indicates encryption of a value failed.
	ErrEncrypt = errors.New("encrypt failed")

	// ErrDecrypt indicates decryption of a value failed.
	ErrDecrypt = errors.New("decrypt failed")

	// ErrHash indicates hashing of a value failed.
	ErrHash = errors.New("hash failed")

	// ErrMask indicates masking of a value failed.
	ErrMask = errors.New("mask failed")

	// ErrInvalidKey indicates an encryption key has invalid size or format.
	ErrInvalidKey = errors.New("invalid key")
)

// ProcedureError reports a procedure lookup or registration failure.
type ProcedureError struct {
	Err       error  // ErrUnknownProcedure, ErrProcedureConflict or ErrInvalidProcedureName
	Entity    string // Entity name
	Procedure string // Procedure name
	Scope     Scope
}

func (e *ProcedureError) Error() string {
	return fmt.Sprintf("%s: %s procedure %q on entity %s", e.Err.Error(), e.Scope, e.Procedure, e.Entity)
}

func (e *ProcedureError) Unwrap() error {
	return e.Err
}

// ValidationError is a typed validation failure validators may return.
// Property validation returns whatever a validator produced, so callers
// should match with errors.Is(err, ErrValidation) only for validators known
// to use it.
type ValidationError struct {
	Err      error  // ErrValidation or ErrRequired
	Property string // Property that failed
	Reason   string // Human readable reason
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (property %s): %s", e.Err.Error(), e.Property, e.Reason)
	}
	return fmt.Sprintf("%s (property %s)", e.Err.Error(), e.Property)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for property.
func NewValidationError(property, reason string) error {
	return &ValidationError{Err: ErrValidation, Property: property, Reason: reason}
}

// ConfigError represents a factory or definition configuration error.
// It wraps a sentinel error with additional context about the property and algorithm.
type ConfigError struct {
	Err       error  // Underlying sentinel error (ErrMissingEncryptor, etc.)
	Field     string // Property or entity that triggered the error
	Algorithm string // Algorithm or type that was missing/invalid
}

func (e *ConfigError) Error() string {
	if e.Field != "" && e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q (field %s)", e.Err.Error(), e.Algorithm, e.Field)
	}
	if e.Algorithm != "" {
		return fmt.Sprintf("%s for algorithm %q", e.Err.Error(), e.Algorithm)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (field %s)", e.Err.Error(), e.Field)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransformError represents an error during a property transform.
// It wraps a sentinel error with context about which property and operation failed.
type TransformError struct {
	Err       error  // Underlying sentinel error (ErrEncrypt, ErrDecrypt, etc.)
	Field     string // Property that failed
	Operation string // Operation that failed (encrypt, decrypt, hash, mask)
	Cause     error  // Original error from the underlying operation
}

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s field %s: %v", e.Operation, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s field %s", e.Operation, e.Field)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrMarshal, ErrUnmarshal)
	Cause error // Original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func newProcedureError(sentinel error, entity, procedure string, scope Scope) error {
	return &ProcedureError{
		Err:       sentinel,
		Entity:    entity,
		Procedure: procedure,
		Scope:     scope,
	}
}

// newConfigError creates a ConfigError for missing handler scenarios.
func newConfigError(sentinel error, algorithm, field string) error {
	return &ConfigError{
		Err:       sentinel,
		Algorithm: algorithm,
		Field:     field,
	}
}

// newTransformError creates a TransformError for property transform failures.
func newTransformError(sentinel error, operation, field string, cause error) error {
	return &TransformError{
		Err:       sentinel,
		Field:     field,
		Operation: operation,
		Cause:     cause,
	}
}

// NewCodecError creates a CodecError for marshal/unmarshal failures.
// Archives use it to report record encoding failures.
func NewCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
