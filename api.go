// Package archetype provides an entity-modeling layer with intercepted procedures.
//
// An Entity is a named schema: a set of Properties (typed fields with a
// validation, transform and default contract) and a set of Procedures (named
// operations executed against an Archive). Every procedure invocation runs
// through a pipeline of proxies that may rewrite the request before the
// procedure executes and the response after it returns. Any step may fail,
// and the first failure is returned to the caller verbatim.
//
// # Scopes
//
// Procedures, proxies and hooks live in one of two scopes:
//
//   - entity: procedures run directly against the archive via Entity.Execute
//   - model: procedures run against a materialized Model via Model.Execute
//
// # Pipeline
//
// For a single invocation the stages run strictly in order:
//
//	archive request proxies   (selector matched, registration order)
//	wildcard request proxies  (scope)
//	specific request proxies  (scope)
//	procedure
//	wildcard response proxies (scope)
//	specific response proxies (scope)
//	archive response proxies  (selector matched, registration order)
//
// An unknown procedure fails before any proxy runs.
//
// # Selectors
//
// Proxies and hooks are registered against a Selector:
//
//	archetype.Exact("signUp")
//	archetype.AnyOf("create", "update")
//	archetype.Wildcard       // every procedure of an entity or model
//	archetype.AllProcedures  // every procedure reaching an archive
//
// # Basic Usage
//
//	f := archetype.NewFactory(arc)
//
//	users, err := f.Entity(archetype.Definition{
//	    Name: "User",
//	    Properties: []archetype.PropertyDef{
//	        {Name: "email", Type: archetype.StringType(), Required: true},
//	    },
//	})
//
//	users.AddEntityProcedure("signUp", archetype.ProcedureFunc(signUp))
//	users.ProxyEntityProcedure(archetype.Exact("signUp"), archetype.RequestProxy(requireEmail))
//
//	res, err := users.Execute(ctx, "signUp", archetype.ProcedureContext{"email": "a@b.co"})
//
// # Declarations
//
// Entities can also be declared with struct tags and scanned with Define or
// Use:
//
//	type User struct {
//	    ID       string `json:"id" archetype:"id,identifier"`
//	    Email    string `json:"email" archetype:",required,unique" get.mask:"email"`
//	    Password string `json:"password" archetype:",private" set.hash:"argon2"`
//	}
//
// or decoded from a schema document with Factory.ParseSchema.
//
// # Capability Transforms
//
// Property get/set chains accept any Transform. Built-in transforms wrap the
// maskers, hashers and encryptors of this package:
//
//   - MaskTransform: email, name, card, phone, ssn
//   - RedactTransform: fixed replacement
//   - HashTransform: argon2, bcrypt, sha256, sha512
//   - EncryptTransform / DecryptTransform: AES-GCM
package archetype

import "context"

// Archive is the persistence backend entities execute procedures against.
// The pipeline only consumes its archive-wide proxies; concrete backends
// expose their own behavior through the procedures they provide.
type Archive interface {
	// RequestProxies returns request proxies matching procedure in
	// registration order. An empty procedure returns every request proxy.
	RequestProxies(procedure string) []RequestProxy

	// ResponseProxies returns response proxies matching procedure in
	// registration order. An empty procedure returns every response proxy.
	ResponseProxies(procedure string) []ResponseProxy
}

// ProcedureProvider is implemented by archives that contribute entity
// procedures to every entity built on them.
type ProcedureProvider interface {
	Procedures() map[string]Procedure
}

// Procedure is a named operation executed against an archive.
type Procedure interface {
	Execute(ctx context.Context, archive Archive, req Request) (Response, error)
}

// ProcedureFunc adapts a function to the Procedure interface.
type ProcedureFunc func(ctx context.Context, archive Archive, req Request) (Response, error)

// Execute calls f.
func (f ProcedureFunc) Execute(ctx context.Context, archive Archive, req Request) (Response, error) {
	return f(ctx, archive, req)
}

// Validator checks a single property value.
// A nil error means the value is valid.
type Validator interface {
	Validate(ctx context.Context, value any, fc FieldContext) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, value any, fc FieldContext) error

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, value any, fc FieldContext) error {
	return f(ctx, value, fc)
}

// Validators is an ordered list of validators evaluated fail-fast.
type Validators []Validator

// Validate runs each validator in order and returns the first error.
// Validators after a failing one are never evaluated.
func (vs Validators) Validate(ctx context.Context, value any, fc FieldContext) error {
	for _, v := range vs {
		if err := v.Validate(ctx, value, fc); err != nil {
			return err
		}
	}
	return nil
}

// Transform is one step of a property get or set chain.
// It returns the next value or an error that stops the chain.
type Transform func(ctx context.Context, value any, fc FieldContext) (any, error)

// FieldContext is handed to validators and transforms.
type FieldContext struct {
	Property *Property
	Record   Record
}
