package archetype

import "maps"

// Record holds the raw property values of a single entity instance.
type Record map[string]any

// Clone returns a shallow copy of the record.
// Values holding pointers, slices or maps are shared with the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// ProcedureContext carries the caller supplied arguments of a procedure.
type ProcedureContext map[string]any

// Clone returns a shallow copy of the context.
// Proxies that rewrite arguments should clone before mutating so the
// caller's map is left untouched.
func (c ProcedureContext) Clone() ProcedureContext {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// String returns the value under key when it is a string.
func (c ProcedureContext) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Request is the envelope threaded through request proxies into a procedure.
type Request struct {
	Context   ProcedureContext
	Entity    *Entity
	Model     *Model // nil for entity scoped procedures
	Procedure string
}

// Response is the envelope returned by a procedure and threaded through
// response proxies.
type Response struct {
	Request Request
	Records []Record
	Value   any
}

// Record returns the first record of the response, if any.
func (r Response) Record() (Record, bool) {
	if len(r.Records) == 0 {
		return nil, false
	}
	return r.Records[0], true
}
