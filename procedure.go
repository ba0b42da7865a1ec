package archetype

// Scope separates entity procedures from model procedures.
type Scope uint8

const (
	// ScopeEntity procedures run directly against the archive.
	ScopeEntity Scope = iota + 1

	// ScopeModel procedures run against a materialized model.
	ScopeModel
)

func (s Scope) String() string {
	switch s {
	case ScopeEntity:
		return "entity"
	case ScopeModel:
		return "model"
	default:
		return "unknown"
	}
}

// procedureTable maps names to procedures, keeping insertion order.
// The first registration of a name wins.
type procedureTable struct {
	order []string
	procs map[string]Procedure
}

// add inserts p under name. It reports false and leaves the table
// untouched when the name is empty or already taken.
func (t *procedureTable) add(name string, p Procedure) bool {
	if name == "" || p == nil {
		return false
	}
	if t.procs == nil {
		t.procs = make(map[string]Procedure)
	}
	if _, exists := t.procs[name]; exists {
		return false
	}
	t.procs[name] = p
	t.order = append(t.order, name)
	return true
}

func (t *procedureTable) get(name string) (Procedure, bool) {
	p, ok := t.procs[name]
	return p, ok
}

func (t *procedureTable) has(name string) bool {
	_, ok := t.procs[name]
	return ok
}

// names returns procedure names in insertion order.
func (t *procedureTable) names() []string {
	return append([]string(nil), t.order...)
}
