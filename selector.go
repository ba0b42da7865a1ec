package archetype

import (
	"slices"
	"strings"
)

// selectorKind discriminates the Selector variants.
type selectorKind uint8

const (
	selectorExact selectorKind = iota
	selectorAnyOf
	selectorWildcard
	selectorAll
)

// Selector decides which procedures a proxy or hook applies to.
// Build one with Exact or AnyOf, or use the Wildcard and AllProcedures
// sentinels.
type Selector struct {
	kind  selectorKind
	names []string
}

var (
	// Wildcard matches every procedure of an entity or model.
	Wildcard = Selector{kind: selectorWildcard}

	// AllProcedures matches every procedure reaching an archive. On entity
	// and model registrations it behaves exactly like Wildcard.
	AllProcedures = Selector{kind: selectorAll}
)

// Exact selects a single procedure by name.
func Exact(name string) Selector {
	return Selector{kind: selectorExact, names: []string{name}}
}

// AnyOf selects every procedure named in names.
func AnyOf(names ...string) Selector {
	return Selector{kind: selectorAnyOf, names: slices.Clone(names)}
}

// Matches reports whether the selector applies to procedure.
// An empty procedure name stands for "any procedure" and always matches,
// which is how registries enumerate everything they hold.
func (s Selector) Matches(procedure string) bool {
	if procedure == "" {
		return true
	}
	switch s.kind {
	case selectorWildcard, selectorAll:
		return true
	case selectorExact:
		return len(s.names) == 1 && s.names[0] == procedure
	case selectorAnyOf:
		return slices.Contains(s.names, procedure)
	default:
		return false
	}
}

// IsWildcard reports whether the selector is one of the universal sentinels.
func (s Selector) IsWildcard() bool {
	return s.kind == selectorWildcard || s.kind == selectorAll
}

// Names returns the procedure names of an Exact or AnyOf selector.
func (s Selector) Names() []string {
	return slices.Clone(s.names)
}

func (s Selector) String() string {
	switch s.kind {
	case selectorWildcard:
		return "*"
	case selectorAll:
		return "**"
	case selectorAnyOf:
		return "{" + strings.Join(s.names, ",") + "}"
	default:
		return strings.Join(s.names, "")
	}
}
