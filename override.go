package archetype

// Definable lets a type supply its entity definition directly. Define and
// Use call it instead of scanning struct tags, which allows procedures,
// proxies, hooks and validators to be declared alongside the type.
//
// Definition may be implemented on the value or the pointer receiver.
type Definable interface {
	Definition() Definition
}
