package archetype

import "context"

// HookMoment identifies when a hook observes a procedure.
type HookMoment uint8

const (
	// HookBefore runs once the procedure is resolved, before any proxy.
	HookBefore HookMoment = iota + 1

	// HookAfter runs with the final response or error.
	HookAfter
)

func (m HookMoment) String() string {
	switch m {
	case HookBefore:
		return "before"
	case HookAfter:
		return "after"
	default:
		return "unknown"
	}
}

// HookEvent is the observation handed to a hook.
type HookEvent struct {
	Moment   HookMoment
	Request  Request
	Response Response // zero for HookBefore
	Err      error    // set for a failed HookAfter
}

// Hook observes procedure execution. Hooks cannot alter or abort it.
type Hook func(ctx context.Context, ev HookEvent)

// HookRegistration is a single registered hook.
type HookRegistration struct {
	Selector Selector
	Hook     Hook
}

// hookList is an ordered, append-only list of hooks.
type hookList []HookRegistration

// matching returns hooks whose selector matches procedure, in registration order.
func (l hookList) matching(procedure string) []HookRegistration {
	var out []HookRegistration
	for _, reg := range l {
		if reg.Selector.Matches(procedure) {
			out = append(out, reg)
		}
	}
	return out
}

// fire invokes each matching hook in order.
func (l hookList) fire(ctx context.Context, procedure string, ev HookEvent) {
	for _, reg := range l.matching(procedure) {
		reg.Hook(ctx, ev)
	}
}
