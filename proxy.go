package archetype

import (
	"context"
	"sync"
)

// Moment identifies which side of a procedure a proxy intercepts.
type Moment uint8

const (
	// MomentRequest proxies run before the procedure.
	MomentRequest Moment = iota + 1

	// MomentResponse proxies run after the procedure.
	MomentResponse
)

func (m Moment) String() string {
	switch m {
	case MomentRequest:
		return "request"
	case MomentResponse:
		return "response"
	default:
		return "unknown"
	}
}

// Proxy is an interceptor registered against a selector.
// It is implemented by RequestProxy and ResponseProxy.
type Proxy interface {
	Moment() Moment
}

// RequestProxy rewrites a request before the procedure executes.
// Returning an error aborts the invocation.
type RequestProxy func(ctx context.Context, req Request) (Request, error)

// Moment returns MomentRequest.
func (RequestProxy) Moment() Moment { return MomentRequest }

// ResponseProxy rewrites a response after the procedure executes.
// Returning an error aborts the invocation.
type ResponseProxy func(ctx context.Context, res Response) (Response, error)

// Moment returns MomentResponse.
func (ResponseProxy) Moment() Moment { return MomentResponse }

// ProxyRegistration is a single registered proxy.
type ProxyRegistration struct {
	Name     string // optional label, archive proxies only
	Selector Selector
	Proxy    Proxy
}

// Moment returns the moment of the registered proxy.
func (r ProxyRegistration) Moment() Moment {
	if r.Proxy == nil {
		return 0
	}
	return r.Proxy.Moment()
}

// proxyList is an ordered, append-only list of registrations.
type proxyList []ProxyRegistration

// requests returns request proxies matching procedure. When wildcard is
// true only universal selectors are considered, otherwise only specific ones.
func (l proxyList) requests(procedure string, wildcard bool) []RequestProxy {
	var out []RequestProxy
	for _, reg := range l {
		p, ok := reg.Proxy.(RequestProxy)
		if !ok || reg.Selector.IsWildcard() != wildcard || !reg.Selector.Matches(procedure) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// responses mirrors requests for response proxies.
func (l proxyList) responses(procedure string, wildcard bool) []ResponseProxy {
	var out []ResponseProxy
	for _, reg := range l {
		p, ok := reg.Proxy.(ResponseProxy)
		if !ok || reg.Selector.IsWildcard() != wildcard || !reg.Selector.Matches(procedure) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matching returns every registration whose selector matches procedure.
func (l proxyList) matching(procedure string) []ProxyRegistration {
	var out []ProxyRegistration
	for _, reg := range l {
		if reg.Selector.Matches(procedure) {
			out = append(out, reg)
		}
	}
	return out
}

// ProxyTable is a flat, ordered table of archive-wide proxies.
// Archive implementations embed it to satisfy the Archive interface.
//
// ProxyTable is safe for concurrent use.
type ProxyTable struct {
	mu      sync.RWMutex
	entries proxyList
}

// Proxy registers p under selector. Registrations are never replaced;
// a repeated name simply adds another entry.
func (t *ProxyTable) Proxy(name string, selector Selector, p Proxy) *ProxyTable {
	if p == nil {
		return t
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, ProxyRegistration{Name: name, Selector: selector, Proxy: p})
	return t
}

// RequestProxies returns request proxies whose selector matches procedure,
// in registration order.
func (t *ProxyTable) RequestProxies(procedure string) []RequestProxy {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []RequestProxy
	for _, reg := range t.entries {
		if p, ok := reg.Proxy.(RequestProxy); ok && reg.Selector.Matches(procedure) {
			out = append(out, p)
		}
	}
	return out
}

// ResponseProxies returns response proxies whose selector matches procedure,
// in registration order.
func (t *ProxyTable) ResponseProxies(procedure string) []ResponseProxy {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []ResponseProxy
	for _, reg := range t.entries {
		if p, ok := reg.Proxy.(ResponseProxy); ok && reg.Selector.Matches(procedure) {
			out = append(out, p)
		}
	}
	return out
}

// AllProxies returns a copy of every registration.
func (t *ProxyTable) AllProxies() []ProxyRegistration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]ProxyRegistration(nil), t.entries...)
}
