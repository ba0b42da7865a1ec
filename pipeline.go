package archetype

import (
	"context"
	"time"
)

// invocation is a single pass through the procedure pipeline.
// stage tracks the last stage entered so failures can be attributed.
type invocation struct {
	entity    string
	scope     Scope
	archive   Archive
	proxies   proxyList
	procedure Procedure
	stage     string

	archiveRequests  []RequestProxy
	archiveResponses []ResponseProxy
}

// newInvocation captures every proxy the invocation of procedure will run.
// Registrations made after this point do not reach it.
func newInvocation(entity string, scope Scope, archive Archive, proxies proxyList, procedure string, proc Procedure) *invocation {
	inv := &invocation{
		entity:    entity,
		scope:     scope,
		archive:   archive,
		proxies:   proxies,
		procedure: proc,
	}
	if archive != nil {
		inv.archiveRequests = archive.RequestProxies(procedure)
		inv.archiveResponses = archive.ResponseProxies(procedure)
	}
	return inv
}

// dispatch runs req through the pipeline and reports the outcome.
func (inv *invocation) dispatch(ctx context.Context, req Request) (res Response, err error) {
	start := time.Now()
	emitProcedureStart(ctx, inv.entity, req.Procedure, inv.scope)
	defer func() {
		emitProcedureComplete(ctx, inv.entity, req.Procedure, inv.scope, inv.stage, time.Since(start), err)
	}()
	return inv.run(ctx, req)
}

// run executes the stages in order. The first error is returned as-is and
// nothing after it runs.
func (inv *invocation) run(ctx context.Context, req Request) (Response, error) {
	name := req.Procedure
	var err error

	if inv.archive != nil {
		inv.stage = stageArchiveRequest
		if req, err = applyRequests(ctx, inv.archiveRequests, req); err != nil {
			return Response{}, err
		}
	}

	inv.stage = stageWildcardRequest
	if req, err = applyRequests(ctx, inv.proxies.requests(name, true), req); err != nil {
		return Response{}, err
	}

	inv.stage = stageSpecificRequest
	if req, err = applyRequests(ctx, inv.proxies.requests(name, false), req); err != nil {
		return Response{}, err
	}

	inv.stage = stageExecute
	res, err := inv.procedure.Execute(ctx, inv.archive, req)
	if err != nil {
		return Response{}, err
	}

	inv.stage = stageWildcardResponse
	if res, err = applyResponses(ctx, inv.proxies.responses(name, true), res); err != nil {
		return Response{}, err
	}

	inv.stage = stageSpecificResponse
	if res, err = applyResponses(ctx, inv.proxies.responses(name, false), res); err != nil {
		return Response{}, err
	}

	if inv.archive != nil {
		inv.stage = stageArchiveResponse
		if res, err = applyResponses(ctx, inv.archiveResponses, res); err != nil {
			return Response{}, err
		}
	}

	inv.stage = stageDone
	return res, nil
}

func applyRequests(ctx context.Context, proxies []RequestProxy, req Request) (Request, error) {
	for _, p := range proxies {
		next, err := p(ctx, req)
		if err != nil {
			return Request{}, err
		}
		req = next
	}
	return req, nil
}

func applyResponses(ctx context.Context, proxies []ResponseProxy, res Response) (Response, error) {
	for _, p := range proxies {
		next, err := p(ctx, res)
		if err != nil {
			return Response{}, err
		}
		res = next
	}
	return res, nil
}
