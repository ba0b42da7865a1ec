package archetype

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for archetype events.
var (
	SignalEntityCreated     = capitan.NewSignal("archetype.entity.created", "Entity built by a factory")
	SignalProcedureStart    = capitan.NewSignal("archetype.procedure.start", "Procedure invocation beginning")
	SignalProcedureComplete = capitan.NewSignal("archetype.procedure.complete", "Procedure invocation finished")
	SignalProcedureConflict = capitan.NewSignal("archetype.procedure.conflict", "Procedure registration rejected")
	SignalModelMaterialized = capitan.NewSignal("archetype.model.materialized", "Model materialized from entity")
	SignalArchiveStored     = capitan.NewSignal("archetype.archive.stored", "Record persisted by archive")
	SignalArchiveRemoved    = capitan.NewSignal("archetype.archive.removed", "Record removed by archive")
)

// Keys for typed event data.
var (
	KeyEntity         = capitan.NewStringKey("entity")
	KeyProcedure      = capitan.NewStringKey("procedure")
	KeyScope          = capitan.NewStringKey("scope")
	KeyStage          = capitan.NewStringKey("stage")
	KeyIdentifier     = capitan.NewStringKey("identifier")
	KeyContentType    = capitan.NewStringKey("content_type")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyError          = capitan.NewErrorKey("error")
	KeyPropertyCount  = capitan.NewIntKey("property_count")
	KeyProcedureCount = capitan.NewIntKey("procedure_count")
	KeyProxyCount     = capitan.NewIntKey("proxy_count")
	KeyHookCount      = capitan.NewIntKey("hook_count")
	KeySize           = capitan.NewIntKey("size")
)

// Pipeline stages reported with SignalProcedureComplete.
const (
	stageResolve          = "resolve"
	stageArchiveRequest   = "archive.request"
	stageWildcardRequest  = "wildcard.request"
	stageSpecificRequest  = "specific.request"
	stageExecute          = "execute"
	stageWildcardResponse = "wildcard.response"
	stageSpecificResponse = "specific.response"
	stageArchiveResponse  = "archive.response"
	stageDone             = "done"
)

// emitEntityCreated emits an event when a factory builds an entity.
func emitEntityCreated(ctx context.Context, entity string, properties, procedures int) {
	capitan.Emit(ctx, SignalEntityCreated,
		KeyEntity.Field(entity),
		KeyPropertyCount.Field(properties),
		KeyProcedureCount.Field(procedures),
	)
}

// emitProcedureStart emits an event when an invocation resolved its procedure.
func emitProcedureStart(ctx context.Context, entity, procedure string, scope Scope) {
	capitan.Emit(ctx, SignalProcedureStart,
		KeyEntity.Field(entity),
		KeyProcedure.Field(procedure),
		KeyScope.Field(scope.String()),
	)
}

// emitProcedureComplete emits an event when an invocation finishes.
// stage names the last stage reached, which is the failing one on error.
func emitProcedureComplete(ctx context.Context, entity, procedure string, scope Scope, stage string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyEntity.Field(entity),
		KeyProcedure.Field(procedure),
		KeyScope.Field(scope.String()),
		KeyStage.Field(stage),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalProcedureComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalProcedureComplete, fields...)
	}
}

// emitProcedureConflict reports a rejected registration.
func emitProcedureConflict(ctx context.Context, err *ProcedureError) {
	capitan.Error(ctx, SignalProcedureConflict,
		KeyEntity.Field(err.Entity),
		KeyProcedure.Field(err.Procedure),
		KeyScope.Field(err.Scope.String()),
		KeyError.Field(err),
	)
}

// emitModelMaterialized emits an event when an entity produces a model.
func emitModelMaterialized(ctx context.Context, entity string, procedures, proxies, hooks int) {
	capitan.Emit(ctx, SignalModelMaterialized,
		KeyEntity.Field(entity),
		KeyProcedureCount.Field(procedures),
		KeyProxyCount.Field(proxies),
		KeyHookCount.Field(hooks),
	)
}

// EmitArchiveStored emits an event when an archive persists a record.
func EmitArchiveStored(ctx context.Context, entity, identifier, contentType string, size int) {
	capitan.Emit(ctx, SignalArchiveStored,
		KeyEntity.Field(entity),
		KeyIdentifier.Field(identifier),
		KeyContentType.Field(contentType),
		KeySize.Field(size),
	)
}

// EmitArchiveRemoved emits an event when an archive removes a record.
func EmitArchiveRemoved(ctx context.Context, entity, identifier string) {
	capitan.Emit(ctx, SignalArchiveRemoved,
		KeyEntity.Field(entity),
		KeyIdentifier.Field(identifier),
	)
}
