package archetype

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEmitters(_ *testing.T) {
	ctx := context.Background()
	emitEntityCreated(ctx, "User", 3, 5)
	emitProcedureStart(ctx, "User", "signUp", ScopeEntity)
	emitProcedureComplete(ctx, "User", "signUp", ScopeEntity, stageDone, 10*time.Millisecond, nil)
	emitProcedureComplete(ctx, "User", "signUp", ScopeModel, stageExecute, time.Millisecond, errors.New("boom"))
	emitProcedureConflict(ctx, &ProcedureError{Err: ErrProcedureConflict, Entity: "User", Procedure: "signUp", Scope: ScopeEntity})
	emitModelMaterialized(ctx, "User", 1, 2, 3)
	EmitArchiveStored(ctx, "User", "u1", "application/json", 42)
	EmitArchiveRemoved(ctx, "User", "u1")
}

func TestSignalVariables(t *testing.T) {
	signals := []struct {
		name   string
		signal interface{}
	}{
		{"SignalEntityCreated", SignalEntityCreated},
		{"SignalProcedureStart", SignalProcedureStart},
		{"SignalProcedureComplete", SignalProcedureComplete},
		{"SignalProcedureConflict", SignalProcedureConflict},
		{"SignalModelMaterialized", SignalModelMaterialized},
		{"SignalArchiveStored", SignalArchiveStored},
		{"SignalArchiveRemoved", SignalArchiveRemoved},
	}

	for _, s := range signals {
		if s.signal == nil {
			t.Errorf("%s is nil", s.name)
		}
	}
}

func TestKeyVariables(t *testing.T) {
	keys := []struct {
		name string
		key  interface{}
	}{
		{"KeyEntity", KeyEntity},
		{"KeyProcedure", KeyProcedure},
		{"KeyScope", KeyScope},
		{"KeyStage", KeyStage},
		{"KeyIdentifier", KeyIdentifier},
		{"KeyContentType", KeyContentType},
		{"KeyDuration", KeyDuration},
		{"KeyError", KeyError},
		{"KeyPropertyCount", KeyPropertyCount},
		{"KeyProcedureCount", KeyProcedureCount},
		{"KeyProxyCount", KeyProxyCount},
		{"KeyHookCount", KeyHookCount},
		{"KeySize", KeySize},
	}

	for _, k := range keys {
		if k.key == nil {
			t.Errorf("%s is nil", k.name)
		}
	}
}
