package runtime

import (
	"context"

	"go.uber.org/zap"

	quickjsruntime "github.com/wippyai/quickjs-runtime"
	"github.com/wippyai/quickjs-runtime/engine"
	"github.com/wippyai/quickjs-runtime/errors"
)

// Instance is one embedding of the QuickJS engine: one guest runtime plus
// its single execution context, together with the host-side bookkeeping that
// hangs off it (value cache, class registry, native function table).
//
// An Instance is single-owner. Runtime pins it to a dedicated goroutine and
// all bridge operations execute with exclusive access; nothing in an
// Instance is safe to share or move across that boundary except cache ids.
type Instance struct {
	eng   *engine.Engine
	rt    uint32
	jsctx uint32
	log   *zap.Logger

	cache    *Cache
	classes  map[string]int32
	bindings map[int32]*ClassBinding
	funcs    map[int32]NativeFunc

	ctorFuncID int32
	nextFuncID int32
	nextInstID int32
	instData   map[int32]any
}

// NewInstance creates an engine and its runtime+context pair. Failure to
// allocate the guest runtime or context is fatal: there is no degraded mode,
// so a zero pointer from the engine panics.
//
// Most callers want Runtime, which owns the instance on a dedicated
// goroutine; use NewInstance directly only when the caller provides its own
// execution affinity.
func NewInstance(ctx context.Context, cfg *engine.Config) (*Instance, error) {
	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		eng:      eng,
		log:      eng.Logger(),
		cache:    newCache(),
		classes:  make(map[string]int32),
		bindings: make(map[int32]*ClassBinding),
		funcs:    make(map[int32]NativeFunc),
		instData: make(map[int32]any),
	}

	inst.rt, err = eng.NewRuntime(ctx)
	if err != nil {
		eng.Close(ctx)
		return nil, err
	}
	if inst.rt == 0 {
		panic("runtime: guest runtime creation failed")
	}

	inst.jsctx, err = eng.NewContext(ctx, inst.rt)
	if err != nil {
		eng.Close(ctx)
		return nil, err
	}
	if inst.jsctx == 0 {
		panic("runtime: guest context creation failed")
	}

	// Reserve the shared constructor trampoline's function id before any
	// class registration can hand it to the engine.
	inst.ctorFuncID = inst.reserveFuncID(inst.constructorTrampoline)

	eng.SetDispatch(engine.Dispatch{
		Call:      inst.dispatchCall,
		ClassCall: inst.dispatchClassCall,
		Finalize:  inst.dispatchFinalize,
	})

	inst.log.Debug("instance created",
		zap.Uint32("runtime", inst.rt), zap.Uint32("context", inst.jsctx))
	return inst, nil
}

// Engine exposes the low-level engine, for callers that need raw access.
func (inst *Instance) Engine() *engine.Engine { return inst.eng }

// Cache returns the instance's value cache.
func (inst *Instance) Cache() *Cache { return inst.cache }

// Close tears the instance down: cached values, then the context, then the
// runtime, then the wasm module. Every outstanding Ref against this instance
// is invalid afterwards.
func (inst *Instance) Close(ctx context.Context) error {
	inst.cache.drain(ctx)
	if err := inst.eng.FreeContext(ctx, inst.jsctx); err != nil {
		inst.log.Error("free context failed", zap.Error(err))
	}
	if err := inst.eng.FreeRuntime(ctx, inst.rt); err != nil {
		inst.log.Error("free runtime failed", zap.Error(err))
	}
	return inst.eng.Close(ctx)
}

// Eval compiles and runs script as global code. On success all pending jobs
// (promise reactions) are drained before the result is returned, so callers
// observe microtask quiescence. A guest exception surfaces as a structured
// error instead of a value.
func (inst *Instance) Eval(ctx context.Context, script quickjsruntime.Script) (*Ref, error) {
	return inst.eval(ctx, script, false)
}

// EvalModule is Eval for module code.
func (inst *Instance) EvalModule(ctx context.Context, script quickjsruntime.Script) (*Ref, error) {
	return inst.eval(ctx, script, true)
}

func (inst *Instance) eval(ctx context.Context, script quickjsruntime.Script, module bool) (*Ref, error) {
	inst.log.Debug("eval", zap.String("path", script.Path()), zap.Bool("module", module))

	raw, err := inst.eng.Eval(ctx, inst.jsctx, script.Code(), script.Path(), module)
	if err != nil {
		return nil, err
	}

	ret := inst.wrap(ctx, raw)
	if ret.IsException() {
		ret.Free(ctx)
		return nil, errors.Throw(errors.PhaseEval, inst.exception(ctx))
	}

	for {
		pending, err := inst.HasPendingJobs(ctx)
		if err != nil {
			ret.Free(ctx)
			return nil, err
		}
		if !pending {
			break
		}
		if err := inst.RunPendingJob(ctx); err != nil {
			ret.Free(ctx)
			return nil, err
		}
	}

	return ret, nil
}

// HasPendingJobs reports whether the engine has queued internal jobs
// (promise reactions) awaiting execution.
func (inst *Instance) HasPendingJobs(ctx context.Context) (bool, error) {
	return inst.eng.IsJobPending(ctx, inst.rt)
}

// RunPendingJob executes one queued job. A failing job surfaces its
// exception the same way a failing eval does.
func (inst *Instance) RunPendingJob(ctx context.Context) error {
	flag, err := inst.eng.ExecutePendingJob(ctx, inst.rt)
	if err != nil {
		return err
	}
	if flag < 0 {
		return errors.Throw(errors.PhaseJob, inst.exception(ctx))
	}
	return nil
}

// Gc requests an immediate collection pass. Used mostly to make finalizer
// behavior deterministic in tests.
func (inst *Instance) Gc(ctx context.Context) error {
	return inst.eng.RunGC(ctx, inst.rt)
}

// Throw raises an internal error in the guest and returns the exception
// sentinel for a trampoline to hand back.
func (inst *Instance) Throw(ctx context.Context, msg string) *Ref {
	raw, err := inst.eng.ThrowError(ctx, inst.jsctx, msg)
	if err != nil {
		panic("runtime: throw failed: " + err.Error())
	}
	return inst.wrap(ctx, raw)
}

// exception reads and clears the engine's live exception slot, immediately:
// any further engine call could overwrite it.
func (inst *Instance) exception(ctx context.Context) *errors.Exception {
	raw, err := inst.eng.GetException(ctx, inst.jsctx)
	if err != nil {
		return &errors.Exception{Message: "exception slot unreadable: " + err.Error()}
	}
	ref := inst.wrap(ctx, raw)
	defer ref.Free(ctx)

	x := &errors.Exception{}
	x.Name = inst.stringProp(ctx, ref, "name")
	x.Message = inst.stringProp(ctx, ref, "message")
	x.Stack = inst.stringProp(ctx, ref, "stack")
	if x.Name == "" && x.Message == "" {
		// Non-Error throw (e.g. `throw 42`); stringify the value itself.
		if s, err := inst.eng.ToString(ctx, inst.jsctx, ref.Handle()); err == nil {
			x.Message = s
		}
	}
	return x
}

// stringProp reads obj[name] as a string, treating undefined/null as "".
func (inst *Instance) stringProp(ctx context.Context, obj *Ref, name string) string {
	raw, err := inst.eng.GetProperty(ctx, inst.jsctx, obj.Handle(), name)
	if err != nil {
		return ""
	}
	ref := inst.wrap(ctx, raw)
	defer ref.Free(ctx)
	if ref.IsException() {
		return ""
	}
	if und, err := inst.eng.IsUndefined(ctx, ref.Handle()); err != nil || und {
		return ""
	}
	if nul, err := inst.eng.IsNull(ctx, ref.Handle()); err != nil || nul {
		return ""
	}
	s, err := inst.eng.ToString(ctx, inst.jsctx, ref.Handle())
	if err != nil {
		return ""
	}
	return s
}

// SetInstanceData associates host state with a native-class instance id.
// The finalizer trampoline removes the entry when the guest object is
// collected, so state keyed here cannot outlive the instance.
func (inst *Instance) SetInstanceData(id int32, data any) {
	inst.instData[id] = data
}

// InstanceData returns the host state for a native-class instance id.
func (inst *Instance) InstanceData(id int32) (any, bool) {
	data, ok := inst.instData[id]
	return data, ok
}

func (inst *Instance) reserveFuncID(fn NativeFunc) int32 {
	inst.nextFuncID++
	id := inst.nextFuncID
	inst.funcs[id] = fn
	return id
}
