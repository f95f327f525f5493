package runtime

import (
	"context"

	"github.com/wippyai/quickjs-runtime/engine"
	"github.com/wippyai/quickjs-runtime/errors"
)

// NewFunction exposes a host function to script as a callable value. The
// returned reference is owned; bind it to a property (or pass it into the
// guest) to make it reachable.
func (inst *Instance) NewFunction(ctx context.Context, name string, argc int32, fn NativeFunc) (*Ref, error) {
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseCall, "native function must not be nil")
	}
	funcID := inst.reserveFuncID(fn)
	raw, err := inst.eng.NewCFunction(ctx, inst.jsctx, funcID, name, argc, false)
	if err != nil {
		return nil, err
	}
	ref := inst.wrap(ctx, raw)
	if ref.IsException() {
		ref.Free(ctx)
		return nil, errors.Throw(errors.PhaseCall, inst.exception(ctx))
	}
	return ref, nil
}

// Call invokes fn with the given this and arguments. All inputs are
// borrowed; the result is an owned reference.
func (inst *Instance) Call(ctx context.Context, fn, this *Ref, args ...*Ref) (*Ref, error) {
	raw, err := inst.eng.Call(ctx, inst.jsctx, fn.Handle(), this.Handle(), handles(args))
	if err != nil {
		return nil, err
	}
	return inst.callResult(ctx, raw)
}

// CallConstructor invokes fn with `new` semantics. Inputs are borrowed.
func (inst *Instance) CallConstructor(ctx context.Context, fn *Ref, args ...*Ref) (*Ref, error) {
	raw, err := inst.eng.CallConstructor(ctx, inst.jsctx, fn.Handle(), handles(args))
	if err != nil {
		return nil, err
	}
	return inst.callResult(ctx, raw)
}

// Invoke calls this[name](args...). Inputs are borrowed.
func (inst *Instance) Invoke(ctx context.Context, this *Ref, name string, args ...*Ref) (*Ref, error) {
	raw, err := inst.eng.Invoke(ctx, inst.jsctx, this.Handle(), name, handles(args))
	if err != nil {
		return nil, err
	}
	return inst.callResult(ctx, raw)
}

// CallFunction resolves namespace path from the global object (e.g.
// ["myApp", "util"], "sum") and invokes the named function on the resolved
// object.
func (inst *Instance) CallFunction(ctx context.Context, namespace []string, name string, args ...*Ref) (*Ref, error) {
	obj, err := inst.Global(ctx)
	if err != nil {
		return nil, err
	}
	// Deferred via closure: obj is reassigned as the path resolves, and the
	// currently held object is the one that must be released.
	defer func() { obj.Free(ctx) }()

	for _, part := range namespace {
		next, err := inst.GetProperty(ctx, obj, part)
		if err != nil {
			return nil, err
		}
		if und, err := inst.IsUndefined(ctx, next); err == nil && und {
			next.Free(ctx)
			return nil, errors.NotFound(errors.PhaseCall, "namespace", part)
		}
		obj.Free(ctx)
		obj = next
	}

	return inst.Invoke(ctx, obj, name, args...)
}

func (inst *Instance) callResult(ctx context.Context, raw engine.Value) (*Ref, error) {
	ref := inst.wrap(ctx, raw)
	if ref.IsException() {
		ref.Free(ctx)
		return nil, errors.Throw(errors.PhaseCall, inst.exception(ctx))
	}
	return ref, nil
}

func handles(args []*Ref) []engine.Value {
	if len(args) == 0 {
		return nil
	}
	hs := make([]engine.Value, len(args))
	for i, a := range args {
		hs[i] = a.Handle()
	}
	return hs
}
