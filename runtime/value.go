package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/quickjs-runtime/engine"
)

// Ref wraps one engine-heap handle and owns at most one release obligation.
// The engine refcounts its values; Ref makes the host's explicit release
// discipline (defer ref.Free) do the right engine-level refcount arithmetic,
// including on early-return paths.
//
// A Ref is only meaningful while its Instance is exclusively held: it must
// never leave the owner goroutine. To move a value across submissions, park
// it in the instance's Cache and pass the int32 id instead.
type Ref struct {
	inst      *Instance
	handle    engine.Value
	owned     bool
	exception bool
}

// wrap takes ownership of a raw handle, classifying the exception sentinel
// at wrap time. This is the trusted entry point from engine calls; no side
// effect beyond bookkeeping.
func (inst *Instance) wrap(ctx context.Context, v engine.Value) *Ref {
	exc, err := inst.eng.IsException(ctx, v)
	if err != nil {
		panic(fmt.Sprintf("runtime: exception check failed: %v", err))
	}
	return &Ref{inst: inst, handle: v, owned: true, exception: exc}
}

// wrapBorrowed wraps an aliased handle the bridge does not own, e.g. `this`
// inside a trampoline. Free is a no-op on the result.
func (inst *Instance) wrapBorrowed(ctx context.Context, v engine.Value) *Ref {
	exc, err := inst.eng.IsException(ctx, v)
	if err != nil {
		panic(fmt.Sprintf("runtime: exception check failed: %v", err))
	}
	return &Ref{inst: inst, handle: v, owned: false, exception: exc}
}

// Clone increments the engine refcount and returns a second independently
// owned wrapper over the same underlying value. Infallible by contract: the
// engine's increment cannot signal failure, so an engine-level fault here is
// treated as corruption.
func (r *Ref) Clone(ctx context.Context) *Ref {
	dup, err := r.inst.eng.DupValue(ctx, r.inst.jsctx, r.handle)
	if err != nil {
		panic(fmt.Sprintf("runtime: dup failed: %v", err))
	}
	return &Ref{inst: r.inst, handle: dup, owned: true, exception: r.exception}
}

// Consume transfers the release obligation to the caller and returns the raw
// handle. The Ref must not be used afterwards.
func (r *Ref) Consume() engine.Value {
	if !r.owned {
		panic("runtime: consume of unowned reference")
	}
	r.owned = false
	return r.handle
}

// IsException reports whether the handle is the engine's reserved exception
// sentinel. Pure inspection.
func (r *Ref) IsException() bool {
	return r.exception
}

// Handle lends the raw handle without transferring ownership. The handle is
// valid only while r is.
func (r *Ref) Handle() engine.Value {
	return r.handle
}

// Free releases the handle if this wrapper still owns it. Exactly one
// release is issued per owning wrapper; calling Free again is a no-op.
func (r *Ref) Free(ctx context.Context) {
	if !r.owned {
		return
	}
	r.owned = false
	if err := r.inst.eng.FreeValue(ctx, r.inst.jsctx, r.handle); err != nil {
		r.inst.log.Error("free value failed", zap.Error(err))
	}
}
