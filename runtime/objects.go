package runtime

import (
	"context"

	"github.com/wippyai/quickjs-runtime/errors"
)

// Global returns an owned reference to the guest global object.
func (inst *Instance) Global(ctx context.Context) (*Ref, error) {
	raw, err := inst.eng.GetGlobal(ctx, inst.jsctx)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

// NewObject creates a plain guest object.
func (inst *Instance) NewObject(ctx context.Context) (*Ref, error) {
	raw, err := inst.eng.NewObject(ctx, inst.jsctx)
	if err != nil {
		return nil, err
	}
	ref := inst.wrap(ctx, raw)
	if ref.IsException() {
		ref.Free(ctx)
		return nil, errors.Throw(errors.PhaseValue, inst.exception(ctx))
	}
	return ref, nil
}

// GetProperty reads obj[name] and returns an owned reference to it.
func (inst *Instance) GetProperty(ctx context.Context, obj *Ref, name string) (*Ref, error) {
	raw, err := inst.eng.GetProperty(ctx, inst.jsctx, obj.Handle(), name)
	if err != nil {
		return nil, err
	}
	ref := inst.wrap(ctx, raw)
	if ref.IsException() {
		ref.Free(ctx)
		return nil, errors.Throw(errors.PhaseValue, inst.exception(ctx))
	}
	return ref, nil
}

// SetProperty sets obj[name] = v. Consumes v regardless of outcome.
func (inst *Instance) SetProperty(ctx context.Context, obj *Ref, name string, v *Ref) error {
	status, err := inst.eng.SetProperty(ctx, inst.jsctx, obj.Handle(), name, v.Consume())
	if err != nil {
		return err
	}
	if status < 0 {
		return errors.Throw(errors.PhaseValue, inst.exception(ctx))
	}
	return nil
}

// DefineProperty defines obj[name] = v with explicit wasm.Prop* flags; flags
// of zero yield a non-configurable, non-writable, non-enumerable property.
// Consumes v regardless of outcome.
func (inst *Instance) DefineProperty(ctx context.Context, obj *Ref, name string, v *Ref, flags uint32) error {
	status, err := inst.eng.DefineProperty(ctx, inst.jsctx, obj.Handle(), name, v.Consume(), flags)
	if err != nil {
		return err
	}
	if status < 0 {
		return errors.Throw(errors.PhaseValue, inst.exception(ctx))
	}
	return nil
}
