package runtime

import (
	"context"

	"github.com/wippyai/quickjs-runtime/errors"
)

// Primitive constructors and conversions. All constructors return an owned
// reference; all conversions borrow theirs.

func (inst *Instance) Null(ctx context.Context) (*Ref, error) {
	raw, err := inst.eng.NewNull(ctx)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

func (inst *Instance) Undefined(ctx context.Context) (*Ref, error) {
	raw, err := inst.eng.NewUndefined(ctx)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

func (inst *Instance) NewBool(ctx context.Context, b bool) (*Ref, error) {
	raw, err := inst.eng.NewBool(ctx, inst.jsctx, b)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

func (inst *Instance) NewInt32(ctx context.Context, n int32) (*Ref, error) {
	raw, err := inst.eng.NewInt32(ctx, inst.jsctx, n)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

func (inst *Instance) NewFloat64(ctx context.Context, f float64) (*Ref, error) {
	raw, err := inst.eng.NewFloat64(ctx, inst.jsctx, f)
	if err != nil {
		return nil, err
	}
	return inst.wrap(ctx, raw), nil
}

func (inst *Instance) NewString(ctx context.Context, s string) (*Ref, error) {
	raw, err := inst.eng.NewString(ctx, inst.jsctx, s)
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

func (inst *Instance) ToBool(ctx context.Context, v *Ref) (bool, error) {
	return inst.eng.ToBool(ctx, inst.jsctx, v.Handle())
}

func (inst *Instance) ToInt32(ctx context.Context, v *Ref) (int32, error) {
	return inst.eng.ToInt32(ctx, inst.jsctx, v.Handle())
}

func (inst *Instance) ToFloat64(ctx context.Context, v *Ref) (float64, error) {
	return inst.eng.ToFloat64(ctx, inst.jsctx, v.Handle())
}

// ToString stringifies v the way the guest would (String(v)).
func (inst *Instance) ToString(ctx context.Context, v *Ref) (string, error) {
	return inst.eng.ToString(ctx, inst.jsctx, v.Handle())
}

// IsNull reports whether v is the guest null.
func (inst *Instance) IsNull(ctx context.Context, v *Ref) (bool, error) {
	return inst.eng.IsNull(ctx, v.Handle())
}

// IsUndefined reports whether v is the guest undefined.
func (inst *Instance) IsUndefined(ctx context.Context, v *Ref) (bool, error) {
	return inst.eng.IsUndefined(ctx, v.Handle())
}
