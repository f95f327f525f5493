package runtime

import (
	"context"

	"github.com/wippyai/quickjs-runtime/errors"
)

// NewArray creates an empty guest array.
func (inst *Instance) NewArray(ctx context.Context) (*Ref, error) {
	raw, err := inst.eng.NewArray(ctx, inst.jsctx)
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

// IsArray reports whether v is a guest array.
func (inst *Instance) IsArray(ctx context.Context, v *Ref) (bool, error) {
	return inst.eng.IsArray(ctx, inst.jsctx, v.Handle())
}

// GetLength reads arr.length.
func (inst *Instance) GetLength(ctx context.Context, arr *Ref) (uint32, error) {
	length, err := inst.GetProperty(ctx, arr, "length")
	if err != nil {
		return 0, err
	}
	defer length.Free(ctx)
	n, err := inst.ToInt32(ctx, length)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.TypeMismatch(errors.PhaseValue, []string{"length"}, "a non-negative integer")
	}
	return uint32(n), nil
}

// GetElement reads arr[idx] and returns an owned reference to it.
func (inst *Instance) GetElement(ctx context.Context, arr *Ref, idx uint32) (*Ref, error) {
	raw, err := inst.eng.GetElement(ctx, inst.jsctx, arr.Handle(), idx)
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

// SetElement defines arr[idx] = v. Consumes v regardless of outcome.
func (inst *Instance) SetElement(ctx context.Context, arr *Ref, idx uint32, v *Ref) error {
	status, err := inst.eng.SetElement(ctx, inst.jsctx, arr.Handle(), idx, v.Consume())
	if err != nil {
		return err
	}
	if status < 0 {
		return errors.Throw(errors.PhaseValue, inst.exception(ctx))
	}
	return nil
}
