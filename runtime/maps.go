package runtime

import (
	"context"

	"github.com/wippyai/quickjs-runtime/errors"
)

// Guest Map helpers, all thin member invocations.

// NewMap constructs an empty guest Map.
func (inst *Instance) NewMap(ctx context.Context) (*Ref, error) {
	global, err := inst.Global(ctx)
	if err != nil {
		return nil, err
	}
	defer global.Free(ctx)

	ctor, err := inst.GetProperty(ctx, global, "Map")
	if err != nil {
		return nil, err
	}
	defer ctor.Free(ctx)

	return inst.CallConstructor(ctx, ctor)
}

// MapGet returns m.get(key) as an owned reference.
func (inst *Instance) MapGet(ctx context.Context, m, key *Ref) (*Ref, error) {
	return inst.Invoke(ctx, m, "get", key)
}

// MapSet performs m.set(key, value). Inputs are borrowed.
func (inst *Instance) MapSet(ctx context.Context, m, key, value *Ref) error {
	ret, err := inst.Invoke(ctx, m, "set", key, value)
	if err != nil {
		return err
	}
	ret.Free(ctx)
	return nil
}

// MapHas reports whether m.has(key).
func (inst *Instance) MapHas(ctx context.Context, m, key *Ref) (bool, error) {
	ret, err := inst.Invoke(ctx, m, "has", key)
	if err != nil {
		return false, err
	}
	defer ret.Free(ctx)
	return inst.ToBool(ctx, ret)
}

// MapDelete performs m.delete(key) and reports whether an entry was removed.
func (inst *Instance) MapDelete(ctx context.Context, m, key *Ref) (bool, error) {
	ret, err := inst.Invoke(ctx, m, "delete", key)
	if err != nil {
		return false, err
	}
	defer ret.Free(ctx)
	return inst.ToBool(ctx, ret)
}

// MapSize reads m.size.
func (inst *Instance) MapSize(ctx context.Context, m *Ref) (uint32, error) {
	size, err := inst.GetProperty(ctx, m, "size")
	if err != nil {
		return 0, err
	}
	defer size.Free(ctx)
	n, err := inst.ToInt32(ctx, size)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.TypeMismatch(errors.PhaseValue, []string{"size"}, "a non-negative integer")
	}
	return uint32(n), nil
}
