package runtime

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/quickjs-runtime/engine"
	"github.com/wippyai/quickjs-runtime/errors"
)

// InstanceIDProp is the property under which every native-class instance
// carries its host instance id. Stamped non-configurable, non-writable and
// non-enumerable at construction.
const InstanceIDProp = "_INSTANCE_ID_"

// NativeFunc is a host function exposed to script. this and args are
// borrowed for the duration of the call; the returned reference (nil for
// undefined) is consumed by the bridge. A returned error is rethrown in the
// guest as an internal error.
type NativeFunc func(ctx context.Context, inst *Instance, this *Ref, args []*Ref) (*Ref, error)

// ClassBinding describes the host side of one native class. All hooks are
// optional.
type ClassBinding struct {
	// Constructor runs after the bridge has allocated the instance object
	// and stamped its instance id. An error aborts construction and is
	// rethrown in the guest.
	Constructor func(ctx context.Context, inst *Instance, instanceID int32, args []*Ref) error

	// Call makes instances callable. Nil instances answer calls with null.
	Call NativeFunc

	// Finalize runs when the guest collector finalizes an instance. The
	// bridge drops the instance's host data entry after the hook returns.
	Finalize func(instanceID int32)
}

// RegisterClass installs a native class: allocates its numeric id from the
// engine, records the name→id mapping, installs the engine-side class
// definition (finalizer, optional call hook) and binds a constructor
// function under name on the global object. One-shot per name;
// re-registration is a bridge usage bug and panics.
//
// The returned class id is stable for the life of the instance: every
// construction of this class resolves to it.
func (inst *Instance) RegisterClass(ctx context.Context, name string, binding *ClassBinding) (int32, error) {
	if name == "" {
		return 0, errors.InvalidInput(errors.PhaseClass, "class name must not be empty")
	}
	if _, dup := inst.classes[name]; dup {
		panic(fmt.Sprintf("runtime: class %q registered twice", name))
	}
	if binding == nil {
		binding = &ClassBinding{}
	}

	classID, err := inst.eng.NewClassID(ctx, inst.rt)
	if err != nil {
		return 0, errors.Registration(name, err)
	}
	if err := inst.eng.NewClass(ctx, inst.rt, classID, name, binding.Call != nil); err != nil {
		return 0, errors.Registration(name, err)
	}

	inst.classes[name] = classID
	inst.bindings[classID] = binding

	// The constructor is the shared trampoline; it recovers the class by
	// reading its own function name at construction time.
	raw, err := inst.eng.NewCFunction(ctx, inst.jsctx, inst.ctorFuncID, name, 0, true)
	if err != nil {
		return 0, errors.Registration(name, err)
	}
	ctor := inst.wrap(ctx, raw)
	if ctor.IsException() {
		ctor.Free(ctx)
		return 0, errors.Registration(name, inst.exception(ctx))
	}

	globalRaw, err := inst.eng.GetGlobal(ctx, inst.jsctx)
	if err != nil {
		ctor.Free(ctx)
		return 0, errors.Registration(name, err)
	}
	global := inst.wrap(ctx, globalRaw)
	defer global.Free(ctx)

	if _, err := inst.eng.SetProperty(ctx, inst.jsctx, global.Handle(), name, ctor.Consume()); err != nil {
		return 0, errors.Registration(name, err)
	}

	inst.log.Debug("class registered", zap.String("name", name), zap.Int32("class_id", classID))
	return classID, nil
}

// ClassID resolves a registered class name to its numeric id.
func (inst *Instance) ClassID(name string) (int32, bool) {
	id, ok := inst.classes[name]
	return id, ok
}

// constructorTrampoline backs every registered constructor. this is the
// constructing function itself; its name identifies the class. A trampoline
// firing for a name the registry does not know is a bridge bug and panics.
func (inst *Instance) constructorTrampoline(ctx context.Context, _ *Instance, this *Ref, args []*Ref) (*Ref, error) {
	nameRef := inst.wrap(ctx, inst.must(inst.eng.GetProperty(ctx, inst.jsctx, this.Handle(), "name")))
	defer nameRef.Free(ctx)
	name, err := inst.eng.ToString(ctx, inst.jsctx, nameRef.Handle())
	if err != nil {
		panic(fmt.Sprintf("runtime: constructor name unreadable: %v", err))
	}

	classID, ok := inst.classes[name]
	if !ok {
		panic(fmt.Sprintf("runtime: constructor fired for unregistered class %q", name))
	}
	binding := inst.bindings[classID]

	obj := inst.wrap(ctx, inst.must(inst.eng.NewObjectClass(ctx, inst.jsctx, classID)))
	if obj.IsException() {
		obj.Free(ctx)
		return nil, errors.New(errors.PhaseClass, errors.KindAllocation).
			Detail("allocate instance of class %q", name).Build()
	}

	inst.nextInstID++
	instanceID := inst.nextInstID

	if err := inst.eng.SetOpaque(ctx, obj.Handle(), instanceID); err != nil {
		obj.Free(ctx)
		return nil, errors.Registration(name, err)
	}
	idVal := inst.must(inst.eng.NewInt32(ctx, inst.jsctx, instanceID))
	if _, err := inst.eng.DefineProperty(ctx, inst.jsctx, obj.Handle(), InstanceIDProp, idVal, 0); err != nil {
		obj.Free(ctx)
		return nil, errors.Registration(name, err)
	}

	if binding.Constructor != nil {
		if err := binding.Constructor(ctx, inst, instanceID, args); err != nil {
			obj.Free(ctx)
			return nil, err
		}
	}

	inst.log.Debug("instance constructed",
		zap.String("class", name), zap.Int32("class_id", classID), zap.Int32("instance_id", instanceID))
	return obj, nil
}

// dispatchCall is the engine's host_call target: native function and
// constructor invocations land here keyed by function id.
func (inst *Instance) dispatchCall(ctx context.Context, _ uint32, funcID int32, this engine.Value, argv []engine.Value) engine.Value {
	fn, ok := inst.funcs[funcID]
	if !ok {
		panic(fmt.Sprintf("runtime: call dispatch for unknown function id %d", funcID))
	}
	ret, err := fn(ctx, inst, inst.wrapBorrowed(ctx, this), inst.borrowArgs(ctx, argv))
	return inst.finishCall(ctx, ret, err)
}

// dispatchClassCall handles calls on callable class instances, keyed by
// class id.
func (inst *Instance) dispatchClassCall(ctx context.Context, _ uint32, classID int32, _ engine.Value, this engine.Value, argv []engine.Value) engine.Value {
	binding, ok := inst.bindings[classID]
	if !ok {
		panic(fmt.Sprintf("runtime: class call dispatch for unknown class id %d", classID))
	}
	if binding.Call == nil {
		return inst.must(inst.eng.NewNull(ctx))
	}
	ret, err := binding.Call(ctx, inst, inst.wrapBorrowed(ctx, this), inst.borrowArgs(ctx, argv))
	return inst.finishCall(ctx, ret, err)
}

// dispatchFinalize runs the binding's finalizer hook and drops the
// instance's host data entry, keyed by class id.
func (inst *Instance) dispatchFinalize(classID, instanceID int32) {
	binding, ok := inst.bindings[classID]
	if !ok {
		panic(fmt.Sprintf("runtime: finalize dispatch for unknown class id %d", classID))
	}
	if binding.Finalize != nil {
		binding.Finalize(instanceID)
	}
	delete(inst.instData, instanceID)
	inst.log.Debug("instance finalized",
		zap.Int32("class_id", classID), zap.Int32("instance_id", instanceID))
}

// finishCall converts a native handler result into the raw value handed back
// to the guest: errors rethrow, nil means undefined.
func (inst *Instance) finishCall(ctx context.Context, ret *Ref, err error) engine.Value {
	if err != nil {
		return inst.Throw(ctx, err.Error()).Consume()
	}
	if ret == nil {
		return 0
	}
	return ret.Consume()
}

func (inst *Instance) borrowArgs(ctx context.Context, argv []engine.Value) []*Ref {
	args := make([]*Ref, len(argv))
	for i, v := range argv {
		args[i] = inst.wrapBorrowed(ctx, v)
	}
	return args
}

// must unwraps engine calls that cannot meaningfully fail mid-trampoline;
// an error there is engine corruption.
func (inst *Instance) must(v engine.Value, err error) engine.Value {
	if err != nil {
		panic(fmt.Sprintf("runtime: engine call failed: %v", err))
	}
	return v
}
