package engine

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/quickjs-runtime/errors"
)

// Typed wrappers over the shim exports. Each maps one qjs_* function;
// ownership notes ("consumes") mirror wasm/src/shim.c.

func (e *Engine) call(ctx context.Context, fn api.Function, name string, params ...uint64) ([]uint64, error) {
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValue, errors.KindMarshal, err, name)
	}
	return res, nil
}

// NewRuntime creates a guest JSRuntime and returns its pointer, or 0 on
// allocation failure inside the engine.
func (e *Engine) NewRuntime(ctx context.Context) (uint32, error) {
	res, err := e.call(ctx, e.fnNewRuntime, "qjs_new_runtime")
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil
}

func (e *Engine) FreeRuntime(ctx context.Context, rt uint32) error {
	_, err := e.call(ctx, e.fnFreeRuntime, "qjs_free_runtime", uint64(rt))
	return err
}

// NewContext creates a guest JSContext on rt, or 0 on allocation failure.
func (e *Engine) NewContext(ctx context.Context, rt uint32) (uint32, error) {
	res, err := e.call(ctx, e.fnNewContext, "qjs_new_context", uint64(rt))
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil
}

func (e *Engine) FreeContext(ctx context.Context, jsctx uint32) error {
	_, err := e.call(ctx, e.fnFreeContext, "qjs_free_context", uint64(jsctx))
	return err
}

// Eval compiles and runs code under filename. module selects module vs
// global evaluation. The result may be the exception sentinel.
func (e *Engine) Eval(ctx context.Context, jsctx uint32, code, filename string, module bool) (Value, error) {
	codePtr, err := e.writeCString(ctx, code)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, codePtr)

	filePtr, err := e.writeCString(ctx, filename)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, filePtr)

	var isModule uint64
	if module {
		isModule = 1
	}
	res, err := e.call(ctx, e.fnEval, "qjs_eval",
		uint64(jsctx), uint64(codePtr), uint64(len(code)), uint64(filePtr), isModule)
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// DupValue increments the value's engine refcount and returns a new box.
func (e *Engine) DupValue(ctx context.Context, jsctx uint32, v Value) (Value, error) {
	res, err := e.call(ctx, e.fnDupValue, "qjs_dup_value", uint64(jsctx), uint64(v))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// FreeValue decrements the value's engine refcount and releases its box.
func (e *Engine) FreeValue(ctx context.Context, jsctx uint32, v Value) error {
	_, err := e.call(ctx, e.fnFreeValue, "qjs_free_value", uint64(jsctx), uint64(v))
	return err
}

func (e *Engine) IsException(ctx context.Context, v Value) (bool, error) {
	res, err := e.call(ctx, e.fnIsException, "qjs_is_exception", uint64(v))
	if err != nil {
		return false, err
	}
	return res[0] != 0, nil
}

func (e *Engine) IsNull(ctx context.Context, v Value) (bool, error) {
	res, err := e.call(ctx, e.fnIsNull, "qjs_is_null", uint64(v))
	if err != nil {
		return false, err
	}
	return res[0] != 0, nil
}

func (e *Engine) IsUndefined(ctx context.Context, v Value) (bool, error) {
	res, err := e.call(ctx, e.fnIsUndefined, "qjs_is_undefined", uint64(v))
	if err != nil {
		return false, err
	}
	return res[0] != 0, nil
}

func (e *Engine) NewNull(ctx context.Context) (Value, error) {
	res, err := e.call(ctx, e.fnNewNull, "qjs_new_null")
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewUndefined(ctx context.Context) (Value, error) {
	res, err := e.call(ctx, e.fnNewUndefined, "qjs_new_undefined")
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewBool(ctx context.Context, jsctx uint32, b bool) (Value, error) {
	var n uint64
	if b {
		n = 1
	}
	res, err := e.call(ctx, e.fnNewBool, "qjs_new_bool", uint64(jsctx), n)
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewInt32(ctx context.Context, jsctx uint32, n int32) (Value, error) {
	res, err := e.call(ctx, e.fnNewInt32, "qjs_new_int32", uint64(jsctx), uint64(uint32(n)))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewFloat64(ctx context.Context, jsctx uint32, f float64) (Value, error) {
	res, err := e.call(ctx, e.fnNewFloat64, "qjs_new_float64", uint64(jsctx), math.Float64bits(f))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewString(ctx context.Context, jsctx uint32, s string) (Value, error) {
	ptr, err := e.writeCString(ctx, s)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, ptr)
	res, err := e.call(ctx, e.fnNewString, "qjs_new_string", uint64(jsctx), uint64(ptr), uint64(len(s)))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) ToBool(ctx context.Context, jsctx uint32, v Value) (bool, error) {
	res, err := e.call(ctx, e.fnToBool, "qjs_to_bool", uint64(jsctx), uint64(v))
	if err != nil {
		return false, err
	}
	return int32(res[0]) > 0, nil
}

func (e *Engine) ToInt32(ctx context.Context, jsctx uint32, v Value) (int32, error) {
	res, err := e.call(ctx, e.fnToInt32, "qjs_to_int32", uint64(jsctx), uint64(v))
	if err != nil {
		return 0, err
	}
	return int32(uint32(res[0])), nil
}

func (e *Engine) ToFloat64(ctx context.Context, jsctx uint32, v Value) (float64, error) {
	res, err := e.call(ctx, e.fnToFloat64, "qjs_to_float64", uint64(jsctx), uint64(v))
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(res[0]), nil
}

// ToString stringifies v via the engine and copies the result out of guest
// memory.
func (e *Engine) ToString(ctx context.Context, jsctx uint32, v Value) (string, error) {
	res, err := e.call(ctx, e.fnToCString, "qjs_to_cstring", uint64(jsctx), uint64(v))
	if err != nil {
		return "", err
	}
	strPtr := uint32(res[0])
	if strPtr == 0 {
		return "", nil
	}
	s, err := e.readCString(strPtr)
	_, _ = e.fnFreeCString.Call(ctx, uint64(jsctx), uint64(strPtr))
	return s, err
}

func (e *Engine) GetGlobal(ctx context.Context, jsctx uint32) (Value, error) {
	res, err := e.call(ctx, e.fnGetGlobal, "qjs_get_global", uint64(jsctx))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) NewObject(ctx context.Context, jsctx uint32) (Value, error) {
	res, err := e.call(ctx, e.fnNewObject, "qjs_new_object", uint64(jsctx))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// NewObjectClass allocates a fresh object tagged with classID.
func (e *Engine) NewObjectClass(ctx context.Context, jsctx uint32, classID int32) (Value, error) {
	res, err := e.call(ctx, e.fnNewObjectClass, "qjs_new_object_class", uint64(jsctx), uint64(uint32(classID)))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) GetProperty(ctx context.Context, jsctx uint32, obj Value, name string) (Value, error) {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, namePtr)
	res, err := e.call(ctx, e.fnGetProperty, "qjs_get_property", uint64(jsctx), uint64(obj), uint64(namePtr))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// SetProperty sets obj[name] = v. Consumes v.
func (e *Engine) SetProperty(ctx context.Context, jsctx uint32, obj Value, name string, v Value) (int32, error) {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return -1, err
	}
	defer e.free(ctx, namePtr)
	res, err := e.call(ctx, e.fnSetProperty, "qjs_set_property", uint64(jsctx), uint64(obj), uint64(namePtr), uint64(v))
	if err != nil {
		return -1, err
	}
	return int32(uint32(res[0])), nil
}

// DefineProperty defines obj[name] = v with explicit wasm.Prop* flags.
// Consumes v.
func (e *Engine) DefineProperty(ctx context.Context, jsctx uint32, obj Value, name string, v Value, flags uint32) (int32, error) {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return -1, err
	}
	defer e.free(ctx, namePtr)
	res, err := e.call(ctx, e.fnDefineProperty, "qjs_define_property",
		uint64(jsctx), uint64(obj), uint64(namePtr), uint64(v), uint64(flags))
	if err != nil {
		return -1, err
	}
	return int32(uint32(res[0])), nil
}

// SetOpaque stores id in the object's opaque slot; the finalizer trampoline
// reads it back.
func (e *Engine) SetOpaque(ctx context.Context, v Value, id int32) error {
	_, err := e.call(ctx, e.fnSetOpaque, "qjs_set_opaque", uint64(v), uint64(uint32(id)))
	return err
}

func (e *Engine) NewArray(ctx context.Context, jsctx uint32) (Value, error) {
	res, err := e.call(ctx, e.fnNewArray, "qjs_new_array", uint64(jsctx))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) IsArray(ctx context.Context, jsctx uint32, v Value) (bool, error) {
	res, err := e.call(ctx, e.fnIsArray, "qjs_is_array", uint64(jsctx), uint64(v))
	if err != nil {
		return false, err
	}
	return int32(res[0]) > 0, nil
}

func (e *Engine) GetElement(ctx context.Context, jsctx uint32, arr Value, idx uint32) (Value, error) {
	res, err := e.call(ctx, e.fnGetElement, "qjs_get_element", uint64(jsctx), uint64(arr), uint64(idx))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// SetElement defines arr[idx] = v. Consumes v.
func (e *Engine) SetElement(ctx context.Context, jsctx uint32, arr Value, idx uint32, v Value) (int32, error) {
	res, err := e.call(ctx, e.fnSetElement, "qjs_set_element", uint64(jsctx), uint64(arr), uint64(idx), uint64(v))
	if err != nil {
		return -1, err
	}
	return int32(uint32(res[0])), nil
}

// Call invokes fn with this and argv; all inputs are borrowed.
func (e *Engine) Call(ctx context.Context, jsctx uint32, fn, this Value, argv []Value) (Value, error) {
	argvPtr, err := e.writeArgv(ctx, argv)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, argvPtr)
	res, err := e.call(ctx, e.fnCall, "qjs_call",
		uint64(jsctx), uint64(fn), uint64(this), uint64(len(argv)), uint64(argvPtr))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// CallConstructor invokes fn as a constructor; inputs are borrowed.
func (e *Engine) CallConstructor(ctx context.Context, jsctx uint32, fn Value, argv []Value) (Value, error) {
	argvPtr, err := e.writeArgv(ctx, argv)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, argvPtr)
	res, err := e.call(ctx, e.fnCallConstructor, "qjs_call_constructor",
		uint64(jsctx), uint64(fn), uint64(len(argv)), uint64(argvPtr))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// Invoke calls this[name](argv...); inputs are borrowed.
func (e *Engine) Invoke(ctx context.Context, jsctx uint32, this Value, name string, argv []Value) (Value, error) {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, namePtr)
	argvPtr, err := e.writeArgv(ctx, argv)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, argvPtr)
	res, err := e.call(ctx, e.fnInvoke, "qjs_invoke",
		uint64(jsctx), uint64(this), uint64(namePtr), uint64(len(argv)), uint64(argvPtr))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// NewCFunction creates a function value whose invocation routes to the
// Dispatch.Call handler under funcID. isCtor makes it constructible.
func (e *Engine) NewCFunction(ctx context.Context, jsctx uint32, funcID int32, name string, argc int32, isCtor bool) (Value, error) {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, namePtr)
	var ctor uint64
	if isCtor {
		ctor = 1
	}
	res, err := e.call(ctx, e.fnNewCFunction, "qjs_new_cfunction",
		uint64(jsctx), uint64(uint32(funcID)), uint64(namePtr), uint64(uint32(argc)), ctor)
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// NewClassID asks the engine for a fresh numeric class id.
func (e *Engine) NewClassID(ctx context.Context, rt uint32) (int32, error) {
	res, err := e.call(ctx, e.fnNewClassID, "qjs_new_class_id", uint64(rt))
	if err != nil {
		return 0, err
	}
	return int32(uint32(res[0])), nil
}

// NewClass installs the class definition (shared finalizer, optional call
// hook) into the engine's class table.
func (e *Engine) NewClass(ctx context.Context, rt uint32, classID int32, name string, hasCall bool) error {
	namePtr, err := e.writeCString(ctx, name)
	if err != nil {
		return err
	}
	defer e.free(ctx, namePtr)
	var call uint64
	if hasCall {
		call = 1
	}
	res, err := e.call(ctx, e.fnNewClass, "qjs_new_class",
		uint64(rt), uint64(uint32(classID)), uint64(namePtr), call)
	if err != nil {
		return err
	}
	if int32(uint32(res[0])) < 0 {
		return errors.Registration(name, nil)
	}
	return nil
}

// GetException pops the engine's current exception; reading clears the slot.
func (e *Engine) GetException(ctx context.Context, jsctx uint32) (Value, error) {
	res, err := e.call(ctx, e.fnGetException, "qjs_get_exception", uint64(jsctx))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

// ThrowError raises an internal error in the guest and returns the exception
// sentinel.
func (e *Engine) ThrowError(ctx context.Context, jsctx uint32, msg string) (Value, error) {
	msgPtr, err := e.writeCString(ctx, msg)
	if err != nil {
		return 0, err
	}
	defer e.free(ctx, msgPtr)
	res, err := e.call(ctx, e.fnThrowError, "qjs_throw_error", uint64(jsctx), uint64(msgPtr))
	if err != nil {
		return 0, err
	}
	return Value(res[0]), nil
}

func (e *Engine) IsJobPending(ctx context.Context, rt uint32) (bool, error) {
	res, err := e.call(ctx, e.fnIsJobPending, "qjs_is_job_pending", uint64(rt))
	if err != nil {
		return false, err
	}
	return int32(res[0]) > 0, nil
}

// ExecutePendingJob runs one queued job. Returns 1 if a job ran, 0 if none
// were pending, negative if the job threw.
func (e *Engine) ExecutePendingJob(ctx context.Context, rt uint32) (int32, error) {
	res, err := e.call(ctx, e.fnExecutePendingJob, "qjs_execute_pending_job", uint64(rt))
	if err != nil {
		return -1, err
	}
	return int32(uint32(res[0])), nil
}

// RunGC requests an immediate collection pass.
func (e *Engine) RunGC(ctx context.Context, rt uint32) error {
	_, err := e.call(ctx, e.fnRunGC, "qjs_run_gc", uint64(rt))
	return err
}
