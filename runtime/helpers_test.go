package runtime

import (
	"context"
	"testing"

	"github.com/wippyai/quickjs-runtime/wasm"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	ctx, inst := newTestInstance(t)

	n, err := inst.NewInt32(ctx, -37)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer n.Free(ctx)
	if got, _ := inst.ToInt32(ctx, n); got != -37 {
		t.Fatalf("int32 round trip = %d", got)
	}

	f, err := inst.NewFloat64(ctx, 2.5)
	if err != nil {
		t.Fatalf("NewFloat64: %v", err)
	}
	defer f.Free(ctx)
	if got, _ := inst.ToFloat64(ctx, f); got != 2.5 {
		t.Fatalf("float64 round trip = %v", got)
	}

	b, err := inst.NewBool(ctx, true)
	if err != nil {
		t.Fatalf("NewBool: %v", err)
	}
	defer b.Free(ctx)
	if got, _ := inst.ToBool(ctx, b); !got {
		t.Fatal("bool round trip lost true")
	}

	s, err := inst.NewString(ctx, "héllo wörld")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	defer s.Free(ctx)
	if got, _ := inst.ToString(ctx, s); got != "héllo wörld" {
		t.Fatalf("string round trip = %q", got)
	}

	null, err := inst.Null(ctx)
	if err != nil {
		t.Fatalf("Null: %v", err)
	}
	defer null.Free(ctx)
	if isNull, _ := inst.IsNull(ctx, null); !isNull {
		t.Fatal("null not recognized")
	}

	und, err := inst.Undefined(ctx)
	if err != nil {
		t.Fatalf("Undefined: %v", err)
	}
	defer und.Free(ctx)
	if isUnd, _ := inst.IsUndefined(ctx, und); !isUnd {
		t.Fatal("undefined not recognized")
	}
}

func TestArrays(t *testing.T) {
	ctx, inst := newTestInstance(t)

	arr, err := inst.NewArray(ctx)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	defer arr.Free(ctx)

	if isArr, _ := inst.IsArray(ctx, arr); !isArr {
		t.Fatal("new array not recognized as array")
	}

	for i := int32(0); i < 3; i++ {
		v, err := inst.NewInt32(ctx, i*10)
		if err != nil {
			t.Fatalf("NewInt32: %v", err)
		}
		if err := inst.SetElement(ctx, arr, uint32(i), v); err != nil {
			t.Fatalf("SetElement(%d): %v", i, err)
		}
	}

	length, err := inst.GetLength(ctx, arr)
	if err != nil {
		t.Fatalf("GetLength: %v", err)
	}
	if length != 3 {
		t.Fatalf("length = %d, want 3", length)
	}

	el, err := inst.GetElement(ctx, arr, 2)
	if err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	defer el.Free(ctx)
	if got, _ := inst.ToInt32(ctx, el); got != 20 {
		t.Fatalf("arr[2] = %d, want 20", got)
	}

	notArr, err := inst.NewInt32(ctx, 1)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer notArr.Free(ctx)
	if isArr, _ := inst.IsArray(ctx, notArr); isArr {
		t.Fatal("number recognized as array")
	}
}

func TestObjects(t *testing.T) {
	ctx, inst := newTestInstance(t)

	obj, err := inst.NewObject(ctx)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	defer obj.Free(ctx)

	v, err := inst.NewInt32(ctx, 99)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	if err := inst.SetProperty(ctx, obj, "visible", v); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	h, err := inst.NewString(ctx, "secret")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if err := inst.DefineProperty(ctx, obj, "hidden", h, 0); err != nil {
		t.Fatalf("DefineProperty: %v", err)
	}

	got, err := inst.GetProperty(ctx, obj, "visible")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	defer got.Free(ctx)
	if n, _ := inst.ToInt32(ctx, got); n != 99 {
		t.Fatalf("obj.visible = %d, want 99", n)
	}

	// Flags 0 means non-enumerable: only "visible" shows up.
	global, err := inst.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	defer global.Free(ctx)
	if err := inst.SetProperty(ctx, global, "o", obj.Clone(ctx)); err != nil {
		t.Fatalf("SetProperty on global: %v", err)
	}
	if keys := mustEvalInt32(t, ctx, inst, "Object.keys(o).length"); keys != 1 {
		t.Fatalf("enumerable keys = %d, want 1", keys)
	}
}

func TestDefinePropertyFlags(t *testing.T) {
	ctx, inst := newTestInstance(t)

	obj, err := inst.NewObject(ctx)
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	global, err := inst.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	defer global.Free(ctx)
	if err := inst.SetProperty(ctx, global, "p", obj); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	v, err := inst.NewInt32(ctx, 1)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	pRef, err := inst.GetProperty(ctx, global, "p")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	defer pRef.Free(ctx)
	if err := inst.DefineProperty(ctx, pRef, "w", v, wasm.PropCWE); err != nil {
		t.Fatalf("DefineProperty: %v", err)
	}

	if got := mustEvalInt32(t, ctx, inst, "p.w = 2; p.w"); got != 2 {
		t.Fatalf("writable property stuck at %d", got)
	}
}

func TestNewFunction(t *testing.T) {
	ctx, inst := newTestInstance(t)

	sum, err := inst.NewFunction(ctx, "hostSum", 2,
		func(ctx context.Context, inst *Instance, _ *Ref, args []*Ref) (*Ref, error) {
			a, err := inst.ToInt32(ctx, args[0])
			if err != nil {
				return nil, err
			}
			b, err := inst.ToInt32(ctx, args[1])
			if err != nil {
				return nil, err
			}
			return inst.NewInt32(ctx, a+b)
		})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}

	global, err := inst.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	defer global.Free(ctx)
	if err := inst.SetProperty(ctx, global, "hostSum", sum); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	if got := mustEvalInt32(t, ctx, inst, "hostSum(19, 23)"); got != 42 {
		t.Fatalf("hostSum = %d, want 42", got)
	}
}

func TestCallAndInvoke(t *testing.T) {
	ctx, inst := newTestInstance(t)

	ret := mustEval(t, ctx, inst, "globalThis.double = (x) => x * 2;")
	ret.Free(ctx)

	global, err := inst.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	defer global.Free(ctx)

	fn, err := inst.GetProperty(ctx, global, "double")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	defer fn.Free(ctx)

	arg, err := inst.NewInt32(ctx, 21)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer arg.Free(ctx)

	res, err := inst.Call(ctx, fn, global, arg)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	defer res.Free(ctx)
	if got, _ := inst.ToInt32(ctx, res); got != 42 {
		t.Fatalf("Call = %d, want 42", got)
	}

	res2, err := inst.Invoke(ctx, global, "double", arg)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	defer res2.Free(ctx)
	if got, _ := inst.ToInt32(ctx, res2); got != 42 {
		t.Fatalf("Invoke = %d, want 42", got)
	}
}

func TestCallFunctionNamespace(t *testing.T) {
	ctx, inst := newTestInstance(t)

	ret := mustEval(t, ctx, inst,
		"globalThis.myApp = { util: { sum: (a, b) => a + b } };")
	ret.Free(ctx)

	a, err := inst.NewInt32(ctx, 40)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer a.Free(ctx)
	b, err := inst.NewInt32(ctx, 2)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer b.Free(ctx)

	res, err := inst.CallFunction(ctx, []string{"myApp", "util"}, "sum", a, b)
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	defer res.Free(ctx)
	if got, _ := inst.ToInt32(ctx, res); got != 42 {
		t.Fatalf("CallFunction = %d, want 42", got)
	}

	if _, err := inst.CallFunction(ctx, []string{"missing"}, "fn"); err == nil {
		t.Fatal("unknown namespace did not error")
	}
}

// The namespace object resolved by CallFunction must be released after the
// call: if the bridge held on to it, the collector could never finalize it.
func TestCallFunctionReleasesNamespace(t *testing.T) {
	ctx, inst := newTestInstance(t)

	finalized := false
	if _, err := inst.RegisterClass(ctx, "Holder", &ClassBinding{
		Finalize: func(int32) { finalized = true },
	}); err != nil {
		t.Fatalf("RegisterClass: %v", err)
	}

	mustEval(t, ctx, inst,
		"globalThis.ns = new Holder(); ns.ping = () => 1;").Free(ctx)

	res, err := inst.CallFunction(ctx, []string{"ns"}, "ping")
	if err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	res.Free(ctx)

	mustEval(t, ctx, inst, "delete globalThis.ns;").Free(ctx)
	if err := inst.Gc(ctx); err != nil {
		t.Fatalf("Gc: %v", err)
	}
	if !finalized {
		t.Fatal("namespace object still referenced after CallFunction")
	}
}

func TestGuestExceptionFromCall(t *testing.T) {
	ctx, inst := newTestInstance(t)

	ret := mustEval(t, ctx, inst, `globalThis.boom = () => { throw new Error("from call"); };`)
	ret.Free(ctx)

	global, err := inst.Global(ctx)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	defer global.Free(ctx)

	if _, err := inst.Invoke(ctx, global, "boom"); err == nil {
		t.Fatal("guest throw did not surface")
	}
}

func TestMaps(t *testing.T) {
	ctx, inst := newTestInstance(t)

	m, err := inst.NewMap(ctx)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	defer m.Free(ctx)

	key, err := inst.NewString(ctx, "k")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	defer key.Free(ctx)
	val, err := inst.NewInt32(ctx, 123)
	if err != nil {
		t.Fatalf("NewInt32: %v", err)
	}
	defer val.Free(ctx)

	if has, err := inst.MapHas(ctx, m, key); err != nil || has {
		t.Fatalf("MapHas on empty map = %v, %v", has, err)
	}

	if err := inst.MapSet(ctx, m, key, val); err != nil {
		t.Fatalf("MapSet: %v", err)
	}
	if size, _ := inst.MapSize(ctx, m); size != 1 {
		t.Fatalf("size = %d, want 1", size)
	}
	if has, err := inst.MapHas(ctx, m, key); err != nil || !has {
		t.Fatalf("MapHas after set = %v, %v", has, err)
	}

	got, err := inst.MapGet(ctx, m, key)
	if err != nil {
		t.Fatalf("MapGet: %v", err)
	}
	defer got.Free(ctx)
	if n, _ := inst.ToInt32(ctx, got); n != 123 {
		t.Fatalf("map value = %d, want 123", n)
	}

	removed, err := inst.MapDelete(ctx, m, key)
	if err != nil {
		t.Fatalf("MapDelete: %v", err)
	}
	if !removed {
		t.Fatal("delete of present key reported false")
	}
	if size, _ := inst.MapSize(ctx, m); size != 0 {
		t.Fatalf("size after delete = %d, want 0", size)
	}
}
