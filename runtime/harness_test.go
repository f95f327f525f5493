package runtime

import (
	"context"
	"testing"

	quickjsruntime "github.com/wippyai/quickjs-runtime"
	"github.com/wippyai/quickjs-runtime/wasm"
)

func script(code string) quickjsruntime.Script {
	return quickjsruntime.NewScript("test.js", code)
}

// Engine-backed tests need the compiled QuickJS module, which is a build
// artifact (make -C wasm). They skip when only the placeholder is present.
func engineAvailable() bool {
	return len(wasm.QuickJS) > 1024
}

func newTestInstance(t *testing.T) (context.Context, *Instance) {
	t.Helper()
	if !engineAvailable() {
		t.Skip("engine binary not built; run make -C wasm")
	}
	ctx := context.Background()
	inst, err := NewInstance(ctx, nil)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	t.Cleanup(func() { inst.Close(ctx) })
	return ctx, inst
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	if !engineAvailable() {
		t.Skip("engine binary not built; run make -C wasm")
	}
	r, err := New(context.Background())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func mustEvalInt32(t *testing.T, ctx context.Context, inst *Instance, code string) int32 {
	t.Helper()
	ret := mustEval(t, ctx, inst, code)
	defer ret.Free(ctx)
	n, err := inst.ToInt32(ctx, ret)
	if err != nil {
		t.Fatalf("ToInt32: %v", err)
	}
	return n
}

func mustEval(t *testing.T, ctx context.Context, inst *Instance, code string) *Ref {
	t.Helper()
	ret, err := inst.Eval(ctx, script(code))
	if err != nil {
		t.Fatalf("Eval %q: %v", code, err)
	}
	return ret
}
