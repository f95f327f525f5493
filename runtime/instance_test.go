package runtime

import (
	goerrors "errors"
	"testing"

	"github.com/wippyai/quickjs-runtime/errors"
)

func TestEvalResult(t *testing.T) {
	ctx, inst := newTestInstance(t)
	if got := mustEvalInt32(t, ctx, inst, "1 + 2"); got != 3 {
		t.Fatalf("eval = %d, want 3", got)
	}
}

func TestEvalExceptionStructured(t *testing.T) {
	ctx, inst := newTestInstance(t)

	_, err := inst.Eval(ctx, script(`throw new Error("boom")`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !goerrors.Is(err, &errors.Error{Phase: errors.PhaseEval, Kind: errors.KindException}) {
		t.Fatalf("error is not an eval exception: %v", err)
	}

	x := errors.AsException(err)
	if x == nil {
		t.Fatalf("error does not carry an exception: %v", err)
	}
	if x.Name != "Error" {
		t.Fatalf("exception name = %q, want Error", x.Name)
	}
	if x.Message != "boom" {
		t.Fatalf("exception message = %q, want boom", x.Message)
	}
	if x.Stack == "" {
		t.Fatal("exception stack is empty")
	}
}

func TestEvalNonErrorThrow(t *testing.T) {
	ctx, inst := newTestInstance(t)

	_, err := inst.Eval(ctx, script(`throw 42`))
	if err == nil {
		t.Fatal("expected error")
	}
	x := errors.AsException(err)
	if x == nil {
		t.Fatalf("error does not carry an exception: %v", err)
	}
	if x.Message != "42" {
		t.Fatalf("exception message = %q, want 42", x.Message)
	}
}

func TestEvalFollowedByEvalStillWorks(t *testing.T) {
	ctx, inst := newTestInstance(t)

	if _, err := inst.Eval(ctx, script(`throw new Error("first")`)); err == nil {
		t.Fatal("expected error")
	}
	// The exception slot was consumed; the engine must be clean.
	if got := mustEvalInt32(t, ctx, inst, "5 * 5"); got != 25 {
		t.Fatalf("eval after exception = %d, want 25", got)
	}
}

func TestEvalDrainsPendingJobs(t *testing.T) {
	ctx, inst := newTestInstance(t)

	ret := mustEval(t, ctx, inst,
		`globalThis.done = false; Promise.resolve().then(() => { globalThis.done = true; });`)
	ret.Free(ctx)

	pending, err := inst.HasPendingJobs(ctx)
	if err != nil {
		t.Fatalf("HasPendingJobs: %v", err)
	}
	if pending {
		t.Fatal("jobs still pending after eval returned")
	}

	done := mustEval(t, ctx, inst, "done")
	defer done.Free(ctx)
	b, err := inst.ToBool(ctx, done)
	if err != nil {
		t.Fatalf("ToBool: %v", err)
	}
	if !b {
		t.Fatal("promise reaction did not run before eval returned")
	}
}

func TestJobExceptionSurfaces(t *testing.T) {
	ctx, inst := newTestInstance(t)

	_, err := inst.Eval(ctx,
		script(`Promise.resolve().then(() => { throw new Error("in job"); }); 1`))
	if err == nil {
		t.Fatal("expected job error")
	}
	x := errors.AsException(err)
	if x == nil || x.Message != "in job" {
		t.Fatalf("job exception not surfaced: %v", err)
	}
}

func TestEvalModule(t *testing.T) {
	ctx, inst := newTestInstance(t)

	ret, err := inst.EvalModule(ctx, script("globalThis.fromModule = 7;"))
	if err != nil {
		t.Fatalf("EvalModule: %v", err)
	}
	ret.Free(ctx)

	if got := mustEvalInt32(t, ctx, inst, "fromModule"); got != 7 {
		t.Fatalf("module side effect = %d, want 7", got)
	}
}

func TestInstanceData(t *testing.T) {
	inst := &Instance{instData: make(map[int32]any)}

	if _, ok := inst.InstanceData(1); ok {
		t.Fatal("data present before set")
	}
	inst.SetInstanceData(1, "state")
	got, ok := inst.InstanceData(1)
	if !ok || got != "state" {
		t.Fatalf("InstanceData = %v, %v", got, ok)
	}
}
