package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := New(PhaseValue, KindTypeMismatch).
		Path("result", "length").
		Detail("expected a number").
		Build()

	msg := err.Error()
	if !strings.Contains(msg, "[value]") {
		t.Errorf("missing phase: %s", msg)
	}
	if !strings.Contains(msg, "type_mismatch") {
		t.Errorf("missing kind: %s", msg)
	}
	if !strings.Contains(msg, "result.length") {
		t.Errorf("missing path: %s", msg)
	}
	if !strings.Contains(msg, "expected a number") {
		t.Errorf("missing detail: %s", msg)
	}
}

func TestError_Is(t *testing.T) {
	err := NotFound(PhaseCall, "function", "main")

	if !stderrors.Is(err, &Error{Phase: PhaseCall, Kind: KindNotFound}) {
		t.Error("expected Is to match phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseEval, Kind: KindNotFound}) {
		t.Error("expected Is to reject different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(PhaseLoad, KindInstantiation, cause, "instantiate")

	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
}

func TestException_Error(t *testing.T) {
	x := &Exception{Name: "TypeError", Message: "boom", Stack: "at t.js:1\n"}
	msg := x.Error()
	if !strings.HasPrefix(msg, "TypeError: boom") {
		t.Errorf("unexpected message: %s", msg)
	}
	if !strings.Contains(msg, "at t.js:1") {
		t.Errorf("missing stack: %s", msg)
	}

	// Nameless exceptions fall back to the generic Error name.
	x = &Exception{Message: "oops"}
	if got := x.Error(); got != "Error: oops" {
		t.Errorf("unexpected fallback: %s", got)
	}
}

func TestThrow_CarriesException(t *testing.T) {
	x := &Exception{Name: "Error", Message: "boom"}
	err := Throw(PhaseEval, x)

	got := AsException(err)
	if got == nil {
		t.Fatal("expected exception in chain")
	}
	if got.Message != "boom" {
		t.Errorf("expected boom, got %q", got.Message)
	}

	if AsException(stderrors.New("plain")) != nil {
		t.Error("plain errors must not yield an exception")
	}
}
