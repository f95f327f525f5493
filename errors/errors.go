package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad  Phase = "load"  // engine binary loading / instantiation
	PhaseEval  Phase = "eval"  // script evaluation
	PhaseJob   Phase = "job"   // pending job execution
	PhaseClass Phase = "class" // native class registration
	PhaseValue Phase = "value" // value conversion and property access
	PhaseCall  Phase = "call"  // function and member invocation
	PhaseHost  Phase = "host"  // host trampoline dispatch
)

// Kind categorizes the error
type Kind string

const (
	KindException     Kind = "exception"     // guest script threw
	KindAllocation    Kind = "allocation"    // guest memory allocation failed
	KindNotFound      Kind = "not_found"     // export, property or entry missing
	KindRegistration  Kind = "registration"  // class or function registration failed
	KindInvalidInput  Kind = "invalid_input" // bad argument from the host
	KindTypeMismatch  Kind = "type_mismatch" // value has the wrong guest type
	KindInstantiation Kind = "instantiation" // wasm module instantiation failed
	KindMarshal       Kind = "marshal"       // host/guest memory transfer failed
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Exception is the structured form of a guest-script exception. It is
// reconstructed from the engine's live exception slot immediately after a
// failing call, since reading the slot clears it.
type Exception struct {
	Name    string // e.g. "TypeError"
	Message string
	Stack   string // empty when the engine did not record one
}

// Error implements the error interface
func (x *Exception) Error() string {
	var b strings.Builder
	if x.Name != "" {
		b.WriteString(x.Name)
	} else {
		b.WriteString("Error")
	}
	if x.Message != "" {
		b.WriteString(": ")
		b.WriteString(x.Message)
	}
	if x.Stack != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimSuffix(x.Stack, "\n"))
	}
	return b.String()
}

// Is reports whether target matches this error type
func (x *Exception) Is(target error) bool {
	_, ok := target.(*Exception)
	return ok
}

// Convenience constructors for common error patterns

// Throw wraps a guest exception in a structured error for the given phase.
func Throw(phase Phase, x *Exception) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindException,
		Cause: x,
	}
}

// AsException extracts the guest exception from err's chain, or nil if err
// does not carry one.
func AsException(err error) *Exception {
	for err != nil {
		if x, ok := err.(*Exception); ok {
			return x
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a class registration error
func Registration(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseClass,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register class %q", name),
		Cause:  cause,
	}
}

// AllocationFailed creates a guest allocation failure error
func AllocationFailed(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes in guest memory", size),
	}
}

// Marshal creates a host/guest memory transfer error
func Marshal(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMarshal,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("value is not %s", want),
	}
}

// Instantiation creates a wasm instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate engine module",
		Cause:  cause,
	}
}

// Load creates an engine loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
