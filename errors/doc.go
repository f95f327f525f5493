// Package errors provides structured error types for the quickjs-runtime
// library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes field paths and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValue, errors.KindTypeMismatch).
//		Path("result", "length").
//		Detail("expected a number").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseCall, "function", "main")
//	err := errors.InvalidInput(errors.PhaseClass, "empty class name")
//
// Guest-script exceptions are carried as *Exception values in the cause
// chain of a KindException error; retrieve one with AsException:
//
//	if x := errors.AsException(err); x != nil {
//	    fmt.Println(x.Name, x.Message)
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
