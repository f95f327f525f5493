// Package engine provides the low-level wazero integration for the QuickJS
// wasm module.
//
// Engine instantiates the embedded binary, binds every qjs_* export once,
// and exposes them as typed Go methods. It also registers the "env" host
// module through which the guest routes native-function, class-call and
// finalizer dispatch (see the runtime package for the trampolines that sit
// behind engine.Dispatch).
//
// Raw engine.Value handles returned by this package carry no ownership
// information. Everything above this package goes through runtime.Ref, which
// tracks the release obligation; construction of a Ref from a raw handle is
// the single narrow trusted entry point.
package engine
