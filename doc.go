// Package quickjsruntime embeds the QuickJS-ng JavaScript engine in Go.
//
// The engine is compiled to wasm32-wasi and driven through the wazero
// WebAssembly runtime, so the library is pure Go and needs no cgo. What the
// library provides is the embedding bridge: the machinery that reconciles the
// engine's reference-counted heap with Go's ownership discipline.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	quickjsruntime/      Root package with the Script value
//	├── runtime/         High-level API: Runtime (single-owner event loop),
//	│                    Instance, owned references, value cache, classes
//	├── engine/          Low-level wazero integration and the raw qjs_* calls
//	├── wasm/            Embedded QuickJS-ng binary and its export names
//	└── errors/          Structured error types and script exceptions
//
// # Quick Start
//
// Evaluate a script on a dedicated engine owner:
//
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	out, err := rt.Eval(ctx, "hello.js", "'hello ' + 'world'")
//	fmt.Println(out) // "hello world"
//
// Work directly with engine values inside a submitted task:
//
//	err = rt.Do(func(inst *runtime.Instance) error {
//	    ref, err := inst.Eval(ctx, quickjsruntime.NewScript("t.js", "7*6"))
//	    if err != nil {
//	        return err
//	    }
//	    defer ref.Free(ctx)
//	    n, _ := inst.ToInt32(ctx, ref)
//	    fmt.Println(n) // 42
//	    return nil
//	})
//
// # Ownership Model
//
// Every engine value handed to the host is wrapped in a runtime.Ref that owns
// exactly one release obligation. Clone increments the engine refcount and
// yields a second independently owned wrapper; Consume transfers the
// obligation into an engine call that takes ownership; Free releases exactly
// once. References are only meaningful while the owning Instance is held.
// To let a value survive across submissions, park it in the instance's
// Cache and pass the int32 id around instead.
//
// # Thread Safety
//
// An engine instance is single-owner: Runtime pins it to one goroutine and
// executes submitted tasks in submission order, one at a time. Instance, Ref
// and Cache must never leave a submitted task. Only cache ids and the
// Runtime submission surface are safe to share.
package quickjsruntime
