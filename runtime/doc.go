// Package runtime implements the embedding bridge over the engine package:
// ownership-tracked value references, the value cache, native class
// bindings and the single-owner execution model.
//
// The central types:
//
//   - Runtime pins one engine instance to a dedicated goroutine and executes
//     submitted tasks serially. It is the only concurrency-safe surface.
//   - Instance is the per-engine state: guest runtime+context, value cache,
//     class registry and native function table. Owner-goroutine only.
//   - Ref wraps one guest value handle and its release obligation. Refs
//     never cross goroutines; the Cache's int32 ids do.
//
// Failure policy: engine-reported failures (script exceptions, allocation
// errors) return errors; violations of the bridge's own bookkeeping
// contracts (unknown cache id, trampoline for an unregistered class) panic;
// failure to create the guest runtime or context panics, since the bridge
// has no degraded mode.
package runtime
