// Package wasm embeds the QuickJS-ng engine binary and defines the names of
// its shim exports and host imports.
//
// The engine is the stock QuickJS-ng library plus src/shim.c, a thin C layer
// that boxes JSValue structs behind 32-bit pointers so the host can hold
// them across the wasm boundary, and that forwards constructor, finalizer
// and call hooks to host imports. The binary is rebuilt with
// `make deps quickjs.wasm` and checked in.
//
// Values crossing the boundary are box pointers: every shim function that
// returns a value allocates a box the host must release with qjs_free_value
// (or hand to a consuming call such as qjs_set_property, which releases it).
// The ownership bookkeeping on the host side lives in the runtime package.
package wasm
