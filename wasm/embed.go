package wasm

import _ "embed"

// QuickJS contains the QuickJS-ng engine compiled to wasm32-wasi together
// with the src/shim.c export surface. The binary is a build artifact produced
// by `make deps quickjs.wasm` in this directory; it is checked in so that
// consumers of the library do not need a C toolchain.
//
//go:embed quickjs.wasm
var QuickJS []byte

// Names of the shim's exported functions. The engine package binds each of
// these once at instantiation; a missing export is a build mismatch between
// src/shim.c and the Go side.
const (
	// Guest memory
	ExportAlloc = "qjs_alloc"
	ExportFree  = "qjs_free"

	// Runtime and context lifecycle
	ExportNewRuntime  = "qjs_new_runtime"
	ExportFreeRuntime = "qjs_free_runtime"
	ExportNewContext  = "qjs_new_context"
	ExportFreeContext = "qjs_free_context"

	// Evaluation
	ExportEval = "qjs_eval"

	// Value lifecycle and inspection
	ExportDupValue    = "qjs_dup_value"
	ExportFreeValue   = "qjs_free_value"
	ExportIsException = "qjs_is_exception"
	ExportIsNull      = "qjs_is_null"
	ExportIsUndefined = "qjs_is_undefined"

	// Value construction
	ExportNewNull      = "qjs_new_null"
	ExportNewUndefined = "qjs_new_undefined"
	ExportNewBool      = "qjs_new_bool"
	ExportNewInt32     = "qjs_new_int32"
	ExportNewFloat64   = "qjs_new_float64"
	ExportNewString    = "qjs_new_string"

	// Value conversion
	ExportToBool      = "qjs_to_bool"
	ExportToInt32     = "qjs_to_int32"
	ExportToFloat64   = "qjs_to_float64"
	ExportToCString   = "qjs_to_cstring"
	ExportFreeCString = "qjs_free_cstring"

	// Objects and properties
	ExportGetGlobal      = "qjs_get_global"
	ExportNewObject      = "qjs_new_object"
	ExportNewObjectClass = "qjs_new_object_class"
	ExportGetProperty    = "qjs_get_property"
	ExportSetProperty    = "qjs_set_property"
	ExportDefineProperty = "qjs_define_property"
	ExportSetOpaque      = "qjs_set_opaque"

	// Arrays
	ExportNewArray   = "qjs_new_array"
	ExportIsArray    = "qjs_is_array"
	ExportGetElement = "qjs_get_element"
	ExportSetElement = "qjs_set_element"

	// Functions
	ExportCall            = "qjs_call"
	ExportCallConstructor = "qjs_call_constructor"
	ExportInvoke          = "qjs_invoke"
	ExportNewCFunction    = "qjs_new_cfunction"

	// Native classes
	ExportNewClassID = "qjs_new_class_id"
	ExportNewClass   = "qjs_new_class"

	// Exceptions
	ExportGetException = "qjs_get_exception"
	ExportThrowError   = "qjs_throw_error"

	// Jobs and GC
	ExportIsJobPending      = "qjs_is_job_pending"
	ExportExecutePendingJob = "qjs_execute_pending_job"
	ExportRunGC             = "qjs_run_gc"
)

// Names of the host functions the shim imports from module "env".
const (
	HostModule = "env"

	// HostCall dispatches native function and constructor invocations.
	// Signature: host_call(ctx: i32, func_id: i32, this: i32, argc: i32, argv: i32) -> i32
	HostCall = "host_call"

	// HostClassCall dispatches calls on callable class instances.
	// Signature: host_class_call(ctx: i32, class_id: i32, fn: i32, this: i32, argc: i32, argv: i32) -> i32
	HostClassCall = "host_class_call"

	// HostFinalize notifies the host that the collector finalized an
	// instance of a native class.
	// Signature: host_finalize(class_id: i32, instance_id: i32)
	HostFinalize = "host_finalize"

	// HostLog receives guest console output.
	// Signature: host_log(ptr: i32, len: i32)
	HostLog = "host_log"
)

// Property flags accepted by qjs_define_property, mirroring the engine's
// JS_PROP_* constants.
const (
	PropConfigurable uint32 = 1 << 0
	PropWritable     uint32 = 1 << 1
	PropEnumerable   uint32 = 1 << 2

	// PropCWE is the common configurable|writable|enumerable combination.
	PropCWE = PropConfigurable | PropWritable | PropEnumerable
)
