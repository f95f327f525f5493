package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/quickjs-runtime/errors"
	"github.com/wippyai/quickjs-runtime/wasm"
)

// Value is a raw engine handle: a 32-bit pointer to a boxed JSValue in guest
// memory. It carries no ownership information; the runtime package's Ref
// tracks the release obligation.
type Value uint32

// CallHandler dispatches a native function or constructor invocation.
// jsctx, this and argv are borrowed boxes; the returned box (or 0 for
// undefined) is consumed by the guest.
type CallHandler func(ctx context.Context, jsctx uint32, funcID int32, this Value, argv []Value) Value

// ClassCallHandler dispatches a call on a callable class instance.
type ClassCallHandler func(ctx context.Context, jsctx uint32, classID int32, fn, this Value, argv []Value) Value

// FinalizeHandler is invoked when the guest collector finalizes an instance
// of a native class.
type FinalizeHandler func(classID, instanceID int32)

// Dispatch carries the host-side trampoline targets. The runtime package
// installs one Dispatch per engine before any script can reach a native
// class or function.
type Dispatch struct {
	Call      CallHandler
	ClassCall ClassCallHandler
	Finalize  FinalizeHandler
}

// Config holds configuration for engine creation.
type Config struct {
	// Binary overrides the embedded engine module, e.g. for a custom
	// QuickJS-ng build. Leave nil for wasm.QuickJS.
	Binary []byte

	// Logger receives engine-level tracing and guest console output.
	// Leave nil for a no-op logger.
	Logger *zap.Logger
}

// Shared compilation cache: compiling the engine module is expensive and its
// machine code is identical across instances.
var (
	cache     wazero.CompilationCache
	cacheOnce sync.Once
)

// Engine drives one instantiation of the QuickJS wasm module. It is the
// single trusted entry point for raw handles: nothing above this package
// touches guest memory or export calls directly.
//
// An Engine is not safe for concurrent use; it inherits the single-owner
// rule of the runtime it hosts.
type Engine struct {
	wrt    wazero.Runtime
	mod    api.Module
	mem    api.Memory
	log    *zap.Logger
	disp   Dispatch
	closed bool

	fnAlloc             api.Function
	fnFree              api.Function
	fnNewRuntime        api.Function
	fnFreeRuntime       api.Function
	fnNewContext        api.Function
	fnFreeContext       api.Function
	fnEval              api.Function
	fnDupValue          api.Function
	fnFreeValue         api.Function
	fnIsException       api.Function
	fnIsNull            api.Function
	fnIsUndefined       api.Function
	fnNewNull           api.Function
	fnNewUndefined      api.Function
	fnNewBool           api.Function
	fnNewInt32          api.Function
	fnNewFloat64        api.Function
	fnNewString         api.Function
	fnToBool            api.Function
	fnToInt32           api.Function
	fnToFloat64         api.Function
	fnToCString         api.Function
	fnFreeCString       api.Function
	fnGetGlobal         api.Function
	fnNewObject         api.Function
	fnNewObjectClass    api.Function
	fnGetProperty       api.Function
	fnSetProperty       api.Function
	fnDefineProperty    api.Function
	fnSetOpaque         api.Function
	fnNewArray          api.Function
	fnIsArray           api.Function
	fnGetElement        api.Function
	fnSetElement        api.Function
	fnCall              api.Function
	fnCallConstructor   api.Function
	fnInvoke            api.Function
	fnNewCFunction      api.Function
	fnNewClassID        api.Function
	fnNewClass          api.Function
	fnGetException      api.Function
	fnThrowError        api.Function
	fnIsJobPending      api.Function
	fnExecutePendingJob api.Function
	fnRunGC             api.Function
}

// New compiles and instantiates the engine module.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	e := &Engine{log: zap.NewNop()}
	binary := wasm.QuickJS
	if cfg != nil {
		if cfg.Binary != nil {
			binary = cfg.Binary
		}
		if cfg.Logger != nil {
			e.log = cfg.Logger
		}
	}

	cacheOnce.Do(func() { cache = wazero.NewCompilationCache() })

	rcfg := wazero.NewRuntimeConfig().
		WithCompilationCache(cache).
		WithDebugInfoEnabled(false)
	e.wrt = wazero.NewRuntimeWithConfig(ctx, rcfg)

	wasi_snapshot_preview1.MustInstantiate(ctx, e.wrt)

	_, err := e.wrt.NewHostModuleBuilder(wasm.HostModule).
		NewFunctionBuilder().WithFunc(e.hostCall).Export(wasm.HostCall).
		NewFunctionBuilder().WithFunc(e.hostClassCall).Export(wasm.HostClassCall).
		NewFunctionBuilder().WithFunc(e.hostFinalize).Export(wasm.HostFinalize).
		NewFunctionBuilder().WithFunc(e.hostLog).Export(wasm.HostLog).
		Instantiate(ctx)
	if err != nil {
		e.wrt.Close(ctx)
		return nil, errors.Load("instantiate host module", err)
	}

	compiled, err := e.wrt.CompileModule(ctx, binary)
	if err != nil {
		e.wrt.Close(ctx)
		return nil, errors.Load("compile engine module", err)
	}

	e.mod, err = e.wrt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		e.wrt.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	e.mem = e.mod.Memory()
	if e.mem == nil {
		e.wrt.Close(ctx)
		return nil, errors.Load("engine module has no memory", nil)
	}

	if err := e.bindExports(); err != nil {
		e.wrt.Close(ctx)
		return nil, err
	}

	return e, nil
}

// SetDispatch installs the trampoline targets. Must be called before any
// native class or function is reachable from script.
func (e *Engine) SetDispatch(d Dispatch) {
	e.disp = d
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	return e.log
}

// Close tears down the wazero runtime and everything instantiated in it.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.wrt.Close(ctx)
}

func (e *Engine) bindExports() error {
	bind := func(fn *api.Function, name string) error {
		*fn = e.mod.ExportedFunction(name)
		if *fn == nil {
			return errors.NotFound(errors.PhaseLoad, "engine export", name)
		}
		return nil
	}

	for _, b := range []struct {
		fn   *api.Function
		name string
	}{
		{&e.fnAlloc, wasm.ExportAlloc},
		{&e.fnFree, wasm.ExportFree},
		{&e.fnNewRuntime, wasm.ExportNewRuntime},
		{&e.fnFreeRuntime, wasm.ExportFreeRuntime},
		{&e.fnNewContext, wasm.ExportNewContext},
		{&e.fnFreeContext, wasm.ExportFreeContext},
		{&e.fnEval, wasm.ExportEval},
		{&e.fnDupValue, wasm.ExportDupValue},
		{&e.fnFreeValue, wasm.ExportFreeValue},
		{&e.fnIsException, wasm.ExportIsException},
		{&e.fnIsNull, wasm.ExportIsNull},
		{&e.fnIsUndefined, wasm.ExportIsUndefined},
		{&e.fnNewNull, wasm.ExportNewNull},
		{&e.fnNewUndefined, wasm.ExportNewUndefined},
		{&e.fnNewBool, wasm.ExportNewBool},
		{&e.fnNewInt32, wasm.ExportNewInt32},
		{&e.fnNewFloat64, wasm.ExportNewFloat64},
		{&e.fnNewString, wasm.ExportNewString},
		{&e.fnToBool, wasm.ExportToBool},
		{&e.fnToInt32, wasm.ExportToInt32},
		{&e.fnToFloat64, wasm.ExportToFloat64},
		{&e.fnToCString, wasm.ExportToCString},
		{&e.fnFreeCString, wasm.ExportFreeCString},
		{&e.fnGetGlobal, wasm.ExportGetGlobal},
		{&e.fnNewObject, wasm.ExportNewObject},
		{&e.fnNewObjectClass, wasm.ExportNewObjectClass},
		{&e.fnGetProperty, wasm.ExportGetProperty},
		{&e.fnSetProperty, wasm.ExportSetProperty},
		{&e.fnDefineProperty, wasm.ExportDefineProperty},
		{&e.fnSetOpaque, wasm.ExportSetOpaque},
		{&e.fnNewArray, wasm.ExportNewArray},
		{&e.fnIsArray, wasm.ExportIsArray},
		{&e.fnGetElement, wasm.ExportGetElement},
		{&e.fnSetElement, wasm.ExportSetElement},
		{&e.fnCall, wasm.ExportCall},
		{&e.fnCallConstructor, wasm.ExportCallConstructor},
		{&e.fnInvoke, wasm.ExportInvoke},
		{&e.fnNewCFunction, wasm.ExportNewCFunction},
		{&e.fnNewClassID, wasm.ExportNewClassID},
		{&e.fnNewClass, wasm.ExportNewClass},
		{&e.fnGetException, wasm.ExportGetException},
		{&e.fnThrowError, wasm.ExportThrowError},
		{&e.fnIsJobPending, wasm.ExportIsJobPending},
		{&e.fnExecutePendingJob, wasm.ExportExecutePendingJob},
		{&e.fnRunGC, wasm.ExportRunGC},
	} {
		if err := bind(b.fn, b.name); err != nil {
			return err
		}
	}
	return nil
}

// Host imports: the guest side of these lives in wasm/src/shim.c.

func (e *Engine) hostCall(ctx context.Context, m api.Module, jsctx, funcID, this, argc, argvPtr uint32) uint32 {
	if e.disp.Call == nil {
		return 0
	}
	argv, err := e.readArgv(m, argc, argvPtr)
	if err != nil {
		e.log.Error("host_call: bad argv", zap.Error(err))
		return 0
	}
	return uint32(e.disp.Call(ctx, jsctx, int32(funcID), Value(this), argv))
}

func (e *Engine) hostClassCall(ctx context.Context, m api.Module, jsctx, classID, fn, this, argc, argvPtr uint32) uint32 {
	if e.disp.ClassCall == nil {
		return 0
	}
	argv, err := e.readArgv(m, argc, argvPtr)
	if err != nil {
		e.log.Error("host_class_call: bad argv", zap.Error(err))
		return 0
	}
	return uint32(e.disp.ClassCall(ctx, jsctx, int32(classID), Value(fn), Value(this), argv))
}

func (e *Engine) hostFinalize(_ context.Context, _ api.Module, classID, instanceID uint32) {
	if e.disp.Finalize == nil {
		return
	}
	e.disp.Finalize(int32(classID), int32(instanceID))
}

func (e *Engine) hostLog(_ context.Context, m api.Module, ptr, length uint32) {
	buf, ok := m.Memory().Read(ptr, length)
	if !ok {
		return
	}
	e.log.Info("guest", zap.String("msg", string(buf)))
}
