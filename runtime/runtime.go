package runtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	quickjsruntime "github.com/wippyai/quickjs-runtime"
	"github.com/wippyai/quickjs-runtime/engine"
	"github.com/wippyai/quickjs-runtime/errors"
)

// ErrClosed is returned by submissions against a closed Runtime.
var ErrClosed = errors.InvalidInput(errors.PhaseHost, "runtime is closed")

// Runtime owns one Instance on a dedicated goroutine and executes submitted
// tasks serially in submission order. It is the only part of the bridge that
// is safe to share between goroutines: Instance, Ref and Cache stay on the
// owner, and only int32 cache ids travel across the submission surface.
type Runtime struct {
	tasks  chan task
	quit   chan struct{}
	parked chan struct{}
	once   sync.Once
}

type task struct {
	fn   func(*Instance) error
	done chan error
}

// Option configures a Runtime.
type Option func(*engine.Config)

// WithLogger routes bridge and guest console logging through log.
func WithLogger(log *zap.Logger) Option {
	return func(cfg *engine.Config) { cfg.Logger = log }
}

// WithBinary overrides the embedded engine module.
func WithBinary(binary []byte) Option {
	return func(cfg *engine.Config) { cfg.Binary = binary }
}

// New starts the owner goroutine, creates the Instance on it and returns
// once the engine is up. ctx bounds instance creation and later teardown.
func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg := &engine.Config{}
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Runtime{
		tasks:  make(chan task, 64),
		quit:   make(chan struct{}),
		parked: make(chan struct{}),
	}

	ready := make(chan error, 1)
	go r.run(ctx, cfg, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return r, nil
}

// run is the owner goroutine: everything that touches the Instance happens
// here, in submission order.
func (r *Runtime) run(ctx context.Context, cfg *engine.Config, ready chan<- error) {
	inst, err := NewInstance(ctx, cfg)
	if err != nil {
		ready <- err
		close(r.parked)
		return
	}
	ready <- nil

	defer func() {
		inst.Close(ctx)
		close(r.parked)
	}()

	for {
		select {
		case t := <-r.tasks:
			r.exec(inst, t)
		case <-r.quit:
			// Tasks accepted before Close still run.
			for {
				select {
				case t := <-r.tasks:
					r.exec(inst, t)
				default:
					return
				}
			}
		}
	}
}

func (r *Runtime) exec(inst *Instance, t task) {
	err := t.fn(inst)
	if t.done != nil {
		t.done <- err
	}
}

// Do executes fn on the owner goroutine with exclusive access to the
// Instance and returns its error. References obtained inside fn must not
// escape it; park values in the Cache and pass ids instead.
func (r *Runtime) Do(fn func(*Instance) error) error {
	// The buffered send below stays ready after Close; check quit first so
	// a closed Runtime rejects instead of queueing into a dead channel.
	select {
	case <-r.quit:
		return ErrClosed
	default:
	}

	t := task{fn: fn, done: make(chan error, 1)}
	select {
	case r.tasks <- t:
	case <-r.quit:
		return ErrClosed
	}
	select {
	case err := <-t.done:
		return err
	case <-r.parked:
		// Owner exited before reaching the task.
		select {
		case err := <-t.done:
			return err
		default:
			return ErrClosed
		}
	}
}

// Submit queues fn for asynchronous execution on the owner goroutine. The
// task's error, if any, is discarded; use Do when the caller cares.
func (r *Runtime) Submit(fn func(*Instance) error) error {
	select {
	case <-r.quit:
		return ErrClosed
	default:
	}

	select {
	case r.tasks <- task{fn: fn}:
		return nil
	case <-r.quit:
		return ErrClosed
	}
}

// Eval evaluates code as global script on the owner goroutine and returns
// the stringified result. The result value never leaves the owner.
func (r *Runtime) Eval(ctx context.Context, path, code string) (string, error) {
	return r.eval(ctx, path, code, false)
}

// EvalModule is Eval for module code. Module evaluation yields no meaningful
// completion value; the returned string is empty on success.
func (r *Runtime) EvalModule(ctx context.Context, path, code string) (string, error) {
	return r.eval(ctx, path, code, true)
}

func (r *Runtime) eval(ctx context.Context, path, code string, module bool) (string, error) {
	var out string
	err := r.Do(func(inst *Instance) error {
		evalFn := inst.Eval
		if module {
			evalFn = inst.EvalModule
		}
		ret, err := evalFn(ctx, quickjsruntime.NewScript(path, code))
		if err != nil {
			return err
		}
		defer ret.Free(ctx)

		if und, err := inst.IsUndefined(ctx, ret); err == nil && und {
			return nil
		}
		out, err = inst.ToString(ctx, ret)
		return err
	})
	return out, err
}

// Close stops accepting tasks, lets already-accepted tasks finish, destroys
// the Instance on the owner goroutine and waits for it to exit. Safe to call
// more than once.
func (r *Runtime) Close() {
	r.once.Do(func() { close(r.quit) })
	<-r.parked
}
