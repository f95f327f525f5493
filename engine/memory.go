package engine

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/quickjs-runtime/errors"
)

// readChunk bounds each scan step when searching for a NUL terminator.
const readChunk = 256

// alloc reserves size bytes in guest memory.
func (e *Engine) alloc(ctx context.Context, size uint32) (uint32, error) {
	res, err := e.fnAlloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseValue, errors.KindAllocation, err, "qjs_alloc")
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseValue, size)
	}
	return ptr, nil
}

// free releases guest memory allocated with alloc.
func (e *Engine) free(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	_, _ = e.fnFree.Call(ctx, uint64(ptr))
}

// writeCString copies s into guest memory as a NUL-terminated string. The
// caller frees the returned pointer.
func (e *Engine) writeCString(ctx context.Context, s string) (uint32, error) {
	ptr, err := e.alloc(ctx, uint32(len(s)+1))
	if err != nil {
		return 0, err
	}
	data := make([]byte, len(s)+1)
	copy(data, s)
	if !e.mem.Write(ptr, data) {
		e.free(ctx, ptr)
		return 0, errors.Marshal(errors.PhaseValue, "write string to guest memory")
	}
	return ptr, nil
}

// readCString reads a NUL-terminated string out of guest memory.
func (e *Engine) readCString(ptr uint32) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	var out []byte
	for off := ptr; ; off += readChunk {
		n := uint32(readChunk)
		if rem := e.mem.Size() - off; rem < n {
			n = rem
		}
		if n == 0 {
			return "", errors.Marshal(errors.PhaseValue, "unterminated string in guest memory")
		}
		buf, ok := e.mem.Read(off, n)
		if !ok {
			return "", errors.Marshal(errors.PhaseValue, "read string from guest memory")
		}
		if idx := bytes.IndexByte(buf, 0); idx >= 0 {
			return string(append(out, buf[:idx]...)), nil
		}
		out = append(out, buf...)
	}
}

// writeArgv copies a slice of value boxes into guest memory as a packed
// array of 32-bit pointers. Returns 0 for an empty slice. The caller frees
// the returned pointer.
func (e *Engine) writeArgv(ctx context.Context, argv []Value) (uint32, error) {
	if len(argv) == 0 {
		return 0, nil
	}
	ptr, err := e.alloc(ctx, uint32(len(argv)*4))
	if err != nil {
		return 0, err
	}
	data := make([]byte, len(argv)*4)
	for i, v := range argv {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	if !e.mem.Write(ptr, data) {
		e.free(ctx, ptr)
		return 0, errors.Marshal(errors.PhaseValue, "write argv to guest memory")
	}
	return ptr, nil
}

// readArgv reads a packed array of value boxes out of guest memory; used by
// the host trampolines, which receive borrowed arguments.
func (e *Engine) readArgv(m api.Module, argc, argvPtr uint32) ([]Value, error) {
	if argc == 0 || argvPtr == 0 {
		return nil, nil
	}
	buf, ok := m.Memory().Read(argvPtr, argc*4)
	if !ok {
		return nil, errors.Marshal(errors.PhaseHost, "read argv from guest memory")
	}
	argv := make([]Value, argc)
	for i := range argv {
		argv[i] = Value(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return argv, nil
}
