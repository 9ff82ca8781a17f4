// Package process provides the types shared by every part of memhack and
// byte-granular access to the memory of a traced process.
package process

import "errors"

// Types live in:
// - types.go: ProcessID, ProcessState, ProcessInfo
// - memory_types.go: ProcessMemoryAddress, ProcessMemorySize, Word
// - process_interface.go: Tracer, WordAccessor
// - remote_memory.go: RemoteMemory

var (
	// ErrAddressNotMapped is returned when a memory address is not backed by the target.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotFound is returned when the pid does not name a live process.
	ErrProcessNotFound = errors.New("process not found")

	// ErrStopMismatch is returned when waiting after attach does not observe
	// the traced process in a stopped state.
	ErrStopMismatch = errors.New("traced process did not stop")

	// ErrAlreadyTraced is returned when another tracer holds the process.
	ErrAlreadyTraced = errors.New("process is already traced")

	// ErrTracerClosed is returned when a request is issued after Close.
	ErrTracerClosed = errors.New("tracer closed")
)
