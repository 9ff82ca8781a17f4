//go:build linux

package process_linux

import (
	"fmt"
	"syscall"
	"unsafe"

	sys "golang.org/x/sys/unix"

	"memhack/process"
)

// ptraceDetach calls ptrace(PTRACE_DETACH).
func ptraceDetach(pid, sig int) error {
	_, _, err := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_DETACH, uintptr(pid), 1, uintptr(sig), 0, 0)
	if err != syscall.Errno(0) {
		return err
	}
	return nil
}

// ptracePeekWord calls ptrace(PTRACE_PEEKDATA). The raw request stores the
// word through the data argument, so the errno is the only failure signal.
func ptracePeekWord(pid int, addr process.ProcessMemoryAddress) (process.Word, error) {
	var w process.Word
	_, _, errno := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_PEEKDATA, uintptr(pid), uintptr(addr), uintptr(unsafe.Pointer(&w)), 0, 0)
	return peekResult(pid, addr, w, errno)
}

// peekResult turns a peek into a result. A word of all ones is data, not an
// error, as long as errno is clear.
func peekResult(pid int, addr process.ProcessMemoryAddress, w process.Word, errno syscall.Errno) (process.Word, error) {
	if errno != 0 {
		return 0, fmt.Errorf("ptrace(PEEKDATA, %d, %s): %w", pid, addr.ToString(), errno)
	}
	return w, nil
}

// ptracePokeWord calls ptrace(PTRACE_POKEDATA).
func ptracePokeWord(pid int, addr process.ProcessMemoryAddress, w process.Word) error {
	_, _, errno := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_POKEDATA, uintptr(pid), uintptr(addr), uintptr(w), 0, 0)
	if errno != 0 {
		return fmt.Errorf("ptrace(POKEDATA, %d, %s): %w", pid, addr.ToString(), errno)
	}
	return nil
}
