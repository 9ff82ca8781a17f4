//go:build linux

package process_linux

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/logger"
	sys "golang.org/x/sys/unix"

	"memhack/process"
)

// LinuxProcess implements process.Tracer with ptrace.
//
// ptrace(2) expects every request after PTRACE_ATTACH to come from the thread
// that attached, so all requests run on one goroutine locked to its OS
// thread.
type LinuxProcess struct {
	pid   process.ProcessID
	color bool
	log   *logger.Logger

	ptraceChan     chan func()
	ptraceDoneChan chan struct{}

	mu     sync.Mutex
	closed bool
}

// Option configures a LinuxProcess
type Option func(*LinuxProcess)

// WithColor turns the colour of the log tag on or off.
func WithColor(color bool) Option {
	return func(p *LinuxProcess) {
		p.color = color
	}
}

// NewWithPID creates a tracer for pid. The process is not attached. A process
// that already has a tracer is refused with process.ErrAlreadyTraced.
func NewWithPID(pid process.ProcessID, options ...Option) (*LinuxProcess, error) {
	info, err := FindProcessByPID(pid)
	if err != nil {
		return nil, err
	}
	if err := checkTraceable(info); err != nil {
		return nil, err
	}

	p := &LinuxProcess{
		pid:            pid,
		color:          true,
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan struct{}),
	}
	for _, opt := range options {
		opt(p)
	}
	p.log = logger.NewLogger(process.LogTag(fmt.Sprintf("process-%d", pid), p.color))
	go p.handlePtraceFuncs()

	p.log.Infoln("Process opened:", info.Name, "state", string(info.State))
	return p, nil
}

// checkTraceable refuses a process someone else is already tracing; ptrace
// would fail with EPERM.
func checkTraceable(info *process.ProcessInfo) error {
	if info.TracerPID != 0 {
		return fmt.Errorf("%w: pid %d is traced by pid %d", process.ErrAlreadyTraced, info.PID, info.TracerPID)
	}
	return nil
}

func (p *LinuxProcess) handlePtraceFuncs() {
	runtime.LockOSThread()

	for fn := range p.ptraceChan {
		fn()
		p.ptraceDoneChan <- struct{}{}
	}
}

func (p *LinuxProcess) execPtraceFunc(fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return process.ErrTracerClosed
	}
	p.ptraceChan <- fn
	<-p.ptraceDoneChan
	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	return p.pid
}

func (p *LinuxProcess) Attach() error {
	var err error
	if xerr := p.execPtraceFunc(func() { err = sys.PtraceAttach(int(p.pid)) }); xerr != nil {
		return xerr
	}
	if err != nil {
		return fmt.Errorf("ptrace(ATTACH, %d): %w", p.pid, err)
	}
	p.log.Infoln("Attached")
	return nil
}

func (p *LinuxProcess) WaitStop() error {
	var (
		wpid int
		ws   sys.WaitStatus
		err  error
	)
	if xerr := p.execPtraceFunc(func() { wpid, err = sys.Wait4(int(p.pid), &ws, sys.WALL, nil) }); xerr != nil {
		return xerr
	}
	if err != nil {
		return fmt.Errorf("wait4(%d): %w", p.pid, err)
	}
	if wpid != int(p.pid) || !ws.Stopped() {
		return fmt.Errorf("%w: wait4(%d) returned pid %d status %#x", process.ErrStopMismatch, p.pid, wpid, uint32(ws))
	}
	p.log.Debugln("Stopped by", ws.StopSignal().String())
	return nil
}

func (p *LinuxProcess) Detach() error {
	var err error
	if xerr := p.execPtraceFunc(func() { err = ptraceDetach(int(p.pid), 0) }); xerr != nil {
		return xerr
	}
	if err != nil {
		return fmt.Errorf("ptrace(DETACH, %d): %w", p.pid, err)
	}

	// The process sometimes lands in group-stop shortly after a detach; kick
	// it with SIGCONT if so.
	time.Sleep(50 * time.Millisecond)
	if info, err := FindProcessByPID(p.pid); err == nil && info.State == process.ProcessStopped {
		if err := sys.Kill(int(p.pid), sys.SIGCONT); err != nil {
			p.log.Warn("Failed to continue stopped process: ", err)
		}
	}

	p.log.Infoln("Detached")
	return nil
}

func (p *LinuxProcess) PeekWord(addr process.ProcessMemoryAddress) (process.Word, error) {
	var (
		w   process.Word
		err error
	)
	if xerr := p.execPtraceFunc(func() { w, err = ptracePeekWord(int(p.pid), addr) }); xerr != nil {
		return 0, xerr
	}
	return w, err
}

func (p *LinuxProcess) PokeWord(addr process.ProcessMemoryAddress, w process.Word) error {
	var err error
	if xerr := p.execPtraceFunc(func() { err = ptracePokeWord(int(p.pid), addr, w) }); xerr != nil {
		return xerr
	}
	return err
}

// Close stops the ptrace goroutine. It does not detach.
func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.ptraceChan)

	p.log.Infoln("Process closed")
	return nil
}

var _ process.Tracer = (*LinuxProcess)(nil)
