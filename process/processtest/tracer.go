package processtest

import (
	"memhack/process"
)

// Tracer is a process.Tracer whose memory is a Memory.
type Tracer struct {
	*Memory

	PID      process.ProcessID
	Attached bool
	Closed   bool

	// StopErr, when set, is returned by WaitStop.
	StopErr error
}

// NewTracer returns a detached tracer for pid over mem.
func NewTracer(pid process.ProcessID, mem *Memory) *Tracer {
	return &Tracer{Memory: mem, PID: pid}
}

func (t *Tracer) GetPID() process.ProcessID { return t.PID }

func (t *Tracer) Attach() error {
	t.Attached = true
	return nil
}

func (t *Tracer) WaitStop() error {
	return t.StopErr
}

func (t *Tracer) Detach() error {
	t.Attached = false
	return nil
}

func (t *Tracer) Close() error {
	t.Closed = true
	return nil
}
