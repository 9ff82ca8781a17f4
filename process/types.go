package process

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessState represents the state of a process
type ProcessState string

const (
	ProcessRunning    ProcessState = "R" // Running
	ProcessSleeping   ProcessState = "S" // Sleeping in an interruptible wait
	ProcessWaiting    ProcessState = "D" // Waiting in uninterruptible disk sleep
	ProcessZombie     ProcessState = "Z" // Zombie
	ProcessStopped    ProcessState = "T" // Stopped (on a signal)
	ProcessTracingStp ProcessState = "t" // Tracing stop
	ProcessDead       ProcessState = "X" // Dead
)

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID       ProcessID    // Process ID
	Name      string       // Process name from /proc/[pid]/status
	State     ProcessState // Process state (R, S, D, Z, etc.)
	Threads   int          // Number of threads
	TracerPID ProcessID    // Non-zero when the process is already being traced
}
