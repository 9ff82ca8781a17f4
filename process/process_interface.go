package process

// WordAccessor moves single machine words in and out of a traced process.
// Addresses passed to it are always word aligned.
type WordAccessor interface {
	// PeekWord reads the word at addr
	PeekWord(addr ProcessMemoryAddress) (Word, error)

	// PokeWord writes the word at addr
	PokeWord(addr ProcessMemoryAddress, w Word) error
}

// Tracer is the tracing facility for exactly one process.
type Tracer interface {
	WordAccessor

	// GetPID returns the process ID
	GetPID() ProcessID

	// Attach requests tracing control; the process is sent a stop.
	Attach() error

	// WaitStop blocks until the stop requested by Attach is observed.
	WaitStop() error

	// Detach releases tracing control and lets the process run.
	Detach() error

	// Close releases the tracer's own resources. It does not detach.
	Close() error
}
