// Package session holds the state of one memhack session and executes the
// commands typed into it.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/Moonlight-Companies/gologger/logger"

	"memhack/config"
	"memhack/hexdump"
	"memhack/patch"
	"memhack/process"
	"memhack/process/memory_map"
	"memhack/scan"
)

// Signal tells the caller whether to keep reading commands.
type Signal int

const (
	Continue Signal = iota
	Terminate
)

var (
	// ErrNotPaused is returned for memory commands while the target runs.
	ErrNotPaused = errors.New("process is running, pause it first")

	// ErrOutsideRegions is returned when peek names an address that is not
	// in any cataloged region.
	ErrOutsideRegions = errors.New("address is not in a scanned region")
)

// IsRecoverable reports whether err leaves the session usable. Anything else
// ends the session.
func IsRecoverable(err error) bool {
	var usage *UsageError
	switch {
	case err == nil:
		return true
	case errors.As(err, &usage):
		return true
	case errors.Is(err, ErrUnknownCommand),
		errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrOutsideRegions),
		errors.Is(err, patch.ErrNotNarrowed),
		errors.Is(err, patch.ErrNoLookup),
		errors.Is(err, patch.ErrWidthMismatch):
		return true
	}
	return false
}

// Session drives one traced process.
type Session struct {
	cfg     *config.Config
	tracer  process.Tracer
	catalog *memory_map.Catalog

	mem     *process.RemoteMemory
	engine  *scan.Engine
	planner *patch.Planner

	out    io.Writer
	paused bool

	log *logger.Logger
}

// New creates a session for tracer, scanning the regions of catalog. The
// target is assumed to be running.
func New(cfg *config.Config, tracer process.Tracer, catalog *memory_map.Catalog, out io.Writer) *Session {
	mem := process.NewRemoteMemory(tracer)
	return &Session{
		cfg:     cfg,
		tracer:  tracer,
		catalog: catalog,
		mem:     mem,
		engine: scan.New(mem, catalog,
			scan.WithChunkSize(cfg.ChunkSize),
			scan.WithDisplayLimit(cfg.DisplayLimit),
			scan.WithColor(cfg.Color)),
		planner: patch.NewPlanner(mem, catalog, patch.WithColor(cfg.Color)),
		out:     out,
		log:     logger.NewLogger(process.LogTag("session", cfg.Color)),
	}
}

// Paused reports whether the target is stopped under our control.
func (s *Session) Paused() bool {
	return s.paused
}

// Engine returns the scan engine.
func (s *Session) Engine() *scan.Engine {
	return s.engine
}

// Execute runs cmd. Errors for which IsRecoverable is false are fatal.
func (s *Session) Execute(cmd Command) (Signal, error) {
	switch cmd.Kind {
	case KindNone:
		return Continue, nil
	case KindExit:
		s.log.Infoln("Exit requested, paused:", s.paused)
		return Terminate, nil
	case KindHelp:
		return Continue, PrintHelp(s.out, cmd.Topic)
	case KindPause:
		return Continue, s.pause()
	case KindResume:
		return Continue, s.resume()
	case KindRegions:
		s.regions()
		return Continue, nil
	case KindReset:
		s.engine.Reset()
		fmt.Fprintln(s.out, "Candidates cleared")
		return Continue, nil
	}

	if !s.paused {
		return Continue, ErrNotPaused
	}

	switch cmd.Kind {
	case KindLookup:
		return Continue, s.lookup(cmd.Value)
	case KindSetup:
		return Continue, s.setup(cmd.Value)
	case KindList:
		return Continue, s.list()
	case KindPeek:
		return Continue, s.peek(cmd.Address, cmd.Length)
	}

	return Continue, fmt.Errorf("unhandled command kind %d", cmd.Kind)
}

func (s *Session) pause() error {
	if s.paused {
		fmt.Fprintln(s.out, "Process already paused")
		return nil
	}

	if err := s.tracer.Attach(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	if err := s.tracer.WaitStop(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	s.paused = true
	fmt.Fprintf(s.out, "Process %d paused\n", s.tracer.GetPID())
	return nil
}

func (s *Session) resume() error {
	if !s.paused {
		return ErrNotPaused
	}

	if err := s.tracer.Detach(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	s.paused = false
	fmt.Fprintf(s.out, "Process %d resumed\n", s.tracer.GetPID())
	return nil
}

func (s *Session) lookup(value int64) error {
	res, err := s.engine.Lookup(value)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	res.Format(s.out)
	return nil
}

func (s *Session) setup(value int64) error {
	last, hasLast := s.engine.LastValue()
	outcome, err := s.planner.Setup(s.engine.Candidates(), last, hasLast, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %d as %s at %s (was %d)\n", outcome.New, outcome.Width, outcome.Address.ToString(), outcome.Old)
	return nil
}

func (s *Session) list() error {
	rows, err := s.engine.List()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	fmt.Fprintf(s.out, "%d candidate(s)\n", len(rows))
	scan.FormatRows(s.out, rows)
	return nil
}

func (s *Session) regions() {
	fmt.Fprintf(s.out, "%d region(s), %d bytes\n", s.catalog.Len(), s.catalog.TotalSize())
	for _, region := range s.catalog.Regions() {
		fmt.Fprintln(s.out, region.String())
	}
}

func (s *Session) peek(addr process.ProcessMemoryAddress, length int) error {
	region := s.catalog.Find(addr)
	if region == nil {
		return fmt.Errorf("%w: %s", ErrOutsideRegions, addr.ToString())
	}
	if length <= 0 {
		length = s.cfg.PeekSize
	}
	size := min(process.ProcessMemorySize(length), process.ProcessMemorySize(region.End-addr))

	data, err := s.mem.ReadMemory(addr, size)
	if err != nil {
		return fmt.Errorf("peek: %w", err)
	}

	candidates := make(map[uint64]struct{})
	for a := range s.engine.Candidates().All() {
		if a >= addr && a < addr+process.ProcessMemoryAddress(size) {
			candidates[uint64(a)] = struct{}{}
		}
	}

	opts := hexdump.DefaultOptions()
	opts.StartOffset = uint64(addr)
	opts.Color = s.cfg.Color
	opts.Highlight = func(a uint64) bool {
		_, ok := candidates[a]
		return ok
	}
	hexdump.DumpToWriter(s.out, data, opts)
	return nil
}
