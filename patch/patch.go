// Package patch decides how wide a located variable is and overwrites it.
package patch

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/exp/constraints"

	"memhack/candidate"
	"memhack/process"
	"memhack/process/memory_map"
)

var (
	// ErrNotNarrowed is returned when setup runs without exactly one candidate.
	ErrNotNarrowed = errors.New("candidates not narrowed to a single address")

	// ErrNoLookup is returned when setup runs before any lookup.
	ErrNoLookup = errors.New("no value has been looked up")

	// ErrWidthMismatch is returned when the candidate does not hold the last
	// looked up value at any width.
	ErrWidthMismatch = errors.New("candidate does not hold the looked up value")
)

// Width is the size in bytes of an integer variable.
type Width int

const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
	Width64 Width = 8
)

func (w Width) Bits() int { return int(w) * 8 }

func (w Width) String() string { return fmt.Sprintf("%d-bit", w.Bits()) }

// Truncate keeps the low-order w bytes of v.
func (w Width) Truncate(v uint64) uint64 {
	switch w {
	case Width8:
		return uint64(truncate[uint8](v))
	case Width16:
		return uint64(truncate[uint16](v))
	case Width32:
		return uint64(truncate[uint32](v))
	}
	return v
}

func truncate[T constraints.Unsigned](v uint64) T {
	return T(v)
}

// widths lists the candidate widths, widest first.
var widths = []Width{Width64, Width32, Width16, Width8}

// Memory is the subset of process.RemoteMemory the planner needs.
type Memory interface {
	ReadBoundedWordWithin(addr, end process.ProcessMemoryAddress) (process.Word, error)
	WriteMemory(addr process.ProcessMemoryAddress, data []byte) error
}

// InferWidth compares the word stored at addr with expected, truncated to each
// width from the widest down, and returns the first width at which they
// agree. Widths that would reach end or beyond are not considered and nothing
// at or past end is read. ok is false when not even the low byte agrees.
func InferWidth(mem Memory, addr, end process.ProcessMemoryAddress, expected int64) (w Width, ok bool, err error) {
	w, _, ok, err = inferWidth(mem, addr, end, expected)
	return w, ok, err
}

// inferWidth also returns the word it read.
func inferWidth(mem Memory, addr, end process.ProcessMemoryAddress, expected int64) (Width, process.Word, bool, error) {
	stored, err := mem.ReadBoundedWordWithin(addr, end)
	if err != nil {
		return 0, 0, false, fmt.Errorf("infer width at %s: %w", addr.ToString(), err)
	}

	for _, cand := range widths {
		if int(cand) > process.WordSize || end < addr+process.ProcessMemoryAddress(cand) {
			continue
		}
		if cand.Truncate(uint64(stored)) == cand.Truncate(uint64(expected)) {
			return cand, stored, true, nil
		}
	}
	return 0, stored, false, nil
}

// Encode returns the low-order w bytes of value in native byte order.
func Encode(value int64, w Width) []byte {
	buf := make([]byte, w)
	switch w {
	case Width8:
		buf[0] = byte(value)
	case Width16:
		binary.NativeEndian.PutUint16(buf, uint16(value))
	case Width32:
		binary.NativeEndian.PutUint32(buf, uint32(value))
	case Width64:
		binary.NativeEndian.PutUint64(buf, uint64(value))
	}
	return buf
}

// Write stores exactly w bytes of value at addr.
func Write(mem Memory, addr process.ProcessMemoryAddress, value int64, w Width) error {
	if err := mem.WriteMemory(addr, Encode(value, w)); err != nil {
		return fmt.Errorf("write %s value at %s: %w", w, addr.ToString(), err)
	}
	return nil
}

// Outcome describes a completed write.
type Outcome struct {
	Address process.ProcessMemoryAddress
	Width   Width
	Old     uint64 // previous value, truncated to Width
	New     int64
}

func (o *Outcome) String() string {
	return fmt.Sprintf("%s: %d -> %d (%s)", o.Address.ToString(), o.Old, o.New, o.Width)
}

// Planner writes a new value into the sole remaining candidate.
type Planner struct {
	mem     Memory
	catalog *memory_map.Catalog
	color   bool
	log     *logger.Logger
}

// Option configures a Planner
type Option func(*Planner)

// WithColor turns the colour of the log tag on or off.
func WithColor(color bool) Option {
	return func(p *Planner) {
		p.color = color
	}
}

// NewPlanner returns a planner writing through mem. Reads and writes at a
// candidate stay inside the catalog region holding it.
func NewPlanner(mem Memory, catalog *memory_map.Catalog, options ...Option) *Planner {
	p := &Planner{
		mem:     mem,
		catalog: catalog,
		color:   true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.log = logger.NewLogger(process.LogTag("patch", p.color))
	return p
}

// Setup writes value over the single candidate in set, using last (the most
// recently looked up value) to infer how many bytes to write. Nothing is
// written unless exactly one candidate remains and its width can be inferred.
func (p *Planner) Setup(set *candidate.Set, last int64, hasLast bool, value int64) (*Outcome, error) {
	addr, ok := set.Only()
	if !ok {
		return nil, fmt.Errorf("%w (%d remaining)", ErrNotNarrowed, set.Len())
	}
	if !hasLast {
		return nil, ErrNoLookup
	}

	w, stored, ok, err := inferWidth(p.mem, addr, p.catalog.BoundFor(addr), last)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s, probably the wrong address", ErrWidthMismatch, addr.ToString())
	}

	if err := Write(p.mem, addr, value, w); err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Address: addr,
		Width:   w,
		Old:     w.Truncate(uint64(stored)),
		New:     value,
	}
	p.log.Infoln("Wrote", outcome.String())
	return outcome, nil
}
