// Package scan finds and narrows the addresses holding a value in a traced
// process.
package scan

import (
	"fmt"
	"io"

	"github.com/Moonlight-Companies/gologger/logger"

	"memhack/candidate"
	"memhack/process"
	"memhack/process/memory_map"
)

const (
	DefaultChunkSize    = 4096
	DefaultDisplayLimit = 10
)

// Reader is the subset of process.RemoteMemory the engine needs.
type Reader interface {
	ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error)
	ReadUINT8(addr process.ProcessMemoryAddress) (uint8, error)
	ReadBoundedWordWithin(addr, end process.ProcessMemoryAddress) (process.Word, error)
}

// Option configures an Engine
type Option func(*Engine)

// WithChunkSize sets how many bytes a first pass fetches per read.
func WithChunkSize(size int) Option {
	return func(e *Engine) {
		if size > 0 {
			e.chunkSize = size
		}
	}
}

// WithColor turns the colour of the log tag on or off.
func WithColor(color bool) Option {
	return func(e *Engine) {
		e.color = color
	}
}

// WithDisplayLimit sets how many rows a Result carries.
func WithDisplayLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.displayLimit = limit
		}
	}
}

// Engine owns the scan state of a session: the candidate set and the last
// value looked up.
type Engine struct {
	mem     Reader
	catalog *memory_map.Catalog
	set     *candidate.Set

	last    int64
	hasLast bool

	chunkSize    int
	displayLimit int
	color        bool

	log *logger.Logger
}

// New creates an engine scanning the regions of catalog through mem.
func New(mem Reader, catalog *memory_map.Catalog, options ...Option) *Engine {
	e := &Engine{
		mem:          mem,
		catalog:      catalog,
		set:          candidate.New(),
		chunkSize:    DefaultChunkSize,
		displayLimit: DefaultDisplayLimit,
		color:        true,
	}

	for _, opt := range options {
		opt(e)
	}
	e.log = logger.NewLogger(process.LogTag("scan", e.color))

	return e
}

// Candidates returns the live candidate set.
func (e *Engine) Candidates() *candidate.Set {
	return e.set
}

// LastValue returns the value of the most recent lookup.
func (e *Engine) LastValue() (int64, bool) {
	return e.last, e.hasLast
}

// Reset drops all candidates so the next lookup starts a first pass.
func (e *Engine) Reset() {
	e.set.Clear()
	e.hasLast = false
}

// Lookup runs a first pass when there are no candidates and a narrowing pass
// otherwise. Both compare only the lowest-order byte of value; wider
// comparison is left to later passes and to width inference.
func (e *Engine) Lookup(value int64) (*Result, error) {
	target := byte(value)

	if e.set.Len() == 0 {
		if err := e.firstPass(target); err != nil {
			return nil, err
		}
	} else {
		if err := e.narrow(target); err != nil {
			return nil, err
		}
	}

	e.last = value
	e.hasLast = true

	return e.result()
}

func (e *Engine) firstPass(target byte) error {
	e.log.Infoln("First pass over", e.catalog.Len(), "regions,", e.catalog.TotalSize(), "bytes, low byte", fmt.Sprintf("0x%02x", target))

	for _, region := range e.catalog.Regions() {
		for cur := region.Start; cur < region.End; {
			n := min(process.ProcessMemorySize(e.chunkSize), process.ProcessMemorySize(region.End-cur))

			data, err := e.mem.ReadMemory(cur, n)
			if err != nil {
				return fmt.Errorf("scan region %s: %w", region, err)
			}

			for i, b := range data {
				if b == target {
					e.set.Add(cur + process.ProcessMemoryAddress(i))
				}
			}
			cur += process.ProcessMemoryAddress(n)
		}
	}

	e.log.Infoln("First pass found", e.set.Len(), "candidates")
	return nil
}

func (e *Engine) narrow(target byte) error {
	before := e.set.Len()

	removed, err := e.set.Filter(func(addr process.ProcessMemoryAddress) (bool, error) {
		b, err := e.mem.ReadUINT8(addr)
		if err != nil {
			return false, err
		}
		return b != target, nil
	})
	if err != nil {
		return fmt.Errorf("narrow candidates: %w", err)
	}

	e.log.Debugln("Narrowed", before, "candidates by", removed)
	return nil
}

func (e *Engine) result() (*Result, error) {
	addrs := e.set.First(e.displayLimit)
	r := &Result{
		Count: e.set.Len(),
		More:  e.set.Len() > len(addrs),
		Rows:  make([]Row, 0, len(addrs)),
	}

	for _, addr := range addrs {
		row, err := ReadRow(e.mem, addr, e.catalog.BoundFor(addr))
		if err != nil {
			return nil, err
		}
		r.Rows = append(r.Rows, row)
	}

	return r, nil
}

// List returns rows for every candidate.
func (e *Engine) List() ([]Row, error) {
	rows := make([]Row, 0, e.set.Len())
	for addr := range e.set.All() {
		row, err := ReadRow(e.mem, addr, e.catalog.BoundFor(addr))
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Row shows the word stored at a candidate under each integer width.
type Row struct {
	Address process.ProcessMemoryAddress
	Byte    uint8
	Word    uint16
	DWord   uint32
	QWord   uint64
}

// ReadRow reads the bounded word at addr without touching end or anything
// past it. Bytes past end read as zero.
func ReadRow(mem Reader, addr, end process.ProcessMemoryAddress) (Row, error) {
	w, err := mem.ReadBoundedWordWithin(addr, end)
	if err != nil {
		return Row{}, fmt.Errorf("read candidate %s: %w", addr.ToString(), err)
	}
	return Row{
		Address: addr,
		Byte:    uint8(w),
		Word:    uint16(w),
		DWord:   uint32(w),
		QWord:   uint64(w),
	}, nil
}

// Result is what a lookup reports.
type Result struct {
	Count int
	Rows  []Row
	More  bool
}

// Format writes the result as a table.
func (r *Result) Format(w io.Writer) {
	fmt.Fprintf(w, "Find %d result(s)\n", r.Count)
	FormatRows(w, r.Rows)
	if r.More {
		fmt.Fprintln(w, "...")
	}
}

// FormatRows writes rows under a header, one candidate per line.
func FormatRows(w io.Writer, rows []Row) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "%-18s %4s %6s %11s %21s\n", "address", "byte", "word", "doubleword", "quadword")
	for _, row := range rows {
		fmt.Fprintf(w, "%-18s %4d %6d %11d %21d\n", row.Address.ToString(), row.Byte, row.Word, row.DWord, row.QWord)
	}
}
