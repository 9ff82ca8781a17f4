// Package processtest provides in-memory stand-ins for a traced process.
package processtest

import (
	"fmt"

	"memhack/process"
)

// Memory is a WordAccessor over a byte slice mapped at Base. Every peek and
// poke is recorded.
type Memory struct {
	Base  process.ProcessMemoryAddress
	Bytes []byte

	Peeks []process.ProcessMemoryAddress
	Pokes []process.ProcessMemoryAddress
}

// NewMemory maps a copy of data at base. base must be word aligned and the
// mapping is padded with zeros to a whole number of words.
func NewMemory(base process.ProcessMemoryAddress, data []byte) *Memory {
	if !base.IsAligned() {
		panic(fmt.Sprintf("processtest: unaligned base %s", base.ToString()))
	}
	n := (len(data) + process.WordSize - 1) / process.WordSize * process.WordSize
	buf := make([]byte, n)
	copy(buf, data)
	return &Memory{Base: base, Bytes: buf}
}

// End returns the first address past the mapping.
func (m *Memory) End() process.ProcessMemoryAddress {
	return m.Base + process.ProcessMemoryAddress(len(m.Bytes))
}

// Set overwrites memory at addr without recording an access.
func (m *Memory) Set(addr process.ProcessMemoryAddress, data ...byte) {
	copy(m.Bytes[addr-m.Base:], data)
}

// Get returns n bytes at addr without recording an access.
func (m *Memory) Get(addr process.ProcessMemoryAddress, n int) []byte {
	off := addr - m.Base
	return append([]byte(nil), m.Bytes[off:off+process.ProcessMemoryAddress(n)]...)
}

// ResetLog forgets recorded accesses.
func (m *Memory) ResetLog() {
	m.Peeks = nil
	m.Pokes = nil
}

func (m *Memory) check(addr process.ProcessMemoryAddress) error {
	if !addr.IsAligned() {
		return fmt.Errorf("unaligned word access at %s", addr.ToString())
	}
	if addr < m.Base || addr+process.ProcessMemoryAddress(process.WordSize) > m.End() {
		return fmt.Errorf("%s: %w", addr.ToString(), process.ErrAddressNotMapped)
	}
	return nil
}

func (m *Memory) PeekWord(addr process.ProcessMemoryAddress) (process.Word, error) {
	m.Peeks = append(m.Peeks, addr)
	if err := m.check(addr); err != nil {
		return 0, err
	}
	return process.WordFromBytes(m.Bytes[addr-m.Base:]), nil
}

func (m *Memory) PokeWord(addr process.ProcessMemoryAddress, w process.Word) error {
	m.Pokes = append(m.Pokes, addr)
	if err := m.check(addr); err != nil {
		return err
	}
	process.PutWord(m.Bytes[addr-m.Base:], w)
	return nil
}
