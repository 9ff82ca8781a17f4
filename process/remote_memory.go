package process

import (
	"fmt"
)

// RemoteMemory provides byte-granular access to a traced process on top of a
// WordAccessor. Only the words covering the requested range are peeked, and
// bytes outside the range are never modified by a write.
type RemoteMemory struct {
	acc WordAccessor
}

// NewRemoteMemory wraps acc.
func NewRemoteMemory(acc WordAccessor) *RemoteMemory {
	return &RemoteMemory{acc: acc}
}

// ReadMemory reads size bytes starting at addr. addr need not be aligned.
func (m *RemoteMemory) ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	out := make([]byte, 0, size)
	end := addr + ProcessMemoryAddress(size)

	for cur := addr; cur < end; {
		base := cur.AlignDown()
		w, err := m.acc.PeekWord(base)
		if err != nil {
			return nil, fmt.Errorf("read %s (%d bytes): %w", addr.ToString(), size, err)
		}

		lo, hi := spliceBounds(base, cur, end)
		out = append(out, w.Bytes()[lo:hi]...)
		cur = base + ProcessMemoryAddress(hi)
	}

	return out, nil
}

// WriteMemory writes data starting at addr. A word only partially covered by
// data is read first and written back with just the covered bytes replaced.
func (m *RemoteMemory) WriteMemory(addr ProcessMemoryAddress, data []byte) error {
	end := addr + ProcessMemoryAddress(len(data))

	for cur := addr; cur < end; {
		base := cur.AlignDown()
		lo, hi := spliceBounds(base, cur, end)
		src := data[cur-addr : cur-addr+ProcessMemoryAddress(hi-lo)]

		var buf []byte
		if lo == 0 && hi == WordSize {
			buf = src
		} else {
			w, err := m.acc.PeekWord(base)
			if err != nil {
				return fmt.Errorf("write %s (%d bytes): %w", addr.ToString(), len(data), err)
			}
			buf = w.Bytes()
			copy(buf[lo:hi], src)
		}

		if err := m.acc.PokeWord(base, WordFromBytes(buf)); err != nil {
			return fmt.Errorf("write %s (%d bytes): %w", addr.ToString(), len(data), err)
		}
		cur = base + ProcessMemoryAddress(hi)
	}

	return nil
}

// ReadUINT8 reads the single byte at addr.
func (m *RemoteMemory) ReadUINT8(addr ProcessMemoryAddress) (uint8, error) {
	base := addr.AlignDown()
	w, err := m.acc.PeekWord(base)
	if err != nil {
		return 0, fmt.Errorf("read byte %s: %w", addr.ToString(), err)
	}
	return w.Bytes()[addr-base], nil
}

// ReadBoundedWord assembles the word stored at [addr, addr+WordSize) one byte
// at a time, from the last byte down to addr. Unlike an aligned word read it
// never needs memory beyond addr+WordSize.
func (m *RemoteMemory) ReadBoundedWord(addr ProcessMemoryAddress) (Word, error) {
	return m.ReadBoundedWordWithin(addr, addr+ProcessMemoryAddress(WordSize))
}

// ReadBoundedWordWithin is ReadBoundedWord for a word that may run past end,
// the first address not known to be mapped. Bytes at or past end are not read
// and come back as zero.
func (m *RemoteMemory) ReadBoundedWordWithin(addr, end ProcessMemoryAddress) (Word, error) {
	n := WordSize
	if end <= addr {
		n = 0
	} else if end-addr < ProcessMemoryAddress(WordSize) {
		n = int(end - addr)
	}

	buf := make([]byte, WordSize)
	for i := n - 1; i >= 0; i-- {
		b, err := m.ReadUINT8(addr + ProcessMemoryAddress(i))
		if err != nil {
			return 0, err
		}
		buf[i] = b
	}
	return WordFromBytes(buf), nil
}

// spliceBounds returns the byte offsets within the word at base that fall
// inside [cur, end).
func spliceBounds(base, cur, end ProcessMemoryAddress) (lo, hi int) {
	lo = int(cur - base)
	hi = WordSize
	if end-base < ProcessMemoryAddress(WordSize) {
		hi = int(end - base)
	}
	return lo, hi
}
