package process

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// AlignDown returns the start of the machine word containing pma.
func (pma ProcessMemoryAddress) AlignDown() ProcessMemoryAddress {
	return pma &^ ProcessMemoryAddress(WordSize-1)
}

// IsAligned reports whether pma is on a machine word boundary.
func (pma ProcessMemoryAddress) IsAligned() bool {
	return pma&ProcessMemoryAddress(WordSize-1) == 0
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// Word is one machine word of the traced process, the unit moved by a single
// peek or poke.
type Word uintptr

// WordSize is the size of a Word in bytes.
const WordSize = int(unsafe.Sizeof(Word(0)))

// Bytes returns w in native byte order.
func (w Word) Bytes() []byte {
	b := make([]byte, WordSize)
	PutWord(b, w)
	return b
}

// PutWord stores w into the first WordSize bytes of b in native byte order.
func PutWord(b []byte, w Word) {
	if WordSize == 8 {
		binary.NativeEndian.PutUint64(b, uint64(w))
		return
	}
	binary.NativeEndian.PutUint32(b, uint32(w))
}

// WordFromBytes decodes the first WordSize bytes of b in native byte order.
func WordFromBytes(b []byte) Word {
	if WordSize == 8 {
		return Word(binary.NativeEndian.Uint64(b))
	}
	return Word(binary.NativeEndian.Uint32(b))
}
