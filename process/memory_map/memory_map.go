package memory_map

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"memhack/process"
)

// ErrCatalogFull is returned when a process has more scannable regions than
// the catalog capacity allows.
var ErrCatalogFull = errors.New("too many memory regions")

// MemoryMapItem represents a memory region in a process's address space,
// the half-open range [Start, End).
type MemoryMapItem struct {
	Start    process.ProcessMemoryAddress
	End      process.ProcessMemoryAddress
	Perms    string // Permissions (e.g., "rw-p" for read, write, private)
	Offset   uint64
	Dev      string
	Inode    uint64
	Pathname string // empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("%x-%x %s %s", uint64(mmItem.Start), uint64(mmItem.End), mmItem.Perms, mmItem.Pathname)
}

// Size returns the length of the region in bytes.
func (mmItem MemoryMapItem) Size() process.ProcessMemorySize {
	return process.ProcessMemorySize(mmItem.End - mmItem.Start)
}

// Contains reports whether addr lies inside the region.
func (mmItem MemoryMapItem) Contains(addr process.ProcessMemoryAddress) bool {
	return addr >= mmItem.Start && addr < mmItem.End
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return IsReadablePerms(mmItem.Perms)
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return IsWritablePerms(mmItem.Perms)
}

// IsSharedLibrary reports whether the region is backed by a shared object,
// judged by a ".so" or ".so.N" suffix on the file name.
func (mmItem MemoryMapItem) IsSharedLibrary() bool {
	if mmItem.Pathname == "" || strings.HasPrefix(mmItem.Pathname, "[") {
		return false
	}
	name := filepath.Base(strings.TrimSuffix(mmItem.Pathname, " (deleted)"))
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.")
}

// IsScannable reports whether the region is a candidate for value scans:
// readable, writable and not part of a shared library.
func (mmItem MemoryMapItem) IsScannable() bool {
	return mmItem.IsReadable() && mmItem.IsWritable() && !mmItem.IsSharedLibrary()
}

func IsReadablePerms(perms string) bool {
	return len(perms) > 0 && perms[0] == 'r'
}

func IsWritablePerms(perms string) bool {
	return len(perms) > 1 && perms[1] == 'w'
}

// Catalog is the fixed set of regions scanned during a session, sorted by
// start address.
type Catalog struct {
	items    []MemoryMapItem
	capacity int
}

func newCatalog(items []MemoryMapItem, capacity int) *Catalog {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Start < items[j].Start
	})
	return &Catalog{items: items, capacity: capacity}
}

// Regions returns a copy of the cataloged regions.
func (c *Catalog) Regions() []MemoryMapItem {
	result := make([]MemoryMapItem, len(c.items))
	copy(result, c.items)
	return result
}

func (c *Catalog) Len() int { return len(c.items) }

func (c *Catalog) Capacity() int { return c.capacity }

// TotalSize returns the number of bytes a first pass has to visit.
func (c *Catalog) TotalSize() uint64 {
	var total uint64
	for _, item := range c.items {
		total += uint64(item.Size())
	}
	return total
}

// Find returns the region containing addr, or nil.
func (c *Catalog) Find(addr process.ProcessMemoryAddress) *MemoryMapItem {
	i := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].End > addr
	})
	if i < len(c.items) && c.items[i].Start <= addr {
		return &c.items[i]
	}
	return nil
}

// BoundFor returns the end of the region containing addr, the first address a
// read starting at addr may not touch. Outside every region, and for a nil
// catalog, it allows one word.
func (c *Catalog) BoundFor(addr process.ProcessMemoryAddress) process.ProcessMemoryAddress {
	if c != nil {
		if item := c.Find(addr); item != nil {
			return item.End
		}
	}
	return addr + process.ProcessMemoryAddress(process.WordSize)
}
