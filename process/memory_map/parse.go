package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"memhack/process"
)

// ParseLine parses one line of a maps file:
//
//	start-end perms offset dev:inode pathname
//
// The pathname is optional and may contain spaces.
func ParseLine(line string) (MemoryMapItem, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return MemoryMapItem{}, false
	}

	// Parse address range (e.g., "00400000-0040b000")
	addrRange := strings.Split(fields[0], "-")
	if len(addrRange) != 2 {
		return MemoryMapItem{}, false
	}

	startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil || endAddr <= startAddr {
		return MemoryMapItem{}, false
	}

	perms := fields[1]
	if len(perms) != 4 {
		return MemoryMapItem{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	return MemoryMapItem{
		Start:    process.ProcessMemoryAddress(startAddr),
		End:      process.ProcessMemoryAddress(endAddr),
		Perms:    perms,
		Offset:   offset,
		Dev:      fields[3],
		Inode:    inode,
		Pathname: strings.Join(fields[5:], " "),
	}, true
}

// Parse reads a maps description and catalogs the scannable regions.
// Malformed lines are skipped. More than capacity scannable regions is an
// error wrapping ErrCatalogFull.
func Parse(r io.Reader, capacity int) (*Catalog, error) {
	var items []MemoryMapItem

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		item, ok := ParseLine(scanner.Text())
		if !ok || !item.IsScannable() {
			continue
		}
		if len(items) >= capacity {
			return nil, fmt.Errorf("%w: capacity is %d", ErrCatalogFull, capacity)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return newCatalog(items, capacity), nil
}
