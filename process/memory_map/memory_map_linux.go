//go:build linux

package memory_map

import (
	"fmt"
	"os"

	"memhack/process"
)

// Discover catalogs the scannable regions of pid from /proc/[pid]/maps.
func Discover(pid process.ProcessID, capacity int) (catalog *Catalog, err error) {
	path := fmt.Sprintf("/proc/%d/maps", pid)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open memory map: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			catalog, err = nil, fmt.Errorf("close memory map: %w", cerr)
		}
	}()

	catalog, err = Parse(file, capacity)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return catalog, nil
}
