//go:build !linux

package main

import (
	"fmt"
	"runtime"

	"memhack/process"
	"memhack/process/memory_map"
)

func getProcess(pid int, maxRegions int, color bool) (process.Tracer, *memory_map.Catalog, error) {
	return nil, nil, fmt.Errorf("tracing is not supported on %s", runtime.GOOS)
}

func findPID(name string) (int, error) {
	return 0, fmt.Errorf("finding processes by name is not supported on %s", runtime.GOOS)
}
