package main

import (
	"memhack/process"
	"memhack/process/memory_map"
	"memhack/process_linux"
)

func getProcess(pid int, maxRegions int, color bool) (process.Tracer, *memory_map.Catalog, error) {
	proc, err := process_linux.NewWithPID(process.ProcessID(pid), process_linux.WithColor(color))
	if err != nil {
		return nil, nil, err
	}

	catalog, err := memory_map.Discover(process.ProcessID(pid), maxRegions)
	if err != nil {
		proc.Close()
		return nil, nil, err
	}
	return proc, catalog, nil
}

func findPID(name string) (int, error) {
	pid, err := process_linux.OneByName(name)
	return int(pid), err
}
