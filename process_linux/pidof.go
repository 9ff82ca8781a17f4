//go:build linux

package process_linux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"memhack/process"
)

// ListByName returns the pids whose comm or exe basename equals name, lowest
// first. The calling process is never listed.
func ListByName(name string) ([]process.ProcessID, error) {
	if name == "" {
		return nil, errors.New("empty process name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	self := os.Getpid()
	var out []process.ProcessID

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 || pid == self {
			continue
		}

		comm, _ := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if string(bytes.TrimRight(comm, "\n")) == name {
			out = append(out, process.ProcessID(pid))
			continue
		}

		// comm is truncated to 15 bytes, so also try the executable
		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))
		if exe != "" && filepath.Base(exe) == name {
			out = append(out, process.ProcessID(pid))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// OneByName returns the pid of the only process called name. It fails when
// nothing or more than one process matches.
func OneByName(name string) (process.ProcessID, error) {
	pids, err := ListByName(name)
	if err != nil {
		return 0, err
	}

	switch len(pids) {
	case 0:
		return 0, fmt.Errorf("%q: %w", name, process.ErrProcessNotFound)
	case 1:
		return pids[0], nil
	}
	return 0, fmt.Errorf("%q matches %d processes %v, give a pid", name, len(pids), pids)
}
