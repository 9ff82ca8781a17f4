//go:build linux

package process_linux

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"memhack/process"
)

// FindProcessByPID reads /proc/<pid>/status.
func FindProcessByPID(pid process.ProcessID) (*process.ProcessInfo, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid %d: %w", pid, process.ErrProcessNotFound)
	}

	procPath := filepath.Join("/proc", strconv.Itoa(int(pid)))
	file, err := os.Open(filepath.Join(procPath, "status"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pid %d: %w", pid, process.ErrProcessNotFound)
		}
		return nil, fmt.Errorf("failed to read process status: %w", err)
	}
	defer file.Close()

	info, err := parseStatus(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse process status: %w", err)
	}
	info.PID = pid
	return info, nil
}

// parseStatus extracts the fields memhack uses from a status file.
func parseStatus(r io.Reader) (*process.ProcessInfo, error) {
	info := &process.ProcessInfo{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "Name":
			info.Name = value
		case "State":
			if len(value) > 0 {
				info.State = process.ProcessState(value[0:1]) // First character is the state code
			}
		case "Threads":
			if threads, err := strconv.Atoi(value); err == nil {
				info.Threads = threads
			}
		case "TracerPid":
			if tracer, err := strconv.Atoi(value); err == nil {
				info.TracerPID = process.ProcessID(tracer)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return info, nil
}
