//go:build linux

package process_linux

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memhack/process"
	"memhack/process/memory_map"
)

// startSleeper runs a child that stays alive for the length of the test.
func startSleeper(t *testing.T) process.ProcessID {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill()
		cmd.Wait()
	})
	return process.ProcessID(cmd.Process.Pid)
}

func attachOrSkip(t *testing.T, p *LinuxProcess) {
	t.Helper()
	err := p.Attach()
	if errors.Is(err, syscall.EPERM) {
		p.Close()
		t.Skipf("ptrace not permitted: %v", err)
	}
	require.NoError(t, err)
}

func TestLinuxProcessAttachPeekPokeDetach(t *testing.T) {
	pid := startSleeper(t)

	p, err := NewWithPID(pid, WithColor(false))
	require.NoError(t, err)
	assert.Equal(t, pid, p.GetPID())

	attachOrSkip(t, p)
	require.NoError(t, p.WaitStop())

	info, err := FindProcessByPID(pid)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessTracingStp, info.State)
	assert.NotZero(t, info.TracerPID)

	catalog, err := memory_map.Discover(pid, 4096)
	require.NoError(t, err)
	require.NotZero(t, catalog.Len())
	addr := catalog.Regions()[0].Start

	orig, err := p.PeekWord(addr)
	require.NoError(t, err)

	require.NoError(t, p.PokeWord(addr, ^orig))
	got, err := p.PeekWord(addr)
	require.NoError(t, err)
	assert.Equal(t, ^orig, got)

	require.NoError(t, p.PokeWord(addr, orig))
	got, err = p.PeekWord(addr)
	require.NoError(t, err)
	assert.Equal(t, orig, got)

	data, err := process.NewRemoteMemory(p).ReadMemory(addr+1, process.ProcessMemorySize(process.WordSize-2))
	require.NoError(t, err)
	assert.Equal(t, orig.Bytes()[1:process.WordSize-1], data)

	require.NoError(t, p.Detach())
	assert.Eventually(t, func() bool {
		info, err := FindProcessByPID(pid)
		return err == nil &&
			info.State != process.ProcessTracingStp &&
			info.State != process.ProcessStopped &&
			info.TracerPID == 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.PeekWord(addr)
	assert.ErrorIs(t, err, process.ErrTracerClosed)
	assert.ErrorIs(t, p.PokeWord(addr, orig), process.ErrTracerClosed)
	assert.ErrorIs(t, p.Attach(), process.ErrTracerClosed)
}

func TestLinuxProcessWaitStopSeesExit(t *testing.T) {
	pid := startSleeper(t)

	p, err := NewWithPID(pid, WithColor(false))
	require.NoError(t, err)
	defer p.Close()

	// Without an attach the next state change of the child is its death,
	// which is not a stop.
	require.NoError(t, syscall.Kill(int(pid), syscall.SIGKILL))
	assert.ErrorIs(t, p.WaitStop(), process.ErrStopMismatch)
}

func TestCheckTraceable(t *testing.T) {
	assert.NoError(t, checkTraceable(&process.ProcessInfo{PID: 10}))

	err := checkTraceable(&process.ProcessInfo{PID: 10, TracerPID: 99})
	assert.ErrorIs(t, err, process.ErrAlreadyTraced)
	assert.Contains(t, err.Error(), "99")
}
