package terminal

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memhack/config"
	"memhack/process"
	"memhack/process/memory_map"
	"memhack/process/processtest"
	"memhack/session"
)

const base = process.ProcessMemoryAddress(0x10000)

func newSession(t *testing.T, out *bytes.Buffer) (*session.Session, *processtest.Tracer) {
	t.Helper()
	mem := processtest.NewMemory(base, make([]byte, 2*process.WordSize))
	mem.Set(base, 0x10, 0x22, 0x10, 0x05)

	catalog, err := memory_map.Parse(strings.NewReader("10000-10004 rw-p 00000000 00:00 0 [heap]\n"), 8)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Color = false

	tracer := processtest.NewTracer(7, mem)
	return session.New(cfg, tracer, catalog, out), tracer
}

func TestRunStopsAtExit(t *testing.T) {
	var out bytes.Buffer
	sess, tracer := newSession(t, &out)

	input := "pause\nlookup 16\nbogus\nsetup 1\nexit\nresume\n"
	require.NoError(t, NewPiped(sess, strings.NewReader(input), &out).Run())

	s := out.String()
	assert.Contains(t, s, "Find 2 result(s)")
	assert.Contains(t, s, `Command failed: unknown command: "bogus"`)
	assert.Contains(t, s, "Command failed: candidates not narrowed")
	assert.True(t, tracer.Attached, "resume after exit must not run")
}

func TestRunEndsAtEOF(t *testing.T) {
	var out bytes.Buffer
	sess, _ := newSession(t, &out)

	require.NoError(t, NewPiped(sess, strings.NewReader("regions\n\n"), &out).Run())
	assert.True(t, strings.HasSuffix(out.String(), "exit\n"))
}

func TestRunReturnsFatalErrors(t *testing.T) {
	var out bytes.Buffer
	sess, tracer := newSession(t, &out)
	tracer.StopErr = process.ErrStopMismatch

	err := NewPiped(sess, strings.NewReader("pause\nregions\n"), &out).Run()
	assert.ErrorIs(t, err, process.ErrStopMismatch)
	assert.NotContains(t, out.String(), "region(s)")
}

func TestComplete(t *testing.T) {
	var out bytes.Buffer
	sess, _ := newSession(t, &out)
	term := NewPiped(sess, strings.NewReader(""), &out)

	got := term.Complete("re")
	sort.Strings(got)
	assert.Equal(t, []string{"regions", "reset", "resume"}, got)

	assert.Equal(t, []string{"setup"}, term.Complete("SET"))
	assert.Empty(t, term.Complete("lookup 1"))
	assert.Empty(t, term.Complete("zz"))
}
