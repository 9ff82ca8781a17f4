package scan

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memhack/process"
	"memhack/process/memory_map"
	"memhack/process/processtest"
)

const base = process.ProcessMemoryAddress(0x10000)

func catalogOf(t *testing.T, maps string) *memory_map.Catalog {
	t.Helper()
	catalog, err := memory_map.Parse(strings.NewReader(maps), 8)
	require.NoError(t, err)
	return catalog
}

// newEngine maps [0x10, 0x22, 0x10, 0x05] at base inside a four byte region.
func newEngine(t *testing.T, options ...Option) (*Engine, *processtest.Memory) {
	t.Helper()
	mem := processtest.NewMemory(base, make([]byte, 2*process.WordSize))
	mem.Set(base, 0x10, 0x22, 0x10, 0x05)
	catalog := catalogOf(t, "10000-10004 rw-p 00000000 00:00 0 [heap]\n")
	return New(process.NewRemoteMemory(mem), catalog, options...), mem
}

func addrs(e *Engine) []process.ProcessMemoryAddress {
	return slices.Collect(e.Candidates().All())
}

func TestFirstPassMatchesLowByte(t *testing.T) {
	for _, chunk := range []int{1, 3, DefaultChunkSize} {
		e, _ := newEngine(t, WithChunkSize(chunk))

		// 0x110 has low byte 0x10; only that byte takes part in the first pass.
		res, err := e.Lookup(0x110)
		require.NoError(t, err)

		assert.Equal(t, []process.ProcessMemoryAddress{base, base + 2}, addrs(e), "chunk %d", chunk)
		assert.Equal(t, 2, res.Count)
		assert.False(t, res.More)

		last, ok := e.LastValue()
		assert.True(t, ok)
		assert.Equal(t, int64(0x110), last)
	}
}

func TestNarrowingPass(t *testing.T) {
	e, mem := newEngine(t)

	_, err := e.Lookup(0x10)
	require.NoError(t, err)

	mem.Set(base, 0x11)
	res, err := e.Lookup(0x10)
	require.NoError(t, err)

	assert.Equal(t, []process.ProcessMemoryAddress{base + 2}, addrs(e))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, base+2, res.Rows[0].Address)
	assert.Equal(t, uint8(0x10), res.Rows[0].Byte)
	assert.Equal(t, uint16(0x0510), res.Rows[0].Word)
	assert.Equal(t, uint32(0x0510), res.Rows[0].DWord)
}

func TestNarrowingToNothingRestartsFirstPass(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Lookup(0x10)
	require.NoError(t, err)

	res, err := e.Lookup(0x22)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)

	// Empty set: the next lookup scans the regions again.
	_, err = e.Lookup(0x22)
	require.NoError(t, err)
	assert.Equal(t, []process.ProcessMemoryAddress{base + 1}, addrs(e))
}

func TestReset(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Lookup(0x10)
	require.NoError(t, err)
	e.Reset()

	assert.Equal(t, 0, e.Candidates().Len())
	_, ok := e.LastValue()
	assert.False(t, ok)

	_, err = e.Lookup(0x05)
	require.NoError(t, err)
	assert.Equal(t, []process.ProcessMemoryAddress{base + 3}, addrs(e))
}

func TestDisplayLimit(t *testing.T) {
	mem := processtest.NewMemory(base, make([]byte, 4*process.WordSize))
	catalog := catalogOf(t, "10000-10010 rw-p 00000000 00:00 0\n")
	e := New(process.NewRemoteMemory(mem), catalog, WithDisplayLimit(3))

	res, err := e.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Count)
	assert.Len(t, res.Rows, 3)
	assert.True(t, res.More)

	rows, err := e.List()
	require.NoError(t, err)
	assert.Len(t, rows, 16)

	var out bytes.Buffer
	res.Format(&out)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Find 16 result(s)", lines[0])
	assert.Len(t, lines, 1+1+3+1)
	assert.Equal(t, "...", lines[len(lines)-1])
}

func TestFormatEmpty(t *testing.T) {
	var out bytes.Buffer
	(&Result{}).Format(&out)
	assert.Equal(t, "Find 0 result(s)\n", out.String())
}

func TestScanReadErrorIsReturned(t *testing.T) {
	mem := processtest.NewMemory(base, make([]byte, process.WordSize))
	catalog := catalogOf(t, "10000-20000 rw-p 00000000 00:00 0\n")
	e := New(process.NewRemoteMemory(mem), catalog)

	_, err := e.Lookup(1)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
	_, ok := e.LastValue()
	assert.False(t, ok)
}

func TestLookupMatchAtRegionEnd(t *testing.T) {
	// The mapping ends exactly where the region does.
	data := make([]byte, process.WordSize)
	data[process.WordSize-1] = 0x42
	mem := processtest.NewMemory(base, data)
	catalog := catalogOf(t, "10000-10008 rw-p 00000000 00:00 0\n")
	if process.WordSize != 8 {
		catalog = catalogOf(t, "10000-10004 rw-p 00000000 00:00 0\n")
	}
	e := New(process.NewRemoteMemory(mem), catalog)

	last := mem.End() - 1
	res, err := e.Lookup(0x42)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, last, res.Rows[0].Address)
	assert.Equal(t, uint8(0x42), res.Rows[0].Byte)
	assert.Equal(t, uint64(0x42), res.Rows[0].QWord)

	rows, err := e.List()
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	for _, peek := range mem.Peeks {
		assert.Less(t, uint64(peek), uint64(mem.End()))
	}
}

func TestWithColor(t *testing.T) {
	e, _ := newEngine(t, WithColor(false))
	assert.False(t, e.color)

	e, _ = newEngine(t)
	assert.True(t, e.color)
}
