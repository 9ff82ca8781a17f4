package candidate

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memhack/process"
)

func fill(s *Set, addrs ...process.ProcessMemoryAddress) {
	for _, a := range addrs {
		s.Add(a)
	}
}

func TestSetBasics(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Only()
	assert.False(t, ok)

	fill(s, 0x10, 0x20, 0x30)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []process.ProcessMemoryAddress{0x10, 0x20, 0x30}, slices.Collect(s.All()))
	assert.Equal(t, []process.ProcessMemoryAddress{0x10, 0x20}, s.First(2))
	assert.Equal(t, []process.ProcessMemoryAddress{0x10, 0x20, 0x30}, s.First(10))

	// Restartable.
	assert.Equal(t, slices.Collect(s.All()), slices.Collect(s.All()))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, slices.Collect(s.All()))

	s.Add(0x40)
	addr, ok := s.Only()
	assert.True(t, ok)
	assert.Equal(t, process.ProcessMemoryAddress(0x40), addr)
}

func TestAllStopsEarly(t *testing.T) {
	s := New()
	fill(s, 1, 2, 3, 4)

	var seen []process.ProcessMemoryAddress
	for addr := range s.All() {
		seen = append(seen, addr)
		if addr == 2 {
			break
		}
	}
	assert.Equal(t, []process.ProcessMemoryAddress{1, 2}, seen)
}

func TestFilterVisitsEachOnceInOrder(t *testing.T) {
	s := New()
	fill(s, 1, 2, 3, 4, 5, 6)

	var visited []process.ProcessMemoryAddress
	removed, err := s.Filter(func(addr process.ProcessMemoryAddress) (bool, error) {
		visited = append(visited, addr)
		// remove consecutive runs, the head and the tail
		return addr == 1 || addr == 3 || addr == 4 || addr == 6, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Equal(t, []process.ProcessMemoryAddress{1, 2, 3, 4, 5, 6}, visited)
	assert.Equal(t, []process.ProcessMemoryAddress{2, 5}, slices.Collect(s.All()))
}

func TestFilterRemoveAll(t *testing.T) {
	s := New()
	fill(s, 1, 2, 3)

	removed, err := s.Filter(func(process.ProcessMemoryAddress) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 0, s.Len())
}

func TestFilterError(t *testing.T) {
	s := New()
	fill(s, 1, 2, 3, 4, 5)

	boom := errors.New("boom")
	removed, err := s.Filter(func(addr process.ProcessMemoryAddress) (bool, error) {
		if addr == 4 {
			return false, boom
		}
		return addr == 2, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []process.ProcessMemoryAddress{1, 3, 4, 5}, slices.Collect(s.All()))
}

func TestFilterRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for round := 0; round < 200; round++ {
		s := New()
		n := rng.Intn(64)
		var want []process.ProcessMemoryAddress
		drop := map[process.ProcessMemoryAddress]bool{}

		for i := 0; i < n; i++ {
			addr := process.ProcessMemoryAddress(i * 3)
			s.Add(addr)
			if rng.Intn(2) == 0 {
				drop[addr] = true
			} else {
				want = append(want, addr)
			}
		}

		visits := map[process.ProcessMemoryAddress]int{}
		removed, err := s.Filter(func(addr process.ProcessMemoryAddress) (bool, error) {
			visits[addr]++
			return drop[addr], nil
		})
		require.NoError(t, err)

		assert.Equal(t, len(drop), removed)
		assert.Equal(t, n-len(drop), s.Len())
		assert.Equal(t, want, append([]process.ProcessMemoryAddress(nil), slices.Collect(s.All())...))
		for addr, count := range visits {
			assert.Equal(t, 1, count, "address %d visited %d times", addr, count)
		}
		assert.Len(t, visits, n)
	}
}
