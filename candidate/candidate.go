// Package candidate holds the ordered set of addresses believed to contain a
// searched value.
package candidate

import (
	"iter"

	"memhack/process"
)

// Set is an ordered collection of candidate addresses. Removal happens only
// through Filter, which compacts the backing slice in a single forward pass.
type Set struct {
	addrs []process.ProcessMemoryAddress
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// Clear empties the set, keeping its storage.
func (s *Set) Clear() {
	s.addrs = s.addrs[:0]
}

// Add appends addr.
func (s *Set) Add(addr process.ProcessMemoryAddress) {
	s.addrs = append(s.addrs, addr)
}

// Len returns the number of candidates.
func (s *Set) Len() int {
	return len(s.addrs)
}

// All yields the candidates in order. The sequence can be ranged over again
// to restart it.
func (s *Set) All() iter.Seq[process.ProcessMemoryAddress] {
	return func(yield func(process.ProcessMemoryAddress) bool) {
		for _, addr := range s.addrs {
			if !yield(addr) {
				return
			}
		}
	}
}

// First returns up to n candidates from the front of the set.
func (s *Set) First(n int) []process.ProcessMemoryAddress {
	n = min(n, len(s.addrs))
	out := make([]process.ProcessMemoryAddress, n)
	copy(out, s.addrs)
	return out
}

// Only returns the candidate when exactly one remains.
func (s *Set) Only() (process.ProcessMemoryAddress, bool) {
	if len(s.addrs) != 1 {
		return 0, false
	}
	return s.addrs[0], true
}

// Filter visits every candidate once, in order, and drops those for which
// remove returns true. Survivors keep their relative order. If remove fails,
// the candidates not yet visited are kept and the error is returned along
// with the number removed so far.
func (s *Set) Filter(remove func(process.ProcessMemoryAddress) (bool, error)) (int, error) {
	kept := 0
	for i, addr := range s.addrs {
		drop, err := remove(addr)
		if err != nil {
			n := copy(s.addrs[kept:], s.addrs[i:])
			removed := i - kept
			s.addrs = s.addrs[:kept+n]
			return removed, err
		}
		if drop {
			continue
		}
		s.addrs[kept] = addr
		kept++
	}

	removed := len(s.addrs) - kept
	s.addrs = s.addrs[:kept]
	return removed, nil
}
