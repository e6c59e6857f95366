package util

import "sync"

// IntAllocator hands out integers from a fixed inclusive range, reusing
// freed values. A scan cursor makes allocation cheap until the range
// wraps. Safe for concurrent use.
type IntAllocator struct {
	mu   sync.Mutex
	min  int
	max  int
	next int
	used map[int]bool
}

// NewIntAllocator returns an allocator over [min, max].
func NewIntAllocator(min, max int) *IntAllocator {
	return &IntAllocator{
		min:  min,
		max:  max,
		next: min,
		used: make(map[int]bool),
	}
}

// Allocate returns the next free value, or false when the range is
// exhausted.
func (a *IntAllocator) Allocate() (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := a.max - a.min + 1
	if len(a.used) == size {
		return 0, false
	}
	for i := 0; i < size; i++ {
		candidate := a.next
		a.next++
		if a.next > a.max {
			a.next = a.min
		}
		if !a.used[candidate] {
			a.used[candidate] = true
			return candidate, true
		}
	}
	return 0, false
}

// Free returns a value to the pool, reporting whether it was in use.
func (a *IntAllocator) Free(i int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < a.min || i > a.max || !a.used[i] {
		return false
	}
	delete(a.used, i)
	return true
}

// Reserve marks a specific value as in use, reporting whether it was free.
func (a *IntAllocator) Reserve(i int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if i < a.min || i > a.max || a.used[i] {
		return false
	}
	a.used[i] = true
	return true
}

// Available reports how many values remain free.
func (a *IntAllocator) Available() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.max - a.min + 1 - len(a.used)
}
