package engine

import "sync"

// TransTable memoizes static leaf evaluations by position hash for the length
// of one best-move request. Later stores overwrite earlier ones. The workers of
// a parallel request share one table.
type TransTable struct {
	mu      sync.RWMutex
	entries map[uint64]float64
}

func NewTransTable() *TransTable {
	return &TransTable{entries: make(map[uint64]float64, 1<<14)}
}

func (tt *TransTable) Probe(hash uint64) (score float64, ok bool) {
	tt.mu.RLock()
	score, ok = tt.entries[hash]
	tt.mu.RUnlock()
	return score, ok
}

func (tt *TransTable) Store(hash uint64, score float64) {
	tt.mu.Lock()
	tt.entries[hash] = score
	tt.mu.Unlock()
}

func (tt *TransTable) Len() int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.entries)
}
