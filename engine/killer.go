package engine

import "github.com/atharva-malik/chess-engine/board"

// KillerSet is the unordered set of moves that caused a cutoff in the current
// search. One search context owns it; it is not safe for concurrent use.
type KillerSet struct {
	moves map[board.Move]struct{}
}

func NewKillerSet() *KillerSet {
	return &KillerSet{moves: make(map[board.Move]struct{})}
}

func (k *KillerSet) Insert(m board.Move) {
	k.moves[m] = struct{}{}
}

func (k *KillerSet) Contains(m board.Move) bool {
	if k == nil {
		return false
	}
	_, ok := k.moves[m]
	return ok
}

func (k *KillerSet) Len() int {
	if k == nil {
		return 0
	}
	return len(k.moves)
}
