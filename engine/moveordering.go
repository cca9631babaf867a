package engine

import (
	"sort"

	"github.com/atharva-malik/chess-engine/board"
)

// ScoredMove pairs a move with its ordering or search score.
type ScoredMove struct {
	Move  board.Move
	Score int
}

// Piece values for MVV-LVA, indexed by board.Kind. An empty target square
// (en passant) is worth nothing.
var orderingValues = [7]int{0, 1, 3, 3, 5, 9, 10}

/*
	Move ordering offsets!
	- Castling gets a small push for king safety. A castle is never a capture.
	- Captures sit high, sorted by victim minus attacker.
	- Checks and promotions are added on top of whatever else the move is.
	- Once the search has found killers, they jump above everything else and
	  the capture base moves up with them.
*/
const (
	castleBonus       = 100
	captureBase       = 950
	killerCaptureBase = 1000
	checkBonus        = 300
	promotionBonus    = 500
	killerBonus       = 1000
)

// ScoreMove gives the ordering score of one move.
func ScoreMove(pos *board.Position, m board.Move, killers *KillerSet) int {
	useKillers := killers.Len() > 0
	score := 0
	if pos.IsCastle(m) {
		score += castleBonus
	} else if pos.IsCapture(m) {
		victim := orderingValues[pos.PieceAt(m.To()).Kind()]
		attacker := orderingValues[pos.PieceAt(m.From()).Kind()]
		base := captureBase
		if useKillers {
			base = killerCaptureBase
		}
		score += base + (victim-attacker)*100
	}
	if IsCheck(pos, m) {
		score += checkBonus
	}
	if pos.IsPromotion(m) {
		score += promotionBonus
	}
	if useKillers && killers.Contains(m) {
		score += killerBonus
	}
	return score
}

// ScoreMoves scores moves and sorts them, best first. Ties keep their order.
func ScoreMoves(pos *board.Position, moves []board.Move, killers *KillerSet) []ScoredMove {
	scored := make([]ScoredMove, len(moves))
	for i, m := range moves {
		scored[i] = ScoredMove{Move: m, Score: ScoreMove(pos, m, killers)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// OrderMoves sorts moves in place, best first.
func OrderMoves(pos *board.Position, moves []board.Move, killers *KillerSet) {
	for i, sm := range ScoreMoves(pos, moves, killers) {
		moves[i] = sm.Move
	}
}

// IsCheck plays m, asks whether the opponent is now in check and takes the move
// back again on every path out.
func IsCheck(pos *board.Position, m board.Move) bool {
	undo := pos.Apply(m)
	defer undo()
	return pos.InCheck()
}
