package engine

import "github.com/atharva-malik/chess-engine/board"

// Stage is the engine's coarse view of the game. It only ever moves forward:
// Opening, then Middlegame, then Endgame.
type Stage uint8

const (
	Opening Stage = iota
	Middlegame
	Endgame
)

func (s Stage) String() string {
	switch s {
	case Opening:
		return "opening"
	case Middlegame:
		return "middlegame"
	case Endgame:
		return "endgame"
	}
	return "unknown"
}

// =============================================================================
// DEPTH POLICY
// Counts include kings and pawns. The thresholds widen the search as the
// board empties out.
// =============================================================================
const (
	EndgameDepth = 11

	crowdedPieces = 28
	crowdedPawns  = 12
	crowdedDepth  = 3

	openPieces = 22
	openPawns  = 8
	openDepth  = 5
)

// NextStage is the pure transition rule behind DetermineDepth. Once the
// material drops under the last threshold the game is an endgame for good.
func NextStage(current Stage, pieces, pawns int) Stage {
	if current == Endgame {
		return Endgame
	}
	if (pieces > crowdedPieces && pawns > crowdedPawns) || (pieces > openPieces && pawns > openPawns) {
		return current
	}
	return Endgame
}

// DetermineDepth picks a search depth for pos and returns the stage the engine
// should hold afterwards.
func DetermineDepth(pos *board.Position, stage Stage) (int, Stage) {
	if stage == Endgame {
		return EndgameDepth, Endgame
	}
	pieces, pawns := pos.Men(), pos.Count(board.Pawn)
	next := NextStage(stage, pieces, pawns)
	switch {
	case next == Endgame:
		return EndgameDepth, Endgame
	case pieces > crowdedPieces && pawns > crowdedPawns:
		return crowdedDepth, next
	default:
		return openDepth, next
	}
}
