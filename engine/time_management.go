package engine

import (
	"time"

	"github.com/atharva-malik/chess-engine/board"
)

// Clock is the state of the game clock for the side to move, in milliseconds.
type Clock struct {
	Remaining int
	Increment int
	MoveTime  int
}

// TimeManager turns a game clock into a budget for one move.
type TimeManager struct {
	// OverheadMs is reserved for protocol and process jitter.
	OverheadMs int
	MinMoveMs  int
	// MaxFraction caps the share of the remaining time one move may use.
	MaxFraction float64
	// Below PanicThreshMs with an increment, spend PanicFraction of it.
	PanicThreshMs int
	PanicFraction float64
}

func DefaultTimeManager() TimeManager {
	return TimeManager{
		OverheadMs:    30,
		MinMoveMs:     5,
		MaxFraction:   0.7,
		PanicThreshMs: 1000,
		PanicFraction: 0.9,
	}
}

// Budget returns how long to think about pos. A fixed move time wins over the
// clock; with neither the result is zero, meaning no limit.
func (tm TimeManager) Budget(pos *board.Position, c Clock) time.Duration {
	if c.MoveTime > 0 {
		return time.Duration(max(c.MoveTime-tm.OverheadMs, tm.MinMoveMs)) * time.Millisecond
	}
	rem, inc := c.Remaining, c.Increment
	if rem <= 0 {
		return 0
	}

	// Estimate moves left from phase
	movesLeft := estimateMovesRemaining(Phase(pos))

	var moveTime int
	if inc > 0 {
		if rem < tm.PanicThreshMs {
			moveTime = int(float64(inc) * tm.PanicFraction)
		} else {
			moveTime = rem/movesLeft + inc
		}
	} else {
		moveTime = rem / 40
	}

	moveTime = max(moveTime, tm.MinMoveMs)
	moveTime = min(moveTime, int(float64(rem)*tm.MaxFraction))
	moveTime = min(moveTime, rem-tm.OverheadMs)
	// re-check after the ceilings
	moveTime = max(moveTime, tm.MinMoveMs)

	return time.Duration(moveTime) * time.Millisecond
}

func estimateMovesRemaining(phase int) int {
	// Linearly interpolate between 20 (bare board) and 45 (full material)
	return phase*25/MaxPhase + 20
}
