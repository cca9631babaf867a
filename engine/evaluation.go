package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/atharva-malik/chess-engine/board"
	"github.com/atharva-malik/chess-engine/nnue"
)

// LeafEvaluator scores a position from white's point of view, one pawn being
// roughly 1.0. The search calls it at the horizon.
type LeafEvaluator interface {
	Evaluate(pos *board.Position) float64
}

// =============================================================================
// PHASE
// =============================================================================
const (
	KnightPhase = 1
	BishopPhase = 1
	RookPhase   = 2
	QueenPhase  = 4
	TotalPhase  = KnightPhase*4 + BishopPhase*4 + RookPhase*4 + QueenPhase*2

	MaxPhase = 256
)

// Phase maps the remaining non-pawn material to [0, MaxPhase]: MaxPhase with
// every piece on the board, 0 with bare kings and pawns.
func Phase(pos *board.Position) int {
	remaining := pos.Count(board.Knight)*KnightPhase +
		pos.Count(board.Bishop)*BishopPhase +
		pos.Count(board.Rook)*RookPhase +
		pos.Count(board.Queen)*QueenPhase
	return clamp((remaining*MaxPhase+TotalPhase/2)/TotalPhase, 0, MaxPhase)
}

// ClassicalEvaluator blends a middlegame and an endgame piece-square pass by
// phase. Concurrent runs the endgame pass on its own goroutine.
type ClassicalEvaluator struct {
	Concurrent bool
	Log        zerolog.Logger

	unknown atomic.Uint64
}

func NewClassicalEvaluator(concurrent bool, log zerolog.Logger) *ClassicalEvaluator {
	return &ClassicalEvaluator{Concurrent: concurrent, Log: log}
}

func (e *ClassicalEvaluator) Evaluate(pos *board.Position) float64 {
	var mid, end int
	if e.Concurrent {
		done := make(chan int, 1)
		go func() { done <- e.endgame(pos) }()
		mid = e.middlegame(pos)
		end = <-done
	} else {
		mid = e.middlegame(pos)
		end = e.endgame(pos)
	}
	phase := Phase(pos)
	return float64(mid*phase+end*(MaxPhase-phase)) / MaxPhase / 100
}

// UnknownPieces counts piece codes the evaluator could not score.
func (e *ClassicalEvaluator) UnknownPieces() uint64 { return e.unknown.Load() }

func (e *ClassicalEvaluator) middlegame(pos *board.Position) int {
	score := 0
	for sq := uint8(0); sq < 64; sq++ {
		pc := pos.PieceAt(sq)
		if pc == board.NoPiece {
			continue
		}
		black := pc.IsBlack()
		var v int
		switch pc.Kind() {
		case board.Pawn:
			v = pstValue(&pawnMG, sq, black)
		case board.Knight:
			v = pstValue(&knightMG, sq, black)
		case board.Bishop:
			v = pstValue(&bishopMG, sq, black)
		case board.Rook:
			v = pstValue(&rookMG, sq, black)
		case board.Queen:
			v = pstValue(&queenMG, sq, black)
		case board.King:
			v = pstValue(&kingMG, sq, black)
		default:
			e.reportUnknown(pos, sq, pc)
			continue
		}
		if black {
			score -= v
		} else {
			score += v
		}
	}
	return score
}

func (e *ClassicalEvaluator) endgame(pos *board.Position) int {
	score := 0
	for sq := uint8(0); sq < 64; sq++ {
		pc := pos.PieceAt(sq)
		if pc == board.NoPiece {
			continue
		}
		black := pc.IsBlack()
		var v int
		switch pc.Kind() {
		case board.Pawn:
			v = pstValue(&pawnEG, sq, black)
		case board.Knight:
			v = knightEG
		case board.Bishop:
			v = bishopEG
		case board.Rook:
			v = rookEG
		case board.Queen:
			v = queenEG
		case board.King:
			v = pstValue(&kingEG, sq, black)
		default:
			e.reportUnknown(pos, sq, pc)
			continue
		}
		if black {
			score -= v
		} else {
			score += v
		}
	}
	return score
}

func (e *ClassicalEvaluator) reportUnknown(pos *board.Position, sq uint8, pc board.Piece) {
	e.unknown.Add(1)
	e.Log.Error().
		Uint8("square", sq).
		Uint8("piece", uint8(pc)).
		Str("fen", pos.FEN()).
		Msg("unknown piece code during evaluation")
}

// =============================================================================
// NEURAL
// =============================================================================

// DefaultNeuralDivisor turns the network's centipawns into pawn units; the
// network runs about twice as large as the classical scale.
const DefaultNeuralDivisor = 200

// NeuralEvaluator asks an external network for a centipawn score. When the
// scorer fails, the position is handed to Fallback.
type NeuralEvaluator struct {
	Scorer   nnue.Scorer
	Divisor  float64
	Timeout  time.Duration
	Fallback LeafEvaluator
	Log      zerolog.Logger
}

func (n *NeuralEvaluator) Evaluate(pos *board.Position) float64 {
	ctx := context.Background()
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}
	cp, err := n.Scorer.ScoreFEN(ctx, pos.FEN())
	if err != nil {
		n.Log.Warn().Err(err).Str("fen", pos.FEN()).Msg("neural evaluation failed, using fallback")
		if n.Fallback != nil {
			return n.Fallback.Evaluate(pos)
		}
		return 0
	}
	divisor := n.Divisor
	if divisor == 0 {
		divisor = DefaultNeuralDivisor
	}
	return float64(cp) / divisor
}
