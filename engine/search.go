package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/atharva-malik/chess-engine/board"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	// MateScore is scaled by the remaining depth, so faster mates score higher.
	MateScore = 9999.0
	DrawScore = 0.0
	Infinity  = 1e9
)

// CheckInterval is how many nodes pass between two looks at the deadline.
const CheckInterval = 1024

var (
	// ErrSearchTimeout reports that the search context expired or was
	// cancelled before the search finished.
	ErrSearchTimeout = errors.New("engine: search timed out")
	ErrNoLegalMoves  = errors.New("engine: no legal moves at a non-terminal node")
)

// SearchConfig wires a Searcher. A nil TT disables the leaf memo; nil
// Killers gets a fresh set.
type SearchConfig struct {
	Evaluator  LeafEvaluator
	TT         *TransTable
	Killers    *KillerSet
	Quiescence bool
}

// Searcher is the context of one search: the position it walks, the caches it
// fills and the deadline it honours. It is not safe for concurrent use; the
// parallel dispatcher gives every worker its own.
type Searcher struct {
	ctx        context.Context
	pos        *board.Position
	eval       LeafEvaluator
	tt         *TransTable
	killers    *KillerSet
	quiescence bool
	stats      SearchStats
}

func NewSearcher(ctx context.Context, pos *board.Position, cfg SearchConfig) *Searcher {
	killers := cfg.Killers
	if killers == nil {
		killers = NewKillerSet()
	}
	return &Searcher{
		ctx:        ctx,
		pos:        pos,
		eval:       cfg.Evaluator,
		tt:         cfg.TT,
		killers:    killers,
		quiescence: cfg.Quiescence,
	}
}

func (s *Searcher) Stats() SearchStats { return s.stats }

/*
	Negamax with alpha-beta; scores are from the side to move's point of view.
	A mated side scores -MateScore*(depth+1), so the root prefers the quickest
	mate it can find and the slowest loss it cannot avoid.
*/
func (s *Searcher) Negamax(depth int, alpha, beta float64) (float64, error) {
	if err := s.tick(); err != nil {
		return 0, err
	}
	moves := s.pos.LegalMoves()
	switch s.pos.Outcome(moves) {
	case board.Checkmate:
		return -mateValue(depth), nil
	case board.Ongoing:
	default:
		return DrawScore, nil
	}
	if depth <= 0 {
		return s.leaf(alpha, beta)
	}
	if len(moves) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoLegalMoves, s.pos.FEN())
	}

	OrderMoves(s.pos, moves, s.killers)
	best := -Infinity
	for _, m := range moves {
		undo := s.pos.Apply(m)
		score, err := s.Negamax(depth-1, -beta, -alpha)
		undo()
		if err != nil {
			return 0, err
		}
		score = -score
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if beta <= alpha {
			s.killers.Insert(m)
			s.stats.BetaCutoffs++
			break
		}
	}
	return best, nil
}

// Minimax is the two-sided form: scores are always from white's point of
// view and maximizing says whose turn the caller thinks it is.
func (s *Searcher) Minimax(depth int, alpha, beta float64, maximizing bool) (float64, error) {
	if err := s.tick(); err != nil {
		return 0, err
	}
	moves := s.pos.LegalMoves()
	switch s.pos.Outcome(moves) {
	case board.Checkmate:
		if s.pos.WhiteToMove() {
			return -mateValue(depth), nil
		}
		return mateValue(depth), nil
	case board.Ongoing:
	default:
		return DrawScore, nil
	}
	if depth <= 0 {
		if !s.quiescence {
			return s.evaluate(), nil
		}
		if s.pos.WhiteToMove() {
			return s.quiesce(alpha, beta)
		}
		score, err := s.quiesce(-beta, -alpha)
		return -score, err
	}
	if len(moves) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoLegalMoves, s.pos.FEN())
	}

	OrderMoves(s.pos, moves, s.killers)
	if maximizing {
		best := -Infinity
		for _, m := range moves {
			undo := s.pos.Apply(m)
			score, err := s.Minimax(depth-1, alpha, beta, false)
			undo()
			if err != nil {
				return 0, err
			}
			best = math.Max(best, score)
			alpha = math.Max(alpha, score)
			if beta <= alpha {
				s.killers.Insert(m)
				s.stats.BetaCutoffs++
				break
			}
		}
		return best, nil
	}

	best := Infinity
	for _, m := range moves {
		undo := s.pos.Apply(m)
		score, err := s.Minimax(depth-1, alpha, beta, true)
		undo()
		if err != nil {
			return 0, err
		}
		best = math.Min(best, score)
		beta = math.Min(beta, score)
		if beta <= alpha {
			s.killers.Insert(m)
			s.stats.BetaCutoffs++
			break
		}
	}
	return best, nil
}

func (s *Searcher) leaf(alpha, beta float64) (float64, error) {
	if s.quiescence {
		return s.quiesce(alpha, beta)
	}
	return s.sign() * s.evaluate(), nil
}

/*
	Quiescence: only captures are searched past the horizon. The static score
	is a lower bound (stand pat) since the side to move may decline to take.
*/
func (s *Searcher) quiesce(alpha, beta float64) (float64, error) {
	if err := s.tick(); err != nil {
		return 0, err
	}
	s.stats.QNodes++

	standPat := s.sign() * s.evaluate()
	if standPat >= beta {
		s.stats.QStandPatCutoffs++
		return standPat, nil
	}
	if standPat > alpha {
		alpha = standPat
	}

	captures := s.pos.Captures()
	OrderMoves(s.pos, captures, s.killers)
	for _, m := range captures {
		undo := s.pos.Apply(m)
		score, err := s.quiesce(-beta, -alpha)
		undo()
		if err != nil {
			return 0, err
		}
		score = -score
		if score >= beta {
			s.stats.QBetaCutoffs++
			return score, nil
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha, nil
}

// evaluate returns the white-relative static score, through the memo when one
// is configured.
func (s *Searcher) evaluate() float64 {
	if s.tt == nil {
		return s.eval.Evaluate(s.pos)
	}
	hash := s.pos.Hash()
	if score, ok := s.tt.Probe(hash); ok {
		s.stats.TTHits++
		return score
	}
	score := s.eval.Evaluate(s.pos)
	s.tt.Store(hash, score)
	s.stats.TTStores++
	return score
}

func (s *Searcher) sign() float64 {
	if s.pos.WhiteToMove() {
		return 1
	}
	return -1
}

// tick counts a node and looks at the deadline on the first node and then
// every CheckInterval nodes.
func (s *Searcher) tick() error {
	s.stats.Nodes++
	if s.stats.Nodes != 1 && s.stats.Nodes%CheckInterval != 0 {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSearchTimeout, err)
	}
	return nil
}

func mateValue(depth int) float64 {
	return MateScore * float64(depth+1)
}

// IsMateScore reports whether score can only come from a forced mate.
func IsMateScore(score float64) bool {
	return absNum(score) >= MateScore
}

// MateIn converts a mate score found by a search of the given depth into
// moves until mate for the side to move; negative when it is getting mated.
func MateIn(score float64, depth int) (int, bool) {
	if !IsMateScore(score) {
		return 0, false
	}
	remaining := int(math.Round(absNum(score)/MateScore)) - 1
	plies := depth - remaining
	moves := (plies + 1) / 2
	if score < 0 {
		return -moves, true
	}
	return moves, true
}
