package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/atharva-malik/chess-engine/board"
	"github.com/atharva-malik/chess-engine/book"
)

// Mode selects how the root moves are searched.
type Mode uint8

const (
	// Parallel searches every root move on its own position copy with a
	// bounded pool of workers.
	Parallel Mode = iota
	// Sequential walks the root moves in order and stops early on a mate.
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "parallel"
}

// Algorithm selects the recursive search used below the root.
type Algorithm uint8

const (
	Negamax Algorithm = iota
	Minimax
)

func (a Algorithm) String() string {
	if a == Minimax {
		return "minimax"
	}
	return "negamax"
}

// Source says where a Result's move came from.
type Source uint8

const (
	FromSearch Source = iota
	FromBook
	// FromFallback is a timed search that completed no iteration; the move is
	// the first one in ordering.
	FromFallback
)

func (s Source) String() string {
	switch s {
	case FromBook:
		return "book"
	case FromFallback:
		return "fallback"
	}
	return "search"
}

type Options struct {
	Mode       Mode
	Algorithm  Algorithm
	Threads    int
	Quiescence bool
	UseTT      bool

	// RootReduction searches every root move after the first
	// fullWidthRootMoves ordered ones rootReduction plies shallower first,
	// and only re-searches at full depth the moves that still beat alpha.
	// Sequential mode only.
	RootReduction bool

	// EndgameDepth is the fixed depth once the engine holds Endgame.
	EndgameDepth int

	Evaluator LeafEvaluator
	Book      book.Book
	Picker    book.Picker
	Log       zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		Mode:         Parallel,
		Algorithm:    Negamax,
		Threads:      runtime.NumCPU(),
		Quiescence:   false,
		UseTT:        true,
		EndgameDepth: EndgameDepth,
		Evaluator:    NewClassicalEvaluator(false, zerolog.Nop()),
		Picker:       book.RandomPicker(),
		Log:          zerolog.Nop(),
	}
}

// Result is the answer to one best-move request. Score is from the point of
// view of the side to move at the root.
type Result struct {
	Move    board.Move
	UCI     string
	Score   float64
	Depth   int
	Source  Source
	Stats   SearchStats
	Elapsed time.Duration
}

// Engine holds the per-game state: the stage and the opening book. Caches
// live only as long as one request. An Engine serves one request at a time.
type Engine struct {
	opts Options
	log  zerolog.Logger

	mu    sync.Mutex
	stage Stage
}

func New(opts Options) *Engine {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.EndgameDepth < 1 {
		opts.EndgameDepth = EndgameDepth
	}
	if opts.Evaluator == nil {
		opts.Evaluator = NewClassicalEvaluator(false, opts.Log)
	}
	if opts.Picker == nil {
		opts.Picker = book.RandomPicker()
	}
	e := &Engine{opts: opts, log: opts.Log}
	if opts.RootReduction && opts.Mode != Sequential {
		e.log.Warn().Stringer("mode", opts.Mode).Msg("root reduction only applies to sequential mode")
	}
	e.NewGame()
	return e
}

// NewGame resets the stage: Opening when a book is loaded, Middlegame
// otherwise.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opts.Book != nil {
		e.stage = Opening
	} else {
		e.stage = Middlegame
	}
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// advance moves the engine to stage s. Stages never go backwards. The caller
// holds e.mu.
func (e *Engine) advance(s Stage) {
	if s <= e.stage {
		return
	}
	e.log.Info().Stringer("from", e.stage).Stringer("to", s).Msg("stage change")
	e.stage = s
}

func (e *Engine) Options() Options { return e.opts }

/*
	BestMove is the untimed entry point. In the opening the book answers;
	a miss moves the engine to the middlegame for good. The middlegame uses
	the depth policy unless depth > 0. The endgame always searches at
	EndgameDepth.
*/
func (e *Engine) BestMove(pos *board.Position, depth int) (Result, error) {
	start := time.Now()
	if res, ok := e.bookMove(pos); ok {
		res.Elapsed = time.Since(start)
		return res, nil
	}
	moves, err := e.rootMoves(pos)
	if err != nil {
		return Result{}, err
	}
	depth = e.resolveDepth(pos, depth)

	res, err := e.searchRoot(context.Background(), pos, moves, depth)
	if err != nil {
		return Result{}, err
	}
	res.Elapsed = time.Since(start)
	e.logResult(pos, res)
	return res, nil
}

/*
	BestMoveTimed deepens 1, 3, 5, ... up to depth within budget. It keeps the
	last iteration that finished; when none did, it plays the first move in
	ordering. Timeouts never escape as errors.
*/
func (e *Engine) BestMoveTimed(ctx context.Context, pos *board.Position, budget time.Duration, depth int) (Result, error) {
	start := time.Now()
	if res, ok := e.bookMove(pos); ok {
		res.Elapsed = time.Since(start)
		return res, nil
	}
	moves, err := e.rootMoves(pos)
	if err != nil {
		return Result{}, err
	}
	depth = e.resolveDepth(pos, depth)

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	OrderMoves(pos, moves, nil)
	best := Result{Move: moves[0], UCI: moves[0].String(), Source: FromFallback}
	var stats SearchStats
	for d := 1; d <= depth; d += 2 {
		if ctx.Err() != nil {
			break
		}
		res, err := e.searchRoot(ctx, pos, moves, d)
		stats.add(res.Stats)
		if errors.Is(err, ErrSearchTimeout) {
			e.log.Debug().Int("depth", d).Msg("iteration cut short")
			break
		}
		if err != nil {
			return Result{}, err
		}
		best = res
		if res.Score >= mateValue(d) {
			break
		}
	}
	best.Stats = stats
	best.Elapsed = time.Since(start)
	e.logResult(pos, best)
	return best, nil
}

// StaticEval runs the search itself on pos and returns the score from the side
// to move's point of view. depth 0 is the bare leaf evaluation.
func (e *Engine) StaticEval(pos *board.Position, depth int) (float64, error) {
	if depth < 0 {
		depth = 0
	}
	s := NewSearcher(context.Background(), pos.Clone(), e.searchConfig(NewTransTable()))
	if e.opts.Algorithm == Minimax {
		score, err := s.Minimax(depth, -Infinity, Infinity, pos.WhiteToMove())
		if !pos.WhiteToMove() {
			score = -score
		}
		return score, err
	}
	return s.Negamax(depth, -Infinity, Infinity)
}

func (e *Engine) bookMove(pos *board.Position) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stage != Opening {
		return Result{}, false
	}
	key := pos.Key()
	legal := func(uci string) bool {
		_, err := pos.ParseMove(uci)
		return err == nil
	}
	if uci, ok := book.Pick(e.opts.Book, key, legal, e.opts.Picker); ok {
		m, _ := pos.ParseMove(uci)
		e.log.Debug().Str("key", key).Str("move", uci).Msg("book hit")
		return Result{Move: m, UCI: uci, Source: FromBook}, true
	}
	e.log.Info().Str("key", key).Msg("book miss, leaving the opening")
	e.advance(Middlegame)
	return Result{}, false
}

func (e *Engine) resolveDepth(pos *board.Position, depth int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stage == Endgame {
		return e.opts.EndgameDepth
	}
	if depth > 0 {
		return depth
	}
	d, next := DetermineDepth(pos, e.stage)
	e.advance(next)
	if next == Endgame {
		return e.opts.EndgameDepth
	}
	return d
}

func (e *Engine) rootMoves(pos *board.Position) ([]board.Move, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: game over (%v) in %s", ErrNoLegalMoves, pos.Status(), pos.FEN())
	}
	return moves, nil
}

func (e *Engine) searchConfig(tt *TransTable) SearchConfig {
	cfg := SearchConfig{Evaluator: e.opts.Evaluator, Quiescence: e.opts.Quiescence}
	if e.opts.UseTT {
		cfg.TT = tt
	}
	return cfg
}

// searchRoot runs one fixed-depth search with fresh request caches.
func (e *Engine) searchRoot(ctx context.Context, pos *board.Position, moves []board.Move, depth int) (Result, error) {
	ordered := append([]board.Move(nil), moves...)
	OrderMoves(pos, ordered, nil)
	tt := NewTransTable()
	if e.opts.Mode == Sequential {
		return e.searchSequential(ctx, pos.Clone(), ordered, depth, tt)
	}
	return e.searchParallel(ctx, pos, ordered, depth, tt)
}

// childScore searches the position reached by a root move and returns the
// score from the root mover's side.
// reducedChildScore tries a shallow search first; only a move that still
// beats alpha there is searched again at full depth.
func reducedChildScore(s *Searcher, alg Algorithm, rootWhite bool, depth int, alpha, beta float64) (float64, error) {
	score, err := childScore(s, alg, rootWhite, depth-rootReduction, alpha, beta)
	if err != nil || score <= alpha {
		return score, err
	}
	return childScore(s, alg, rootWhite, depth, alpha, beta)
}

func childScore(s *Searcher, alg Algorithm, rootWhite bool, depth int, alpha, beta float64) (float64, error) {
	if alg == Minimax {
		if rootWhite {
			return s.Minimax(depth, alpha, beta, false)
		}
		score, err := s.Minimax(depth, -beta, -alpha, true)
		return -score, err
	}
	score, err := s.Negamax(depth, -beta, -alpha)
	return -score, err
}

const (
	fullWidthRootMoves = 4
	rootReduction      = 2
)

func (e *Engine) searchSequential(ctx context.Context, pos *board.Position, moves []board.Move, depth int, tt *TransTable) (Result, error) {
	s := NewSearcher(ctx, pos, e.searchConfig(tt))
	rootWhite := pos.WhiteToMove()
	best := Result{Score: -Infinity, Depth: depth, Source: FromSearch}
	alpha := -Infinity
	for i, m := range moves {
		search := childScore
		if e.opts.RootReduction && i >= fullWidthRootMoves && depth > rootReduction {
			search = reducedChildScore
		}
		undo := pos.Apply(m)
		score, err := search(s, e.opts.Algorithm, rootWhite, depth, alpha, Infinity)
		undo()
		if err != nil {
			return Result{Stats: s.Stats()}, err
		}
		if score > best.Score {
			best.Move, best.Score = m, score
			alpha = score
			if score >= mateValue(depth) {
				break
			}
		}
	}
	best.UCI = best.Move.String()
	best.Stats = s.Stats()
	return best, nil
}

func (e *Engine) searchParallel(ctx context.Context, pos *board.Position, moves []board.Move, depth int, tt *TransTable) (Result, error) {
	type rootScore struct {
		move  board.Move
		score float64
		order int
	}
	rootWhite := pos.WhiteToMove()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Threads)

	var (
		mu      sync.Mutex
		results = make([]rootScore, 0, len(moves))
		stats   SearchStats
	)
	for i, m := range moves {
		i, m := i, m
		g.Go(func() error {
			p := pos.Clone()
			p.Apply(m)
			s := NewSearcher(gctx, p, e.searchConfig(tt))
			score, err := childScore(s, e.opts.Algorithm, rootWhite, depth, -Infinity, Infinity)

			mu.Lock()
			defer mu.Unlock()
			stats.add(s.Stats())
			if err != nil {
				return err
			}
			results = append(results, rootScore{move: m, score: score, order: i})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Stats: stats}, err
	}

	// Completion order is arbitrary; restore ordering before the stable sort
	// so equal scores resolve the same way every time.
	sort.Slice(results, func(i, j int) bool { return results[i].order < results[j].order })
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	best := results[0]
	return Result{
		Move:   best.move,
		UCI:    best.move.String(),
		Score:  best.score,
		Depth:  depth,
		Source: FromSearch,
		Stats:  stats,
	}, nil
}

func (e *Engine) logResult(pos *board.Position, res Result) {
	e.log.Info().
		Str("fen", pos.FEN()).
		Str("move", res.UCI).
		Float64("score", res.Score).
		Int("depth", res.Depth).
		Stringer("source", res.Source).
		Dur("elapsed", res.Elapsed).
		Object("stats", res.Stats).
		Msg("best move")
}
