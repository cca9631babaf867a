// Package nnue reaches a neural network evaluator that lives in another
// process. The engine only needs a centipawn score for a FEN.
package nnue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
	"github.com/rs/zerolog"
)

var (
	ErrClosed = errors.New("nnue: scorer closed")
	// ErrUnresponsive is returned once the engine has missed a deadline. Its
	// process is stopped and every later call fails fast.
	ErrUnresponsive = errors.New("nnue: engine unresponsive")
)

// MateCentipawns stands in for a mate announced by the network's engine.
const MateCentipawns = 100000

// Scorer returns a score in centipawns from white's point of view.
type Scorer interface {
	ScoreFEN(ctx context.Context, fen string) (int, error)
}

// UCIScorer drives an external UCI engine, for example one running an NNUE
// network, and asks it for a shallow search of each position. One position is
// scored at a time; callers queue on slot and give up when their context ends.
type UCIScorer struct {
	slot  chan struct{}
	depth int
	log   zerolog.Logger

	mu     sync.Mutex
	eng    *uci.Engine
	closed bool
	broken bool
}

func newUCIScorer(eng *uci.Engine, depth int, log zerolog.Logger) *UCIScorer {
	return &UCIScorer{slot: make(chan struct{}, 1), eng: eng, depth: depth, log: log}
}

// NewUCIScorer starts the engine binary at path. depth is the search depth
// the engine is asked for; 1 is effectively a static network evaluation.
func NewUCIScorer(path string, depth int, log zerolog.Logger) (*UCIScorer, error) {
	if depth < 1 {
		depth = 1
	}
	eng, err := uci.New(path)
	if err != nil {
		return nil, fmt.Errorf("nnue: start %s: %w", path, err)
	}
	if err := eng.Run(uci.CmdUCI, uci.CmdIsReady, uci.CmdUCINewGame); err != nil {
		eng.Close()
		return nil, fmt.Errorf("nnue: handshake with %s: %w", path, err)
	}
	log.Info().Str("engine", path).Int("depth", depth).Msg("neural evaluator ready")
	return newUCIScorer(eng, depth, log), nil
}

func (s *UCIScorer) state() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return ErrClosed
	case s.broken:
		return ErrUnresponsive
	}
	return nil
}

// ScoreFEN returns as soon as ctx ends, even when the engine has not answered.
func (s *UCIScorer) ScoreFEN(ctx context.Context, fen string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.state(); err != nil {
		return 0, err
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return 0, fmt.Errorf("nnue: %w", err)
	}
	pos := chess.NewGame(opt).Position()

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-s.slot }()
	if err := s.state(); err != nil {
		return 0, err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.eng.Run(uci.CmdPosition{Position: pos}, uci.CmdGo{Depth: s.depth})
	}()
	select {
	case err := <-done:
		if err != nil {
			return 0, fmt.Errorf("nnue: evaluate %q: %w", fen, err)
		}
	case <-ctx.Done():
		s.abandon(fen, ctx.Err())
		return 0, fmt.Errorf("%w: %v", ErrUnresponsive, ctx.Err())
	}

	score := s.eng.SearchResults().Info.Score
	cp := score.CP
	if score.Mate > 0 {
		cp = MateCentipawns
	} else if score.Mate < 0 {
		cp = -MateCentipawns
	}
	if pos.Turn() == chess.Black {
		cp = -cp
	}
	s.log.Debug().Str("fen", fen).Int("cp", cp).Msg("neural score")
	return cp, nil
}

// abandon marks the engine broken and stops it in the background; the Run
// still in flight returns once the process is gone.
func (s *UCIScorer) abandon(fen string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken || s.closed {
		return
	}
	s.broken = true
	s.log.Error().Err(cause).Str("fen", fen).Msg("neural engine missed its deadline, stopping it")
	eng, log := s.eng, s.log
	go func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("stopping neural engine")
		}
	}()
}

// Close stops the engine process.
func (s *UCIScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.broken || s.eng == nil {
		return nil
	}
	return s.eng.Close()
}
