package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/atharva-malik/chess-engine/board"
)

var evalFENs = []string{
	board.Startpos,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3",
	"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
}

func mustPos(t testing.TB, fen string) *board.Position {
	t.Helper()
	p, err := board.FromFEN(fen)
	if err != nil {
		t.Fatalf("FromFEN(%q): %v", fen, err)
	}
	return p
}

func TestEvaluationSymmetry(t *testing.T) {
	eval := NewClassicalEvaluator(false, zerolog.Nop())
	for _, fen := range evalFENs {
		p := mustPos(t, fen)
		m, err := p.Mirror()
		if err != nil {
			t.Fatalf("Mirror(%s): %v", fen, err)
		}
		a, b := eval.Evaluate(p), eval.Evaluate(m)
		if math.Abs(a+b) > 1e-9 {
			t.Errorf("%s: eval %v, mirrored %v", fen, a, b)
		}
	}
}

func TestEvaluationStartIsLevel(t *testing.T) {
	eval := NewClassicalEvaluator(false, zerolog.Nop())
	if got := eval.Evaluate(board.New()); got != 0 {
		t.Fatalf("startpos eval = %v, want 0", got)
	}
}

func TestEvaluationMaterialSign(t *testing.T) {
	eval := NewClassicalEvaluator(false, zerolog.Nop())
	if got := eval.Evaluate(mustPos(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")); got < 5 {
		t.Fatalf("white queen up: eval %v, want > 5", got)
	}
	if got := eval.Evaluate(mustPos(t, "3qk3/8/8/8/8/8/8/4K3 w - - 0 1")); got > -5 {
		t.Fatalf("black queen up: eval %v, want < -5", got)
	}
}

func TestConcurrentEvaluationMatches(t *testing.T) {
	seq := NewClassicalEvaluator(false, zerolog.Nop())
	con := NewClassicalEvaluator(true, zerolog.Nop())
	for _, fen := range evalFENs {
		p := mustPos(t, fen)
		if a, b := seq.Evaluate(p), con.Evaluate(p); a != b {
			t.Errorf("%s: sequential %v, concurrent %v", fen, a, b)
		}
	}
	if seq.UnknownPieces() != 0 || con.UnknownPieces() != 0 {
		t.Fatalf("unexpected unknown pieces")
	}
}

func TestPhase(t *testing.T) {
	cases := map[string]int{
		board.Startpos:                    MaxPhase,
		"4k3/pppppppp/8/8/8/8/PPPPPPPP/4K3 w - - 0 1": 0,
		"3qk3/8/8/8/8/8/8/3QK3 w - - 0 1":             (8*MaxPhase + TotalPhase/2) / TotalPhase,
		"QQQQk3/8/8/8/8/8/8/QQQQK3 w - - 0 1":         MaxPhase,
	}
	for fen, want := range cases {
		if got := Phase(mustPos(t, fen)); got != want {
			t.Errorf("Phase(%s) = %d, want %d", fen, got, want)
		}
	}
}

func TestPSTMirrorTables(t *testing.T) {
	for sq := uint8(0); sq < 64; sq++ {
		mirror := sq ^ 56
		if pstValue(&kingMG, sq, false) != pstValue(&kingMG, mirror, true) {
			t.Fatalf("king table not mirrored at %d", sq)
		}
	}
	// White's castled king on g1 is preferred over e1.
	if pstValue(&kingMG, 6, false) <= pstValue(&kingMG, 4, false) {
		t.Fatalf("g1 should beat e1 for a middlegame king")
	}
}

type fakeScorer struct {
	cp  int
	err error
	fen string
}

func (f *fakeScorer) ScoreFEN(_ context.Context, fen string) (int, error) {
	f.fen = fen
	return f.cp, f.err
}

func TestNeuralEvaluator(t *testing.T) {
	p := board.New()
	scorer := &fakeScorer{cp: 300}
	n := &NeuralEvaluator{Scorer: scorer, Log: zerolog.Nop()}
	if got := n.Evaluate(p); got != 1.5 {
		t.Fatalf("default divisor: got %v want 1.5", got)
	}
	if scorer.fen != p.FEN() {
		t.Fatalf("scorer saw %q", scorer.fen)
	}
	n.Divisor = 100
	if got := n.Evaluate(p); got != 3 {
		t.Fatalf("divisor 100: got %v want 3", got)
	}

	scorer.err = errors.New("engine died")
	n.Fallback = NewClassicalEvaluator(false, zerolog.Nop())
	white := mustPos(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	if got, want := n.Evaluate(white), n.Fallback.Evaluate(white); got != want {
		t.Fatalf("fallback: got %v want %v", got, want)
	}
}

// stuckScorer never answers on its own; it only returns when ctx ends.
type stuckScorer struct{ calls int }

func (s *stuckScorer) ScoreFEN(ctx context.Context, _ string) (int, error) {
	s.calls++
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestNeuralEvaluatorTimeoutFallsBack(t *testing.T) {
	stuck := &stuckScorer{}
	n := &NeuralEvaluator{
		Scorer:   stuck,
		Timeout:  50 * time.Millisecond,
		Fallback: NewClassicalEvaluator(false, zerolog.Nop()),
		Log:      zerolog.Nop(),
	}
	p := mustPos(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	start := time.Now()
	got := n.Evaluate(p)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Evaluate took %v", elapsed)
	}
	if want := n.Fallback.Evaluate(p); got != want {
		t.Fatalf("got %v want fallback %v", got, want)
	}
	if stuck.calls != 1 {
		t.Fatalf("scorer called %d times", stuck.calls)
	}
}

func BenchmarkClassicalEvaluate(b *testing.B) {
	p := mustPos(b, evalFENs[1])
	eval := NewClassicalEvaluator(false, zerolog.Nop())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		eval.Evaluate(p)
	}
}
