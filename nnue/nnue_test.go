package nnue

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeEngine writes a shell script that speaks just enough UCI: it answers
// every go with "score cp 37" after delay.
func fakeEngine(t *testing.T, delay string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
	script := `#!/bin/sh
best=e2e4
while read -r line; do
	case "$line" in
	uci) echo "id name fake"; echo "uciok" ;;
	isready) echo "readyok" ;;
	position*" b "*) best=e7e5 ;;
	position*) best=e2e4 ;;
	go*) sleep DELAY; echo "info depth 1 score cp 37"; echo "bestmove $best" ;;
	quit) exit 0 ;;
	esac
done
`
	path := filepath.Join(t.TempDir(), "fake-engine.sh")
	if err := os.WriteFile(path, []byte(strings.Replace(script, "DELAY", delay, 1)), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewUCIScorerMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-engine")
	if _, err := NewUCIScorer(path, 1, zerolog.Nop()); err == nil {
		t.Fatalf("expected an error for %s", path)
	}
}

func TestScoreFENHonoursContextAndFEN(t *testing.T) {
	s := newUCIScorer(nil, 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.ScoreFEN(ctx, "8/8/8/8/8/8/8/K6k w - - 0 1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context: got %v", err)
	}
	if _, err := s.ScoreFEN(context.Background(), "garbage"); err == nil {
		t.Fatalf("expected an error for a bad FEN")
	}
}

func TestScoreFENAfterClose(t *testing.T) {
	s := newUCIScorer(nil, 1, zerolog.Nop())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.ScoreFEN(context.Background(), "8/8/8/8/8/8/8/K6k w - - 0 1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed scorer: got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestScoreFENFromWhitesSide(t *testing.T) {
	s, err := NewUCIScorer(fakeEngine(t, "0"), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewUCIScorer: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	white, err := s.ScoreFEN(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil || white != 37 {
		t.Fatalf("white to move: got %d %v", white, err)
	}
	black, err := s.ScoreFEN(ctx, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil || black != -37 {
		t.Fatalf("black to move: got %d %v", black, err)
	}
}

func TestScoreFENGivesUpOnSlowEngine(t *testing.T) {
	s, err := NewUCIScorer(fakeEngine(t, "5"), 1, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewUCIScorer: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = s.ScoreFEN(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if !errors.Is(err, ErrUnresponsive) {
		t.Fatalf("got %v, want ErrUnresponsive", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("returned after %v", elapsed)
	}

	// The engine is written off: later calls fail without waiting.
	start = time.Now()
	if _, err := s.ScoreFEN(context.Background(), "8/8/8/8/8/8/8/K6k w - - 0 1"); !errors.Is(err, ErrUnresponsive) {
		t.Fatalf("second call: got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("second call waited %v", elapsed)
	}
}
