package book_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atharva-malik/chess-engine/board"
	"github.com/atharva-malik/chess-engine/book"
)

const startKey = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"

func TestParseNormalizesKeys(t *testing.T) {
	b, err := book.Parse(strings.NewReader(`{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1": ["e2e4", "d2d4"],
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -": ["c7c5"]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	moves, ok := b.Lookup(startKey)
	if !ok || len(moves) != 2 {
		t.Fatalf("Lookup(start): got %v %v", moves, ok)
	}
	if _, ok := b.Lookup(startKey + " 0 1"); !ok {
		t.Fatalf("Lookup with counters should hit")
	}
	if _, ok := b.Lookup("8/8/8/8/8/8/8/K6k w - -"); ok {
		t.Fatalf("unexpected hit")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := book.Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, book.ErrNoBook) {
		t.Fatalf("missing file: got %v", err)
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := book.Load(path); !errors.Is(err, book.ErrNoBook) {
		t.Fatalf("corrupt file: got %v", err)
	}
	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := book.Load(empty); !errors.Is(err, book.ErrNoBook) {
		t.Fatalf("empty book: got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.json")
	if err := os.WriteFile(path, []byte(`{"`+startKey+`": ["g1f3"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := book.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mv, ok := book.Pick(b, startKey, nil, nil); !ok || mv != "g1f3" {
		t.Fatalf("Pick: got %q %v", mv, ok)
	}
}

func TestPickFiltersAndUsesPicker(t *testing.T) {
	b := book.MapBook{startKey: {"e2e5", "e2e4", "d2d4"}}
	legal := func(mv string) bool { return mv != "e2e5" }
	var asked int
	last := func(n int) int { asked = n; return n - 1 }
	mv, ok := book.Pick(b, startKey, legal, last)
	if !ok || mv != "d2d4" || asked != 2 {
		t.Fatalf("Pick: got %q %v (picker saw %d)", mv, ok, asked)
	}
}

func TestPickEmptyIsMiss(t *testing.T) {
	b := book.MapBook{startKey: {"e2e5"}, "8/8/8/8/8/8/8/K6k w - -": nil}
	never := func(string) bool { return false }
	if _, ok := book.Pick(b, startKey, never, nil); ok {
		t.Fatalf("all candidates illegal should be a miss")
	}
	if _, ok := book.Pick(b, "8/8/8/8/8/8/8/K6k w - -", nil, nil); ok {
		t.Fatalf("empty candidate list should be a miss")
	}
	if _, ok := book.Pick(nil, startKey, nil, nil); ok {
		t.Fatalf("nil book should be a miss")
	}
}

func TestRandomPickerInRange(t *testing.T) {
	pick := book.RandomPicker()
	for i := 0; i < 100; i++ {
		if got := pick(3); got < 0 || got >= 3 {
			t.Fatalf("pick(3) = %d", got)
		}
	}
}

func TestKeyAfterDoublePushHits(t *testing.T) {
	b, err := book.Parse(strings.NewReader(`{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq -": ["c7c5"],
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2": ["g1f3"]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := board.New()
	for _, want := range []struct{ play, reply string }{{"e2e4", "c7c5"}, {"c7c5", "g1f3"}} {
		if err := p.Play(want.play); err != nil {
			t.Fatalf("Play(%s): %v", want.play, err)
		}
		mv, ok := book.Pick(b, p.Key(), nil, nil)
		if !ok || mv != want.reply {
			t.Fatalf("after %s (%s): got %q %v", want.play, p.Key(), mv, ok)
		}
	}
}

func TestNormalizeKeyKeepsCapturableEnPassant(t *testing.T) {
	key := "rnbqkbnr/pp2pppp/8/2ppP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 3"
	if got, want := book.NormalizeKey(key), "rnbqkbnr/pp2pppp/8/2ppP3/8/8/PPPP1PPP/RNBQKBNR w KQkq d6"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := book.NormalizeKey("not a fen at all"); got != "not a fen at" {
		t.Fatalf("unparsable key: got %q", got)
	}
}
