// Package book is the opening book: a JSON object mapping a position key (FEN
// without the move counters) to the candidate moves in UCI notation.
package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lukechampine.com/frand"

	"github.com/atharva-malik/chess-engine/board"
)

var ErrNoBook = errors.New("book: no opening book")

// Book looks up the stored candidates for a position key.
type Book interface {
	Lookup(key string) ([]string, bool)
}

// MapBook is an in-memory Book.
type MapBook map[string][]string

func (b MapBook) Lookup(key string) ([]string, bool) {
	moves, ok := b[NormalizeKey(key)]
	return moves, ok && len(moves) > 0
}

// Load reads a JSON book from path. Any failure wraps ErrNoBook.
func Load(path string) (MapBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBook, err)
	}
	defer f.Close()
	b, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes a JSON book. Keys may be full FENs; they are normalized with
// NormalizeKey.
func Parse(r io.Reader) (MapBook, error) {
	var raw map[string][]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBook, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrNoBook)
	}
	b := make(MapBook, len(raw))
	for key, moves := range raw {
		k := NormalizeKey(key)
		b[k] = append(b[k], moves...)
	}
	return b, nil
}

// NormalizeKey keeps placement, side to move, castling and en passant, in the
// form board.Position.Key produces: the en passant square only survives when a
// capture onto it is legal. Keys that do not parse are only trimmed.
func NormalizeKey(key string) string {
	if p, err := board.FromFEN(key); err == nil {
		return p.Key()
	}
	fields := strings.Fields(key)
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return strings.Join(fields, " ")
}

// Picker returns an index in [0, n). n is always positive.
type Picker func(n int) int

// RandomPicker draws uniformly from a process-wide CSPRNG.
func RandomPicker() Picker { return frand.Intn }

// Pick looks key up, drops candidates that legal rejects and chooses one of
// the rest. An empty list is a miss.
func Pick(b Book, key string, legal func(uci string) bool, pick Picker) (string, bool) {
	if b == nil {
		return "", false
	}
	candidates, ok := b.Lookup(key)
	if !ok {
		return "", false
	}
	valid := make([]string, 0, len(candidates))
	for _, mv := range candidates {
		if legal == nil || legal(mv) {
			valid = append(valid, mv)
		}
	}
	if len(valid) == 0 {
		return "", false
	}
	if pick == nil {
		pick = RandomPicker()
	}
	return valid[pick(len(valid))], true
}
