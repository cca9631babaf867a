package engine

import (
	"testing"

	"github.com/atharva-malik/chess-engine/board"
)

func moveOf(t *testing.T, p *board.Position, uci string) board.Move {
	t.Helper()
	m, err := p.ParseMove(uci)
	if err != nil {
		t.Fatalf("ParseMove(%s): %v", uci, err)
	}
	return m
}

func TestOrderMovesCaptureFirst(t *testing.T) {
	p := mustPos(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	moves := p.LegalMoves()
	OrderMoves(p, moves, nil)
	if got := moves[0].String(); got != "e4d5" {
		t.Fatalf("first move %s, want e4d5", got)
	}
	if got := ScoreMove(p, moves[0], nil); got != captureBase+(9-1)*100 {
		t.Fatalf("PxQ score %d", got)
	}
}

func TestOrderMovesKillers(t *testing.T) {
	p := mustPos(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1")
	killers := NewKillerSet()
	killers.Insert(moveOf(t, p, "e1f1"))

	moves := p.LegalMoves()
	OrderMoves(p, moves, killers)
	if moves[0].String() != "e4d5" || moves[1].String() != "e1f1" {
		t.Fatalf("got %s %s, want e4d5 e1f1", moves[0].String(), moves[1].String())
	}
	if got := ScoreMove(p, moves[0], killers); got != killerCaptureBase+(9-1)*100 {
		t.Fatalf("capture base with killers: %d", got)
	}
	if got := ScoreMove(p, moves[1], killers); got != killerBonus {
		t.Fatalf("killer score %d", got)
	}
}

func TestScoreMoveBonuses(t *testing.T) {
	p := mustPos(t, "r3k2r/1P6/8/8/8/8/8/R3K2R w KQkq - 0 1")
	cases := map[string]int{
		"e1g1":  castleBonus,
		"b7b8q": promotionBonus + checkBonus,
		"b7b8n": promotionBonus,
		"b7a8q": captureBase + (5-1)*100 + promotionBonus + checkBonus,
		"a1a8":  captureBase + (5-5)*100 + checkBonus,
		"h1h2":  0,
	}
	for uci, want := range cases {
		if got := ScoreMove(p, moveOf(t, p, uci), nil); got != want {
			t.Errorf("%s: got %d want %d", uci, got, want)
		}
	}
}

func TestOrderingIsStable(t *testing.T) {
	p := board.New()
	moves := p.LegalMoves()
	original := append([]board.Move(nil), moves...)
	OrderMoves(p, moves, nil)
	// Nothing in the start position scores above zero, so nothing moves.
	for i := range moves {
		if moves[i] != original[i] {
			t.Fatalf("index %d: %s became %s", i, original[i].String(), moves[i].String())
		}
	}
}

func TestIsCheckLeavesPositionAlone(t *testing.T) {
	p := mustPos(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	fen, hash := p.FEN(), p.Hash()
	for _, m := range p.LegalMoves() {
		check := IsCheck(p, m)
		if want := m.String() == "a1a8"; check != want {
			t.Errorf("IsCheck(%s) = %v", m.String(), check)
		}
		if p.FEN() != fen || p.Hash() != hash {
			t.Fatalf("IsCheck(%s) mutated the position", m.String())
		}
	}
}

func TestKillerSet(t *testing.T) {
	var none *KillerSet
	if none.Len() != 0 || none.Contains(0) {
		t.Fatalf("nil set should be empty")
	}
	p := board.New()
	m := moveOf(t, p, "e2e4")
	k := NewKillerSet()
	k.Insert(m)
	k.Insert(m)
	if k.Len() != 1 || !k.Contains(m) {
		t.Fatalf("Insert: len %d", k.Len())
	}
}
