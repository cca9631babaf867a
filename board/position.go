// Package board adapts github.com/dylhunn/dragontoothmg to the rules surface the
// engine needs: legal moves, apply/undo, capture and piece queries, game-over
// classification, hashing and FEN keys.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

// Startpos is the FEN of the initial position.
const Startpos = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("board: invalid FEN")
	ErrIllegalMove = errors.New("board: illegal move")
)

// Move is the rules library's move encoding. The engine never builds one itself.
type Move = dragontoothmg.Move

// Position is a board plus the hashes of every position that led to it, which is
// what repetition detection needs. The zero value is not usable; see FromFEN.
type Position struct {
	b       dragontoothmg.Board
	history []uint64
}

// New returns the initial position.
func New() *Position {
	p, err := FromFEN(Startpos)
	if err != nil {
		panic(err)
	}
	return p
}

// FromFEN parses fen. Missing move counters default to "0 1". Malformed input
// yields an error wrapping ErrInvalidFEN; the rules library is never allowed to
// panic through this call.
func FromFEN(fen string) (p *Position, err error) {
	normalized, err := normalizeFEN(fen)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %q: %v", ErrInvalidFEN, fen, r)
		}
	}()
	return &Position{b: dragontoothmg.ParseFen(normalized)}, nil
}

func normalizeFEN(fen string) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return "", fmt.Errorf("%w: %q: want 4 to 6 fields, got %d", ErrInvalidFEN, fen, len(fields))
	}
	switch len(fields) {
	case 4:
		fields = append(fields, "0", "1")
	case 5:
		fields = append(fields, "1")
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", fmt.Errorf("%w: %q: want 8 ranks, got %d", ErrInvalidFEN, fen, len(ranks))
	}
	var whiteKings, blackKings int
	for i, rank := range ranks {
		width := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqk", c):
				width++
				if c == 'k' {
					blackKings++
				}
			case strings.ContainsRune("PNBRQK", c):
				width++
				if c == 'K' {
					whiteKings++
				}
			default:
				return "", fmt.Errorf("%w: %q: bad piece %q", ErrInvalidFEN, fen, c)
			}
		}
		if width != 8 {
			return "", fmt.Errorf("%w: %q: rank %d has width %d", ErrInvalidFEN, fen, 8-i, width)
		}
	}
	if whiteKings != 1 || blackKings != 1 {
		return "", fmt.Errorf("%w: %q: need exactly one king per side", ErrInvalidFEN, fen)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", fmt.Errorf("%w: %q: side to move %q", ErrInvalidFEN, fen, fields[1])
	}
	if fields[2] != "-" {
		for _, c := range fields[2] {
			if !strings.ContainsRune("KQkq", c) {
				return "", fmt.Errorf("%w: %q: castling %q", ErrInvalidFEN, fen, fields[2])
			}
		}
	}
	if ep := fields[3]; ep != "-" {
		if len(ep) != 2 || ep[0] < 'a' || ep[0] > 'h' || (ep[1] != '3' && ep[1] != '6') {
			return "", fmt.Errorf("%w: %q: en passant %q", ErrInvalidFEN, fen, ep)
		}
	}
	for _, counter := range fields[4:] {
		for _, c := range counter {
			if c < '0' || c > '9' {
				return "", fmt.Errorf("%w: %q: counter %q", ErrInvalidFEN, fen, counter)
			}
		}
	}
	return strings.Join(fields, " "), nil
}

// Clone returns an independent copy. Search workers each take one.
func (p *Position) Clone() *Position {
	c := &Position{b: p.b}
	c.history = append(make([]uint64, 0, len(p.history)+32), p.history...)
	return c
}

// FEN serializes the position.
func (p *Position) FEN() string { return p.b.ToFen() }

// Key is the FEN without the halfmove and fullmove counters; opening books are
// keyed by it. The en passant square is kept only when an en passant capture
// is legal, so a double push with no capturer nearby keys as "-".
func (p *Position) Key() string {
	fields := strings.Fields(p.b.ToFen())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 && fields[3] != "-" && !p.canCaptureEnPassant(fields[3]) {
		fields[3] = "-"
	}
	return strings.Join(fields, " ")
}

func (p *Position) canCaptureEnPassant(ep string) bool {
	if len(ep) != 2 {
		return false
	}
	target := (ep[1]-'1')*8 + (ep[0] - 'a')
	for _, m := range p.b.GenerateLegalMoves() {
		if m.To() == target && p.PieceAt(m.From()).Kind() == Pawn {
			return true
		}
	}
	return false
}

// Hash is the Zobrist key of the position.
func (p *Position) Hash() uint64 { return p.b.Hash() }

// WhiteToMove reports the side to move.
func (p *Position) WhiteToMove() bool { return p.b.Wtomove }

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.b.OurKingInCheck() }

// HalfmoveClock is the fifty-move counter in plies.
func (p *Position) HalfmoveClock() int { return int(p.b.Halfmoveclock) }

// FullmoveNumber is the FEN move number.
func (p *Position) FullmoveNumber() int { return int(p.b.Fullmoveno) }

// LegalMoves generates the legal moves in the library's order.
func (p *Position) LegalMoves() []Move { return p.b.GenerateLegalMoves() }

// Captures filters the legal moves down to captures, en passant included.
func (p *Position) Captures() []Move {
	legal := p.b.GenerateLegalMoves()
	captures := legal[:0]
	for _, m := range legal {
		if dragontoothmg.IsCapture(m, &p.b) {
			captures = append(captures, m)
		}
	}
	return captures
}

// Apply plays m and returns the closure that takes it back. Calls must be
// bracketed LIFO.
func (p *Position) Apply(m Move) func() {
	p.history = append(p.history, p.b.Hash())
	unapply := p.b.Apply(m)
	return func() {
		unapply()
		p.history = p.history[:len(p.history)-1]
	}
}

// Play applies a move given in UCI notation after checking it is legal.
func (p *Position) Play(uci string) error {
	m, err := p.ParseMove(uci)
	if err != nil {
		return err
	}
	p.Apply(m)
	return nil
}

// ParseMove resolves a UCI string to one of the legal moves of the position.
func (p *Position) ParseMove(uci string) (Move, error) {
	parsed, err := dragontoothmg.ParseMove(strings.ToLower(strings.TrimSpace(uci)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrIllegalMove, uci, err)
	}
	for _, m := range p.b.GenerateLegalMoves() {
		if m == parsed {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrIllegalMove, uci, p.FEN())
}

// IsCapture reports whether m takes a piece, en passant included.
func (p *Position) IsCapture(m Move) bool { return dragontoothmg.IsCapture(m, &p.b) }

// IsPromotion reports whether m promotes a pawn.
func (p *Position) IsPromotion(m Move) bool { return m.Promote() != dragontoothmg.Nothing }

// IsCastle reports whether m is a castling move: the king travels two files.
func (p *Position) IsCastle(m Move) bool {
	from, to := m.From(), m.To()
	if p.PieceAt(from).Kind() != King {
		return false
	}
	return from == to+2 || to == from+2
}

// Mirror returns the colour-flipped position: ranks reversed, colours swapped,
// side to move swapped. Its evaluation is the negation of the original's.
func (p *Position) Mirror() (*Position, error) {
	fields := strings.Fields(p.FEN())
	ranks := strings.Split(fields[0], "/")
	for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
		ranks[i], ranks[j] = ranks[j], ranks[i]
	}
	fields[0] = swapCase(strings.Join(ranks, "/"))
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	if fields[2] != "-" {
		var castling strings.Builder
		swapped := swapCase(fields[2])
		for _, c := range "KQkq" {
			if strings.ContainsRune(swapped, c) {
				castling.WriteRune(c)
			}
		}
		fields[2] = castling.String()
	}
	if ep := fields[3]; ep != "-" {
		rank := byte('3')
		if ep[1] == '3' {
			rank = '6'
		}
		fields[3] = string([]byte{ep[0], rank})
	}
	return FromFEN(strings.Join(fields, " "))
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		}
		return r
	}, s)
}
