package board

// Status classifies a position for the search's terminal check.
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	FiftyMoveDraw
	RepetitionDraw
	InsufficientMaterial
)

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case FiftyMoveDraw:
		return "fifty-move draw"
	case RepetitionDraw:
		return "repetition draw"
	case InsufficientMaterial:
		return "insufficient material"
	}
	return "unknown"
}

// IsDraw reports whether s ends the game without a winner.
func (s Status) IsDraw() bool { return s != Ongoing && s != Checkmate }

// Status generates the legal moves and classifies the position.
func (p *Position) Status() Status { return p.Outcome(p.LegalMoves()) }

// Outcome classifies the position given its already generated legal moves, so
// the search does not generate them twice.
func (p *Position) Outcome(legal []Move) Status {
	if len(legal) == 0 {
		if p.InCheck() {
			return Checkmate
		}
		return Stalemate
	}
	if p.b.Halfmoveclock >= 100 {
		return FiftyMoveDraw
	}
	if p.repetitions() >= 2 {
		return RepetitionDraw
	}
	if p.insufficientMaterial() {
		return InsufficientMaterial
	}
	return Ongoing
}

// repetitions counts earlier occurrences of the current position within the
// reversible stretch of the game.
func (p *Position) repetitions() int {
	hash := p.b.Hash()
	count := 0
	limit := len(p.history) - int(p.b.Halfmoveclock)
	if limit < 0 {
		limit = 0
	}
	for i := len(p.history) - 2; i >= limit; i -= 2 {
		if p.history[i] == hash {
			count++
		}
	}
	return count
}

// Bare kings, or kings plus a single minor piece.
func (p *Position) insufficientMaterial() bool {
	if p.Count(Pawn)+p.Count(Rook)+p.Count(Queen) > 0 {
		return false
	}
	return p.Count(Knight)+p.Count(Bishop) <= 1
}
