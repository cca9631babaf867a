package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	moves := p.LegalMoves()
	if depth <= 1 {
		if depth <= 0 {
			return 1
		}
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		undo := p.Apply(m)
		nodes += p.Perft(depth - 1)
		undo()
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by UCI string.
func (p *Position) Divide(depth int) map[string]uint64 {
	div := make(map[string]uint64)
	for _, m := range p.LegalMoves() {
		undo := p.Apply(m)
		div[m.String()] = p.Perft(depth - 1)
		undo()
	}
	return div
}
