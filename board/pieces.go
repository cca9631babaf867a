package board

import (
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Kind is a colourless piece type, numbered as in dragontoothmg.
type Kind uint8

const (
	NoKind Kind = dragontoothmg.Nothing
	Pawn   Kind = dragontoothmg.Pawn
	Knight Kind = dragontoothmg.Knight
	Bishop Kind = dragontoothmg.Bishop
	Rook   Kind = dragontoothmg.Rook
	Queen  Kind = dragontoothmg.Queen
	King   Kind = dragontoothmg.King
)

// Piece is a coloured piece code: the Kind, plus blackOffset for black pieces.
type Piece uint8

const blackOffset = 6

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) + blackOffset
	BlackKnight Piece = Piece(Knight) + blackOffset
	BlackBishop Piece = Piece(Bishop) + blackOffset
	BlackRook   Piece = Piece(Rook) + blackOffset
	BlackQueen  Piece = Piece(Queen) + blackOffset
	BlackKing   Piece = Piece(King) + blackOffset
)

// Kind strips the colour.
func (pc Piece) Kind() Kind {
	if pc > blackOffset {
		return Kind(pc - blackOffset)
	}
	return Kind(pc)
}

// IsBlack reports whether pc is a black piece.
func (pc Piece) IsBlack() bool { return pc > blackOffset && pc <= BlackKing }

// PieceAt returns the piece on sq (0 = a1, 63 = h8), or NoPiece.
func (p *Position) PieceAt(sq uint8) Piece {
	if k := kindAt(&p.b.White, sq); k != NoKind {
		return Piece(k)
	}
	if k := kindAt(&p.b.Black, sq); k != NoKind {
		return Piece(k) + blackOffset
	}
	return NoPiece
}

func kindAt(bb *dragontoothmg.Bitboards, sq uint8) Kind {
	mask := uint64(1) << sq
	if bb.All&mask == 0 {
		return NoKind
	}
	switch {
	case bb.Pawns&mask != 0:
		return Pawn
	case bb.Knights&mask != 0:
		return Knight
	case bb.Bishops&mask != 0:
		return Bishop
	case bb.Rooks&mask != 0:
		return Rook
	case bb.Queens&mask != 0:
		return Queen
	case bb.Kings&mask != 0:
		return King
	}
	return NoKind
}

// Count returns how many pieces of kind k both sides have.
func (p *Position) Count(k Kind) int {
	return bits.OnesCount64(kindBB(&p.b.White, k)) + bits.OnesCount64(kindBB(&p.b.Black, k))
}

// Men counts every piece on the board, kings and pawns included.
func (p *Position) Men() int {
	return bits.OnesCount64(p.b.White.All) + bits.OnesCount64(p.b.Black.All)
}

func kindBB(bb *dragontoothmg.Bitboards, k Kind) uint64 {
	switch k {
	case Pawn:
		return bb.Pawns
	case Knight:
		return bb.Knights
	case Bishop:
		return bb.Bishops
	case Rook:
		return bb.Rooks
	case Queen:
		return bb.Queens
	case King:
		return bb.Kings
	}
	return 0
}
