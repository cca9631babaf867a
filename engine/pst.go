package engine

// =============================================================================
// PIECE-SQUARE TABLES
// Every table is written rank 8 first, as white sees the board. White pieces
// read table[7-rank][file]; black pieces read table[rank][file], which is the
// vertical mirror, so a colour-flipped position evaluates to the negation.
// =============================================================================

/*
	Pawns shelter the king, get punished for leaving holes in front of it and
	are pushed towards the centre to fight.
*/
var pawnMG = [8][8]int{
	{100, 100, 100, 100, 100, 100, 100, 100},
	{150, 150, 150, 150, 150, 150, 150, 150},
	{100, 100, 120, 130, 130, 120, 100, 100},
	{100, 100, 110, 125, 125, 110, 100, 100},
	{100, 100, 100, 120, 120, 100, 100, 100},
	{105, 95, 90, 100, 100, 90, 95, 105},
	{105, 110, 110, 80, 80, 110, 110, 105},
	{100, 100, 100, 100, 100, 100, 100, 100},
}

// Endgame pawns race to promote; rook pawns get a small extra push.
var pawnEG = [8][8]int{
	{100, 100, 100, 100, 100, 100, 100, 100},
	{160, 150, 150, 150, 150, 150, 150, 160},
	{140, 135, 135, 135, 135, 135, 135, 140},
	{125, 120, 120, 120, 120, 120, 120, 125},
	{115, 110, 110, 110, 110, 110, 110, 115},
	{107, 105, 105, 105, 105, 105, 105, 107},
	{100, 100, 100, 100, 100, 100, 100, 100},
	{100, 100, 100, 100, 100, 100, 100, 100},
}

// Knights want the centre; the rim is punished.
var knightMG = [8][8]int{
	{250, 240, 270, 270, 270, 270, 260, 250},
	{260, 280, 300, 300, 300, 300, 280, 260},
	{270, 300, 310, 315, 315, 310, 300, 270},
	{270, 305, 315, 320, 320, 315, 305, 270},
	{270, 300, 315, 320, 320, 315, 300, 270},
	{270, 305, 310, 315, 315, 310, 305, 270},
	{260, 280, 300, 305, 305, 300, 280, 260},
	{250, 260, 270, 270, 270, 270, 260, 250},
}

// Long diagonals and fianchetto squares.
var bishopMG = [8][8]int{
	{280, 290, 290, 290, 290, 290, 290, 280},
	{290, 300, 300, 300, 300, 300, 300, 290},
	{290, 300, 305, 310, 310, 305, 300, 290},
	{290, 305, 305, 310, 310, 305, 305, 290},
	{290, 300, 310, 310, 310, 310, 300, 290},
	{290, 310, 310, 310, 310, 310, 310, 290},
	{290, 305, 300, 300, 300, 300, 305, 290},
	{280, 290, 290, 290, 290, 290, 290, 280},
}

// Rooks centralise and love the seventh rank.
var rookMG = [8][8]int{
	{500, 500, 500, 500, 500, 500, 500, 500},
	{510, 515, 515, 515, 515, 515, 515, 510},
	{495, 500, 500, 500, 500, 500, 500, 495},
	{495, 500, 500, 500, 500, 500, 500, 495},
	{495, 500, 500, 500, 500, 500, 500, 495},
	{495, 500, 500, 500, 500, 500, 500, 495},
	{495, 500, 500, 500, 500, 500, 500, 495},
	{500, 500, 500, 510, 510, 500, 500, 500},
}

var queenMG = [8][8]int{
	{880, 890, 890, 895, 895, 890, 890, 880},
	{890, 900, 900, 900, 900, 900, 900, 890},
	{890, 900, 905, 905, 905, 905, 900, 890},
	{895, 900, 905, 905, 905, 905, 900, 895},
	{900, 900, 905, 905, 905, 905, 900, 895},
	{890, 905, 905, 905, 905, 905, 900, 890},
	{890, 900, 905, 900, 900, 900, 900, 890},
	{880, 890, 890, 895, 895, 890, 890, 880},
}

/*
	King safety in the middlegame with a slight kingside-castle bias. The base
	value is large but cancels out between the two kings.
*/
var kingMG = [8][8]int{
	{9970, 9960, 9960, 9950, 9950, 9960, 9960, 9970},
	{9970, 9960, 9960, 9950, 9950, 9960, 9960, 9970},
	{9970, 9960, 9960, 9950, 9950, 9960, 9960, 9970},
	{9970, 9960, 9960, 9950, 9950, 9960, 9960, 9970},
	{9980, 9970, 9970, 9960, 9960, 9970, 9970, 9980},
	{9990, 9980, 9980, 9980, 9980, 9980, 9980, 9990},
	{9990, 9980, 9980, 9980, 9980, 9980, 9980, 9990},
	{10020, 10050, 10010, 9980, 10000, 9980, 10055, 10020},
}

// The endgame king walks to the centre to escort pawns.
var kingEG = [8][8]int{
	{9950, 9960, 9970, 9980, 9980, 9970, 9960, 9950},
	{9970, 9980, 9980, 10000, 10000, 9980, 9980, 9970},
	{9970, 9980, 10020, 10030, 10030, 10020, 9980, 9970},
	{9970, 9980, 10030, 10030, 10030, 10030, 9980, 9970},
	{9970, 9980, 10030, 10030, 10030, 10030, 9980, 9970},
	{9970, 9980, 10020, 10030, 10030, 10020, 9980, 9970},
	{9970, 9970, 10000, 10000, 10000, 10000, 9970, 9970},
	{9950, 9970, 9970, 9970, 9970, 9970, 9970, 9950},
}

// Flat endgame values for the pieces whose square matters little there.
const (
	knightEG = 300
	bishopEG = 300
	rookEG   = 500
	queenEG  = 900
)

// pstValue reads table for a piece on sq from the owner's point of view.
func pstValue(table *[8][8]int, sq uint8, black bool) int {
	rank, file := sq/8, sq%8
	if black {
		return table[rank][file]
	}
	return table[7-rank][file]
}
