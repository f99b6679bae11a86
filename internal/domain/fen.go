package domain

import (
	nchess "github.com/corentings/chess/v2"
)

var enginePieces = map[Piece]nchess.Piece{
	{White, King}:   nchess.WhiteKing,
	{White, Queen}:  nchess.WhiteQueen,
	{White, Rook}:   nchess.WhiteRook,
	{White, Bishop}: nchess.WhiteBishop,
	{White, Knight}: nchess.WhiteKnight,
	{White, Pawn}:   nchess.WhitePawn,
	{Black, King}:   nchess.BlackKing,
	{Black, Queen}:  nchess.BlackQueen,
	{Black, Rook}:   nchess.BlackRook,
	{Black, Bishop}: nchess.BlackBishop,
	{Black, Knight}: nchess.BlackKnight,
	{Black, Pawn}:   nchess.BlackPawn,
}

// EngineSquare maps a row/col to the library square, row 0 being rank 8.
func EngineSquare(c Coord) nchess.Square {
	return nchess.NewSquare(nchess.File(c.Col), nchess.Rank(BoardSize-1-c.Row))
}

// EngineBoard converts to a corentings/chess board. It carries placement only;
// no rules are evaluated on the client.
func (b *Board) EngineBoard() *nchess.Board {
	m := make(map[nchess.Square]nchess.Piece)
	for r := range b {
		for c, sq := range b[r] {
			if !sq.Occupied {
				continue
			}
			if p, ok := enginePieces[sq.Piece]; ok {
				m[EngineSquare(Coord{r, c})] = p
			}
		}
	}
	return nchess.NewBoard(m)
}

// FEN returns the piece placement field.
func (b *Board) FEN() string { return b.EngineBoard().String() }
