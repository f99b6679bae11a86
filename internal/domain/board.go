package domain

import (
	"errors"
	"fmt"
)

const BoardSize = 8

var (
	ErrBoardRows    = errors.New("board must have 8 rows")
	ErrBoardCols    = errors.New("board row must have 8 columns")
	ErrUnknownPiece = errors.New("unknown piece symbol")
)

// Coord addresses a square. Row 0 is the far rank as delivered by the server.
type Coord struct {
	Row int
	Col int
}

func (c Coord) Valid() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Square is either empty or holds a piece.
type Square struct {
	Piece    Piece
	Occupied bool
}

// Board is a full 8x8 grid. It is a value type; assignment copies it.
type Board [BoardSize][BoardSize]Square

// ParseBoard converts the wire grid into a Board. Anything other than an 8x8
// grid of known glyphs or "" is rejected.
func ParseBoard(grid [][]string) (Board, error) {
	var b Board
	if len(grid) != BoardSize {
		return b, fmt.Errorf("%w: got %d", ErrBoardRows, len(grid))
	}
	for r, row := range grid {
		if len(row) != BoardSize {
			return b, fmt.Errorf("%w: row %d has %d", ErrBoardCols, r, len(row))
		}
		for c, sym := range row {
			if sym == "" {
				continue
			}
			p, ok := LookupSymbol(sym)
			if !ok {
				return b, fmt.Errorf("%w %q at %s", ErrUnknownPiece, sym, Coord{r, c})
			}
			b[r][c] = Square{Piece: p, Occupied: true}
		}
	}
	return b, nil
}

// At returns the square at c. Out-of-range coordinates read as empty.
func (b *Board) At(c Coord) Square {
	if !c.Valid() {
		return Square{}
	}
	return b[c.Row][c.Col]
}

// PieceAt reports the piece at c, if any.
func (b *Board) PieceAt(c Coord) (Piece, bool) {
	sq := b.At(c)
	return sq.Piece, sq.Occupied
}

// Symbols converts back to the wire grid.
func (b *Board) Symbols() [][]string {
	out := make([][]string, BoardSize)
	for r := range b {
		out[r] = make([]string, BoardSize)
		for c, sq := range b[r] {
			if sq.Occupied {
				out[r][c] = sq.Piece.Symbol()
			}
		}
	}
	return out
}

func (b *Board) Equal(o *Board) bool { return *b == *o }

func (b *Board) Empty() bool {
	for r := range b {
		for _, sq := range b[r] {
			if sq.Occupied {
				return false
			}
		}
	}
	return true
}

var initialRows = [BoardSize][BoardSize]string{
	{"♜", "♞", "♝", "♛", "♚", "♝", "♞", "♜"},
	{"♟", "♟", "♟", "♟", "♟", "♟", "♟", "♟"},
	{}, {}, {}, {},
	{"♙", "♙", "♙", "♙", "♙", "♙", "♙", "♙"},
	{"♖", "♘", "♗", "♕", "♔", "♗", "♘", "♖"},
}

// StartingBoard is a display-only placeholder until the server's first update.
func StartingBoard() Board {
	grid := make([][]string, BoardSize)
	for r := range initialRows {
		grid[r] = initialRows[r][:]
	}
	b, _ := ParseBoard(grid)
	return b
}
