package domain

// PieceType is the kind of a piece, independent of side.
type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Piece is an immutable (color, type) pair.
type Piece struct {
	Color Color
	Type  PieceType
}

// symbolTable maps the server's glyph encoding to pieces. Color and type are
// never inferred from position.
var symbolTable = map[string]Piece{
	"♜": {Black, Rook},
	"♞": {Black, Knight},
	"♝": {Black, Bishop},
	"♛": {Black, Queen},
	"♚": {Black, King},
	"♟": {Black, Pawn},
	"♖": {White, Rook},
	"♘": {White, Knight},
	"♗": {White, Bishop},
	"♕": {White, Queen},
	"♔": {White, King},
	"♙": {White, Pawn},
}

var pieceSymbols = func() map[Piece]string {
	out := make(map[Piece]string, len(symbolTable))
	for sym, p := range symbolTable {
		out[p] = sym
	}
	return out
}()

// LookupSymbol resolves a wire glyph. The empty string is not a piece.
func LookupSymbol(sym string) (Piece, bool) {
	p, ok := symbolTable[sym]
	return p, ok
}

// Symbol returns the wire glyph for p, or "" for an unknown piece.
func (p Piece) Symbol() string { return pieceSymbols[p] }

func (p Piece) String() string { return p.Symbol() }
