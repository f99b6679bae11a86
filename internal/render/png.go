package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/cheese-board-client/internal/domain"
)

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	coordinateTextColor = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	whitePieceText      = color.NRGBA{R: 28, G: 31, B: 46, A: 255}
	blackPieceText      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

var (
	ranks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
)

// PNGRenderer draws the board as an image. Pieces are discs labelled with
// their letter; the selected squares get a ring.
type PNGRenderer struct {
	squareSize int
	margin     int

	cacheMu sync.RWMutex
	cache   map[pieceCacheKey]image.Image
}

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

func NewPNGRenderer(squareSize int) *PNGRenderer {
	if squareSize < 16 {
		squareSize = 64
	}
	return &PNGRenderer{
		squareSize: squareSize,
		margin:     squareSize / 2,
		cache:      make(map[pieceCacheKey]image.Image),
	}
}

// Render encodes state as PNG. A zero board falls back to the starting
// position, as on screen.
func (r *PNGRenderer) Render(ctx context.Context, state domain.SessionState, marks []domain.Coord) ([]byte, error) {
	img, err := r.Image(ctx, state, marks)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PNGRenderer) Image(ctx context.Context, state domain.SessionState, marks []domain.Coord) (*image.RGBA, error) {
	board := state.Board
	if board.Empty() {
		board = domain.StartingBoard()
	}

	boardPx := r.squareSize * domain.BoardSize
	total := boardPx + r.margin*2
	origin := image.Point{X: r.margin, Y: r.margin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, total, total))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)
	drawSquares(img, r.squareSize, origin)
	if err := r.drawPieces(img, board.EngineBoard(), origin); err != nil {
		return nil, err
	}
	for _, c := range marks {
		if err := r.drawRing(img, c, origin); err != nil {
			return nil, err
		}
	}
	drawCoordinates(img, r.squareSize, origin, r.margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return img, nil
}

// WriteSnapshot renders into dir and returns the file path.
func (r *PNGRenderer) WriteSnapshot(ctx context.Context, dir string, state domain.SessionState, marks []domain.Coord, now time.Time) (string, error) {
	data, err := r.Render(ctx, state, marks)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("board-%s.png", now.Format("20060102-150405.000")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row, rank := range ranks {
		for col, file := range files {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			clr := squareColor(nchess.NewSquare(file, rank))
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func (r *PNGRenderer) drawPieces(dst *image.RGBA, board *nchess.Board, origin image.Point) error {
	boardMap := board.SquareMap()
	for row, rank := range ranks {
		for col, file := range files {
			piece := boardMap[nchess.NewSquare(file, rank)]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := r.pieceImage(piece)
			if err != nil {
				return err
			}
			x := origin.X + col*r.squareSize
			y := origin.Y + row*r.squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+r.squareSize, y+r.squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func (r *PNGRenderer) pieceImage(piece nchess.Piece) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: r.squareSize}
	r.cacheMu.RLock()
	if img, ok := r.cache[key]; ok {
		r.cacheMu.RUnlock()
		return img, nil
	}
	r.cacheMu.RUnlock()

	fill, stroke, text := "#f4f1ea", "#1c1f2e", whitePieceText
	if piece.Color() == nchess.Black {
		fill, stroke, text = "#1c1f2e", "#f4f1ea", blackPieceText
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">`+
		`<circle cx="50" cy="50" r="36" fill="%s" stroke="%s" stroke-width="5"/></svg>`, fill, stroke)
	img, err := rasterizeSVG(svg, r.squareSize)
	if err != nil {
		return nil, fmt.Errorf("piece %s: %w", pieceLetter(piece), err)
	}

	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(text), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	drawCenteredText(drawer, pieceLetter(piece), r.squareSize/2, r.squareSize/2+ascent/2)

	r.cacheMu.Lock()
	r.cache[key] = img
	r.cacheMu.Unlock()
	return img, nil
}

func (r *PNGRenderer) drawRing(dst *image.RGBA, c domain.Coord, origin image.Point) error {
	if !c.Valid() {
		return nil
	}
	const svg = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">` +
		`<rect x="4" y="4" width="92" height="92" fill="none" stroke="#ffe478" stroke-width="8"/></svg>`
	ring, err := rasterizeSVG(svg, r.squareSize)
	if err != nil {
		return err
	}
	x := origin.X + c.Col*r.squareSize
	y := origin.Y + c.Row*r.squareSize
	imagedraw.Draw(dst, image.Rect(x, y, x+r.squareSize, y+r.squareSize), ring, image.Point{}, imagedraw.Over)
	return nil
}

func rasterizeSVG(svg string, size int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(coordinateTextColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	boardEndY := origin.Y + len(ranks)*squareSize

	for row, rank := range ranks {
		baseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, baseline)
	}
	for col, file := range files {
		center := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), center, boardEndY+margin/2+ascent/2)
	}
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}

func pieceLetter(piece nchess.Piece) string {
	switch piece.Type() {
	case nchess.King:
		return "K"
	case nchess.Queen:
		return "Q"
	case nchess.Rook:
		return "R"
	case nchess.Bishop:
		return "B"
	case nchess.Knight:
		return "N"
	case nchess.Pawn:
		return "P"
	default:
		return "?"
	}
}
