// Package render draws boards as SVG images.
package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/benbeisheim/chessmate-backend/internal/model"
)

const (
	DefaultSquareSize = 64

	lightFill     = "fill:#f0d9b5"
	darkFill      = "fill:#b58863"
	highlightFill = "fill:#cdd26a;fill-opacity:0.8"
	checkFill     = "fill:#e05050;fill-opacity:0.7"
)

var glyphs = map[model.PieceColor]map[model.PieceType]string{
	model.White: {
		model.King: "♔", model.Queen: "♕", model.Rook: "♖",
		model.Bishop: "♗", model.Knight: "♘", model.Pawn: "♙",
	},
	model.Black: {
		model.King: "♚", model.Queen: "♛", model.Rook: "♜",
		model.Bishop: "♝", model.Knight: "♞", model.Pawn: "♟",
	},
}

type Options struct {
	SquareSize int
	// Flipped draws the board from Black's side.
	Flipped  bool
	LastMove *model.SimpleMove
	// Check marks the square of a king in check.
	Check *model.Position
}

// Board writes an SVG rendering of pieces to w.
func Board(w io.Writer, pieces []model.PieceEntry, opts Options) {
	size := opts.SquareSize
	if size <= 0 {
		size = DefaultSquareSize
	}
	canvas := svg.New(w)
	canvas.Start(8*size, 8*size)
	canvas.Title("chess board")

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x, y := origin(model.Position{Row: row, Col: col}, size, opts.Flipped)
			fill := darkFill
			if (row+col)%2 == 1 {
				fill = lightFill
			}
			canvas.Rect(x, y, size, size, fill)
		}
	}

	if lm := opts.LastMove; lm != nil {
		for _, pos := range []model.Position{lm.From, lm.To} {
			if pos.Valid() {
				x, y := origin(pos, size, opts.Flipped)
				canvas.Rect(x, y, size, size, highlightFill)
			}
		}
	}
	if opts.Check != nil && opts.Check.Valid() {
		x, y := origin(*opts.Check, size, opts.Flipped)
		canvas.Rect(x, y, size, size, checkFill)
	}

	canvas.Gstyle(fmt.Sprintf("font-size:%dpx;text-anchor:middle;dominant-baseline:central", size*3/4))
	for _, p := range pieces {
		pos := model.Position{Row: p.Row, Col: p.Col}
		glyph, ok := glyphs[p.Color][p.Type]
		if !ok || !pos.Valid() {
			continue
		}
		x, y := origin(pos, size, opts.Flipped)
		canvas.Text(x+size/2, y+size/2, glyph)
	}
	canvas.Gend()
	canvas.End()
}

// origin is the top-left pixel of a square.
func origin(pos model.Position, size int, flipped bool) (int, int) {
	if flipped {
		return (7 - pos.Col) * size, pos.Row * size
	}
	return pos.Col * size, (7 - pos.Row) * size
}
