package model

import "fmt"

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

// Notation returns the SAN letter of the piece, empty for pawns.
func (p PieceType) Notation() string {
	switch p {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	}
	return ""
}

// Value is the capture value used by the move picker.
func (p PieceType) Value() int {
	switch p {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	case King:
		return 100
	}
	return 0
}

// promotable reports whether a pawn may become p.
func (p PieceType) promotable() bool {
	switch p {
	case Queen, Rook, Bishop, Knight:
		return true
	}
	return false
}

func (p PieceType) valid() bool {
	switch p {
	case King, Queen, Rook, Bishop, Knight, Pawn:
		return true
	}
	return false
}

type PieceColor string

const (
	White PieceColor = "white"
	Black PieceColor = "black"
)

func (c PieceColor) Opponent() PieceColor {
	if c == White {
		return Black
	}
	return White
}

func (c PieceColor) valid() bool {
	return c == White || c == Black
}

// homeRow is the back rank of the colour.
func (c PieceColor) homeRow() int {
	if c == White {
		return 0
	}
	return 7
}

// Position is a board coordinate. Row 0 is White's back rank, col 0 the a-file.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col, p.Row+1)
}

func (p Position) file() string {
	return fmt.Sprintf("%c", 'a'+p.Col)
}

func (p Position) add(d direction) Position {
	return Position{Row: p.Row + d.row, Col: p.Col + d.col}
}

// lightSquare reports the square colour used by the same-coloured bishops rule.
func (p Position) lightSquare() bool {
	return (p.Row+p.Col)%2 == 1
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Position, error) {
	if len(s) != 2 {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	p := Position{Row: int(s[1] - '1'), Col: int(s[0] - 'a')}
	if !p.Valid() {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return p, nil
}

// Piece is immutable once placed on a board.
type Piece struct {
	Type     PieceType  `json:"type"`
	Color    PieceColor `json:"color"`
	Position Position   `json:"position"`
}

func (p Piece) movedTo(pos Position) *Piece {
	return &Piece{Type: p.Type, Color: p.Color, Position: pos}
}

// Board is indexed [row][col]. Copying the value gives an independent
// snapshot since pieces are replaced, never mutated.
type Board [8][8]*Piece

// At returns the piece on pos, or nil for empty or off-board squares.
func (b *Board) At(pos Position) *Piece {
	if !pos.Valid() {
		return nil
	}
	return b[pos.Row][pos.Col]
}

func (b *Board) set(pos Position, p *Piece) {
	if !pos.Valid() {
		return
	}
	b[pos.Row][pos.Col] = p
}

func (b *Board) place(t PieceType, c PieceColor, pos Position) {
	b.set(pos, &Piece{Type: t, Color: c, Position: pos})
}

// Pieces lists all pieces in row-major order.
func (b *Board) Pieces() []Piece {
	pieces := make([]Piece, 0, 32)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p != nil {
				pieces = append(pieces, *p)
			}
		}
	}
	return pieces
}

// FindKing scans the board for the king of the given colour.
func (b *Board) FindKing(color PieceColor) (Position, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p != nil && p.Type == King && p.Color == color {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewStandardBoard() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b.place(backRank[col], White, Position{Row: 0, Col: col})
		b.place(Pawn, White, Position{Row: 1, Col: col})
		b.place(Pawn, Black, Position{Row: 6, Col: col})
		b.place(backRank[col], Black, Position{Row: 7, Col: col})
	}
	return b
}
