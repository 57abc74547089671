package model

import (
	"fmt"
	"strconv"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func fenLetter(p Piece) byte {
	c := byte('P')
	if p.Type != Pawn {
		c = p.Type.Notation()[0]
	}
	if p.Color == Black {
		c += 'a' - 'A'
	}
	return c
}

func pieceFromLetter(c byte) (PieceType, PieceColor, bool) {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	switch c {
	case 'P':
		return Pawn, color, true
	case 'N':
		return Knight, color, true
	case 'B':
		return Bishop, color, true
	case 'R':
		return Rook, color, true
	case 'Q':
		return Queen, color, true
	case 'K':
		return King, color, true
	}
	return "", "", false
}

// ParseFEN sets up a game from a FEN record. The halfmove and fullmove fields
// are optional.
func ParseFEN(fen string) (*Game, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}

	g := &Game{history: newHistory(), outcome: ongoing(), fullMove: 1}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, rank := range ranks {
		row := 7 - i
		col := 0
		for j := 0; j < len(rank); j++ {
			c := rank[j]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			t, color, ok := pieceFromLetter(c)
			if !ok || col > 7 {
				return nil, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, rank)
			}
			g.board.place(t, color, Position{Row: row, Col: col})
			col++
		}
		if col != 8 {
			return nil, fmt.Errorf("%w: rank %q does not cover 8 files", ErrInvalidFEN, rank)
		}
	}

	switch fields[1] {
	case "w":
		g.turn = White
	case "b":
		g.turn = Black
	default:
		return nil, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}

	rights := fields[2]
	if rights != "-" && strings.Trim(rights, "KQkq") != "" {
		return nil, fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, rights)
	}
	has := func(c string) bool { return strings.Contains(rights, c) }
	g.castling = CastlingRights{
		WhiteKingMoved:          !has("K") && !has("Q"),
		WhiteKingsideRookMoved:  !has("K"),
		WhiteQueensideRookMoved: !has("Q"),
		BlackKingMoved:          !has("k") && !has("q"),
		BlackKingsideRookMoved:  !has("k"),
		BlackQueensideRookMoved: !has("q"),
	}

	if fields[3] != "-" {
		target, err := ParseSquare(fields[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
		}
		// The opponent of the side to move just double-stepped past target.
		dir := pawnDirection(g.turn.Opponent())
		g.lastMove = &SimpleMove{
			From: Position{Row: target.Row - dir, Col: target.Col},
			To:   Position{Row: target.Row + dir, Col: target.Col},
		}
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFEN, fields[4])
		}
		g.history.halfMoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: bad fullmove number %q", ErrInvalidFEN, fields[5])
		}
		g.fullMove = n
	}

	for _, c := range []PieceColor{White, Black} {
		pos, ok := g.board.FindKing(c)
		if !ok {
			return nil, fmt.Errorf("%w: no %s king", ErrInvalidFEN, c)
		}
		g.kings.set(c, pos)
	}

	g.history.Record(g.signature())
	g.evaluate()
	return g, nil
}

// FEN exports the current position.
func (g *Game) FEN() string {
	var sb strings.Builder
	for row := 7; row >= 0; row-- {
		empty := 0
		for col := 0; col < 8; col++ {
			p := g.board[row][col]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(fenLetter(*p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if g.turn == Black {
		side = "b"
	}

	var rights strings.Builder
	for _, c := range []PieceColor{White, Black} {
		for _, corner := range []struct {
			col    int
			letter string
		}{{7, "K"}, {0, "Q"}} {
			if g.canStillCastle(c, corner.col) {
				if c == Black {
					rights.WriteString(strings.ToLower(corner.letter))
				} else {
					rights.WriteString(corner.letter)
				}
			}
		}
	}
	castling := rights.String()
	if castling == "" {
		castling = "-"
	}

	ep := "-"
	if g.enPassantAvailable() {
		lm := g.lastMove
		ep = Position{Row: (lm.From.Row + lm.To.Row) / 2, Col: lm.To.Col}.String()
	}

	return fmt.Sprintf("%s %s %s %s %d %d", sb.String(), side, castling, ep, g.history.halfMoveClock, g.fullMove)
}

// canStillCastle reports whether the castling right on the rook column is
// intact and both pieces still stand on their home squares.
func (g *Game) canStillCastle(c PieceColor, rookCol int) bool {
	row := c.homeRow()
	if g.castling.kingMoved(c) || g.castling.rookMoved(c, rookCol) {
		return false
	}
	k := g.board.At(Position{Row: row, Col: 4})
	r := g.board.At(Position{Row: row, Col: rookCol})
	return k != nil && k.Type == King && k.Color == c && r != nil && r.Type == Rook && r.Color == c
}
