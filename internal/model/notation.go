package model

// notation renders the SAN of piece moving to `to`, without the check suffix.
// It must be called before the move is applied.
func (g *Game) notation(piece Piece, to Position) string {
	from := piece.Position
	if piece.Type == King && to.Row == from.Row && abs(to.Col-from.Col) == 2 {
		if to.Col > from.Col {
			return "O-O"
		}
		return "O-O-O"
	}

	capture := g.board.At(to) != nil
	if piece.Type == Pawn {
		if to.Col != from.Col {
			return from.file() + "x" + to.String()
		}
		return to.String()
	}

	s := piece.Type.Notation() + g.disambiguation(piece, to)
	if capture {
		s += "x"
	}
	return s + to.String()
}

// disambiguation returns the file, rank or square needed when another piece
// of the same kind can also reach `to`.
func (g *Game) disambiguation(piece Piece, to Position) string {
	if piece.Type == King {
		return ""
	}
	var rivals []Position
	for _, p := range g.board.Pieces() {
		if p.Type != piece.Type || p.Color != piece.Color || p.Position == piece.Position {
			continue
		}
		if containsMove(g.legalMoves(p), to) {
			rivals = append(rivals, p.Position)
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRow := false, false
	for _, r := range rivals {
		if r.Col == piece.Position.Col {
			sameFile = true
		}
		if r.Row == piece.Position.Row {
			sameRow = true
		}
	}
	switch {
	case !sameFile:
		return piece.Position.file()
	case !sameRow:
		return piece.Position.String()[1:]
	default:
		return piece.Position.String()
	}
}

func (g *Game) checkSuffix() string {
	if g.outcome.Status == StatusWon && g.outcome.Reason == ReasonCheckmate {
		return "#"
	}
	if g.InCheck(g.turn) {
		return "+"
	}
	return ""
}
