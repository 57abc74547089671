package model

type direction struct {
	row int
	col int
}

var (
	rookDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightDirs = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
	kingDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func pawnDirection(c PieceColor) int {
	if c == White {
		return 1
	}
	return -1
}

func pawnStartRow(c PieceColor) int {
	if c == White {
		return 1
	}
	return 6
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PseudoLegalMoves returns the moves that obey the piece's movement shape and
// square occupancy, without regard to the safety of its own king. Castling is
// not included.
func PseudoLegalMoves(piece Piece, board *Board, lastMove *SimpleMove) []Move {
	switch piece.Type {
	case Pawn:
		return pawnMoves(piece, board, lastMove)
	case Knight:
		return stepMoves(piece, board, knightDirs)
	case Bishop:
		return slideMoves(piece, board, bishopDirs)
	case Rook:
		return slideMoves(piece, board, rookDirs)
	case Queen:
		return append(slideMoves(piece, board, rookDirs), slideMoves(piece, board, bishopDirs)...)
	case King:
		return stepMoves(piece, board, kingDirs)
	default:
		return nil
	}
}

func pawnMoves(piece Piece, board *Board, lastMove *SimpleMove) []Move {
	moves := []Move{}
	dir := pawnDirection(piece.Color)
	from := piece.Position

	one := Position{Row: from.Row + dir, Col: from.Col}
	if one.Valid() && board.At(one) == nil {
		moves = append(moves, Move{To: one})
		two := Position{Row: from.Row + 2*dir, Col: from.Col}
		if from.Row == pawnStartRow(piece.Color) && board.At(two) == nil {
			moves = append(moves, Move{To: two})
		}
	}

	for _, dc := range []int{-1, 1} {
		target := Position{Row: from.Row + dir, Col: from.Col + dc}
		if !target.Valid() {
			continue
		}
		occupant := board.At(target)
		switch {
		case occupant != nil && occupant.Color != piece.Color:
			moves = append(moves, Move{To: target, Capture: true})
		case occupant == nil:
			if _, ok := enPassantVictim(piece, target, board, lastMove); ok {
				moves = append(moves, Move{To: target, Capture: true})
			}
		}
	}
	return moves
}

// enPassantVictim returns the square of the pawn captured when piece moves
// diagonally onto the empty square target.
func enPassantVictim(piece Piece, target Position, board *Board, lastMove *SimpleMove) (Position, bool) {
	if piece.Type != Pawn || lastMove == nil {
		return Position{}, false
	}
	landed := lastMove.To
	if landed.Row != piece.Position.Row || landed.Col != target.Col {
		return Position{}, false
	}
	if abs(lastMove.From.Row-landed.Row) != 2 || lastMove.From.Col != landed.Col {
		return Position{}, false
	}
	victim := board.At(landed)
	if victim == nil || victim.Type != Pawn || victim.Color == piece.Color {
		return Position{}, false
	}
	return landed, true
}

func stepMoves(piece Piece, board *Board, dirs []direction) []Move {
	moves := []Move{}
	for _, d := range dirs {
		target := piece.Position.add(d)
		if !target.Valid() {
			continue
		}
		occupant := board.At(target)
		if occupant == nil || occupant.Color != piece.Color {
			moves = append(moves, Move{To: target, Capture: occupant != nil})
		}
	}
	return moves
}

func slideMoves(piece Piece, board *Board, dirs []direction) []Move {
	moves := []Move{}
	for _, d := range dirs {
		for target := piece.Position.add(d); target.Valid(); target = target.add(d) {
			occupant := board.At(target)
			if occupant == nil {
				moves = append(moves, Move{To: target})
				continue
			}
			if occupant.Color != piece.Color {
				moves = append(moves, Move{To: target, Capture: true})
			}
			break
		}
	}
	return moves
}

// attackedBy reports whether any piece of colour attacker attacks square.
func attackedBy(board *Board, square Position, attacker PieceColor) bool {
	for _, dc := range []int{-1, 1} {
		from := Position{Row: square.Row - pawnDirection(attacker), Col: square.Col + dc}
		if p := board.At(from); p != nil && p.Color == attacker && p.Type == Pawn {
			return true
		}
	}
	for _, d := range knightDirs {
		if p := board.At(square.add(d)); p != nil && p.Color == attacker && p.Type == Knight {
			return true
		}
	}
	for _, d := range kingDirs {
		if p := board.At(square.add(d)); p != nil && p.Color == attacker && p.Type == King {
			return true
		}
	}
	if rayAttack(board, square, attacker, rookDirs, Rook) {
		return true
	}
	return rayAttack(board, square, attacker, bishopDirs, Bishop)
}

func rayAttack(board *Board, square Position, attacker PieceColor, dirs []direction, slider PieceType) bool {
	for _, d := range dirs {
		for target := square.add(d); target.Valid(); target = target.add(d) {
			p := board.At(target)
			if p == nil {
				continue
			}
			if p.Color == attacker && (p.Type == slider || p.Type == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// moveEffect describes what applying a move did beyond relocating the piece.
type moveEffect struct {
	captured   *Piece
	enPassant  bool
	castleRook *CastleRookMove
}

// applyToBoard relocates piece to `to` on b, including en passant victim
// removal and the castling rook relocation.
func applyToBoard(b *Board, piece Piece, to Position, lastMove *SimpleMove) moveEffect {
	from := piece.Position
	effect := moveEffect{captured: b.At(to)}

	if piece.Type == Pawn && to.Col != from.Col && effect.captured == nil {
		if victim, ok := enPassantVictim(piece, to, b, lastMove); ok {
			effect.captured = b.At(victim)
			effect.enPassant = true
			b.set(victim, nil)
		}
	}

	if piece.Type == King && to.Row == from.Row && abs(to.Col-from.Col) == 2 {
		rookFrom, rookTo := Position{Row: from.Row, Col: 7}, Position{Row: from.Row, Col: 5}
		if to.Col < from.Col {
			rookFrom, rookTo = Position{Row: from.Row, Col: 0}, Position{Row: from.Row, Col: 3}
		}
		if rook := b.At(rookFrom); rook != nil {
			b.set(rookFrom, nil)
			b.set(rookTo, rook.movedTo(rookTo))
			effect.castleRook = &CastleRookMove{From: rookFrom, To: rookTo}
		}
	}

	b.set(from, nil)
	b.set(to, piece.movedTo(to))
	return effect
}

// legalMoves filters the pseudo-legal moves of piece down to those that keep
// its own king safe, then appends castling for kings.
func (g *Game) legalMoves(piece Piece) []Move {
	pseudo := PseudoLegalMoves(piece, &g.board, g.lastMove)
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		if g.leavesKingInCheck(piece, m.To) {
			continue
		}
		if piece.Type == King && g.besideOpponentKing(piece.Color, m.To) {
			continue
		}
		legal = append(legal, m)
	}
	if piece.Type == King {
		legal = append(legal, g.castlingMoves(piece)...)
	}
	return legal
}

// leavesKingInCheck plays the move on a copy of the board.
func (g *Game) leavesKingInCheck(piece Piece, to Position) bool {
	scratch := g.board
	applyToBoard(&scratch, piece, to, g.lastMove)

	kingPos := to
	if piece.Type != King {
		cached := g.kings.get(piece.Color)
		if k := scratch.At(cached); k != nil && k.Type == King && k.Color == piece.Color {
			kingPos = cached
		} else {
			found, ok := scratch.FindKing(piece.Color)
			if !ok {
				return false
			}
			kingPos = found
		}
	}
	return attackedBy(&scratch, kingPos, piece.Color.Opponent())
}

// besideOpponentKing enforces that kings never stand on adjacent squares.
func (g *Game) besideOpponentKing(color PieceColor, to Position) bool {
	opp, ok := g.locateKing(color.Opponent())
	if !ok {
		return false
	}
	return abs(to.Row-opp.Row) <= 1 && abs(to.Col-opp.Col) <= 1
}

func (g *Game) castlingMoves(king Piece) []Move {
	color := king.Color
	row := color.homeRow()
	if king.Type != King || g.castling.kingMoved(color) || king.Position != (Position{Row: row, Col: 4}) {
		return nil
	}
	if g.InCheck(color) {
		return nil
	}

	var moves []Move
	opp := color.Opponent()
	if g.castlePathClear(color, 7, []int{5, 6}) &&
		!attackedBy(&g.board, Position{Row: row, Col: 5}, opp) &&
		!attackedBy(&g.board, Position{Row: row, Col: 6}, opp) {
		moves = append(moves, Move{To: Position{Row: row, Col: 6}})
	}
	if g.castlePathClear(color, 0, []int{1, 2, 3}) &&
		!attackedBy(&g.board, Position{Row: row, Col: 3}, opp) &&
		!attackedBy(&g.board, Position{Row: row, Col: 2}, opp) {
		moves = append(moves, Move{To: Position{Row: row, Col: 2}})
	}
	return moves
}

func (g *Game) castlePathClear(color PieceColor, rookCol int, between []int) bool {
	row := color.homeRow()
	if g.castling.rookMoved(color, rookCol) {
		return false
	}
	rook := g.board.At(Position{Row: row, Col: rookCol})
	if rook == nil || rook.Type != Rook || rook.Color != color {
		return false
	}
	for _, col := range between {
		if g.board.At(Position{Row: row, Col: col}) != nil {
			return false
		}
	}
	return true
}

func containsMove(moves []Move, to Position) bool {
	for _, m := range moves {
		if m.To == to {
			return true
		}
	}
	return false
}
