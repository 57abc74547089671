package model

import "fmt"

// Game is the rules engine for a single match. It is not safe for concurrent
// use; Match serializes access to it.
type Game struct {
	board            Board
	turn             PieceColor
	selected         *Position
	lastMove         *SimpleMove
	castling         CastlingRights
	kings            KingPositions
	history          *History
	pendingPromotion *Position
	outcome          Outcome
	plies            []Ply
	fullMove         int
}

func NewGame() *Game {
	g := &Game{
		board:    NewStandardBoard(),
		turn:     White,
		kings:    KingPositions{White: Position{Row: 0, Col: 4}, Black: Position{Row: 7, Col: 4}},
		history:  newHistory(),
		outcome:  ongoing(),
		fullMove: 1,
	}
	g.history.Record(g.signature())
	return g
}

// Board returns a copy of the board.
func (g *Game) Board() Board {
	return g.board
}

func (g *Game) PieceAt(row, col int) *Piece {
	p := g.board.At(Position{Row: row, Col: col})
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func (g *Game) CurrentTurn() PieceColor {
	return g.turn
}

func (g *Game) IsGameOver() bool {
	return g.outcome.Terminal()
}

func (g *Game) Outcome() Outcome {
	return g.outcome
}

// Result returns the user-facing result message once the game is over.
func (g *Game) Result() (string, bool) {
	if !g.outcome.Terminal() {
		return "", false
	}
	return g.outcome.Message, true
}

func (g *Game) PendingPromotion() (Position, bool) {
	if g.pendingPromotion == nil {
		return Position{}, false
	}
	return *g.pendingPromotion, true
}

func (g *Game) LastMove() (SimpleMove, bool) {
	if g.lastMove == nil {
		return SimpleMove{}, false
	}
	return *g.lastMove, true
}

func (g *Game) CastlingRights() CastlingRights {
	return g.castling
}

func (g *Game) FiftyMoveCounter() int {
	return g.history.FiftyMoveCounter()
}

// Plies returns the applied half-moves in order.
func (g *Game) Plies() []Ply {
	out := make([]Ply, len(g.plies))
	copy(out, g.plies)
	return out
}

// MoveLog returns the SAN of every applied half-move.
func (g *Game) MoveLog() []string {
	out := make([]string, len(g.plies))
	for i, p := range g.plies {
		out[i] = p.Notation
	}
	return out
}

// InCheck reports whether the king of color is attacked. A missing king is
// never in check.
func (g *Game) InCheck(color PieceColor) bool {
	pos, ok := g.locateKing(color)
	if !ok {
		return false
	}
	return attackedBy(&g.board, pos, color.Opponent())
}

// locateKing returns the cached king square, rescanning the board when the
// cache does not hold the expected king.
func (g *Game) locateKing(color PieceColor) (Position, bool) {
	cached := g.kings.get(color)
	if p := g.board.At(cached); p != nil && p.Type == King && p.Color == color {
		return cached, true
	}
	found, ok := g.board.FindKing(color)
	if ok {
		g.kings.set(color, found)
	}
	return found, ok
}

// SelectPiece remembers the piece on (row, col) and returns its legal moves.
// Nothing is selected for empty squares, the opponent's pieces, or while the
// game accepts no moves.
func (g *Game) SelectPiece(row, col int) []Move {
	g.selected = nil
	pos := Position{Row: row, Col: col}
	moves := g.LegalMovesFrom(pos)
	if moves == nil {
		return nil
	}
	g.selected = &pos
	return moves
}

// LegalMovesFrom is SelectPiece without the selection.
func (g *Game) LegalMovesFrom(pos Position) []Move {
	if g.outcome.Terminal() || g.pendingPromotion != nil {
		return nil
	}
	piece := g.board.At(pos)
	if piece == nil || piece.Color != g.turn {
		return nil
	}
	return g.legalMoves(*piece)
}

// LegalMovesFor lists every legal move of color, whoever is to move.
func (g *Game) LegalMovesFor(color PieceColor) []SimpleMove {
	var out []SimpleMove
	for _, p := range g.board.Pieces() {
		if p.Color != color {
			continue
		}
		for _, m := range g.legalMoves(p) {
			out = append(out, SimpleMove{From: p.Position, To: m.To})
		}
	}
	return out
}

func (g *Game) hasLegalMove(color PieceColor) bool {
	for _, p := range g.board.Pieces() {
		if p.Color == color && len(g.legalMoves(p)) > 0 {
			return true
		}
	}
	return false
}

// MovePiece moves the selected piece to `to`. It returns false, leaving the
// game untouched, when nothing is selected or the move is not legal.
func (g *Game) MovePiece(to Position) bool {
	if g.outcome.Terminal() || g.pendingPromotion != nil || g.selected == nil {
		return false
	}
	piece := g.board.At(*g.selected)
	if piece == nil || piece.Color != g.turn {
		g.selected = nil
		return false
	}
	if !containsMove(g.legalMoves(*piece), to) {
		return false
	}
	g.apply(*piece, to)
	return true
}

// Move selects the piece on from and moves it to to.
func (g *Game) Move(from, to Position) error {
	if g.outcome.Terminal() {
		return ErrGameOver
	}
	if g.pendingPromotion != nil {
		return ErrPromotionPending
	}
	piece := g.board.At(from)
	if piece == nil {
		return fmt.Errorf("%w: no piece at %s", ErrInvalidMove, from)
	}
	if piece.Color != g.turn {
		return ErrNotYourTurn
	}
	g.SelectPiece(from.Row, from.Col)
	if !g.MovePiece(to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidMove, from, to)
	}
	return nil
}

func (g *Game) apply(piece Piece, to Position) {
	from := piece.Position
	color := piece.Color
	ply := Ply{Piece: piece, From: from, To: to, Notation: g.notation(piece, to)}

	effect := applyToBoard(&g.board, piece, to, g.lastMove)
	ply.CapturedPiece = effect.captured
	ply.EnPassant = effect.enPassant
	ply.CastleRookMove = effect.castleRook

	switch piece.Type {
	case King:
		g.castling.markKing(color)
		g.kings.set(color, to)
	case Rook:
		g.castling.markRook(color, from)
	}
	if c := effect.captured; c != nil && c.Type == Rook {
		g.castling.markRook(c.Color, c.Position)
	}

	g.history.tick(piece.Type == Pawn || effect.captured != nil)
	g.lastMove = &SimpleMove{From: from, To: to}
	g.selected = nil
	g.plies = append(g.plies, ply)

	if piece.Type == Pawn && to.Row == color.Opponent().homeRow() {
		g.pendingPromotion = &to
		return
	}
	g.completeTurn()
}

// PromotePawn resolves a pending promotion and hands the move to the opponent.
func (g *Game) PromotePawn(pt PieceType) error {
	if g.pendingPromotion == nil {
		return ErrNoPendingPromotion
	}
	if !pt.promotable() {
		return fmt.Errorf("%w: %q", ErrInvalidPromotion, pt)
	}
	pos := *g.pendingPromotion
	if p := g.board.At(pos); p != nil && p.Type == Pawn {
		g.board.set(pos, &Piece{Type: pt, Color: p.Color, Position: pos})
	}
	g.pendingPromotion = nil
	if n := len(g.plies); n > 0 {
		g.plies[n-1].Promotion = pt
		g.plies[n-1].Notation += "=" + pt.Notation()
	}
	g.completeTurn()
	return nil
}

func (g *Game) completeTurn() {
	g.turn = g.turn.Opponent()
	if g.turn == White {
		g.fullMove++
	}
	g.history.Record(g.signature())
	g.evaluate()
	if n := len(g.plies); n > 0 {
		g.plies[n-1].Notation += g.checkSuffix()
	}
}

// Resign ends the game in favour of color's opponent.
func (g *Game) Resign(color PieceColor) error {
	return g.endExternally(won(color.Opponent(), ReasonResignation))
}

// Timeout ends the game because color ran out of time.
func (g *Game) Timeout(color PieceColor) error {
	return g.endExternally(won(color.Opponent(), ReasonTimeout))
}

func (g *Game) AgreeDraw() error {
	return g.endExternally(drawn(ReasonAgreement, "agreement"))
}

func (g *Game) endExternally(o Outcome) error {
	if g.outcome.Terminal() {
		return ErrGameOver
	}
	g.outcome = o
	g.pendingPromotion = nil
	g.selected = nil
	return nil
}

// evaluate runs the termination checks in priority order.
func (g *Game) evaluate() {
	if g.outcome.Terminal() {
		return
	}
	if detail, ok := insufficientMaterial(&g.board); ok {
		g.outcome = drawn(ReasonInsufficientMaterial, "insufficient material ("+detail+")")
		return
	}
	if g.history.Count(g.signature()) >= repetitionLimit {
		g.outcome = drawn(ReasonRepetition, "threefold repetition")
		return
	}
	if g.history.fiftyMoveReached() {
		g.outcome = drawn(ReasonFiftyMove, "the fifty-move rule")
		return
	}
	if _, ok := g.locateKing(g.turn); !ok {
		g.outcome = missingKing(g.turn)
		return
	}
	if g.hasLegalMove(g.turn) {
		return
	}
	if g.InCheck(g.turn) {
		g.outcome = won(g.turn.Opponent(), ReasonCheckmate)
	} else {
		g.outcome = drawn(ReasonStalemate, "stalemate")
	}
}

// insufficientMaterial recognises K v K, K+minor v K and K+B v K+B with
// bishops on same-coloured squares.
func insufficientMaterial(board *Board) (string, bool) {
	pieces := board.Pieces()
	var kings int
	var others []Piece
	for _, p := range pieces {
		if p.Type == King {
			kings++
		} else {
			others = append(others, p)
		}
	}
	if kings != 2 {
		return "", false
	}
	switch len(others) {
	case 0:
		return "king versus king", true
	case 1:
		switch others[0].Type {
		case Bishop:
			return "king and bishop versus king", true
		case Knight:
			return "king and knight versus king", true
		}
	case 2:
		a, b := others[0], others[1]
		if a.Type == Bishop && b.Type == Bishop && a.Position.lightSquare() == b.Position.lightSquare() {
			return "bishops on same-coloured squares", true
		}
	}
	return "", false
}
