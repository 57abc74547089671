package model

// PieceEntry is one occupied square in a serialized board.
type PieceEntry struct {
	Type  PieceType  `json:"type"`
	Color PieceColor `json:"color"`
	Row   int        `json:"row"`
	Col   int        `json:"col"`
}

// Snapshot is the serialized engine state exchanged with the document store.
// A game restored from a snapshot behaves exactly like the one that produced it.
type Snapshot struct {
	Board             []PieceEntry   `json:"board"`
	CurrentTurn       PieceColor     `json:"currentTurn"`
	HasMoved          CastlingRights `json:"hasMoved"`
	WhiteKingPosition Position       `json:"whiteKingPosition"`
	BlackKingPosition Position       `json:"blackKingPosition"`
	FiftyMoveCounter  int            `json:"fiftyMoveCounter"`
	PositionHistory   []string       `json:"positionHistory"`
	LastMove          *SimpleMove    `json:"lastMove"`
	PendingPromotion  *Position      `json:"pendingPromotion"`
	FullMoveNumber    int            `json:"fullMoveNumber"`
	Outcome           Outcome        `json:"outcome"`
	MoveHistory       []Ply          `json:"moveHistory"`
}

func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		CurrentTurn:       g.turn,
		HasMoved:          g.castling,
		WhiteKingPosition: g.kings.White,
		BlackKingPosition: g.kings.Black,
		FiftyMoveCounter:  g.history.FiftyMoveCounter(),
		PositionHistory:   g.history.signatures(),
		FullMoveNumber:    g.fullMove,
		Outcome:           g.outcome,
		MoveHistory:       g.Plies(),
	}
	for _, p := range g.board.Pieces() {
		s.Board = append(s.Board, PieceEntry{Type: p.Type, Color: p.Color, Row: p.Position.Row, Col: p.Position.Col})
	}
	if g.lastMove != nil {
		lm := *g.lastMove
		s.LastMove = &lm
	}
	if g.pendingPromotion != nil {
		pp := *g.pendingPromotion
		s.PendingPromotion = &pp
	}
	return s
}

// RestoreGame rebuilds a game from a snapshot. Malformed entries are dropped
// rather than trusted: off-board or unknown pieces, second pieces on an
// occupied square, unparsable history signatures and invalid moves.
func RestoreGame(s Snapshot) *Game {
	g := &Game{
		turn:     White,
		castling: s.HasMoved,
		kings:    KingPositions{White: s.WhiteKingPosition, Black: s.BlackKingPosition},
		history:  newHistory(),
		outcome:  ongoing(),
		fullMove: 1,
	}
	if s.CurrentTurn.valid() {
		g.turn = s.CurrentTurn
	}
	if s.FullMoveNumber > 1 {
		g.fullMove = s.FullMoveNumber
	}
	for _, e := range s.Board {
		pos := Position{Row: e.Row, Col: e.Col}
		if !pos.Valid() || !e.Type.valid() || !e.Color.valid() || g.board.At(pos) != nil {
			continue
		}
		g.board.place(e.Type, e.Color, pos)
	}
	if s.FiftyMoveCounter > 0 {
		g.history.halfMoveClock = s.FiftyMoveCounter
	}
	for _, str := range s.PositionHistory {
		sig, err := ParseSignature(str)
		if err != nil {
			continue
		}
		g.history.Record(sig)
	}
	if lm := s.LastMove; lm != nil && lm.From.Valid() && lm.To.Valid() {
		m := *lm
		g.lastMove = &m
	}
	if pp := s.PendingPromotion; pp != nil {
		if p := g.board.At(*pp); p != nil && p.Type == Pawn && pp.Row == p.Color.Opponent().homeRow() {
			pos := *pp
			g.pendingPromotion = &pos
		}
	}
	g.plies = append([]Ply(nil), s.MoveHistory...)

	for _, c := range []PieceColor{White, Black} {
		g.locateKing(c)
	}
	if g.history.Count(g.signature()) == 0 {
		g.history.Record(g.signature())
	}
	if s.Outcome.Terminal() {
		g.outcome = s.Outcome
		g.pendingPromotion = nil
		return g
	}
	if g.pendingPromotion == nil {
		g.evaluate()
	}
	return g
}
