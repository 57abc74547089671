package model

// CastlingRights records which castling pieces have left their home squares.
// Flags only ever go from false to true.
type CastlingRights struct {
	WhiteKingMoved          bool `json:"whiteKingMoved"`
	WhiteKingsideRookMoved  bool `json:"whiteKingsideRookMoved"`
	WhiteQueensideRookMoved bool `json:"whiteQueensideRookMoved"`
	BlackKingMoved          bool `json:"blackKingMoved"`
	BlackKingsideRookMoved  bool `json:"blackKingsideRookMoved"`
	BlackQueensideRookMoved bool `json:"blackQueensideRookMoved"`
}

func (r CastlingRights) kingMoved(c PieceColor) bool {
	if c == White {
		return r.WhiteKingMoved
	}
	return r.BlackKingMoved
}

// rookMoved takes the rook's home column: 7 for kingside, 0 for queenside.
func (r CastlingRights) rookMoved(c PieceColor, col int) bool {
	switch {
	case c == White && col == 7:
		return r.WhiteKingsideRookMoved
	case c == White && col == 0:
		return r.WhiteQueensideRookMoved
	case c == Black && col == 7:
		return r.BlackKingsideRookMoved
	case c == Black && col == 0:
		return r.BlackQueensideRookMoved
	}
	return true
}

func (r *CastlingRights) markKing(c PieceColor) {
	if c == White {
		r.WhiteKingMoved = true
	} else {
		r.BlackKingMoved = true
	}
}

// markRook is a no-op for squares other than the colour's rook corners.
func (r *CastlingRights) markRook(c PieceColor, pos Position) {
	if pos.Row != c.homeRow() {
		return
	}
	switch {
	case c == White && pos.Col == 7:
		r.WhiteKingsideRookMoved = true
	case c == White && pos.Col == 0:
		r.WhiteQueensideRookMoved = true
	case c == Black && pos.Col == 7:
		r.BlackKingsideRookMoved = true
	case c == Black && pos.Col == 0:
		r.BlackQueensideRookMoved = true
	}
}

func (r CastlingRights) flags() [6]bool {
	return [6]bool{
		r.WhiteKingMoved, r.WhiteKingsideRookMoved, r.WhiteQueensideRookMoved,
		r.BlackKingMoved, r.BlackKingsideRookMoved, r.BlackQueensideRookMoved,
	}
}

func castlingFromFlags(f [6]bool) CastlingRights {
	return CastlingRights{
		WhiteKingMoved:          f[0],
		WhiteKingsideRookMoved:  f[1],
		WhiteQueensideRookMoved: f[2],
		BlackKingMoved:          f[3],
		BlackKingsideRookMoved:  f[4],
		BlackQueensideRookMoved: f[5],
	}
}

// KingPositions caches where each king stands.
type KingPositions struct {
	White Position `json:"white"`
	Black Position `json:"black"`
}

func (k KingPositions) get(c PieceColor) Position {
	if c == White {
		return k.White
	}
	return k.Black
}

func (k *KingPositions) set(c PieceColor, pos Position) {
	if c == White {
		k.White = pos
	} else {
		k.Black = pos
	}
}
