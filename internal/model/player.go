package model

// ComputerPlayerID occupies the seat of the computer opponent.
const ComputerPlayerID = "computer"

type Player struct {
	ID    string
	Color PieceColor
}

type ClientPlayer struct {
	ID    string     `json:"name"`
	Color PieceColor `json:"color"`
	// TimeLeft is in milliseconds.
	TimeLeft int64 `json:"timeLeft"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p *Players) seat(c PieceColor) *ClientPlayer {
	if c == White {
		return &p.White
	}
	return &p.Black
}

// MatchFoundEvent is pushed to a queued player once paired.
type MatchFoundEvent struct {
	GameID string     `json:"gameId"`
	Color  PieceColor `json:"color"`
}
