package model

import "fmt"

type Status string

const (
	StatusOngoing Status = "ongoing"
	StatusDraw    Status = "draw"
	StatusWon     Status = "won"
	// StatusAborted ends a game whose state can no longer be trusted.
	StatusAborted Status = "aborted"
)

type Reason string

const (
	ReasonInsufficientMaterial Reason = "insufficient_material"
	ReasonRepetition           Reason = "threefold_repetition"
	ReasonFiftyMove            Reason = "fifty_move_rule"
	ReasonCheckmate            Reason = "checkmate"
	ReasonStalemate            Reason = "stalemate"
	ReasonMissingKing          Reason = "missing_king"
	ReasonResignation          Reason = "resignation"
	ReasonTimeout              Reason = "timeout"
	ReasonAgreement            Reason = "agreement"
)

// Outcome is the result of a game. Message is meant to be shown to players as is.
type Outcome struct {
	Status  Status     `json:"status"`
	Winner  PieceColor `json:"winner,omitempty"`
	Reason  Reason     `json:"reason,omitempty"`
	Message string     `json:"message,omitempty"`
}

func (o Outcome) Terminal() bool {
	return o.Status != "" && o.Status != StatusOngoing
}

func ongoing() Outcome {
	return Outcome{Status: StatusOngoing}
}

func drawn(reason Reason, detail string) Outcome {
	msg := "Draw by " + detail + "."
	return Outcome{Status: StatusDraw, Reason: reason, Message: msg}
}

func won(winner PieceColor, reason Reason) Outcome {
	var how string
	switch reason {
	case ReasonCheckmate:
		how = "by checkmate"
	case ReasonResignation:
		how = "by resignation"
	case ReasonTimeout:
		how = "on time"
	default:
		how = "by " + string(reason)
	}
	return Outcome{
		Status:  StatusWon,
		Winner:  winner,
		Reason:  reason,
		Message: fmt.Sprintf("%s wins %s.", colorTitle(winner), how),
	}
}

func missingKing(color PieceColor) Outcome {
	return Outcome{
		Status:  StatusAborted,
		Reason:  ReasonMissingKing,
		Message: fmt.Sprintf("Game ended due to missing king for %s.", color),
	}
}

func colorTitle(c PieceColor) string {
	if c == Black {
		return "Black"
	}
	return "White"
}
