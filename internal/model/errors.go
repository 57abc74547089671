package model

import "errors"

var (
	ErrInvalidMove        = errors.New("invalid move")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrGameOver           = errors.New("game is over")
	ErrPromotionPending   = errors.New("promotion pending")
	ErrNoPendingPromotion = errors.New("no pending promotion")
	ErrInvalidPromotion   = errors.New("invalid promotion piece")
	ErrInvalidFEN         = errors.New("invalid FEN")
	ErrInvalidSignature   = errors.New("invalid position signature")
	ErrGameFull           = errors.New("game is full")
	ErrPlayerNotInGame    = errors.New("player not in game")
	ErrAlreadyQueued      = errors.New("player already in queue")
	ErrNoDrawOffer        = errors.New("no draw offer to accept")
	ErrNotAuthorized      = errors.New("not authorized to join this game")
	ErrSnapshotOutOfDate  = errors.New("snapshot is older than the current state")
)
