package service

import (
	"context"
	"fmt"

	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.PieceColor, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

// CreateGame starts a new game, from fen when it is not empty.
func (gs *GameService) CreateGame(ctx context.Context, fen string) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(ctx, gameID, fen); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) CreateAIGame(ctx context.Context, playerID string, color model.PieceColor) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateAIGame(ctx, gameID, playerID, color); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) DeleteGame(ctx context.Context, gameID, playerID string) error {
	return gs.gameManager.DeleteGame(ctx, gameID, playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.MatchState, error) {
	return gs.gameManager.GetGameState(gameID)
}

func (gs *GameService) LegalMoves(gameID string, from model.Position) ([]model.Move, error) {
	return gs.gameManager.LegalMoves(gameID, from)
}

func (gs *GameService) HandleMove(ctx context.Context, gameID string, playerID string, move model.WSMove) error {
	return gs.gameManager.MakeMove(ctx, gameID, playerID, move)
}

func (gs *GameService) HandlePromotion(ctx context.Context, gameID, playerID string, piece model.PieceType) error {
	return gs.gameManager.Promote(ctx, gameID, playerID, piece)
}

func (gs *GameService) Resign(ctx context.Context, gameID, playerID string) error {
	return gs.gameManager.Resign(ctx, gameID, playerID)
}

func (gs *GameService) OfferDraw(ctx context.Context, gameID, playerID string) error {
	return gs.gameManager.OfferDraw(ctx, gameID, playerID)
}

func (gs *GameService) DeclineDraw(ctx context.Context, gameID, playerID string) error {
	return gs.gameManager.DeclineDraw(ctx, gameID, playerID)
}

func (gs *GameService) Snapshot(gameID string) (model.Snapshot, int64, error) {
	return gs.gameManager.Snapshot(gameID)
}

func (gs *GameService) ApplySnapshot(ctx context.Context, gameID string, version int64, snap model.Snapshot) error {
	return gs.gameManager.ApplySnapshot(ctx, gameID, version, snap)
}

func (gs *GameService) Sync(ctx context.Context, gameID string) error {
	return gs.gameManager.Sync(ctx, gameID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) Send(gameID string, conn *websocket.Conn, msg ws.Message) error {
	return gs.gameManager.Send(gameID, conn, msg)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
