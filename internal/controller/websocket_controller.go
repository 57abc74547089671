package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/service"
	"github.com/benbeisheim/chessmate-backend/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
	log         *zap.Logger
}

func NewWebSocketController(gameService *service.GameService, log *zap.Logger) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
		log:         log.Named("ws"),
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := wsc.log.With(zap.String("gameId", gameID), zap.String("player", playerID))

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warn("failed to register connection", zap.Error(err))
		wsc.sendError(c, err)
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug("parse error", zap.Error(err))
			wsc.reply(gameID, c, fmt.Errorf("malformed message: %w", err))
			continue
		}

		if err := wsc.handleMessage(context.Background(), gameID, playerID, msg); err != nil {
			log.Debug("handle error", zap.String("type", string(msg.Type)), zap.Error(err))
			wsc.reply(gameID, c, err)
		}
	}
}

// Handle different types of incoming messages
func (wsc *WebSocketController) handleMessage(ctx context.Context, gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		return wsc.gameService.HandleMove(ctx, gameID, playerID, move)

	case ws.MessageTypePromote:
		var p ws.PromotePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		return wsc.gameService.HandlePromotion(ctx, gameID, playerID, model.PieceType(p.Piece))

	case ws.MessageTypeResign:
		return wsc.gameService.Resign(ctx, gameID, playerID)

	case ws.MessageTypeDrawOffer:
		return wsc.gameService.OfferDraw(ctx, gameID, playerID)

	case ws.MessageTypeDrawDecline:
		return wsc.gameService.DeclineDraw(ctx, gameID, playerID)

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and waits for a partner. The match is
// pushed as a matchFound message before the socket is closed.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := wsc.log.With(zap.String("player", playerID))

	ch := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		wsc.sendError(c, err)
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		wsc.sendError(c, err)
		c.Close()
		return
	}

	// The reader notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// Replaced by a newer matchmaking connection
			c.Close()
			return
		}
		if err := c.WriteJSON(ws.Message{Type: ws.MessageTypeMatchFound, Payload: json.RawMessage(event)}); err != nil {
			log.Warn("failed to send match", zap.Error(err))
		}
		c.Close()
	case <-gone:
		if wsc.gameService.LeaveMatchmaking(playerID) {
			log.Info("left matchmaking")
		}
	}
}

// reply sends an error on a socket registered with a game.
func (wsc *WebSocketController) reply(gameID string, c *websocket.Conn, err error) {
	msg, mErr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
	if mErr != nil {
		return
	}
	if sErr := wsc.gameService.Send(gameID, c, msg); sErr != nil {
		wsc.log.Debug("failed to send error", zap.Error(sErr))
	}
}

// Helper method to send error messages on sockets nobody else writes to
func (wsc *WebSocketController) sendError(c *websocket.Conn, err error) {
	msg, mErr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
	if mErr != nil {
		return
	}
	if wErr := c.WriteJSON(msg); wErr != nil {
		wsc.log.Debug("failed to send error", zap.Error(wErr))
	}
}
