package controller

import (
	"context"
	"encoding/json"
	"math/rand"
	"net"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessmate-backend/internal/middleware"
	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/service"
	"github.com/benbeisheim/chessmate-backend/internal/store"
	"github.com/benbeisheim/chessmate-backend/internal/ws"
)

// startWSServer serves the websocket routes on a loopback port and returns
// the service behind them together with the ws:// base address.
func startWSServer(t *testing.T) (*service.GameService, string) {
	t.Helper()
	gm := service.NewGameManager(service.Options{
		MatchmakingInterval: 5 * time.Millisecond,
		Store:               store.NewMemoryStore(),
		Picker:              model.NewMovePicker(rand.NewSource(1)),
	})
	ctx, cancel := context.WithCancel(context.Background())
	gm.Start(ctx)
	gs := service.NewGameService(gm)
	wsc := NewWebSocketController(gs, zap.NewNop())

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	routes := app.Group("/ws", middleware.EnsurePlayerID())
	routes.Get("/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsc.HandleConnection))
	routes.Get("/matchmaking", middleware.WebSocketUpgrade(), websocket.New(wsc.HandleMatchmaking))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		cancel()
		_ = app.Shutdown()
	})
	return gs, "ws://" + ln.Addr().String()
}

func dial(t *testing.T, url string) *fastws.Conn {
	t.Helper()
	conn, resp, err := fastws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *fastws.Conn, typ ws.MessageType, payload any) {
	t.Helper()
	msg := ws.Message{Type: typ}
	if payload != nil {
		var err error
		msg, err = ws.NewMessage(typ, payload)
		require.NoError(t, err)
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func read(t *testing.T, conn *fastws.Conn) ws.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ws.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readState skips messages until a game state satisfying ok arrives.
func readState(t *testing.T, conn *fastws.Conn, ok func(model.MatchState) bool) model.MatchState {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.Type != ws.MessageTypeGameState {
			continue
		}
		var state model.MatchState
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		if ok(state) {
			return state
		}
	}
}

func readError(t *testing.T, conn *fastws.Conn) string {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.Type != ws.MessageTypeError {
			continue
		}
		var p ws.ErrorPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &p))
		return p.Error
	}
}

func TestWebSocketController_Game(t *testing.T) {
	gs, base := startWSServer(t)
	ctx := context.Background()
	id, err := gs.CreateGame(ctx, "")
	require.NoError(t, err)
	for _, player := range []string{"alice", "bob"} {
		_, err := gs.JoinGame(id, player)
		require.NoError(t, err)
	}

	alice := dial(t, base+"/ws/game/"+id+"?playerId=alice")
	readState(t, alice, func(model.MatchState) bool { return true })
	bob := dial(t, base+"/ws/game/"+id+"?playerId=bob")
	readState(t, bob, func(model.MatchState) bool { return true })

	e2e4 := model.WSMove{From: model.Position{Row: 1, Col: 4}, To: model.Position{Row: 3, Col: 4}}
	send(t, bob, ws.MessageTypeMove, e2e4)
	assert.Contains(t, readError(t, bob), "not your turn")

	send(t, alice, ws.MessageTypeMove, e2e4)
	moved := func(s model.MatchState) bool { return len(s.MoveHistory) == 1 }
	state := readState(t, bob, moved)
	assert.Equal(t, model.Black, state.ToMove)
	readState(t, alice, moved)

	send(t, bob, ws.MessageTypePromote, ws.PromotePayload{Piece: "queen"})
	assert.Contains(t, readError(t, bob), "no pending promotion")

	send(t, bob, ws.MessageTypeDrawOffer, nil)
	offered := readState(t, alice, func(s model.MatchState) bool { return s.DrawOffer == model.Black })
	send(t, alice, ws.MessageTypeDrawDecline, nil)
	state = readState(t, bob, func(s model.MatchState) bool { return s.Version > offered.Version && s.DrawOffer == "" })
	assert.False(t, state.Outcome.Terminal())

	send(t, alice, "castleEverything", nil)
	assert.Contains(t, readError(t, alice), "unknown message type")
	require.NoError(t, alice.WriteMessage(fastws.TextMessage, []byte("{not json")))
	assert.Contains(t, readError(t, alice), "malformed message")

	send(t, bob, ws.MessageTypeResign, nil)
	state = readState(t, alice, func(s model.MatchState) bool { return s.Outcome.Terminal() })
	assert.Equal(t, model.ReasonResignation, state.Outcome.Reason)
	assert.Equal(t, model.White, state.Outcome.Winner)
}

func TestWebSocketController_RejectsOutsiders(t *testing.T) {
	gs, base := startWSServer(t)
	id, err := gs.CreateGame(context.Background(), "")
	require.NoError(t, err)
	for _, player := range []string{"alice", "bob"} {
		_, err := gs.JoinGame(id, player)
		require.NoError(t, err)
	}

	carol := dial(t, base+"/ws/game/"+id+"?playerId=carol")
	msg := read(t, carol)
	assert.Equal(t, ws.MessageTypeError, msg.Type)

	ghost := dial(t, base+"/ws/game/missing?playerId=alice")
	msg = read(t, ghost)
	assert.Equal(t, ws.MessageTypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "game not found")
}

func TestWebSocketController_Matchmaking(t *testing.T) {
	_, base := startWSServer(t)

	alice := dial(t, base+"/ws/matchmaking?playerId=alice")
	bob := dial(t, base+"/ws/matchmaking?playerId=bob")

	var events []model.MatchFoundEvent
	for _, conn := range []*fastws.Conn{alice, bob} {
		msg := read(t, conn)
		require.Equal(t, ws.MessageTypeMatchFound, msg.Type)
		var event model.MatchFoundEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		events = append(events, event)
	}
	assert.Equal(t, events[0].GameID, events[1].GameID)
	assert.ElementsMatch(t, []model.PieceColor{model.White, model.Black}, []model.PieceColor{events[0].Color, events[1].Color})
}
