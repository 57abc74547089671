package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benbeisheim/chessmate-backend/internal/middleware"
	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/service"
	"github.com/benbeisheim/chessmate-backend/internal/store"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	gm := service.NewGameManager(service.Options{
		Store:  store.NewMemoryStore(),
		Picker: model.NewMovePicker(rand.NewSource(1)),
	})
	gc := NewGameController(service.NewGameService(gm), zap.NewNop())

	app := fiber.New()
	api := app.Group("/api", middleware.EnsurePlayerID())
	gc.Register(api.Group("/game"))
	return app
}

func call(t *testing.T, app *fiber.App, method, path, player string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if player != "" {
		req.Header.Set("X-Player-ID", player)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func createGame(t *testing.T, app *fiber.App, body any) string {
	t.Helper()
	status, data := call(t, app, http.MethodPost, "/api/game/create", "alice", body)
	require.Equal(t, http.StatusCreated, status, string(data))
	resp := decode[map[string]string](t, data)
	require.NotEmpty(t, resp["game_id"])
	return resp["game_id"]
}

func TestGameController_RequiresPlayer(t *testing.T) {
	app := newTestApp(t)
	status, _ := call(t, app, http.MethodPost, "/api/game/create", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGameController_PlayGame(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app, nil)
	base := "/api/game/" + id

	status, data := call(t, app, http.MethodPost, "/api/game/join/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, "white", decode[map[string]string](t, data)["color"])
	status, _ = call(t, app, http.MethodPost, "/api/game/join/"+id, "bob", nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, "/api/game/join/"+id, "carol", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, data = call(t, app, http.MethodGet, base+"/moves?from=g1", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	moves := decode[struct {
		Moves []model.Move `json:"moves"`
	}](t, data)
	assert.Len(t, moves.Moves, 2)

	status, _ = call(t, app, http.MethodGet, base+"/moves?from=z9", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	e2e4 := model.WSMove{From: model.Position{Row: 1, Col: 4}, To: model.Position{Row: 3, Col: 4}}
	status, _ = call(t, app, http.MethodPost, base+"/move", "bob", e2e4)
	assert.Equal(t, http.StatusUnprocessableEntity, status, "out of turn")
	status, _ = call(t, app, http.MethodPost, base+"/move", "carol", e2e4)
	assert.Equal(t, http.StatusForbidden, status)

	status, data = call(t, app, http.MethodPost, base+"/move", "alice", e2e4)
	require.Equal(t, http.StatusOK, status, string(data))
	state := decode[model.MatchState](t, data)
	assert.Equal(t, model.Black, state.ToMove)
	assert.Equal(t, "e4", state.MoveHistory[0].Notation)

	status, _ = call(t, app, http.MethodPost, base+"/draw/decline", "bob", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, _ = call(t, app, http.MethodPost, base+"/draw/offer", "bob", nil)
	require.Equal(t, http.StatusOK, status)
	status, data = call(t, app, http.MethodPost, base+"/draw/offer", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	state = decode[model.MatchState](t, data)
	assert.Equal(t, model.ReasonAgreement, state.Outcome.Reason)
	require.NotNil(t, state.Resolve)
	assert.Equal(t, "Draw by agreement.", *state.Resolve)

	status, _ = call(t, app, http.MethodPost, base+"/resign", "alice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestGameController_SeatsSurviveLaterRequests(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app, nil)

	for _, player := range []string{"alice", "bob"} {
		status, data := call(t, app, http.MethodPost, "/api/game/join/"+id, player, nil)
		require.Equal(t, http.StatusOK, status, string(data))
	}
	status, _ := call(t, app, http.MethodPost, "/api/game/join/"+id, "carol", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, data := call(t, app, http.MethodGet, "/api/game/"+id, "dave", nil)
	require.Equal(t, http.StatusOK, status)
	state := decode[model.MatchState](t, data)
	assert.Equal(t, "alice", state.Players.White.ID)
	assert.Equal(t, "bob", state.Players.Black.ID)
}

func TestGameController_CreateFromFENAndPromote(t *testing.T) {
	app := newTestApp(t)

	status, data := call(t, app, http.MethodPost, "/api/game/create", "alice", map[string]string{"fen": "8/8 w - -"})
	assert.Equal(t, http.StatusUnprocessableEntity, status, string(data))

	id := createGame(t, app, map[string]string{"fen": "8/4P3/8/8/8/8/k6p/4K3 w - - 0 1"})
	base := "/api/game/" + id
	status, _ = call(t, app, http.MethodPost, "/api/game/join/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, status)

	e7e8 := model.WSMove{From: model.Position{Row: 6, Col: 4}, To: model.Position{Row: 7, Col: 4}}
	status, data = call(t, app, http.MethodPost, base+"/move", "alice", e7e8)
	require.Equal(t, http.StatusOK, status, string(data))
	state := decode[model.MatchState](t, data)
	require.NotNil(t, state.PromotionSquare)

	status, _ = call(t, app, http.MethodPost, base+"/promote", "alice", map[string]string{"piece": "king"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	status, data = call(t, app, http.MethodPost, base+"/promote", "alice", map[string]string{"piece": "rook"})
	require.Equal(t, http.StatusOK, status, string(data))
	state = decode[model.MatchState](t, data)
	assert.Nil(t, state.PromotionSquare)
	assert.Equal(t, "e8=R", state.MoveHistory[0].Notation)
}

func TestGameController_AIGame(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, http.MethodPost, "/api/game/ai", "alice", map[string]string{"color": "green"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, data := call(t, app, http.MethodPost, "/api/game/ai", "alice", map[string]string{"color": "black"})
	require.Equal(t, http.StatusCreated, status, string(data))
	resp := decode[map[string]string](t, data)
	assert.Equal(t, "black", resp["color"])

	status, data = call(t, app, http.MethodGet, "/api/game/"+resp["game_id"], "alice", nil)
	require.Equal(t, http.StatusOK, status)
	state := decode[model.MatchState](t, data)
	assert.Equal(t, model.ComputerPlayerID, state.Players.White.ID)
	assert.Len(t, state.MoveHistory, 1)
}

func TestGameController_Snapshots(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app, nil)
	base := "/api/game/" + id

	status, data := call(t, app, http.MethodGet, base+"/snapshot", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	env := decode[snapshotEnvelope](t, data)
	assert.Zero(t, env.Version)
	assert.Len(t, env.Snapshot.Board, 32)

	endgame, err := model.ParseFEN("4k3/8/8/8/8/8/8/R3K3 b - - 0 40")
	require.NoError(t, err)
	status, data = call(t, app, http.MethodPut, base+"/snapshot", "alice", snapshotEnvelope{Version: 4, Snapshot: endgame.Snapshot()})
	require.Equal(t, http.StatusOK, status, string(data))
	state := decode[model.MatchState](t, data)
	assert.Equal(t, "4k3/8/8/8/8/8/8/R3K3 b - - 0 40", state.FEN)
	assert.Equal(t, int64(4), state.Version)

	status, _ = call(t, app, http.MethodPut, base+"/snapshot", "alice", snapshotEnvelope{Version: 2, Snapshot: endgame.Snapshot()})
	assert.Equal(t, http.StatusConflict, status)

	status, data = call(t, app, http.MethodPost, base+"/sync", "alice", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	assert.Equal(t, int64(4), decode[model.MatchState](t, data).Version)
}

func TestGameController_BoardImage(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/game/"+id+"/board.svg?flip=true", nil)
	req.Header.Set("X-Player-ID", "alice")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "<?xml"))
	assert.Contains(t, string(body), "</svg>")
}

func TestGameController_DeleteAndMissing(t *testing.T) {
	app := newTestApp(t)
	id := createGame(t, app, nil)
	status, _ := call(t, app, http.MethodPost, "/api/game/join/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodDelete, "/api/game/"+id, "bob", nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, app, http.MethodDelete, "/api/game/"+id, "alice", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, data := call(t, app, http.MethodGet, "/api/game/"+id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, decode[map[string]string](t, data)["error"], "game not found")
}

func TestGameController_Matchmaking(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, http.MethodPost, "/api/game/matchmaking/leave", "alice", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = call(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, "/api/game/matchmaking/join", "alice", nil)
	assert.Equal(t, http.StatusConflict, status)
	status, data := call(t, app, http.MethodPost, "/api/game/matchmaking/leave", "alice", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "left", decode[map[string]string](t, data)["status"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", service.ErrGameNotFound), http.StatusNotFound},
		{model.ErrNotAuthorized, http.StatusForbidden},
		{model.ErrGameFull, http.StatusConflict},
		{fmt.Errorf("put: %w", store.ErrVersionConflict), http.StatusConflict},
		{model.ErrSnapshotOutOfDate, http.StatusConflict},
		{fmt.Errorf("%w: e2 to e5", model.ErrInvalidMove), http.StatusUnprocessableEntity},
		{model.ErrNoDrawOffer, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
