package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/benbeisheim/chessmate-backend/internal/model"
	"github.com/benbeisheim/chessmate-backend/internal/store"
	"github.com/benbeisheim/chessmate-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

type Options struct {
	ClockTime           time.Duration
	MatchmakingInterval time.Duration
	ClockCheckInterval  time.Duration
	Store               store.Store
	Picker              *model.MovePicker
	Logger              *zap.Logger
}

type GameManager struct {
	games            map[string]*model.Match
	queue            *model.Queue
	matchingChannels map[string]chan string
	store            store.Store
	picker           *model.MovePicker
	opts             Options
	log              *zap.Logger
	mu               sync.RWMutex
}

func NewGameManager(opts Options) *GameManager {
	if opts.MatchmakingInterval <= 0 {
		opts.MatchmakingInterval = time.Second
	}
	if opts.ClockCheckInterval <= 0 {
		opts.ClockCheckInterval = 250 * time.Millisecond
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Picker == nil {
		opts.Picker = model.NewMovePicker(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &GameManager{
		games:            make(map[string]*model.Match),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		store:            opts.Store,
		picker:           opts.Picker,
		opts:             opts,
		log:              opts.Logger.Named("manager"),
	}
}

// Start runs the matchmaking and clock loops until ctx is cancelled.
func (gm *GameManager) Start(ctx context.Context) {
	go gm.processMatchmaking(ctx)
	go gm.watchClocks(ctx)
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.log.Debug("registering matchmaking channel", zap.String("player", playerID))

	// If there's an existing channel, we need to handle it properly
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		// Remove from map first to prevent any new writes
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch if it is still the player's channel.
// The channel is not closed here; whoever closed over it owns it.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; ok && current == ch {
		delete(gm.matchingChannels, playerID)
	}
}

func (gm *GameManager) processMatchmaking(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.MatchmakingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchOnce(ctx) {
			}
		}
	}
}

// matchOnce pairs the two longest-waiting players. It reports whether a
// match was created.
func (gm *GameManager) matchOnce(ctx context.Context) bool {
	player1, player2, ok := gm.queue.NextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	match := gm.newMatch(gameID, model.MatchOptions{})
	p1Color, err := match.AddPlayer(player1.ID)
	if err != nil {
		gm.log.Error("failed to seat player", zap.String("player", player1.ID), zap.Error(err))
		return true
	}
	p2Color, err := match.AddPlayer(player2.ID)
	if err != nil {
		gm.log.Error("failed to seat player", zap.String("player", player2.ID), zap.Error(err))
		return true
	}

	gm.mu.Lock()
	gm.games[gameID] = match
	sent1 := gm.notifyMatchFound(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	sent2 := gm.notifyMatchFound(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
	gm.mu.Unlock()

	gm.persist(ctx, match)
	gm.log.Info("match created",
		zap.String("gameId", gameID),
		zap.String("white", colorSeat(player1.ID, p1Color, player2.ID)),
		zap.String("black", colorSeat(player2.ID, p2Color, player1.ID)),
	)
	if !sent1 || !sent2 {
		gm.log.Warn("failed to notify all players of match", zap.String("gameId", gameID))
	}
	return true
}

func colorSeat(id string, color model.PieceColor, other string) string {
	if color == model.White {
		return id
	}
	return other
}

// notifyMatchFound sends the event and retires the channel. Callers hold gm.mu.
func (gm *GameManager) notifyMatchFound(playerID string, event model.MatchFoundEvent) bool {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		return false
	}
	payload, err := json.Marshal(event)
	if err != nil {
		gm.log.Error("failed to marshal match event", zap.Error(err))
		return false
	}
	select {
	case ch <- string(payload):
		delete(gm.matchingChannels, playerID)
		close(ch)
		return true
	default:
		return false
	}
}

func (gm *GameManager) watchClocks(ctx context.Context) {
	ticker := time.NewTicker(gm.opts.ClockCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.checkClocks(ctx)
		}
	}
}

func (gm *GameManager) checkClocks(ctx context.Context) {
	for _, match := range gm.activeMatches() {
		if match.CheckClocks() {
			gm.persist(ctx, match)
		}
	}
}

func (gm *GameManager) activeMatches() []*model.Match {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	matches := make([]*model.Match, 0, len(gm.games))
	for _, m := range gm.games {
		if !m.IsOver() {
			matches = append(matches, m)
		}
	}
	return matches
}

func (gm *GameManager) newMatch(gameID string, opts model.MatchOptions) *model.Match {
	opts.ClockTime = gm.opts.ClockTime
	opts.Logger = gm.opts.Logger
	return model.NewMatch(gameID, opts)
}

// CreateGame registers a new match, starting from fen when it is not empty.
func (gm *GameManager) CreateGame(ctx context.Context, gameID, fen string) error {
	opts := model.MatchOptions{}
	if fen != "" {
		game, err := model.ParseFEN(fen)
		if err != nil {
			return err
		}
		opts.Game = game
	}

	gm.mu.Lock()
	if _, exists := gm.games[gameID]; exists {
		gm.mu.Unlock()
		return fmt.Errorf("%s: %w", gameID, ErrGameExists)
	}
	match := gm.newMatch(gameID, opts)
	gm.games[gameID] = match
	gm.mu.Unlock()

	gm.persist(ctx, match)
	gm.log.Info("game created", zap.String("gameId", gameID))
	return nil
}

// CreateAIGame seats playerID as color against the computer.
func (gm *GameManager) CreateAIGame(ctx context.Context, gameID, playerID string, color model.PieceColor) error {
	if color != model.Black {
		color = model.White
	}

	gm.mu.Lock()
	if _, exists := gm.games[gameID]; exists {
		gm.mu.Unlock()
		return fmt.Errorf("%s: %w", gameID, ErrGameExists)
	}
	match := gm.newMatch(gameID, model.MatchOptions{Picker: gm.picker, AIColor: color.Opponent()})
	if _, err := match.AddPlayer(playerID); err != nil {
		gm.mu.Unlock()
		return err
	}
	gm.games[gameID] = match
	gm.mu.Unlock()

	gm.persist(ctx, match)
	gm.log.Info("computer game created", zap.String("gameId", gameID), zap.String("player", playerID))
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Match, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, fmt.Errorf("%s: %w", gameID, ErrGameNotFound)
	}

	return game, nil
}

// DeleteGame drops a match and its canonical document. Only seated players
// may delete.
func (gm *GameManager) DeleteGame(ctx context.Context, gameID, playerID string) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if !match.IsPlayerInGame(playerID) {
		return model.ErrPlayerNotInGame
	}

	gm.mu.Lock()
	delete(gm.games, gameID)
	gm.mu.Unlock()

	if err := gm.store.Delete(ctx, gameID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	gm.log.Info("game deleted", zap.String("gameId", gameID))
	return nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.PieceColor, error) {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return match.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return err
	}
	gm.log.Info("player queued", zap.String("player", playerID), zap.Int("queueSize", gm.queue.Size()))
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) GetGameState(gameID string) (model.MatchState, error) {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return model.MatchState{}, err
	}
	return match.State(), nil
}

func (gm *GameManager) LegalMoves(gameID string, from model.Position) ([]model.Move, error) {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return match.LegalMoves(from), nil
}

// apply runs action against the match and persists the result.
func (gm *GameManager) apply(ctx context.Context, gameID string, action func(*model.Match) error) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := action(match); err != nil {
		return err
	}
	gm.persist(ctx, match)
	return nil
}

func (gm *GameManager) MakeMove(ctx context.Context, gameID string, playerID string, move model.WSMove) error {
	return gm.apply(ctx, gameID, func(m *model.Match) error {
		return m.MakeMove(playerID, move)
	})
}

func (gm *GameManager) Promote(ctx context.Context, gameID, playerID string, piece model.PieceType) error {
	return gm.apply(ctx, gameID, func(m *model.Match) error {
		return m.Promote(playerID, piece)
	})
}

func (gm *GameManager) Resign(ctx context.Context, gameID, playerID string) error {
	return gm.apply(ctx, gameID, func(m *model.Match) error {
		return m.Resign(playerID)
	})
}

func (gm *GameManager) OfferDraw(ctx context.Context, gameID, playerID string) error {
	return gm.apply(ctx, gameID, func(m *model.Match) error {
		return m.OfferDraw(playerID)
	})
}

func (gm *GameManager) DeclineDraw(ctx context.Context, gameID, playerID string) error {
	return gm.apply(ctx, gameID, func(m *model.Match) error {
		return m.DeclineDraw(playerID)
	})
}

func (gm *GameManager) Snapshot(gameID string) (model.Snapshot, int64, error) {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return model.Snapshot{}, 0, err
	}
	snap, version := match.Snapshot()
	return snap, version, nil
}

// ApplySnapshot publishes a canonical snapshot to the store and reconciles
// the running match with it.
func (gm *GameManager) ApplySnapshot(ctx context.Context, gameID string, version int64, snap model.Snapshot) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := gm.store.Put(ctx, store.Document{ID: gameID, Version: version, Data: data}); err != nil {
		return err
	}
	return match.Reconcile(snap, version)
}

// Sync pulls the canonical document from the store into the running match.
func (gm *GameManager) Sync(ctx context.Context, gameID string) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	doc, err := gm.store.Get(ctx, gameID)
	if err != nil {
		return err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(doc.Data, &snap); err != nil {
		return fmt.Errorf("decode snapshot %s: %w", gameID, err)
	}
	return match.Reconcile(snap, doc.Version)
}

// persist writes the match state to the store. A conflict means a newer
// document is already there and is left alone.
func (gm *GameManager) persist(ctx context.Context, match *model.Match) {
	snap, version := match.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		gm.log.Error("failed to marshal snapshot", zap.String("gameId", match.ID), zap.Error(err))
		return
	}
	err = gm.store.Put(ctx, store.Document{ID: match.ID, Version: version, Data: data})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrVersionConflict):
		gm.log.Debug("stored snapshot is newer", zap.String("gameId", match.ID), zap.Int64("version", version))
	default:
		gm.log.Error("failed to persist snapshot", zap.String("gameId", match.ID), zap.Error(err))
	}
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return match.RegisterConnection(playerID, conn)
}

func (gm *GameManager) Send(gameID string, conn *websocket.Conn, msg ws.Message) error {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return match.Send(conn, msg)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	match, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	match.UnregisterConnection(playerID, conn)
}
