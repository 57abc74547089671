package model

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/chessmate-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const DefaultClockTime = 10 * time.Minute

// The connections for a specific match
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex
	// sentVersion is the newest state version written; guarded by writeMu.
	sentVersion int64
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

type MatchOptions struct {
	ClockTime time.Duration
	// Picker, when set, plays the AIColor side.
	Picker  *MovePicker
	AIColor PieceColor
	// Game overrides the standard starting position.
	Game   *Game
	Logger *zap.Logger
}

// Match is one game between two seats together with its clocks and
// observers. Every access to the engine goes through the match mutex.
type Match struct {
	ID          string
	mu          sync.Mutex
	game        *Game
	players     Players
	whiteClock  *Clock
	blackClock  *Clock
	picker      *MovePicker
	aiColor     PieceColor
	drawOffer   PieceColor
	version     int64
	connections *GameConnections
	log         *zap.Logger
}

type CapturedPieces struct {
	White []Piece `json:"white"`
	Black []Piece `json:"black"`
}

// MatchState is what clients render.
type MatchState struct {
	ID              string         `json:"id"`
	Version         int64          `json:"version"`
	Sound           string         `json:"sound"`
	Board           []PieceEntry   `json:"board"`
	FEN             string         `json:"fen"`
	ToMove          PieceColor     `json:"toMove"`
	IsCheck         bool           `json:"isCheck"`
	MoveHistory     []Ply          `json:"moveHistory"`
	CapturedPieces  CapturedPieces `json:"capturedPieces"`
	LastMove        *SimpleMove    `json:"lastMove"`
	PromotionSquare *Position      `json:"promotionSquare"`
	Outcome         Outcome        `json:"outcome"`
	Resolve         *string        `json:"resolve"`
	DrawOffer       PieceColor     `json:"drawOffer,omitempty"`
	Players         Players        `json:"players"`
}

func NewMatch(id string, opts MatchOptions) *Match {
	clockTime := opts.ClockTime
	if clockTime <= 0 {
		clockTime = DefaultClockTime
	}
	game := opts.Game
	if game == nil {
		game = NewGame()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Match{
		ID:          id,
		game:        game,
		whiteClock:  NewClock(clockTime),
		blackClock:  NewClock(clockTime),
		connections: NewGameConnections(),
		log:         log.With(zap.String("gameId", id)),
	}
	if opts.Picker != nil && opts.AIColor.valid() {
		m.picker = opts.Picker
		m.aiColor = opts.AIColor
		*m.players.seat(opts.AIColor) = ClientPlayer{ID: ComputerPlayerID, Color: opts.AIColor}
		if m.playComputer() {
			m.afterTurn()
		}
	}
	m.syncClientClocks()
	return m
}

func (m *Match) AddPlayer(playerID string) (PieceColor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if color, ok := m.colorOf(playerID); ok {
		return color, nil
	}
	for _, c := range []PieceColor{White, Black} {
		seat := m.players.seat(c)
		if seat.ID == "" {
			seat.ID = playerID
			seat.Color = c
			m.syncClientClocks()
			m.log.Info("player seated", zap.String("player", playerID), zap.String("color", string(c)))
			return c, nil
		}
	}
	return "", ErrGameFull
}

func (m *Match) colorOf(playerID string) (PieceColor, bool) {
	if playerID == "" {
		return "", false
	}
	switch playerID {
	case m.players.White.ID:
		return White, true
	case m.players.Black.ID:
		return Black, true
	}
	return "", false
}

func (m *Match) IsPlayerInGame(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.colorOf(playerID)
	return ok
}

// CanSpectate reports whether a free seat is left.
func (m *Match) CanSpectate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.canSpectate()
}

func (m *Match) canSpectate() bool {
	return m.players.White.ID == "" || m.players.Black.ID == ""
}

// LegalMoves lists the destinations of the piece on from for the side to move.
func (m *Match) LegalMoves(from Position) []Move {
	m.mu.Lock()
	defer m.mu.Unlock()

	moves := m.game.LegalMovesFrom(from)
	if moves == nil {
		return []Move{}
	}
	return moves
}

func (m *Match) MakeMove(playerID string, move WSMove) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	color, err := m.moverColor(playerID)
	if err != nil {
		return err
	}
	if move.Promotion != "" && !move.Promotion.promotable() {
		return fmt.Errorf("%w: %q", ErrInvalidPromotion, move.Promotion)
	}
	if err := m.game.Move(move.From, move.To); err != nil {
		return err
	}

	if _, pending := m.game.PendingPromotion(); pending && move.Promotion != "" {
		// Cannot fail: the piece was checked before the move.
		_ = m.game.PromotePawn(move.Promotion)
	}
	m.drawOffer = ""
	m.playComputer()
	m.afterTurn()

	m.log.Info("move applied",
		zap.String("player", playerID),
		zap.String("color", string(color)),
		zap.Stringer("move", SimpleMove{From: move.From, To: move.To}),
	)
	m.broadcastLocked()
	return nil
}

func (m *Match) Promote(playerID string, pt PieceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.moverColor(playerID); err != nil {
		return err
	}
	if err := m.game.PromotePawn(pt); err != nil {
		return err
	}
	m.playComputer()
	m.afterTurn()
	m.log.Info("pawn promoted", zap.String("player", playerID), zap.String("piece", string(pt)))
	m.broadcastLocked()
	return nil
}

// moverColor checks that playerID may act for the side to move.
func (m *Match) moverColor(playerID string) (PieceColor, error) {
	color, ok := m.colorOf(playerID)
	if !ok {
		return "", ErrPlayerNotInGame
	}
	if m.game.IsGameOver() {
		return "", ErrGameOver
	}
	if color != m.game.CurrentTurn() {
		return "", ErrNotYourTurn
	}
	return color, nil
}

func (m *Match) Resign(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	color, ok := m.colorOf(playerID)
	if !ok {
		return ErrPlayerNotInGame
	}
	if err := m.game.Resign(color); err != nil {
		return err
	}
	m.drawOffer = ""
	m.afterTurn()
	m.log.Info("player resigned", zap.String("player", playerID))
	m.broadcastLocked()
	return nil
}

// OfferDraw records a draw offer, or accepts the opponent's standing offer.
func (m *Match) OfferDraw(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	color, ok := m.colorOf(playerID)
	if !ok {
		return ErrPlayerNotInGame
	}
	if m.game.IsGameOver() {
		return ErrGameOver
	}
	if m.drawOffer == color.Opponent() {
		if err := m.game.AgreeDraw(); err != nil {
			return err
		}
		m.drawOffer = ""
		m.afterTurn()
		m.log.Info("draw agreed")
	} else {
		m.drawOffer = color
		m.version++
	}
	m.broadcastLocked()
	return nil
}

func (m *Match) DeclineDraw(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	color, ok := m.colorOf(playerID)
	if !ok {
		return ErrPlayerNotInGame
	}
	if m.drawOffer != color.Opponent() {
		return ErrNoDrawOffer
	}
	m.drawOffer = ""
	m.version++
	m.broadcastLocked()
	return nil
}

// CheckClocks ends the game when the side to move has run out of time. It
// reports whether the game ended.
func (m *Match) CheckClocks() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.game.IsGameOver() {
		return false
	}
	turn := m.game.CurrentTurn()
	clock := m.clock(turn)
	if !clock.Running() || !clock.Expired() {
		return false
	}
	if err := m.game.Timeout(turn); err != nil {
		return false
	}
	m.afterTurn()
	m.log.Info("flag fell", zap.String("color", string(turn)))
	m.broadcastLocked()
	return true
}

func (m *Match) IsOver() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.IsGameOver()
}

func (m *Match) clock(c PieceColor) *Clock {
	if c == White {
		return m.whiteClock
	}
	return m.blackClock
}

// playComputer lets the computer answer when it is its turn.
func (m *Match) playComputer() bool {
	if m.picker == nil || m.game.CurrentTurn() != m.aiColor {
		return false
	}
	if _, pending := m.game.PendingPromotion(); pending {
		return false
	}
	mv, ok := m.picker.Play(m.game)
	if ok {
		m.log.Debug("computer moved", zap.Stringer("move", mv))
	}
	return ok
}

// afterTurn runs only the clock of the side to move, and none while a
// promotion is pending or once the game is over.
func (m *Match) afterTurn() {
	m.whiteClock.Stop()
	m.blackClock.Stop()
	_, pending := m.game.PendingPromotion()
	if !m.game.IsGameOver() && !pending {
		m.clock(m.game.CurrentTurn()).Start()
	}
	m.syncClientClocks()
	m.version++
}

func (m *Match) syncClientClocks() {
	m.players.White.TimeLeft = m.whiteClock.TimeLeft().Milliseconds()
	m.players.Black.TimeLeft = m.blackClock.TimeLeft().Milliseconds()
}

func (m *Match) State() MatchState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stateLocked()
}

func (m *Match) stateLocked() MatchState {
	m.syncClientClocks()
	g := m.game
	snap := g.Snapshot()
	state := MatchState{
		ID:          m.ID,
		Version:     m.version,
		Board:       snap.Board,
		FEN:         g.FEN(),
		ToMove:      g.CurrentTurn(),
		IsCheck:     g.InCheck(g.CurrentTurn()),
		MoveHistory: snap.MoveHistory,
		CapturedPieces: CapturedPieces{
			White: []Piece{},
			Black: []Piece{},
		},
		LastMove:        snap.LastMove,
		PromotionSquare: snap.PendingPromotion,
		Outcome:         g.Outcome(),
		DrawOffer:       m.drawOffer,
		Players:         m.players,
	}
	for _, ply := range snap.MoveHistory {
		if ply.CapturedPiece == nil {
			continue
		}
		if ply.Piece.Color == White {
			state.CapturedPieces.White = append(state.CapturedPieces.White, *ply.CapturedPiece)
		} else {
			state.CapturedPieces.Black = append(state.CapturedPieces.Black, *ply.CapturedPiece)
		}
	}
	if result, over := g.Result(); over {
		state.Resolve = &result
	}
	if n := len(snap.MoveHistory); n > 0 {
		last := snap.MoveHistory[n-1]
		switch {
		case state.IsCheck:
			state.Sound = "check"
		case last.CapturedPiece != nil:
			state.Sound = "capture"
		default:
			state.Sound = "move"
		}
	}
	return state
}

// Snapshot returns the engine state together with the match version it belongs to.
func (m *Match) Snapshot() (Snapshot, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.Snapshot(), m.version
}

// Reconcile replaces the engine state with a canonical snapshot from the
// document store. Snapshots older than the local state are rejected.
func (m *Match) Reconcile(s Snapshot, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if version < m.version {
		return ErrSnapshotOutOfDate
	}
	if version == m.version {
		return nil
	}
	m.game = RestoreGame(s)
	m.drawOffer = ""
	m.afterTurn()
	m.version = version
	m.log.Info("state reconciled", zap.Int64("version", version))
	m.broadcastLocked()
	return nil
}

func (m *Match) RegisterConnection(playerID string, conn *websocket.Conn) error {
	m.mu.Lock()
	_, seated := m.colorOf(playerID)
	isAuthorized := seated || m.canSpectate()
	m.mu.Unlock()

	if !isAuthorized {
		return ErrNotAuthorized
	}

	m.connections.mu.Lock()
	if _, exists := m.connections.connections[playerID]; exists {
		// Keep the healthy connection and reject the new one
		m.connections.mu.Unlock()
		m.connections.writeMu.Lock()
		_ = conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection already exists"),
		)
		m.connections.writeMu.Unlock()
		conn.Close()
		return nil
	}
	m.connections.connections[playerID] = conn
	m.connections.mu.Unlock()
	m.log.Info("connection registered", zap.String("player", playerID))

	m.mu.Lock()
	m.broadcastLocked()
	m.mu.Unlock()
	return nil
}

// UnregisterConnection removes conn if it is still the player's current connection.
func (m *Match) UnregisterConnection(playerID string, conn *websocket.Conn) {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()

	if current, exists := m.connections.connections[playerID]; exists && current == conn {
		delete(m.connections.connections, playerID)
		m.log.Info("connection unregistered", zap.String("player", playerID))
	}
}

// Send writes msg to one connection without interleaving with broadcasts.
func (m *Match) Send(conn *websocket.Conn, msg ws.Message) error {
	m.connections.writeMu.Lock()
	defer m.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// broadcastLocked serializes the state under the match lock and writes it to
// every observer in the background.
func (m *Match) broadcastLocked() {
	payload, err := json.Marshal(m.stateLocked())
	if err != nil {
		m.log.Error("failed to marshal state", zap.Error(err))
		return
	}
	go m.broadcast(ws.Message{Type: ws.MessageTypeGameState, Payload: payload}, m.version)
}

// broadcast writes a state of the given version to every observer. A state
// older than one already written is dropped, since the goroutines started by
// broadcastLocked may arrive out of order. It reports whether msg was sent.
func (m *Match) broadcast(msg ws.Message, version int64) bool {
	m.connections.writeMu.Lock()
	defer m.connections.writeMu.Unlock()
	if version < m.connections.sentVersion {
		return false
	}
	m.connections.sentVersion = version

	m.connections.mu.RLock()
	active := make(map[string]*websocket.Conn, len(m.connections.connections))
	for playerID, conn := range m.connections.connections {
		active[playerID] = conn
	}
	m.connections.mu.RUnlock()

	for playerID, conn := range active {
		if err := conn.WriteJSON(msg); err != nil {
			m.log.Warn("failed to send state", zap.String("player", playerID), zap.Error(err))
			m.UnregisterConnection(playerID, conn)
		}
	}
	return true
}
