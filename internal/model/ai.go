package model

import (
	"math/rand"
	"sync"
)

// MovePicker chooses moves for the computer opponent: the most valuable
// capture available, otherwise any legal move. Ties are broken at random.
type MovePicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMovePicker uses src for tie-breaks; pass a fixed seed for reproducible play.
func NewMovePicker(src rand.Source) *MovePicker {
	return &MovePicker{rng: rand.New(src)}
}

// Pick returns the move the picker would play for color, false when color
// has no legal move.
func (mp *MovePicker) Pick(g *Game, color PieceColor) (SimpleMove, bool) {
	moves := g.LegalMovesFor(color)
	if len(moves) == 0 {
		return SimpleMove{}, false
	}

	best := -1
	var candidates []SimpleMove
	for _, m := range moves {
		target := g.board.At(m.To)
		if target == nil || target.Color == color {
			continue
		}
		v := target.Type.Value()
		switch {
		case v > best:
			best = v
			candidates = []SimpleMove{m}
		case v == best:
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		candidates = moves
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()
	return candidates[mp.rng.Intn(len(candidates))], true
}

// Play picks and applies a move for the side to move, promoting to a queen
// when the move reaches the last rank.
func (mp *MovePicker) Play(g *Game) (SimpleMove, bool) {
	if g.IsGameOver() {
		return SimpleMove{}, false
	}
	m, ok := mp.Pick(g, g.turn)
	if !ok {
		return SimpleMove{}, false
	}
	if err := g.Move(m.From, m.To); err != nil {
		return SimpleMove{}, false
	}
	if _, pending := g.PendingPromotion(); pending {
		_ = g.PromotePawn(Queen)
	}
	return m, true
}
