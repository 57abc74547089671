package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func sq(t testing.TB, s string) Position {
	t.Helper()
	p, err := ParseSquare(s)
	require.NoError(t, err)
	return p
}

func mustFEN(t testing.TB, fen string) *Game {
	t.Helper()
	g, err := ParseFEN(fen)
	require.NoError(t, err)
	return g
}

var promotionLetters = map[byte]PieceType{'q': Queen, 'r': Rook, 'b': Bishop, 'n': Knight}

// play applies moves in coordinate form ("e2e4", "e7e8q").
func play(t testing.TB, g *Game, moves ...string) {
	t.Helper()
	for _, m := range moves {
		require.NoError(t, g.Move(sq(t, m[:2]), sq(t, m[2:4])), m)
		if len(m) == 5 {
			require.NoError(t, g.PromotePawn(promotionLetters[m[4]]), m)
		}
	}
}

func destinations(moves []Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.To.String())
	}
	sort.Strings(out)
	return out
}

func moveSet(moves []SimpleMove) []string {
	seen := make(map[string]bool, len(moves))
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		s := m.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
