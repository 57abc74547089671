package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFEN_RoundTrip(t *testing.T) {
	for _, fen := range sampleFENs {
		t.Run(fen, func(t *testing.T) {
			assert.Equal(t, fen, mustFEN(t, fen).FEN())
		})
	}
}

func TestFEN_NewGame(t *testing.T) {
	assert.Equal(t, StartFEN, NewGame().FEN())
}

func TestFEN_TracksPlay(t *testing.T) {
	g := NewGame()
	play(t, g, "e2e4")
	// No black pawn can take on e3, so no en passant square is given.
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1", g.FEN())

	play(t, g, "d7d5", "e4e5", "f7f5")
	assert.Equal(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", g.FEN())

	play(t, g, "g1f3", "e8f7")
	assert.Equal(t, "rnbq1bnr/ppp1pkpp/8/3pPp2/8/5N2/PPPP1PPP/RNBQKB1R w KQ - 2 4", g.FEN())
}

func TestParseFEN_Errors(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"seven ranks", "8/8/8/8/8/8/4K2k w - - 0 1"},
		{"bad piece", "4k3/8/8/8/8/8/8/4K2x w - - 0 1"},
		{"rank too long", "4k3/8/8/8/8/8/8/4K4 w - - 0 1"},
		{"rank too short", "4k3/8/8/8/8/8/8/4K2 w - - 0 1"},
		{"bad side", "4k3/8/8/8/8/8/8/4K3 x - - 0 1"},
		{"bad castling", "4k3/8/8/8/8/8/8/4K3 w KX - 0 1"},
		{"bad en passant", "4k3/8/8/8/8/8/8/4K3 w - z9 0 1"},
		{"negative halfmove", "4k3/8/8/8/8/8/8/4K3 w - - -1 1"},
		{"zero fullmove", "4k3/8/8/8/8/8/8/4K3 w - - 0 0"},
		{"missing king", "8/8/8/8/8/8/8/4K3 w - - 0 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFEN(tt.fen)
			assert.ErrorIs(t, err, ErrInvalidFEN)
		})
	}
}

func TestParseFEN_OptionalCounters(t *testing.T) {
	g, err := ParseFEN("4k3/8/8/8/8/8/8/R3K3 b - -")
	require.NoError(t, err)
	assert.Equal(t, Black, g.CurrentTurn())
	assert.Equal(t, 0, g.FiftyMoveCounter())
	assert.Equal(t, "4k3/8/8/8/8/8/8/R3K3 b - - 0 1", g.FEN())
}
