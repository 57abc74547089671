package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_String(t *testing.T) {
	want := "RNBQKBNRPPPPPPPP" + strings.Repeat(".", 32) + "pppppppprnbqkbnr|w|000000|-"
	assert.Equal(t, want, NewGame().signature().String())
}

func TestSignature_EnPassantOnlyWhenCapturable(t *testing.T) {
	g := NewGame()
	play(t, g, "e2e4")
	assert.False(t, g.signature().HasEnPassant)

	play(t, g, "d7d5", "e4e5", "f7f5")
	sig := g.signature()
	require.True(t, sig.HasEnPassant)
	assert.True(t, strings.HasSuffix(sig.String(), "|000000|f7f5"))
}

func TestSignature_PinnedEnPassantIgnored(t *testing.T) {
	tests := []struct {
		name   string
		fen    string
		want   bool
		wantEP string
	}{
		{"free capture", "8/2p5/8/KP6/8/8/8/7k b - - 0 1", true, "c6"},
		{"pinned along the rank", "8/2p5/8/KP5r/8/8/8/7k b - - 0 1", false, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustFEN(t, tt.fen)
			play(t, g, "c7c5")
			assert.Equal(t, tt.want, g.signature().HasEnPassant)
			assert.Equal(t, tt.wantEP, strings.Fields(g.FEN())[3])
		})
	}
}

func TestSignature_PinnedEnPassantRepeats(t *testing.T) {
	// The double step and a later return to the same squares are one position
	// when the en passant capture is illegal.
	g := mustFEN(t, "6k1/2p5/8/KP5r/8/8/8/8 b - - 0 1")
	play(t, g, "c7c5")
	first := g.signature()
	play(t, g, "a5a6", "g8f8", "a6a5", "f8g8", "a5a6", "g8f8", "a6a5", "f8g8")
	assert.Equal(t, first, g.signature())
	assert.Equal(t, ReasonRepetition, g.Outcome().Reason)
}

func TestParseSignature_RoundTrip(t *testing.T) {
	g := mustFEN(t, "rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w Kq f6 0 3")
	sig := g.signature()

	parsed, err := ParseSignature(sig.String())
	require.NoError(t, err)
	assert.Equal(t, sig, parsed)
}

func TestParseSignature_Errors(t *testing.T) {
	valid := NewGame().signature().String()
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing part", strings.Join(strings.Split(valid, "|")[:3], "|")},
		{"short board", valid[1:]},
		{"bad letter", "X" + valid[1:]},
		{"bad side", strings.Replace(valid, "|w|", "|x|", 1)},
		{"bad flag", strings.Replace(valid, "|000000|", "|000020|", 1)},
		{"bad en passant", strings.TrimSuffix(valid, "-") + "e7e"},
		{"off-board en passant", strings.TrimSuffix(valid, "-") + "e9e5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSignature(tt.in)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestHistory(t *testing.T) {
	h := newHistory()
	sig := NewGame().signature()

	assert.Equal(t, 0, h.Count(sig))
	assert.Equal(t, 1, h.Record(sig))
	assert.Equal(t, 2, h.Record(sig))
	assert.Equal(t, 2, h.Count(sig))
	assert.Equal(t, []string{sig.String(), sig.String()}, h.signatures())

	for i := 0; i < fiftyMoveLimit-1; i++ {
		h.tick(false)
	}
	assert.Equal(t, 99, h.FiftyMoveCounter())
	assert.False(t, h.fiftyMoveReached())
	h.tick(false)
	assert.True(t, h.fiftyMoveReached())
	h.tick(true)
	assert.Equal(t, 0, h.FiftyMoveCounter())

	c := h.clone()
	c.Record(sig)
	assert.Equal(t, 2, h.Count(sig), "clone is independent")
}
