package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.AddPlayer(Player{ID: "alice"}))
	require.NoError(t, q.AddPlayer(Player{ID: "bob"}))
	require.NoError(t, q.AddPlayer(Player{ID: "carol"}))
	assert.ErrorIs(t, q.AddPlayer(Player{ID: "bob"}), ErrAlreadyQueued)
	assert.Equal(t, 3, q.Size())

	p1, p2, ok := q.NextPair()
	require.True(t, ok)
	assert.Equal(t, "alice", p1.ID)
	assert.Equal(t, "bob", p2.ID)

	_, _, ok = q.NextPair()
	assert.False(t, ok, "one player cannot be paired")
	assert.Equal(t, 1, q.Size())
}

func TestQueue_RemovePlayer(t *testing.T) {
	q := NewQueue()
	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, q.AddPlayer(Player{ID: id}))
	}

	assert.True(t, q.RemovePlayer("bob"))
	assert.False(t, q.RemovePlayer("bob"))
	assert.False(t, q.RemovePlayer("dave"))

	p1, p2, ok := q.NextPair()
	require.True(t, ok)
	assert.Equal(t, "alice", p1.ID)
	assert.Equal(t, "carol", p2.ID)
	assert.Zero(t, q.Size())

	require.NoError(t, q.AddPlayer(Player{ID: "bob"}), "a removed player may queue again")
}
