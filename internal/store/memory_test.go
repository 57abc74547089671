package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Document{ID: "g1", Version: 1, Data: []byte(`{"a":1}`)}))

	doc, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, `{"a":1}`, string(doc.Data))
	assert.Equal(t, fixed, doc.UpdatedAt)
}

func TestMemoryStore_VersionConflict(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Document{ID: "g1", Version: 3}))

	tests := []struct {
		name    string
		version int64
		wantErr error
	}{
		{"older", 2, ErrVersionConflict},
		{"same", 3, ErrVersionConflict},
		{"newer", 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Put(ctx, Document{ID: "g1", Version: tt.version})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	data := []byte("abc")
	require.NoError(t, s.Put(ctx, Document{ID: "g1", Version: 1, Data: data}))
	data[0] = 'x'

	doc, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	doc.Data[1] = 'y'

	again, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again.Data))
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)

	require.NoError(t, s.Put(ctx, Document{ID: "g1", Version: 1}))
	require.NoError(t, s.Delete(ctx, "g1"))

	_, err := s.Get(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "g1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Put(ctx, Document{ID: "g1", Version: 1}), context.Canceled)
}
