package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, conv("conv-1", time.Now(), 2)))
	got, err := s.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, conv("conv-1", time.Now(), 2)))

	got, err := s.Get(ctx, "conv-1")
	require.NoError(t, err)
	got.Messages[0].Text = "mutated"
	got.Title = "mutated"

	again, err := s.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Messages[0].Text)
	assert.Equal(t, "title conv-1", again.Title)
}

func TestMemoryStoreDeleteAndList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, s.Put(ctx, conv("a", base.Add(-time.Hour), 2)))
	require.NoError(t, s.Put(ctx, conv("b", base, 2)))

	summaries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "b", summaries[0].ID)

	require.NoError(t, s.Delete(ctx, "b"))
	assert.ErrorIs(t, s.Delete(ctx, "b"), ErrNotFound)

	require.NoError(t, s.DeleteAll(ctx))
	summaries, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
