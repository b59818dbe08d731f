package cache_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richagaur/newschat/internal/cache"
	"github.com/richagaur/newschat/internal/testutil"
)

const dims = 1536

func unitVector(axis int) []float32 {
	v := make([]float32, dims)
	v[axis] = 1
	return v
}

func newExchange(i int) cache.Exchange {
	return cache.Exchange{
		ID:               uuid.NewString(),
		Prompt:           fmt.Sprintf("question %d", i),
		Completion:       fmt.Sprintf("answer %d", i),
		CompletionTokens: "5",
		PromptTokens:     "40",
		TotalTokens:      "45",
		Model:            "gpt-4o",
	}
}

func TestStoreRecent(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := cache.New(db.Pool, testutil.DiscardLogger())

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Insert(ctx, newExchange(i), unitVector(i)))
	}

	t.Run("most recent first, bounded by limit", func(t *testing.T) {
		got, err := store.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "question 4", got[0].Prompt)
		assert.Equal(t, "question 3", got[1].Prompt)
		assert.Equal(t, "question 2", got[2].Prompt)
	})

	t.Run("returns raw records with token counters", func(t *testing.T) {
		got, err := store.Recent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "45", got[0].TotalTokens)
		assert.Equal(t, "gpt-4o", got[0].Model)
		assert.False(t, got[0].CreatedAt.IsZero())
	})

	t.Run("zero limit returns nothing", func(t *testing.T) {
		got, err := store.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestStoreInsertRejectsDuplicateID(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := cache.New(db.Pool, testutil.DiscardLogger())

	ex := newExchange(0)
	require.NoError(t, store.Insert(ctx, ex, unitVector(0)))
	assert.Error(t, store.Insert(ctx, ex, unitVector(0)))
}

func TestStoreLookup(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := cache.New(db.Pool, testutil.DiscardLogger())

	ex := newExchange(0)
	require.NoError(t, store.Insert(ctx, ex, unitVector(0)))

	t.Run("near-duplicate prompt is found", func(t *testing.T) {
		hit, err := store.Lookup(ctx, unitVector(0), 0.99)
		require.NoError(t, err)
		require.NotNil(t, hit)
		assert.Equal(t, ex.ID, hit.ID)
		assert.Equal(t, ex.Completion, hit.Completion)
	})

	t.Run("orthogonal prompt misses", func(t *testing.T) {
		hit, err := store.Lookup(ctx, unitVector(1), 0.99)
		require.NoError(t, err)
		assert.Nil(t, hit)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		hit, err := store.Lookup(ctx, unitVector(0), 1.0)
		require.NoError(t, err)
		assert.Nil(t, hit)
	})
}
