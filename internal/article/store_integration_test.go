package article_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richagaur/newschat/internal/article"
	"github.com/richagaur/newschat/internal/testutil"
)

const dims = 1536

// axisVector returns a unit vector along the given axis, optionally mixed
// with the next axis. mix=0 is a pure axis vector, mix=1 is an even blend.
func axisVector(axis int, mix float64) []float32 {
	v := make([]float32, dims)
	if mix == 0 {
		v[axis] = 1
		return v
	}
	norm := math.Sqrt(1 + mix*mix)
	v[axis] = float32(1 / norm)
	v[axis+1] = float32(mix / norm)
	return v
}

func TestStoreSearch(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := article.New(db.Pool, testutil.DiscardLogger())

	seed := []struct {
		art article.Article
		vec []float32
	}{
		{article.Article{ID: "exact", Title: "Exact match", Content: "exact content", Category: "politics"}, axisVector(0, 0)},
		{article.Article{ID: "close", Title: "Close match", Content: "close content", Category: "politics"}, axisVector(0, 1)},
		{article.Article{ID: "far", Title: "Unrelated", Content: "far content", Category: "sports"}, axisVector(5, 0)},
	}
	for _, s := range seed {
		require.NoError(t, store.Upsert(ctx, s.art, s.vec))
	}

	query := axisVector(0, 0)

	t.Run("threshold excludes orthogonal documents", func(t *testing.T) {
		results, err := store.Search(ctx, query)
		require.NoError(t, err)

		require.Len(t, results, 2)
		assert.Equal(t, "exact", results[0].ID)
		assert.Equal(t, "close", results[1].ID)
		for _, r := range results {
			assert.Greater(t, r.Similarity, float32(article.DefaultMinScore))
		}
	})

	t.Run("results ordered most similar first", func(t *testing.T) {
		results, err := store.Search(ctx, query)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
		assert.InDelta(t, 1.0, float64(results[0].Similarity), 1e-4)
		assert.InDelta(t, 0.7071, float64(results[1].Similarity), 1e-3)
	})

	t.Run("topK bounds result count", func(t *testing.T) {
		results, err := store.Search(ctx, query, article.WithTopK(1))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "exact", results[0].ID)
	})

	t.Run("high threshold returns fewer than topK", func(t *testing.T) {
		results, err := store.Search(ctx, query, article.WithMinScore(0.9))
		require.NoError(t, err)
		require.Len(t, results, 1)
	})

	t.Run("threshold is strict", func(t *testing.T) {
		// "exact" scores exactly 1.0 against the query, so a threshold of
		// 1.0 must exclude it.
		results, err := store.Search(ctx, query, article.WithMinScore(1.0))
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("category filter", func(t *testing.T) {
		results, err := store.Search(ctx, axisVector(5, 0), article.WithCategory("sports"))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "far", results[0].ID)
	})
}

func TestStoreUpsertOverwrites(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := article.New(db.Pool, testutil.DiscardLogger())

	art := article.Article{ID: "a1", Title: "First title", Content: "body", Category: "tech"}
	require.NoError(t, store.Upsert(ctx, art, axisVector(0, 0)))

	art.Title = "Updated title"
	require.NoError(t, store.Upsert(ctx, art, axisVector(0, 0)))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := store.Search(ctx, axisVector(0, 0))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Updated title", results[0].Title)
}
