package database

import (
	"context"
	"testing"

	"github.com/siherrmann/geobench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassagesNewPassagesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewPassagesDBHandler", func(t *testing.T) {
		passagesDbHandler, err := NewPassagesDBHandler(database, testEmbeddingDim, true)
		assert.NoError(t, err, "Expected NewPassagesDBHandler to not return an error")
		require.NotNil(t, passagesDbHandler, "Expected NewPassagesDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewPassagesDBHandler with nil database", func(t *testing.T) {
		_, err := NewPassagesDBHandler(nil, testEmbeddingDim, false)
		assert.Error(t, err, "Expected error when creating PassagesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestPassages(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	passagesDbHandler, err := NewPassagesDBHandler(database, testEmbeddingDim, true)
	require.NoError(t, err, "Expected NewPassagesDBHandler to not return an error")
	_, err = passagesDbHandler.DeleteAllPassages(ctx)
	require.NoError(t, err)

	t.Run("Valid call InsertPassage", func(t *testing.T) {
		passage := model.NewPassage("Perth", "Adelaide", 2130)
		passage.Embedding = []float32{1, 0, 0}

		err := passagesDbHandler.InsertPassage(ctx, &passage)
		require.NoError(t, err)
		assert.NotZero(t, passage.ID)
		assert.False(t, passage.CreatedAt.IsZero())

		selected, err := passagesDbHandler.SelectPassage(ctx, passage.ID)
		require.NoError(t, err)
		assert.Equal(t, "Distance between Perth and Adelaide is 2130 km", selected.Text)
		assert.Equal(t, []float32{1, 0, 0}, selected.Embedding)

		city, err := selected.Metadata.String("city2")
		require.NoError(t, err)
		assert.Equal(t, "Adelaide", city)
		km, err := selected.Metadata.Float("distance")
		require.NoError(t, err)
		assert.Equal(t, 2130.0, km)
	})

	t.Run("Valid call InsertPassages", func(t *testing.T) {
		a := model.NewPassage("Darwin", "Cairns", 1680)
		a.Embedding = []float32{0, 1, 0}
		b := model.NewPassage("Hobart", "Melbourne", 600)
		b.Embedding = []float32{0, 0, 1}

		err := passagesDbHandler.InsertPassages(ctx, []*model.Passage{&a, &b})
		require.NoError(t, err)
		assert.NotZero(t, a.ID)
		assert.NotZero(t, b.ID)

		count, err := passagesDbHandler.CountPassages(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("Valid call SelectPassagesBySimilarity", func(t *testing.T) {
		passages, err := passagesDbHandler.SelectPassagesBySimilarity(ctx, []float32{0.1, 0.9, 0}, 2, 0)
		require.NoError(t, err)
		require.Len(t, passages, 2)
		assert.Equal(t, "Darwin", passages[0].From)
		require.NotNil(t, passages[0].Similarity)
		assert.Greater(t, *passages[0].Similarity, *passages[1].Similarity)
	})

	t.Run("Similarity threshold filters passages", func(t *testing.T) {
		passages, err := passagesDbHandler.SelectPassagesBySimilarity(ctx, []float32{0, 0, 1}, 10, 0.9)
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, "Hobart", passages[0].From)
	})

	t.Run("Invalid call SelectPassage with unknown id", func(t *testing.T) {
		_, err := passagesDbHandler.SelectPassage(ctx, -1)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("Valid call DeleteAllPassages", func(t *testing.T) {
		deleted, err := passagesDbHandler.DeleteAllPassages(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
	})
}
