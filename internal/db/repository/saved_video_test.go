package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/testutil"
)

func newTestSavedVideo(youtubeID string) *models.SavedVideo {
	return &models.SavedVideo{
		ID:             uuid.New(),
		YouTubeVideoID: youtubeID,
		SourceURL:      "https://youtu.be/" + youtubeID,
		CreatedAt:      time.Now(),
	}
}

func TestSavedVideoRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	defer testDB.Cleanup(t)

	repo := NewSavedVideoRepository(testDB.Pool)
	ctx := context.Background()

	t.Run("Create and List", func(t *testing.T) {
		testDB.TruncateTables(t)

		first := newTestSavedVideo("abcDEF12345")
		require.NoError(t, repo.Create(ctx, first))

		second := newTestSavedVideo("abcDEF12346")
		second.CreatedAt = first.CreatedAt.Add(time.Minute)
		require.NoError(t, repo.Create(ctx, second))

		saved, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, saved, 2)
		// Newest first.
		assert.Equal(t, "abcDEF12346", saved[0].YouTubeVideoID)
		assert.Equal(t, "abcDEF12345", saved[1].YouTubeVideoID)
	})

	t.Run("Create duplicate video id", func(t *testing.T) {
		testDB.TruncateTables(t)

		require.NoError(t, repo.Create(ctx, newTestSavedVideo("abcDEF12345")))

		err := repo.Create(ctx, newTestSavedVideo("abcDEF12345"))
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKey(err))
	})

	t.Run("Delete", func(t *testing.T) {
		testDB.TruncateTables(t)

		sv := newTestSavedVideo("abcDEF12345")
		require.NoError(t, repo.Create(ctx, sv))
		require.NoError(t, repo.Delete(ctx, sv.ID))

		saved, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, saved)
	})

	t.Run("Delete unknown", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, db.IsNotFound(err))
	})
}
