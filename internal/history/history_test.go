package history

import (
	"context"
	"testing"
	"time"

	"github.com/example/flashdeck/pkg/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB points the package at an in-memory database for one test
func openTestDB(t *testing.T) {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	DB = db
	require.NoError(t, initializeSchema())
	t.Cleanup(func() {
		db.Close()
		DB = nil
	})
}

func TestReviewLogRepository(t *testing.T) {
	openTestDB(t)
	repo := NewReviewLogRepository()

	entry := &models.ReviewLogEntry{CardID: "c1", Quality: 4, LatencyMs: 2500}
	require.NoError(t, repo.Create(entry))
	assert.NotZero(t, entry.ID)

	require.NoError(t, repo.Create(&models.ReviewLogEntry{CardID: "c1", Quality: 5, LatencyMs: 1200}))
	require.NoError(t, repo.Create(&models.ReviewLogEntry{CardID: "c2", Quality: 2, LatencyMs: 8000}))

	entries, err := repo.RecentForCard("c1", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	count, err := repo.CountReviews()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSessionSummaryRepository(t *testing.T) {
	openTestDB(t)
	repo := NewSessionSummaryRepository()

	require.NoError(t, repo.Create(&models.SessionSummary{TotalCards: 3, AvgLatencyMs: 3333.3}))
	require.NoError(t, repo.Create(&models.SessionSummary{TotalCards: 10, AvgLatencyMs: 1500}))

	summaries, err := repo.Recent(5)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestRecorder(t *testing.T) {
	openTestDB(t)
	recorder := NewRecorder()
	ctx := context.Background()

	require.NoError(t, recorder.RecordReview(ctx, "c1", models.QualityPerfect, 2*time.Second))
	require.NoError(t, recorder.RecordSession(ctx, 1, 2000))

	count, err := NewReviewLogRepository().CountReviews()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	summaries, err := NewSessionSummaryRepository().Recent(1)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].TotalCards)
}
