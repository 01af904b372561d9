package history

import (
	"fmt"

	"github.com/example/flashdeck/pkg/models"
)

// ReviewLogRepository handles database operations for the review log
type ReviewLogRepository struct{}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository() *ReviewLogRepository {
	return &ReviewLogRepository{}
}

// Create inserts a new review log entry
func (r *ReviewLogRepository) Create(entry *models.ReviewLogEntry) error {
	result, err := DB.Exec(
		"INSERT INTO review_log (card_id, quality, latency_ms) VALUES ($1, $2, $3)",
		entry.CardID, entry.Quality, entry.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log entry: %v", err)
	}
	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	return nil
}

// RecentForCard returns the most recent reviews of a specific card
func (r *ReviewLogRepository) RecentForCard(cardID string, limit int) ([]models.ReviewLogEntry, error) {
	var entries []models.ReviewLogEntry
	err := DB.Select(&entries,
		"SELECT * FROM review_log WHERE card_id = $1 ORDER BY reviewed_at DESC LIMIT $2",
		cardID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log: %v", err)
	}
	return entries, nil
}

// CountReviews returns the total number of logged reviews
func (r *ReviewLogRepository) CountReviews() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM review_log")
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %v", err)
	}
	return count, nil
}
