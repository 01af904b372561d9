package history

import (
	"fmt"

	"github.com/example/flashdeck/pkg/models"
)

// SessionSummaryRepository handles database operations for session summaries
type SessionSummaryRepository struct{}

// NewSessionSummaryRepository creates a new repository instance
func NewSessionSummaryRepository() *SessionSummaryRepository {
	return &SessionSummaryRepository{}
}

// Create inserts a new session summary
func (r *SessionSummaryRepository) Create(summary *models.SessionSummary) error {
	result, err := DB.Exec(
		"INSERT INTO session_summary (total_cards, avg_latency_ms) VALUES ($1, $2)",
		summary.TotalCards, summary.AvgLatencyMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session summary: %v", err)
	}
	id, err := result.LastInsertId()
	if err == nil {
		summary.ID = id
	}
	return nil
}

// Recent returns the most recent session summaries
func (r *SessionSummaryRepository) Recent(limit int) ([]models.SessionSummary, error) {
	var summaries []models.SessionSummary
	err := DB.Select(&summaries,
		"SELECT * FROM session_summary ORDER BY finished_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get session summaries: %v", err)
	}
	return summaries, nil
}
