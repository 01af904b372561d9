package history

import (
	"context"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// Recorder adapts the repositories to the session engine's history hooks
type Recorder struct {
	reviews  *ReviewLogRepository
	sessions *SessionSummaryRepository
}

// NewRecorder creates a recorder over the global connection
func NewRecorder() *Recorder {
	return &Recorder{
		reviews:  NewReviewLogRepository(),
		sessions: NewSessionSummaryRepository(),
	}
}

// RecordReview logs one successful review submission
func (r *Recorder) RecordReview(_ context.Context, cardID string, quality models.QualityScore, latency time.Duration) error {
	return r.reviews.Create(&models.ReviewLogEntry{
		CardID:    cardID,
		Quality:   int(quality),
		LatencyMs: latency.Milliseconds(),
	})
}

// RecordSession logs one completed session
func (r *Recorder) RecordSession(_ context.Context, totalCards int, avgLatencyMs float64) error {
	return r.sessions.Create(&models.SessionSummary{
		TotalCards:   totalCards,
		AvgLatencyMs: avgLatencyMs,
	})
}
