package models

import "time"

// SessionSummary records the outcome of one completed review session
type SessionSummary struct {
	ID           int64     `json:"id" db:"id"`
	TotalCards   int       `json:"total_cards" db:"total_cards"`
	AvgLatencyMs float64   `json:"avg_latency_ms" db:"avg_latency_ms"`
	FinishedAt   time.Time `json:"finished_at" db:"finished_at"`
}
