package models

import "time"

// ReviewLogEntry records one successful review submission in the local history
type ReviewLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	CardID     string    `json:"card_id" db:"card_id"`
	Quality    int       `json:"quality" db:"quality"`
	LatencyMs  int64     `json:"latency_ms" db:"latency_ms"`
	ReviewedAt time.Time `json:"reviewed_at" db:"reviewed_at"`
}
