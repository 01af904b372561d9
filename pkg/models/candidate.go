package models

import "github.com/google/uuid"

// CardStatus is the triage decision recorded against a candidate card
type CardStatus string

const (
	// StatusPending means no decision has been made yet
	StatusPending CardStatus = "pending"
	// StatusAccepted means the card will be persisted unchanged
	StatusAccepted CardStatus = "accepted"
	// StatusEdited means the card was modified and will be persisted
	StatusEdited CardStatus = "edited"
)

// CandidateCard is one AI-suggested card inside a triage batch. Until the
// batch is committed the card only exists locally, identified by LocalID;
// the server id is assigned by the gateway at creation time.
type CandidateCard struct {
	LocalID       string
	Front         string
	Back          string
	OriginalFront string
	OriginalBack  string
	Source        Provenance
	Status        CardStatus
	IsEdited      bool
}

// NewCandidateCard builds a pending candidate with a fresh local identity.
// The original front/back are kept for revert on cancelled edits.
func NewCandidateCard(front, back string, source Provenance) CandidateCard {
	return CandidateCard{
		LocalID:       uuid.NewString(),
		Front:         front,
		Back:          back,
		OriginalFront: front,
		OriginalBack:  back,
		Source:        source,
		Status:        StatusPending,
	}
}
