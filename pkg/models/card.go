package models

// Provenance records how a card came to exist
type Provenance string

const (
	// ProvenanceManual means the card was authored by the learner
	ProvenanceManual Provenance = "manual"
	// ProvenanceAI means the card was generated and accepted as-is
	ProvenanceAI Provenance = "ai"
	// ProvenanceAIEdited means the card was generated and then edited by the learner
	ProvenanceAIEdited Provenance = "ai_edited"
)

// Valid reports whether the provenance tag is one of the known values
func (p Provenance) Valid() bool {
	switch p {
	case ProvenanceManual, ProvenanceAI, ProvenanceAIEdited:
		return true
	}
	return false
}

// DueCard is a flashcard whose scheduled review time has arrived.
// It is an immutable snapshot taken from the scheduling gateway.
type DueCard struct {
	ID     string     `json:"id" db:"card_id"`
	Front  string     `json:"front" db:"front"`
	Back   string     `json:"back" db:"back"`
	Source Provenance `json:"source" db:"source"`
}

// PersistedCard is a card as returned by the gateway after creation,
// carrying the server-assigned identity
type PersistedCard struct {
	ID     string     `json:"id"`
	Front  string     `json:"front"`
	Back   string     `json:"back"`
	DeckID string     `json:"deckId"`
	Source Provenance `json:"source"`
}
