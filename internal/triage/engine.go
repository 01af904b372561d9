// Package triage implements the batch-triage engine: it walks a batch of
// AI-suggested candidate cards through the accept/edit/delete workflow and
// commits the accepted subset to the scheduling gateway.
package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/flashdeck/internal/gateway"
	"github.com/example/flashdeck/pkg/models"
	"go.uber.org/zap"
)

var (
	// ErrEmptyBatch is returned when an operation needs a non-empty batch
	ErrEmptyBatch = errors.New("triage batch is empty")
	// ErrOutOfRange is returned by GoTo for an index outside the batch
	ErrOutOfRange = errors.New("step is out of range")
	// ErrNotEditing is returned when a draft operation runs outside edit mode
	ErrNotEditing = errors.New("not in edit mode")
	// ErrAlreadyReviewed is returned when accepting a card that is no longer pending
	ErrAlreadyReviewed = errors.New("card has already been reviewed")
	// ErrNothingToCommit is returned by Complete when no card was accepted or edited
	ErrNothingToCommit = errors.New("no accepted or edited cards to commit")
	// ErrBusy is returned when a commit is already in progress
	ErrBusy = errors.New("a commit is already in progress")
)

// Gateway is the slice of the scheduling gateway the triage engine needs
type Gateway interface {
	CreateCard(ctx context.Context, card gateway.NewCard) (*models.PersistedCard, error)
}

// CommitReport describes the outcome of Complete. On a partial commit
// Persisted holds the cards that made it, Failed the card whose creation
// call errored, and Remaining the qualifying cards never attempted.
type CommitReport struct {
	Persisted []models.PersistedCard
	Failed    *models.CandidateCard
	Remaining []models.CandidateCard
}

// Config carries the engine collaborators
type Config struct {
	Logger *zap.Logger
}

// Engine drives the triage of one candidate batch. Like the session engine
// it expects single-threaded, cooperative use.
type Engine struct {
	gw     Gateway
	logger *zap.Logger
	deckID string

	cards []models.CandidateCard
	step  int

	editing      bool
	draftFront   string
	draftBack    string
	frontErr     error
	backErr      error
	isProcessing bool
	// generation invalidates commit results arriving after Close
	generation uint64
}

// New creates a triage engine committing into the given deck
func New(gw Gateway, deckID string, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gw: gw, logger: logger, deckID: deckID}
}

// LoadBatch initializes the working set from freshly generated candidates.
// Every card starts pending with the cursor on the first one.
func (e *Engine) LoadBatch(cards []models.CandidateCard) {
	e.cards = make([]models.CandidateCard, len(cards))
	copy(e.cards, cards)
	for i := range e.cards {
		e.cards[i].Status = models.StatusPending
		e.cards[i].IsEdited = false
	}
	e.step = 0
	e.exitEditMode()
	e.logger.Info("triage batch loaded", zap.Int("cards", len(cards)))
}

// Close discards the batch and all in-flight intent
func (e *Engine) Close() {
	e.generation++
	e.cards = nil
	e.step = 0
	e.exitEditMode()
	e.isProcessing = false
}

// GoTo moves the cursor to an arbitrary in-range step
func (e *Engine) GoTo(step int) error {
	if len(e.cards) == 0 {
		return ErrEmptyBatch
	}
	if step < 0 || step >= len(e.cards) {
		return ErrOutOfRange
	}
	e.exitEditMode()
	e.step = step
	return nil
}

// Next advances the cursor, clamping at the last card
func (e *Engine) Next() {
	e.exitEditMode()
	if e.step < len(e.cards)-1 {
		e.step++
	}
}

// Previous moves the cursor back, clamping at the first card
func (e *Engine) Previous() {
	e.exitEditMode()
	if e.step > 0 {
		e.step--
	}
}

// BeginEdit enters edit mode for the current card. The card itself is not
// touched until Save.
func (e *Engine) BeginEdit() error {
	if len(e.cards) == 0 {
		return ErrEmptyBatch
	}
	card := e.cards[e.step]
	e.editing = true
	e.draftFront = card.Front
	e.draftBack = card.Back
	e.frontErr = validateText(e.draftFront)
	e.backErr = validateText(e.draftBack)
	return nil
}

// CancelEdit discards the draft and restores the pre-edit text
func (e *Engine) CancelEdit() {
	e.exitEditMode()
}

// UpdateDraft records a candidate value for one side and revalidates it
func (e *Engine) UpdateDraft(side Side, text string) error {
	if !e.editing {
		return ErrNotEditing
	}
	switch side {
	case SideFront:
		e.draftFront = text
		e.frontErr = validateText(text)
	case SideBack:
		e.draftBack = text
		e.backErr = validateText(text)
	default:
		return fmt.Errorf("unknown side %q", side)
	}
	return nil
}

// Save commits the draft onto the current card, marks it edited and
// escalates ai provenance to ai_edited. Refused while either side has an
// active validation error.
func (e *Engine) Save() error {
	if !e.editing {
		return ErrNotEditing
	}
	if e.frontErr != nil {
		return &CardValidationError{LocalID: e.cards[e.step].LocalID, Index: e.step, Side: SideFront, Err: e.frontErr}
	}
	if e.backErr != nil {
		return &CardValidationError{LocalID: e.cards[e.step].LocalID, Index: e.step, Side: SideBack, Err: e.backErr}
	}

	card := &e.cards[e.step]
	card.Front = strings.TrimSpace(e.draftFront)
	card.Back = strings.TrimSpace(e.draftBack)
	card.Status = models.StatusEdited
	card.IsEdited = true
	if card.Source == models.ProvenanceAI {
		// Только чистый ai-тег эскалируется; manual и ai_edited не трогаем
		card.Source = models.ProvenanceAIEdited
	}
	e.exitEditMode()
	return nil
}

// Accept marks the current pending card accepted and auto-advances the
// cursor when a next card exists
func (e *Engine) Accept() error {
	if len(e.cards) == 0 {
		return ErrEmptyBatch
	}
	card := &e.cards[e.step]
	if card.Status != models.StatusPending {
		return ErrAlreadyReviewed
	}
	card.Status = models.StatusAccepted
	e.exitEditMode()
	if e.step < len(e.cards)-1 {
		e.step++
	}
	return nil
}

// Delete removes the current card from the working set entirely. Indices of
// subsequent cards shift down; the cursor is repaired if it ran past the end.
func (e *Engine) Delete() error {
	if len(e.cards) == 0 {
		return ErrEmptyBatch
	}
	e.exitEditMode()
	e.cards = append(e.cards[:e.step], e.cards[e.step+1:]...)
	if e.step >= len(e.cards) && e.step > 0 {
		e.step = len(e.cards) - 1
	}
	if len(e.cards) == 0 {
		e.step = 0
	}
	return nil
}

// AcceptAll marks every pending card accepted
func (e *Engine) AcceptAll() {
	e.exitEditMode()
	for i := range e.cards {
		if e.cards[i].Status == models.StatusPending {
			e.cards[i].Status = models.StatusAccepted
		}
	}
}

// DeleteAll removes every pending card from the working set
func (e *Engine) DeleteAll() {
	e.exitEditMode()
	kept := e.cards[:0]
	for _, card := range e.cards {
		if card.Status != models.StatusPending {
			kept = append(kept, card)
		}
	}
	e.cards = kept
	if e.step >= len(e.cards) {
		e.step = 0
		if len(e.cards) > 0 {
			e.step = len(e.cards) - 1
		}
	}
}

// Complete validates every accepted or edited card and persists them one
// creation call at a time. The sequence stops at the first failure; cards
// already persisted are reported, not rolled back, and removed from the
// working set so a re-invocation does not duplicate them.
func (e *Engine) Complete(ctx context.Context) (*CommitReport, error) {
	if e.isProcessing {
		return nil, ErrBusy
	}

	var qualifying []int
	for i, card := range e.cards {
		if card.Status == models.StatusAccepted || card.Status == models.StatusEdited {
			qualifying = append(qualifying, i)
		}
	}
	if len(qualifying) == 0 {
		return nil, ErrNothingToCommit
	}

	// Validation pass over the whole qualifying set before any network call
	for _, i := range qualifying {
		card := e.cards[i]
		if err := validateText(card.Front); err != nil {
			return nil, &CardValidationError{LocalID: card.LocalID, Index: i, Side: SideFront, Err: err}
		}
		if err := validateText(card.Back); err != nil {
			return nil, &CardValidationError{LocalID: card.LocalID, Index: i, Side: SideBack, Err: err}
		}
	}

	e.isProcessing = true
	defer func() { e.isProcessing = false }()

	gen := e.generation
	report := &CommitReport{}
	persisted := make(map[string]bool)

	for n, i := range qualifying {
		card := e.cards[i]
		created, err := e.gw.CreateCard(ctx, gateway.NewCard{
			Front:  strings.TrimSpace(card.Front),
			Back:   strings.TrimSpace(card.Back),
			DeckID: e.deckID,
			Source: card.Source,
		})
		if gen != e.generation {
			// Батч был закрыт во время коммита; результат не применяем
			return nil, nil
		}
		if err != nil {
			failed := card
			report.Failed = &failed
			for _, j := range qualifying[n+1:] {
				report.Remaining = append(report.Remaining, e.cards[j])
			}
			e.removePersisted(persisted)
			e.logger.Warn("batch commit stopped on failure",
				zap.Int("persisted", len(report.Persisted)),
				zap.Int("remaining", len(report.Remaining)),
				zap.Error(err),
			)
			return report, fmt.Errorf("create card %q: %w", card.Front, err)
		}
		report.Persisted = append(report.Persisted, *created)
		persisted[card.LocalID] = true
	}

	// Full success: the batch is consumed
	e.cards = nil
	e.step = 0
	e.logger.Info("triage batch committed", zap.Int("cards", len(report.Persisted)))
	return report, nil
}

// Current returns a copy of the card under the cursor, if any
func (e *Engine) Current() (models.CandidateCard, bool) {
	if len(e.cards) == 0 {
		return models.CandidateCard{}, false
	}
	return e.cards[e.step], true
}

// Step returns the cursor position
func (e *Engine) Step() int {
	return e.step
}

// Len returns the size of the working set
func (e *Engine) Len() int {
	return len(e.cards)
}

// Statuses returns the per-card status list in batch order, for progress
// indicators
func (e *Engine) Statuses() []models.CardStatus {
	statuses := make([]models.CardStatus, len(e.cards))
	for i, card := range e.cards {
		statuses[i] = card.Status
	}
	return statuses
}

// HasPending reports whether any card still awaits a decision
func (e *Engine) HasPending() bool {
	for _, card := range e.cards {
		if card.Status == models.StatusPending {
			return true
		}
	}
	return false
}

// HasReviewed reports whether any card was accepted or edited, which is the
// precondition for Complete
func (e *Engine) HasReviewed() bool {
	for _, card := range e.cards {
		if card.Status == models.StatusAccepted || card.Status == models.StatusEdited {
			return true
		}
	}
	return false
}

// IsEmpty reports the terminal nothing-to-review condition
func (e *Engine) IsEmpty() bool {
	return len(e.cards) == 0
}

// IsEditing reports whether the current card is in edit mode
func (e *Engine) IsEditing() bool {
	return e.editing
}

// Drafts returns the in-progress edit values
func (e *Engine) Drafts() (front, back string) {
	return e.draftFront, e.draftBack
}

// DraftErrors returns the per-side validation state of the draft
func (e *Engine) DraftErrors() (front, back error) {
	return e.frontErr, e.backErr
}

// removePersisted drops committed cards from the working set after a
// partial commit, repairing the cursor
func (e *Engine) removePersisted(persisted map[string]bool) {
	if len(persisted) == 0 {
		return
	}
	kept := e.cards[:0]
	for _, card := range e.cards {
		if !persisted[card.LocalID] {
			kept = append(kept, card)
		}
	}
	e.cards = kept
	if e.step >= len(e.cards) {
		e.step = 0
		if len(e.cards) > 0 {
			e.step = len(e.cards) - 1
		}
	}
}

func (e *Engine) exitEditMode() {
	e.editing = false
	e.draftFront = ""
	e.draftBack = ""
	e.frontErr = nil
	e.backErr = nil
}
