// Package session implements the review-session engine: it walks the
// learner through the due-card queue, scores recall quality and submits
// each score for rescheduling.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/flashdeck/internal/errlog"
	"github.com/example/flashdeck/internal/gateway"
	"github.com/example/flashdeck/internal/retry"
	"github.com/example/flashdeck/pkg/models"
	"go.uber.org/zap"
)

// State is the session lifecycle phase
type State string

const (
	// StateIdle means no session has been started
	StateIdle State = "idle"
	// StateLoading means the due queue is being fetched
	StateLoading State = "loading"
	// StateActive means a card is being presented
	StateActive State = "active"
	// StateCompleted means every due card was reviewed
	StateCompleted State = "completed"
	// StateEmpty means the queue load found nothing due
	StateEmpty State = "empty"
	// StateFailed means the queue load failed
	StateFailed State = "failed"
)

var (
	// ErrNoCurrentCard is returned when an operation needs a presented card
	ErrNoCurrentCard = errors.New("no current card")
	// ErrNotRevealed is returned when a review is submitted before the back was shown
	ErrNotRevealed = errors.New("card back has not been revealed")
	// ErrInvalidQuality is returned for scores outside 0..5
	ErrInvalidQuality = errors.New("quality score must be between 0 and 5")
	// ErrBusy is returned when a submission is already in flight
	ErrBusy = errors.New("a submission is already in progress")
	// ErrMalformedQueue is returned when the gateway declares due cards but sends none
	ErrMalformedQueue = errors.New("due queue response is malformed")
)

// Gateway is the slice of the scheduling gateway the session needs
type Gateway interface {
	GetDueQueue(ctx context.Context) (*gateway.DueQueue, error)
	SubmitReview(ctx context.Context, sub gateway.ReviewSubmission) error
}

// Reporter delivers failure reports to the error collector
type Reporter interface {
	Report(ctx context.Context, event errlog.Event)
}

// Recorder writes the local review history. All calls are best-effort.
type Recorder interface {
	RecordReview(ctx context.Context, cardID string, quality models.QualityScore, latency time.Duration) error
	RecordSession(ctx context.Context, totalCards int, avgLatencyMs float64) error
}

// CardView is the currently presented card plus its reveal state
type CardView struct {
	Card     models.DueCard
	Revealed bool
}

// Progress is the session-level aggregate exposed to the host UI
type Progress struct {
	CurrentIndex   int
	TotalCards     int
	CompletedCount int
	AvgLatencyMs   float64
}

// Config carries the engine collaborators. Zero values get sane defaults;
// Reporter and Recorder may stay nil.
type Config struct {
	Retry    *retry.Policy
	Reporter Reporter
	Recorder Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// Engine drives one review session. It is designed for single-threaded,
// cooperative use: the caller serializes operations and must not invoke
// SubmitReview while a prior call is still pending.
type Engine struct {
	gw       Gateway
	reporter Reporter
	recorder Recorder
	retryer  *retry.Retryer
	logger   *zap.Logger
	now      func() time.Time

	state          State
	queue          []models.DueCard
	totalDue       int
	currentIndex   int
	completedCount int
	avgLatencyMs   float64
	current        *CardView
	cardShownAt    time.Time
	loadErr        error
	isSubmitting   bool
	// generation invalidates responses that arrive after teardown
	generation uint64
}

// New creates an idle session engine
func New(gw Gateway, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		gw:       gw,
		reporter: cfg.Reporter,
		recorder: cfg.Recorder,
		retryer:  retry.New(cfg.Retry, logger),
		logger:   logger,
		now:      now,
		state:    StateIdle,
	}
}

// LoadQueue fetches the due set and starts the session. Transient gateway
// failures are retried with backoff before the session is marked failed.
// A declared total of zero is the Empty terminal state, not an error.
func (e *Engine) LoadQueue(ctx context.Context) error {
	e.reset()
	e.state = StateLoading
	gen := e.generation

	var queue *gateway.DueQueue
	err := e.retryer.Do(ctx, func() error {
		var fetchErr error
		queue, fetchErr = e.gw.GetDueQueue(ctx)
		return fetchErr
	})
	if gen != e.generation {
		// Сессия была закрыта во время загрузки
		return nil
	}
	if err == nil && queue.TotalDue > 0 && !wellFormed(queue.Data) {
		// A nonzero total with a missing or broken card list is a load
		// failure, never an empty queue.
		err = ErrMalformedQueue
	}
	if err != nil {
		e.state = StateFailed
		e.loadErr = err
		e.report(ctx, "load due queue", err)
		return fmt.Errorf("load due queue: %w", err)
	}

	if queue.TotalDue == 0 {
		e.state = StateEmpty
		e.logger.Info("no cards due for review")
		return nil
	}

	e.queue = queue.Data
	e.totalDue = queue.TotalDue
	e.state = StateActive
	e.currentIndex = 0
	e.current = &CardView{Card: e.queue[0]}
	e.cardShownAt = e.now()
	e.logger.Info("review session started",
		zap.Int("total_due", queue.TotalDue),
		zap.Int("cards", len(e.queue)),
	)
	return nil
}

// Reveal shows the back of the current card. Calling it again is a no-op.
func (e *Engine) Reveal() {
	if e.state != StateActive || e.current == nil {
		return
	}
	e.current.Revealed = true
}

// SubmitReview scores the current card and sends the quality+latency pair
// for rescheduling. On failure the card and progress are left untouched so
// the caller can retry; on success the session advances or completes.
func (e *Engine) SubmitReview(ctx context.Context, quality models.QualityScore) error {
	if e.isSubmitting {
		return ErrBusy
	}
	if e.state != StateActive || e.current == nil {
		return ErrNoCurrentCard
	}
	if !e.current.Revealed {
		return ErrNotRevealed
	}
	if !quality.Valid() {
		return ErrInvalidQuality
	}

	e.isSubmitting = true
	defer func() { e.isSubmitting = false }()

	card := e.current.Card
	latency := e.now().Sub(e.cardShownAt)
	latencyMs := latency.Milliseconds()
	if latencyMs < 1 {
		latencyMs = 1 // the gateway requires a positive latency
	}

	gen := e.generation
	err := e.retryer.Do(ctx, func() error {
		return e.gw.SubmitReview(ctx, gateway.ReviewSubmission{
			FlashcardID: card.ID,
			Quality:     int(quality),
			LatencyMs:   latencyMs,
		})
	})
	if gen != e.generation {
		return nil
	}
	if err != nil {
		e.report(ctx, "submit review", err)
		return fmt.Errorf("submit review for card %s: %w", card.ID, err)
	}

	// Накопительное среднее: (prevAvg*prevCount + latency) / (prevCount+1)
	e.avgLatencyMs = (e.avgLatencyMs*float64(e.completedCount) + float64(latencyMs)) /
		float64(e.completedCount+1)
	e.completedCount++

	if e.recorder != nil {
		if recErr := e.recorder.RecordReview(ctx, card.ID, quality, latency); recErr != nil {
			e.logger.Warn("review history write failed", zap.Error(recErr))
		}
	}

	if e.completedCount == len(e.queue) {
		e.current = nil
		e.state = StateCompleted
		e.logger.Info("review session completed",
			zap.Int("cards", e.completedCount),
			zap.Float64("avg_latency_ms", e.avgLatencyMs),
		)
		if e.recorder != nil {
			if recErr := e.recorder.RecordSession(ctx, e.completedCount, e.avgLatencyMs); recErr != nil {
				e.logger.Warn("session history write failed", zap.Error(recErr))
			}
		}
		return nil
	}

	e.currentIndex++
	e.current = &CardView{Card: e.queue[e.currentIndex]}
	e.cardShownAt = e.now()
	return nil
}

// ExitSession resets the engine to idle. No gateway call is made; any
// in-flight retry loop is abandoned via the generation counter.
func (e *Engine) ExitSession() {
	e.reset()
}

// State returns the current lifecycle phase
func (e *Engine) State() State {
	return e.state
}

// CurrentCard returns a copy of the presented card view, if any
func (e *Engine) CurrentCard() (CardView, bool) {
	if e.current == nil {
		return CardView{}, false
	}
	return *e.current, true
}

// Progress returns the session-level aggregate
func (e *Engine) Progress() Progress {
	return Progress{
		CurrentIndex:   e.currentIndex,
		TotalCards:     len(e.queue),
		CompletedCount: e.completedCount,
		AvgLatencyMs:   e.avgLatencyMs,
	}
}

// TotalDue returns the due count declared by the gateway at session start
func (e *Engine) TotalDue() int {
	return e.totalDue
}

// LoadError returns the failure that put the session into StateFailed
func (e *Engine) LoadError() error {
	return e.loadErr
}

func (e *Engine) reset() {
	e.generation++
	e.state = StateIdle
	e.queue = nil
	e.totalDue = 0
	e.currentIndex = 0
	e.completedCount = 0
	e.avgLatencyMs = 0
	e.current = nil
	e.cardShownAt = time.Time{}
	e.loadErr = nil
	e.isSubmitting = false
}

// report sends a failure to the error collector, best-effort
func (e *Engine) report(ctx context.Context, op string, err error) {
	e.logger.Error("session operation failed", zap.String("op", op), zap.Error(err))
	if e.reporter == nil {
		return
	}
	e.reporter.Report(ctx, errlog.Event{
		Path:    "/review",
		Message: fmt.Sprintf("%s: %v", op, err),
	})
}

// wellFormed checks that every card snapshot carries an identity
func wellFormed(cards []models.DueCard) bool {
	if len(cards) == 0 {
		return false
	}
	for _, card := range cards {
		if card.ID == "" {
			return false
		}
	}
	return true
}
