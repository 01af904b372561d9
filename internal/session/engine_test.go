package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/flashdeck/internal/errlog"
	"github.com/example/flashdeck/internal/gateway"
	"github.com/example/flashdeck/internal/retry"
	"github.com/example/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeGateway scripts per-call results for the session engine
type fakeGateway struct {
	queue      *gateway.DueQueue
	queueErrs  []error // consumed before queue is returned
	submitErrs []error // consumed one per SubmitReview call
	submits    []gateway.ReviewSubmission
}

func (f *fakeGateway) GetDueQueue(_ context.Context) (*gateway.DueQueue, error) {
	if len(f.queueErrs) > 0 {
		err := f.queueErrs[0]
		f.queueErrs = f.queueErrs[1:]
		return nil, err
	}
	return f.queue, nil
}

func (f *fakeGateway) SubmitReview(_ context.Context, sub gateway.ReviewSubmission) error {
	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]
		if err != nil {
			return err
		}
	}
	f.submits = append(f.submits, sub)
	return nil
}

// fakeClock is a manually advanced clock
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// recordingReporter captures error collector events
type recordingReporter struct {
	events []errlog.Event
}

func (r *recordingReporter) Report(_ context.Context, event errlog.Event) {
	r.events = append(r.events, event)
}

func testPolicy(delays *[]time.Duration) *retry.Policy {
	return &retry.Policy{
		MaxRetries:   2,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       false,
		Sleep: func(_ context.Context, d time.Duration) error {
			if delays != nil {
				*delays = append(*delays, d)
			}
			return nil
		},
	}
}

func dueCards(n int) []models.DueCard {
	cards := make([]models.DueCard, n)
	for i := range cards {
		cards[i] = models.DueCard{
			ID:     string(rune('a' + i)),
			Front:  "front",
			Back:   "back",
			Source: models.ProvenanceManual,
		}
	}
	return cards
}

func newTestEngine(gw Gateway, clock *fakeClock, delays *[]time.Duration) *Engine {
	return New(gw, Config{
		Retry: testPolicy(delays),
		Now:   clock.Now,
	})
}

func transient() error {
	return &gateway.Error{Kind: gateway.KindTransient, StatusCode: 503, Message: "unavailable"}
}

func TestLoadQueue_EmptyQueue(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 0}}
	e := newTestEngine(gw, newFakeClock(), nil)

	require.NoError(t, e.LoadQueue(context.Background()))

	assert.Equal(t, StateEmpty, e.State())
	_, ok := e.CurrentCard()
	assert.False(t, ok, "empty queue must not present a card")
	assert.NoError(t, e.LoadError())
}

func TestLoadQueue_StartsSession(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 3, Data: dueCards(3)}}
	e := newTestEngine(gw, newFakeClock(), nil)

	require.NoError(t, e.LoadQueue(context.Background()))

	assert.Equal(t, StateActive, e.State())
	view, ok := e.CurrentCard()
	require.True(t, ok)
	assert.Equal(t, "a", view.Card.ID)
	assert.False(t, view.Revealed, "first card starts hidden")
	assert.Equal(t, 0, e.Progress().CurrentIndex)
	assert.Equal(t, 3, e.Progress().TotalCards)
	assert.Equal(t, 3, e.TotalDue())
}

func TestLoadQueue_MalformedResponseIsFatal(t *testing.T) {
	// Declared cards but an empty list must never be conflated with Empty
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 5, Data: nil}}
	reporter := &recordingReporter{}
	e := New(gw, Config{Retry: testPolicy(nil), Reporter: reporter, Now: newFakeClock().Now})

	err := e.LoadQueue(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedQueue)
	assert.Equal(t, StateFailed, e.State())
	assert.Len(t, reporter.events, 1, "load failures are reported to the collector")
}

func TestLoadQueue_TransientFailureRetriesThenFails(t *testing.T) {
	gw := &fakeGateway{queueErrs: []error{transient(), transient(), transient()}}
	var delays []time.Duration
	reporter := &recordingReporter{}
	e := New(gw, Config{Retry: testPolicy(&delays), Reporter: reporter, Now: newFakeClock().Now})

	err := e.LoadQueue(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateFailed, e.State())
	assert.Len(t, delays, 2, "two backoff waits inside the budget")
	assert.Error(t, e.LoadError())
	assert.Len(t, reporter.events, 1)
}

func TestLoadQueue_TransientFailureThenSuccess(t *testing.T) {
	gw := &fakeGateway{
		queueErrs: []error{transient()},
		queue:     &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)},
	}
	e := newTestEngine(gw, newFakeClock(), nil)

	require.NoError(t, e.LoadQueue(context.Background()))
	assert.Equal(t, StateActive, e.State())
}

func TestLoadQueue_AuthFailureNotRetried(t *testing.T) {
	authErr := &gateway.Error{Kind: gateway.KindAuth, StatusCode: 401, Message: "expired"}
	gw := &fakeGateway{queueErrs: []error{authErr, authErr, authErr}}
	var delays []time.Duration
	e := newTestEngine(gw, newFakeClock(), &delays)

	err := e.LoadQueue(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateFailed, e.State())
	assert.Empty(t, delays, "auth failures surface immediately")
	assert.Len(t, gw.queueErrs, 2, "only one call was made")
}

func TestReveal_Idempotent(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)}}
	e := newTestEngine(gw, newFakeClock(), nil)
	require.NoError(t, e.LoadQueue(context.Background()))

	e.Reveal()
	first, _ := e.CurrentCard()
	e.Reveal()
	second, _ := e.CurrentCard()

	assert.True(t, first.Revealed)
	assert.Equal(t, first, second, "second reveal is a no-op")
}

func TestSubmitReview_RejectedWhileHidden(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)}}
	e := newTestEngine(gw, newFakeClock(), nil)
	require.NoError(t, e.LoadQueue(context.Background()))

	err := e.SubmitReview(context.Background(), models.QualityPerfect)

	assert.ErrorIs(t, err, ErrNotRevealed)
	assert.Equal(t, 0, e.Progress().CompletedCount, "rejected submission must not mutate progress")
	assert.Empty(t, gw.submits)
}

func TestSubmitReview_RejectedWithoutSession(t *testing.T) {
	e := newTestEngine(&fakeGateway{}, newFakeClock(), nil)

	err := e.SubmitReview(context.Background(), models.QualityPerfect)

	assert.ErrorIs(t, err, ErrNoCurrentCard)
}

func TestSubmitReview_RejectsOutOfRangeQuality(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)}}
	e := newTestEngine(gw, newFakeClock(), nil)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()

	assert.ErrorIs(t, e.SubmitReview(context.Background(), models.QualityScore(6)), ErrInvalidQuality)
	assert.ErrorIs(t, e.SubmitReview(context.Background(), models.QualityScore(-1)), ErrInvalidQuality)
	assert.Empty(t, gw.submits)
}

// Scenario A: three cards reviewed in order, session completes with the
// arithmetic mean of the three latencies
func TestFullSession(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 3, Data: dueCards(3)}}
	clock := newFakeClock()
	e := newTestEngine(gw, clock, nil)
	require.NoError(t, e.LoadQueue(context.Background()))

	qualities := []models.QualityScore{models.QualityPerfect, models.QualityIncorrectFamiliar, models.QualityCorrectHesitation}
	latencies := []time.Duration{2 * time.Second, 5 * time.Second, 3 * time.Second}

	for i, q := range qualities {
		clock.Advance(latencies[i])
		e.Reveal()
		require.NoError(t, e.SubmitReview(context.Background(), q))
	}

	assert.Equal(t, StateCompleted, e.State())
	progress := e.Progress()
	assert.Equal(t, 3, progress.CompletedCount)
	assert.InDelta(t, float64(2000+5000+3000)/3, progress.AvgLatencyMs, 0.001)

	_, ok := e.CurrentCard()
	assert.False(t, ok, "completed session has no current card")

	require.Len(t, gw.submits, 3)
	assert.Equal(t, int64(2000), gw.submits[0].LatencyMs)
	assert.Equal(t, 5, gw.submits[0].Quality)
	assert.Equal(t, "b", gw.submits[1].FlashcardID)
}

// Scenario E: two 503s then success means exactly two backoff waits and
// progress advanced exactly once
func TestSubmitReview_RetriesTransientThenAdvancesOnce(t *testing.T) {
	gw := &fakeGateway{
		queue:      &gateway.DueQueue{TotalDue: 2, Data: dueCards(2)},
		submitErrs: []error{transient(), transient(), nil},
	}
	var delays []time.Duration
	clock := newFakeClock()
	e := newTestEngine(gw, clock, &delays)
	require.NoError(t, e.LoadQueue(context.Background()))

	e.Reveal()
	clock.Advance(time.Second)
	require.NoError(t, e.SubmitReview(context.Background(), models.QualityCorrectDifficult))

	require.Len(t, delays, 2, "exactly two retries")
	assert.Greater(t, delays[1], delays[0], "retry delays increase")
	assert.Equal(t, 1, e.Progress().CompletedCount, "progress advanced exactly once")
	assert.Equal(t, 1, e.Progress().CurrentIndex)
	require.Len(t, gw.submits, 1)
}

func TestSubmitReview_FailureLeavesCardUnchanged(t *testing.T) {
	gw := &fakeGateway{
		queue:      &gateway.DueQueue{TotalDue: 2, Data: dueCards(2)},
		submitErrs: []error{transient(), transient(), transient()},
	}
	e := newTestEngine(gw, newFakeClock(), nil)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()

	err := e.SubmitReview(context.Background(), models.QualityPerfect)

	require.Error(t, err)
	assert.Equal(t, StateActive, e.State())
	view, ok := e.CurrentCard()
	require.True(t, ok)
	assert.Equal(t, "a", view.Card.ID, "current card unchanged after failure")
	assert.True(t, view.Revealed, "quality controls stay available for manual retry")
	assert.Equal(t, 0, e.Progress().CompletedCount)

	// Manual retry succeeds now that the fault cleared
	require.NoError(t, e.SubmitReview(context.Background(), models.QualityPerfect))
	assert.Equal(t, 1, e.Progress().CompletedCount)
}

func TestSubmitReview_NotFoundSurfacedWithoutRetry(t *testing.T) {
	notFound := &gateway.Error{Kind: gateway.KindNotFound, StatusCode: 404, Message: "card deleted"}
	gw := &fakeGateway{
		queue:      &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)},
		submitErrs: []error{notFound},
	}
	var delays []time.Duration
	e := newTestEngine(gw, newFakeClock(), &delays)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()

	err := e.SubmitReview(context.Background(), models.QualityPerfect)

	require.Error(t, err)
	assert.True(t, gateway.IsKind(err, gateway.KindNotFound))
	assert.Empty(t, delays)
}

func TestExitSession_ResetsEverything(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 2, Data: dueCards(2)}}
	clock := newFakeClock()
	e := newTestEngine(gw, clock, nil)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()
	clock.Advance(time.Second)
	require.NoError(t, e.SubmitReview(context.Background(), models.QualityPerfect))

	e.ExitSession()

	assert.Equal(t, StateIdle, e.State())
	_, ok := e.CurrentCard()
	assert.False(t, ok)
	assert.Equal(t, Progress{}, e.Progress())
}

func TestCompletedCountNeverExceedsTotal(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)}}
	clock := newFakeClock()
	e := newTestEngine(gw, clock, nil)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()
	require.NoError(t, e.SubmitReview(context.Background(), models.QualityPerfect))

	// The session is complete; further submissions must be rejected
	err := e.SubmitReview(context.Background(), models.QualityPerfect)
	assert.ErrorIs(t, err, ErrNoCurrentCard)
	assert.Equal(t, 1, e.Progress().CompletedCount)
	assert.Equal(t, StateCompleted, e.State())
}

// The running mean must equal the arithmetic mean of the recorded latencies
// for any sequence of submissions
func TestAverageLatencyMatchesArithmeticMean(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		latencies := rapid.SliceOfN(rapid.Int64Range(1, 600000), 1, 50).Draw(t, "latencies")

		gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: len(latencies), Data: dueCards(len(latencies))}}
		clock := newFakeClock()
		e := newTestEngine(gw, clock, nil)
		require.NoError(t, e.LoadQueue(context.Background()))

		var sum int64
		for _, ms := range latencies {
			clock.Advance(time.Duration(ms) * time.Millisecond)
			e.Reveal()
			require.NoError(t, e.SubmitReview(context.Background(), models.QualityCorrectDifficult))
			sum += ms
		}

		want := float64(sum) / float64(len(latencies))
		assert.InDelta(t, want, e.Progress().AvgLatencyMs, 1e-6)
		assert.Equal(t, StateCompleted, e.State())
	})
}

func TestLatencyClampedToPositive(t *testing.T) {
	gw := &fakeGateway{queue: &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)}}
	e := newTestEngine(gw, newFakeClock(), nil)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()

	// Submit with no simulated time passing
	require.NoError(t, e.SubmitReview(context.Background(), models.QualityPerfect))
	require.Len(t, gw.submits, 1)
	assert.Equal(t, int64(1), gw.submits[0].LatencyMs)
}

func TestSubmitReview_ErrorVariety(t *testing.T) {
	// Transport-level errors without a typed kind retry like transient ones
	gw := &fakeGateway{
		queue:      &gateway.DueQueue{TotalDue: 1, Data: dueCards(1)},
		submitErrs: []error{errors.New("connection reset"), nil},
	}
	var delays []time.Duration
	e := newTestEngine(gw, newFakeClock(), &delays)
	require.NoError(t, e.LoadQueue(context.Background()))
	e.Reveal()

	require.NoError(t, e.SubmitReview(context.Background(), models.QualityPerfect))
	assert.Len(t, delays, 1)
}
