package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/example/flashdeck/pkg/models"
	"go.uber.org/zap"
)

// Client talks to the remote scheduling gateway. The gateway owns the
// spaced-repetition recalculation; this client only carries the protocol.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a gateway client for the given base URL
func New(baseURL, apiToken string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// DueQueue is the gateway's due-card listing: the declared total plus the
// card snapshots in presentation order
type DueQueue struct {
	TotalDue int              `json:"totalDue"`
	Data     []models.DueCard `json:"data"`
}

// ReviewSubmission is one scored review sent for rescheduling
type ReviewSubmission struct {
	FlashcardID string `json:"flashcardId"`
	Quality     int    `json:"quality"`
	LatencyMs   int64  `json:"latencyMs"`
}

// NewCard is the payload for creating a card in a deck
type NewCard struct {
	Front  string            `json:"front"`
	Back   string            `json:"back"`
	DeckID string            `json:"deckId"`
	Source models.Provenance `json:"source"`
}

// errorPayload is the gateway's error body shape
type errorPayload struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GetDueQueue fetches the current due set
func (c *Client) GetDueQueue(ctx context.Context) (*DueQueue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/flashcards/due", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch due queue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.asError(resp)
	}

	var queue DueQueue
	if err := json.NewDecoder(resp.Body).Decode(&queue); err != nil {
		return nil, &Error{Kind: KindInvalid, Message: fmt.Sprintf("decode due queue: %v", err)}
	}
	return &queue, nil
}

// SubmitReview sends one quality+latency pair for rescheduling
func (c *Client) SubmitReview(ctx context.Context, sub ReviewSubmission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal review: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reviews", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit review: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return c.asError(resp)
	}
	return nil
}

// CreateCard persists one card and returns the server-side representation
func (c *Client) CreateCard(ctx context.Context, card NewCard) (*models.PersistedCard, error) {
	body, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("marshal card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/flashcards", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.asError(resp)
	}

	var persisted models.PersistedCard
	if err := json.NewDecoder(resp.Body).Decode(&persisted); err != nil {
		return nil, &Error{Kind: KindInvalid, Message: fmt.Sprintf("decode created card: %v", err)}
	}
	return &persisted, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}

// asError builds the typed error for a non-success response
func (c *Client) asError(resp *http.Response) error {
	message := http.StatusText(resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(data) > 0 {
		var payload errorPayload
		if json.Unmarshal(data, &payload) == nil && payload.Error != nil && payload.Error.Message != "" {
			message = payload.Error.Message
		}
	}

	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	gwErr := classify(resp.StatusCode, message, retryAfter)

	c.logger.Debug("gateway request failed",
		zap.Int("status", resp.StatusCode),
		zap.String("kind", gwErr.Kind.String()),
		zap.String("message", message),
	)
	return gwErr
}

// parseRetryAfter reads a Retry-After header given in seconds
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
