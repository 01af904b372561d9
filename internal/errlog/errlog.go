// Package errlog sends failure reports to the external error collector.
// Delivery is strictly best-effort: a collector outage must never surface
// as a user-facing error.
package errlog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Event is one failure report
type Event struct {
	Path           string `json:"path"`
	Message        string `json:"message"`
	Stack          string `json:"stack,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
	ComponentStack string `json:"componentStack,omitempty"`
}

// Client posts events to the collector endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a collector client. An empty endpoint disables reporting.
func New(endpoint string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Report delivers one event. Failures are logged locally and swallowed.
func (c *Client) Report(ctx context.Context, event Event) {
	if c.endpoint == "" {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		c.logger.Debug("error report dropped", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Debug("error report dropped", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("error report not delivered", zap.Error(err))
		return
	}
	resp.Body.Close()
}
