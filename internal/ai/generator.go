// Package ai generates candidate flashcards with the OpenAI chat API. The
// generated cards are suggestions only: they enter the triage workflow and
// are never persisted without the learner's decision.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// Generator represents a client for the OpenAI chat completions API
type Generator struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// New creates a new generator client
func New() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	return &Generator{
		apiKey:      apiKey,
		apiURL:      "https://api.openai.com/v1/chat/completions",
		model:       "gpt-3.5-turbo",
		maxTokens:   500,
		temperature: 0.7,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateCandidates asks the model for count front/back pairs about the
// given topic and returns them as pending candidates for triage
func (g *Generator) GenerateCandidates(ctx context.Context, topic string, count int) ([]models.CandidateCard, error) {
	prompt := fmt.Sprintf(
		"Generate %d flashcards about the topic '%s'. "+
			"Each line must contain exactly one card in the format:\n"+
			"front | back\n"+
			"Return only the card lines, no numbering and no extra text.",
		count, topic,
	)

	messages := []Message{
		{Role: "system", Content: "You are a flashcard author. You create short, unambiguous question/answer pairs for spaced repetition."},
		{Role: "user", Content: prompt},
	}

	request := ChatRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return parseCandidates(response.Choices[0].Message.Content), nil
}

// parseCandidates extracts "front | back" lines into candidate cards.
// Lines that don't match the format are skipped.
func parseCandidates(content string) []models.CandidateCard {
	var cards []models.CandidateCard
	for _, line := range strings.Split(content, "\n") {
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			continue
		}
		front := strings.TrimSpace(parts[0])
		back := strings.TrimSpace(parts[1])
		if front == "" || back == "" {
			continue
		}
		cards = append(cards, models.NewCandidateCard(front, back, models.ProvenanceAI))
	}
	return cards
}
