package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// HTTPConfig configures an OpenAI-compatible chat completions endpoint
type HTTPConfig struct {
	Endpoint  string
	APIKey    string
	Model     string
	MaxLength int
	Client    *http.Client
}

// HTTPSummarizer asks a remote language model for the summary
type HTTPSummarizer struct {
	endpoint  string
	apiKey    string
	model     string
	maxLength int
	client    *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewHTTPSummarizer validates cfg and creates the client
func NewHTTPSummarizer(cfg HTTPConfig) (*HTTPSummarizer, error) {
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid summary endpoint %q: %w", cfg.Endpoint, err)
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.Client == nil {
		// Per-call deadlines come from the context.
		cfg.Client = &http.Client{}
	}

	return &HTTPSummarizer{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxLength: cfg.MaxLength,
		client:    cfg.Client,
	}, nil
}

// Summarize implements Summarizer
func (s *HTTPSummarizer) Summarize(ctx context.Context, title, content string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{
				Role: "system",
				Content: fmt.Sprintf("Summarize the following blog post in at most %d characters. "+
					"Answer with the summary only.", s.maxLength),
			},
			{Role: "user", Content: "Title: " + title + "\n\n" + content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode summary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read summary response: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("failed to decode summary response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return "", fmt.Errorf("summary endpoint returned %d: %s", resp.StatusCode, msg)
	}

	if len(decoded.Choices) == 0 {
		return "", errors.New("summary endpoint returned no choices")
	}
	summary := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("summary endpoint returned an empty summary")
	}

	return truncate(summary, s.maxLength), nil
}
