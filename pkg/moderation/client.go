package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	imagePrompt = "Moderate this image. Is there any nudity, violence, gore, or explicit content? " +
		`Return only a JSON object like this: {"safe": true, "categories": ["nudity"], "confidence": 0.95, "suggested_action": "block"}. ` +
		"No explanation, just the JSON."

	contextualPrompt = "You are a trust & safety analyst. Analyze the following conversation for grooming, manipulation, " +
		"harassment, power imbalance, or any kind of risk.\n\n" +
		"Return only a JSON object with:\n" +
		`{"safe": true/false, "risk_factors": ["string"], "suggested_action": "allow/escalate/block"}` + "\n\n" +
		"DO NOT include any explanation. ONLY return the JSON."
)

// Config contains configuration for the moderation backend client.
type Config struct {
	// BaseURL is the backend API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey authenticates against the backend.
	APIKey string

	// VisionModel is the chat model used for image and contextual
	// analysis. Default: "gpt-4o"
	VisionModel string

	// Timeout bounds a single backend request.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries for transient failures.
	// Default: 2
	MaxRetries int

	// MaxIdleConns configures connection pooling.
	// Default: 10
	MaxIdleConns int
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "https://api.openai.com/v1",
		VisionModel:  "gpt-4o",
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		MaxIdleConns: 10,
	}
}

// Client calls the moderation backend.
type Client struct {
	config *Config
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a moderation backend client with connection pooling.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.VisionModel == "" {
		config.VisionModel = "gpt-4o"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:      config.MaxIdleConns,
		IdleConnTimeout:   90 * time.Second,
		ForceAttemptHTTP2: true,
	}

	return &Client{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "moderation.client"),
	}
}

// ModerateText runs text moderation through the backend's dedicated
// moderation endpoint.
func (c *Client) ModerateText(ctx context.Context, input *TextInput) (*Verdict, error) {
	if input == nil || input.Text == "" {
		return nil, ErrEmptyInput
	}

	var resp moderationResponse
	if err := c.doJSON(ctx, "/moderations", &moderationRequest{Input: input.Text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &ParseError{
			Endpoint: "/moderations",
			Cause:    fmt.Errorf("backend returned no results"),
		}
	}

	result := resp.Results[0]

	categories := []string{}
	for category, hit := range result.Categories {
		if hit {
			categories = append(categories, category)
		}
	}

	var maxScore float64
	for _, score := range result.CategoryScores {
		if score > maxScore {
			maxScore = score
		}
	}

	action := "allow"
	if result.Flagged {
		action = "block"
	}

	return &Verdict{
		Safe:            !result.Flagged,
		Categories:      categories,
		Confidence:      math.Round(maxScore*1000) / 1000,
		SuggestedAction: action,
	}, nil
}

// ModerateImage runs image moderation by prompting the vision model for a
// strict JSON verdict.
func (c *Client) ModerateImage(ctx context.Context, input *ImageInput) (*Verdict, error) {
	if input == nil || input.ImageURL == "" {
		return nil, ErrEmptyInput
	}

	req := &chatRequest{
		Model: c.config.VisionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContentPart{
					{Type: "text", Text: imagePrompt},
					{Type: "image_url", ImageURL: &chatImagePart{URL: input.ImageURL}},
				},
			},
		},
		MaxTokens: 300,
	}

	var verdict Verdict
	if err := c.chatVerdict(ctx, req, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// ModerateContextual analyzes a conversation for risk patterns by
// prompting the vision model for a strict JSON verdict.
func (c *Client) ModerateContextual(ctx context.Context, input *ContextualInput) (*ContextualVerdict, error) {
	if input == nil || len(input.Messages) == 0 {
		return nil, ErrEmptyInput
	}

	lines := make([]string, 0, len(input.Messages))
	for _, msg := range input.Messages {
		lines = append(lines, fmt.Sprintf("%s - %s: %s", msg.Timestamp, msg.SenderID, msg.Content))
	}

	req := &chatRequest{
		Model: c.config.VisionModel,
		Messages: []chatMessage{
			{Role: "system", Content: contextualPrompt},
			{Role: "user", Content: strings.Join(lines, "\n")},
		},
		MaxTokens: 300,
	}

	var verdict ContextualVerdict
	if err := c.chatVerdict(ctx, req, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// chatVerdict sends a chat completion request and decodes the model's
// answer into the given verdict value.
func (c *Client) chatVerdict(ctx context.Context, req *chatRequest, verdict interface{}) error {
	var resp chatResponse
	if err := c.doJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return &ParseError{
			Endpoint: "/chat/completions",
			Cause:    fmt.Errorf("backend returned no choices"),
		}
	}

	content := extractJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), verdict); err != nil {
		return &ParseError{
			Endpoint:    "/chat/completions",
			RawResponse: resp.Choices[0].Message.Content,
			Cause:       fmt.Errorf("model answer is not a verdict: %w", err),
		}
	}
	return nil
}

// doJSON performs a POST with retry on transient failures.
func (c *Client) doJSON(ctx context.Context, path string, reqBody, respBody interface{}) error {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Debug("retrying backend request",
				"path", path,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			c.logger.Warn("backend request failed, will retry",
				"path", path,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		responseBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return &ParseError{Endpoint: path, Cause: readErr}
			}
			if err := json.Unmarshal(responseBytes, respBody); err != nil {
				return &ParseError{
					Endpoint:    path,
					RawResponse: string(responseBytes),
					Cause:       err,
				}
			}
			return nil

		case resp.StatusCode >= 500:
			// Server error, retry.
			lastErr = &BackendError{
				Endpoint:   path,
				StatusCode: resp.StatusCode,
				Message:    string(responseBytes),
			}
			c.logger.Warn("backend returned error status, will retry",
				"path", path,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)

		default:
			// Client error, do not retry.
			return &BackendError{
				Endpoint:   path,
				StatusCode: resp.StatusCode,
				Message:    string(responseBytes),
			}
		}
	}

	return lastErr
}

// extractJSON strips a markdown code fence if the model wrapped its answer
// in one.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}
