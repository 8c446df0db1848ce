// Package remote talks to the external generative endpoint.
// The client is stateless: one call issues exactly one HTTP request and
// never retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

// Config holds remote generator configuration.
type Config struct {
	APIKey            string        // Bearer credential; empty means not configured
	BaseURL           string        // API base URL (default: https://openrouter.ai/api/v1)
	TextModel         string        // Model used for descriptions
	ImageModel        string        // Model used for renders
	Timeout           time.Duration // Per-request timeout (default: 60s)
	RequestsPerSecond float64       // Outbound pacing, 0 disables it
	Referer           string        // Sent as HTTP-Referer
	Title             string        // Sent as X-Title
	MaxTokens         int
	Temperature       float64
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.TextModel == "" {
		c.TextModel = "google/gemini-3-flash-preview"
	}
	if c.ImageModel == "" {
		c.ImageModel = "google/gemini-3-pro-image-preview"
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Title == "" {
		c.Title = "DubaiEstate AI"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1000
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
}

// Client issues generation requests to an OpenRouter-compatible endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new remote generation client.
// A missing API key is not an error: calls then fail with ErrNotConfigured.
func NewClient(config Config) *Client {
	config.SetDefaults()

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.config.APIKey) != ""
}

// TextModel returns the model used for descriptions.
func (c *Client) TextModel() string {
	return c.config.TextModel
}

// ImageModel returns the model used for renders.
func (c *Client) ImageModel() string {
	return c.config.ImageModel
}

// GenerateText returns a description for the prompt.
func (c *Client) GenerateText(ctx context.Context, spec prompt.Spec) (string, error) {
	const op = "text"

	payload := chatRequest{
		Model:       c.config.TextModel,
		Messages:    buildMessages(spec),
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	msg, err := c.complete(ctx, op, payload)
	if err != nil {
		return "", err
	}

	text, err := msg.text()
	if err != nil {
		return "", &Error{Kind: KindInvalidResponse, Op: op, Err: err}
	}
	return text, nil
}

// GenerateImage returns a render for the prompt.
func (c *Client) GenerateImage(ctx context.Context, spec prompt.Spec) (models.ImageRef, error) {
	const op = "image"

	payload := chatRequest{
		Model:      c.config.ImageModel,
		Messages:   buildMessages(spec),
		Modalities: []string{"image", "text"},
		MaxTokens:  c.config.MaxTokens,
	}

	msg, err := c.complete(ctx, op, payload)
	if err != nil {
		return "", err
	}

	ref, err := msg.firstImage()
	if err != nil {
		return "", &Error{Kind: KindInvalidResponse, Op: op, Err: err}
	}
	return ref, nil
}

// complete sends one chat completion request and returns the first choice.
func (c *Client) complete(ctx context.Context, op string, payload chatRequest) (*chatMessage, error) {
	if !c.Configured() {
		return nil, &Error{Kind: KindNotConfigured, Op: op}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindUnreachable, Op: op, Err: err}
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Op: op, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("User-Agent", config.UserAgent())
	req.Header.Set("X-Title", c.config.Title)
	if c.config.Referer != "" {
		req.Header.Set("HTTP-Referer", c.config.Referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{
			Kind:   KindInvalidResponse,
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("body: %s", strings.TrimSpace(string(body))),
		}
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Op: op, Status: resp.StatusCode, Err: errors.New("no choices in response")}
	}

	return &out.Choices[0].Message, nil
}

// maxResponseBytes bounds decoded bodies; inline images are large.
const maxResponseBytes = 32 << 20

func buildMessages(spec prompt.Spec) []chatRequestMessage {
	var msgs []chatRequestMessage
	if spec.System != "" {
		msgs = append(msgs, chatRequestMessage{Role: "system", Content: spec.System})
	}

	if spec.ImageURL == "" {
		msgs = append(msgs, chatRequestMessage{Role: "user", Content: spec.User})
		return msgs
	}

	msgs = append(msgs, chatRequestMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: spec.User},
			{Type: "image_url", ImageURL: &imageURL{URL: string(spec.ImageURL)}},
		},
	})
	return msgs
}
