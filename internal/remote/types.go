package remote

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// chatRequest represents the chat completions payload.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []chatRequestMessage `json:"messages"`
	Modalities  []string             `json:"modalities,omitempty"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

// chatRequestMessage carries either a plain string or content parts.
type chatRequestMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// chatResponse represents the subset of the completion response we read.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatMessage struct {
	Content json.RawMessage   `json:"content"`
	Images  []json.RawMessage `json:"images"`
}

// text returns the trimmed string content of the message.
func (m *chatMessage) text() (string, error) {
	if len(m.Content) == 0 {
		return "", errors.New("missing message content")
	}

	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return "", errors.New("empty message content")
		}
		return s, nil
	}

	// Some providers return content parts instead of a string.
	var parts []contentPart
	if err := json.Unmarshal(m.Content, &parts); err != nil {
		return "", errors.New("message content is neither text nor parts")
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	s = strings.TrimSpace(b.String())
	if s == "" {
		return "", errors.New("empty message content")
	}
	return s, nil
}

// firstImage returns the first image of the message as a reference.
// Images arrive either as a bare URL string or as an image_url part.
func (m *chatMessage) firstImage() (models.ImageRef, error) {
	if len(m.Images) == 0 {
		return "", errors.New("no image in response")
	}

	raw := m.Images[0]
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty image reference")
		}
		return models.ImageRef(s), nil
	}

	var part contentPart
	if err := json.Unmarshal(raw, &part); err != nil || part.ImageURL == nil || strings.TrimSpace(part.ImageURL.URL) == "" {
		return "", errors.New("malformed image entry")
	}
	return models.ImageRef(part.ImageURL.URL), nil
}
