package publisher

import (
	"context"
	"net/http"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// TeamsPublisher posts listings to Microsoft Teams incoming webhooks as
// Adaptive Cards. The channel's Target is the webhook URL.
type TeamsPublisher struct {
	httpClient    *http.Client
	allowInsecure bool
}

// NewTeamsPublisher creates a Teams publisher.
func NewTeamsPublisher() *TeamsPublisher {
	return &TeamsPublisher{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Name returns "teams".
func (t *TeamsPublisher) Name() string {
	return string(models.ChannelTeams)
}

// Publish sends the post as an Adaptive Card.
func (t *TeamsPublisher) Publish(ctx context.Context, channel models.Channel, post Post) error {
	if !t.allowInsecure {
		if err := ValidateWebhookURL(channel.Target); err != nil {
			return err
		}
	}
	return postWebhook(ctx, t.httpClient, "teams", channel.Target, t.buildPayload(post))
}

// Close is a no-op for the Teams publisher.
func (t *TeamsPublisher) Close() error {
	return nil
}

// teamsMessage represents the Teams webhook payload with Adaptive Card.
type teamsMessage struct {
	Type        string            `json:"type"`
	Attachments []teamsAttachment `json:"attachments"`
}

type teamsAttachment struct {
	ContentType string       `json:"contentType"`
	ContentURL  *string      `json:"contentUrl"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Schema  string `json:"$schema"`
	Type    string `json:"type"`
	Version string `json:"version"`
	Body    []any  `json:"body"`
}

type textBlock struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
}

type imageBlock struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Size    string `json:"size,omitempty"`
}

func (t *TeamsPublisher) buildPayload(post Post) teamsMessage {
	title := post.Title
	if title == "" {
		title = "New listing"
	}

	body := []any{
		textBlock{Type: "TextBlock", Text: title, Size: "Large", Weight: "Bolder", Wrap: true},
	}
	// Teams renders data URLs in cards, unlike Slack.
	if post.Image != "" {
		body = append(body, imageBlock{Type: "Image", URL: string(post.Image), AltText: title, Size: "Stretch"})
	}
	if post.Text != "" {
		body = append(body, textBlock{Type: "TextBlock", Text: post.Text, Wrap: true})
	}

	return teamsMessage{
		Type: "message",
		Attachments: []teamsAttachment{
			{
				ContentType: "application/vnd.microsoft.card.adaptive",
				Content: adaptiveCard{
					Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
					Type:    "AdaptiveCard",
					Version: "1.4",
					Body:    body,
				},
			},
		},
	}
}
