package publisher

import (
	"context"
	"net/http"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Slack section text is capped at 3000 characters.
const slackTextLimit = 3000

// SlackPublisher posts listings to Slack incoming webhooks. The channel's
// Target is the webhook URL.
type SlackPublisher struct {
	httpClient    *http.Client
	allowInsecure bool
}

// NewSlackPublisher creates a Slack publisher.
func NewSlackPublisher() *SlackPublisher {
	return &SlackPublisher{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

// Name returns "slack".
func (s *SlackPublisher) Name() string {
	return string(models.ChannelSlack)
}

// Publish sends the post as a Block Kit message.
func (s *SlackPublisher) Publish(ctx context.Context, channel models.Channel, post Post) error {
	if !s.allowInsecure {
		if err := ValidateWebhookURL(channel.Target); err != nil {
			return err
		}
	}
	return postWebhook(ctx, s.httpClient, "slack", channel.Target, s.buildPayload(post))
}

// Close is a no-op for the Slack publisher.
func (s *SlackPublisher) Close() error {
	return nil
}

// slackMessage represents the Slack webhook payload.
type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// slackBlock represents a Slack Block Kit block.
type slackBlock struct {
	Type     string     `json:"type"`
	Text     *slackText `json:"text,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
	AltText  string     `json:"alt_text,omitempty"`
}

// slackText represents text in Slack Block Kit.
type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func (s *SlackPublisher) buildPayload(post Post) slackMessage {
	title := post.Title
	if title == "" {
		title = "New listing"
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: truncate(title, 150), Emoji: true},
		},
	}

	// Slack fetches images itself, so inline data URLs cannot be shown.
	if isPublicURL(post.Image) {
		blocks = append(blocks, slackBlock{
			Type:     "image",
			ImageURL: string(post.Image),
			AltText:  title,
		})
	}

	if post.Text != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: truncate(post.Text, slackTextLimit)},
		})
	}

	return slackMessage{Text: title, Blocks: blocks}
}
