// Package publish posts a project's finished artifacts to a channel.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/host"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/lifecycle"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/metrics"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/prompt"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/publisher"
)

var (
	// ErrRenderNotReady is returned when the project has no ready render.
	ErrRenderNotReady = errors.New("render not ready")
	// ErrUnknownChannel is returned when the channel id does not resolve.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrDeliveryFailed wraps the publisher's error.
	ErrDeliveryFailed = errors.New("delivery failed")
	// ErrPartialDelivery is returned when the render was posted but the text
	// was not. Retrying would post the render twice.
	ErrPartialDelivery = errors.New("partial delivery")
	// ErrCancelled is returned when the user declines to publish without text.
	ErrCancelled = errors.New("publish cancelled")
)

const confirmWithoutText = "The description is not ready yet. Publish the render without text?"

// ChannelResolver resolves channel ids.
type ChannelResolver interface {
	Get(id string) (models.Channel, bool)
}

// Sender delivers a post to a channel.
type Sender interface {
	Send(ctx context.Context, channel models.Channel, post publisher.Post) error
}

// Options tune a publish call.
type Options struct {
	// UserID is recorded as the publisher. Defaults to the context's user.
	UserID string
}

// Coordinator publishes projects.
type Coordinator struct {
	store    *lifecycle.Store
	channels ChannelResolver
	sender   Sender
	host     host.Host
	now      func() time.Time
}

// NewCoordinator creates a Coordinator. A nil host publishes renders
// without text without asking.
func NewCoordinator(store *lifecycle.Store, channels ChannelResolver, sender Sender, h host.Host) *Coordinator {
	return &Coordinator{
		store:    store,
		channels: channels,
		sender:   sender,
		host:     h,
		now:      time.Now,
	}
}

// Publish delivers the project's render, and its text when ready, to the
// channel. Every delivery attempt is appended to the project's history,
// including failed ones; precondition failures are not recorded.
func (c *Coordinator) Publish(ctx context.Context, projectID, channelID string, opts Options) (models.PublishRecord, error) {
	p, err := c.store.Get(projectID)
	if err != nil {
		return models.PublishRecord{}, err
	}
	if p.RenderStatus != models.StatusReady || p.Render == nil {
		return models.PublishRecord{}, fmt.Errorf("%w: render is %s", ErrRenderNotReady, p.RenderStatus)
	}
	channel, ok := c.channels.Get(channelID)
	if !ok {
		return models.PublishRecord{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channelID)
	}

	userID := opts.UserID
	if userID == "" {
		userID = host.UserFromContext(ctx)
	}

	var text *models.Artifact
	if p.TextStatus == models.StatusReady && p.Text != nil {
		t := *p.Text
		text = &t
	}
	if text == nil && c.host != nil {
		ok, err := c.host.Confirm(ctx, userID, confirmWithoutText)
		if err != nil {
			return models.PublishRecord{}, fmt.Errorf("confirm publish: %w", err)
		}
		if !ok {
			return models.PublishRecord{}, ErrCancelled
		}
	}

	post := publisher.Post{
		Title: Headline(p),
		Image: models.ImageRef(p.Render.Value),
	}
	if text != nil {
		post.Text = text.Value
	}

	sendErr := c.sender.Send(ctx, channel, post)

	record := models.PublishRecord{
		ID:          uuid.New().String(),
		ProjectID:   p.ID,
		ChannelID:   channel.ID,
		Render:      *p.Render,
		Text:        text,
		PublishedBy: userID,
		Outcome:     models.OutcomeDelivered,
		Timestamp:   c.now(),
	}
	partial := errors.Is(sendErr, publisher.ErrPartialDelivery)
	switch {
	case partial:
		record.Outcome = models.OutcomePartial
		record.Error = sendErr.Error()
	case sendErr != nil:
		record.Outcome = models.OutcomeFailed
		record.Error = sendErr.Error()
	}
	metrics.PublishTotal.WithLabelValues(string(channel.Kind), string(record.Outcome)).Inc()

	if _, err := c.store.RecordPublish(p.ID, record); err != nil {
		log.Printf("record publish for project %s error: %v", p.ID, err)
	}

	if partial {
		log.Printf("publish project %s to channel %s partially delivered: %v", p.ID, channel.ID, sendErr)
		return record, fmt.Errorf("%w: %w", ErrPartialDelivery, sendErr)
	}
	if sendErr != nil {
		log.Printf("publish project %s to channel %s error: %v", p.ID, channel.ID, sendErr)
		return record, fmt.Errorf("%w: %w", ErrDeliveryFailed, sendErr)
	}
	log.Printf("published project %s to channel %s", p.ID, channel.ID)
	return record, nil
}

// Headline is the post title: the location, then the price when known.
func Headline(p models.Project) string {
	parts := []string{prompt.Location(p.Attributes, p.Locale)}
	if price := strings.TrimSpace(p.Attributes.Price); price != "" {
		if cur := strings.TrimSpace(p.Attributes.Currency); cur != "" {
			price += " " + cur
		}
		parts = append(parts, price)
	}
	return strings.Join(parts, " · ")
}
