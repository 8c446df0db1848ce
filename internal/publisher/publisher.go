// Package publisher delivers finished listings to messaging channels.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/metrics"
	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Post is the content delivered to a channel.
type Post struct {
	Title string
	Image models.ImageRef
	Text  string
}

// Publisher delivers posts to one kind of channel.
type Publisher interface {
	// Name returns the channel kind it serves (e.g. "telegram", "slack").
	Name() string
	// Publish delivers post to channel.
	Publish(ctx context.Context, channel models.Channel, post Post) error
	// Close releases any resources.
	Close() error
}

var (
	// ErrRateLimited is returned when a post is dropped due to rate limiting.
	ErrRateLimited = errors.New("publish rate limited")
	// ErrNoPublisher is returned when no publisher serves the channel kind.
	ErrNoPublisher = errors.New("no publisher for channel kind")
	// ErrPartialDelivery is returned when the render reached the channel but
	// the text that follows it did not. The post must not be resent.
	ErrPartialDelivery = errors.New("render posted, text failed")
)

// Dispatcher routes posts to the publisher registered for each channel kind.
type Dispatcher struct {
	mu          sync.RWMutex
	publishers  map[models.ChannelKind]Publisher
	rateLimiter *RateLimiter
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWithRateLimit(DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with custom rate limiting.
func NewDispatcherWithRateLimit(config RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		publishers:  make(map[models.ChannelKind]Publisher),
		rateLimiter: NewRateLimiter(config),
	}
}

// Register adds a publisher, replacing any previous one of the same kind.
func (d *Dispatcher) Register(p Publisher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.publishers[models.ChannelKind(p.Name())] = p
}

// Get returns the publisher for a channel kind.
func (d *Dispatcher) Get(kind models.ChannelKind) (Publisher, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.publishers[kind]
	return p, ok
}

// Kinds returns the channel kinds that have a publisher.
func (d *Dispatcher) Kinds() []models.ChannelKind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kinds := make([]models.ChannelKind, 0, len(d.publishers))
	for k := range d.publishers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Send delivers post to channel exactly once. A failed delivery refunds its
// rate limit token; a partial one keeps it, since something was posted.
func (d *Dispatcher) Send(ctx context.Context, channel models.Channel, post Post) error {
	p, ok := d.Get(channel.Kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoPublisher, channel.Kind)
	}

	if d.rateLimiter != nil && !d.rateLimiter.Allow() {
		metrics.PublishRateLimited.WithLabelValues(string(channel.Kind)).Inc()
		return ErrRateLimited
	}

	if err := p.Publish(ctx, channel, post); err != nil {
		if d.rateLimiter != nil && !errors.Is(err, ErrPartialDelivery) {
			d.rateLimiter.Release()
		}
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return nil
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	if d.rateLimiter == nil {
		return RateLimitStats{}
	}
	return d.rateLimiter.Stats()
}

// Close closes all registered publishers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for kind, p := range d.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
		}
	}
	d.publishers = make(map[models.ChannelKind]Publisher)
	return errors.Join(errs...)
}

// truncate shortens s to at most max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
