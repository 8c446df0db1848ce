// Package channels keeps the set of publishing channels in memory.
package channels

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Source lists channels from the system of record.
type Source interface {
	List(ctx context.Context) ([]*models.Channel, error)
}

// Registry owns the known channels. Callers receive copies.
type Registry struct {
	source Source

	mu       sync.RWMutex
	channels map[string]models.Channel
}

// NewRegistry creates a registry backed by source. A nil source yields a
// registry populated only through Put.
func NewRegistry(source Source) *Registry {
	return &Registry{
		source:   source,
		channels: make(map[string]models.Channel),
	}
}

// Refresh replaces the registry contents with the source's channels.
func (r *Registry) Refresh(ctx context.Context) error {
	if r.source == nil {
		return nil
	}
	list, err := r.source.List(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	next := make(map[string]models.Channel, len(list))
	for _, c := range list {
		if c == nil || c.ID == "" {
			continue
		}
		if _, ok := models.ParseChannelKind(string(c.Kind)); !ok {
			log.Printf("skipping channel %s with unknown kind %q", c.ID, c.Kind)
			continue
		}
		next[c.ID] = *c
	}

	r.mu.Lock()
	r.channels = next
	r.mu.Unlock()
	return nil
}

// Get resolves a channel id.
func (r *Registry) Get(id string) (models.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[id]
	return c, ok
}

// List returns all channels ordered by title.
func (r *Registry) List() []models.Channel {
	r.mu.RLock()
	out := make([]models.Channel, 0, len(r.channels))
	for _, c := range r.channels {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Title == out[j].Title {
			return out[i].ID < out[j].ID
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Put adds or replaces a channel.
func (r *Registry) Put(c models.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[c.ID] = c
}

// Remove drops a channel.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, id)
}
