package lifecycle

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// ProjectSource lists projects from the system of record.
type ProjectSource interface {
	List(ctx context.Context) ([]*models.Project, error)
}

// ChannelRefresher reloads the channel registry.
type ChannelRefresher interface {
	Refresh(ctx context.Context) error
}

// Sync resynchronizes the store and the channel registry from the backend.
// Both are fetched concurrently; the store is replaced only if both succeed.
func Sync(ctx context.Context, store *Store, projects ProjectSource, channels ChannelRefresher) error {
	var loaded []*models.Project

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := projects.List(gCtx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		loaded = list
		return nil
	})
	if channels != nil {
		g.Go(func() error {
			if err := channels.Refresh(gCtx); err != nil {
				return fmt.Errorf("refresh channels: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	store.Load(loaded)
	log.Printf("lifecycle store synced: %d projects", store.Len())
	return nil
}
