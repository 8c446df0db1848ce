package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// ErrAlreadyInProgress is returned when a generation for the same project
// and artifact kind is already running.
var ErrAlreadyInProgress = errors.New("generation already in progress")

// FlightGuard admits at most one holder per key. Acquire never waits: it
// returns ErrAlreadyInProgress when the key is held.
type FlightGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// FlightKey is the guard key for a (project, kind) pair.
func FlightKey(projectID string, kind models.ArtifactKind) string {
	return projectID + ":" + string(kind)
}

// MemoryGuard is a process-local FlightGuard.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

// Acquire claims key. The returned release is idempotent.
func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return nil, ErrAlreadyInProgress
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// Held reports whether key is currently claimed.
func (g *MemoryGuard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
