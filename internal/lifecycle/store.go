// Package lifecycle holds the authoritative in-memory record of projects.
//
// Projects change only through the Store's transition methods. Each mutation
// builds a new Project value and swaps it in under the lock, and readers
// always receive deep copies, so no caller ever observes a partial update.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

var (
	// ErrProjectNotFound is returned for unknown project ids.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// from the current status, e.g. a stale completion.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Mirror receives committed project snapshots, typically the backend
// repository. Errors are logged and never fail the transition.
type Mirror interface {
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
}

// Store is the project lifecycle store.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	mirror   Mirror
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMirror sets the mirror notified after each committed mutation.
func WithMirror(m Mirror) Option {
	return func(s *Store) { s.mirror = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		projects: make(map[string]*models.Project),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a new project with idle artifacts.
func (s *Store) Create(attrs models.Attributes, style models.Style, locale models.Locale) models.Project {
	p := models.NewProject(uuid.New().String(), attrs, style, locale)
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.mu.Lock()
	s.projects[p.ID] = p
	snapshot := p.Clone()
	s.mu.Unlock()

	s.save(&snapshot)
	return snapshot
}

// Get returns a copy of the project.
func (s *Store) Get(id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, ErrProjectNotFound
	}
	return p.Clone(), nil
}

// List returns copies of all projects, newest first.
func (s *Store) List() []models.Project {
	s.mu.RLock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// BeginGeneration moves an idle or ready artifact kind to pending and
// returns the project as it was when generation started.
func (s *Store) BeginGeneration(id string, kind models.ArtifactKind) (models.Project, error) {
	return s.update(id, func(p *models.Project) error {
		switch cur := p.Status(kind); cur {
		case models.StatusIdle, models.StatusReady:
			setStatus(p, kind, models.StatusPending)
			return nil
		default:
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, kind, cur)
		}
	})
}

// ApplyArtifact stores a generated artifact and moves the kind from pending
// to ready. The previous artifact stays visible until this call commits.
func (s *Store) ApplyArtifact(id string, kind models.ArtifactKind, artifact models.Artifact) (models.Project, error) {
	return s.update(id, func(p *models.Project) error {
		if cur := p.Status(kind); cur != models.StatusPending {
			return fmt.Errorf("%w: cannot apply %s artifact while %s", ErrInvalidTransition, kind, cur)
		}
		artifact.Kind = kind
		if kind == models.KindText {
			p.Text = &artifact
		} else {
			p.Render = &artifact
		}
		setStatus(p, kind, models.StatusReady)
		return nil
	})
}

// AbortGeneration leaves pending without a new artifact: ready if an
// artifact exists, idle otherwise.
func (s *Store) AbortGeneration(id string, kind models.ArtifactKind) (models.Project, error) {
	return s.update(id, func(p *models.Project) error {
		if cur := p.Status(kind); cur != models.StatusPending {
			return fmt.Errorf("%w: cannot abort %s while %s", ErrInvalidTransition, kind, cur)
		}
		setStatus(p, kind, settledStatus(p, kind))
		return nil
	})
}

// RecordPublish appends a publish record to the project's history.
func (s *Store) RecordPublish(id string, record models.PublishRecord) (models.Project, error) {
	return s.update(id, func(p *models.Project) error {
		record.ProjectID = id
		p.Publications = append(p.Publications, record)
		return nil
	})
}

// Delete removes a project.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.projects[id]; !ok {
		s.mu.Unlock()
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	s.mu.Unlock()

	if s.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := s.mirror.Delete(ctx, id); err != nil {
			log.Printf("mirror delete project %s error: %v", id, err)
		}
	}
	return nil
}

// Load replaces the store's contents with projects from the system of
// record. Pending statuses left over from an earlier process are settled.
func (s *Store) Load(projects []*models.Project) {
	next := make(map[string]*models.Project, len(projects))
	for _, src := range projects {
		if src == nil || src.ID == "" {
			continue
		}
		p := src.Clone()
		if p.Publications == nil {
			p.Publications = []models.PublishRecord{}
		}
		for _, kind := range models.ArtifactKinds {
			if p.Status(kind) == models.StatusPending || p.Status(kind) == "" {
				setStatus(&p, kind, settledStatus(&p, kind))
			}
		}
		next[p.ID] = &p
	}

	s.mu.Lock()
	s.projects = next
	s.mu.Unlock()
}

// Len returns the number of projects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

const mirrorTimeout = 5 * time.Second

// update applies fn to a copy of the project and swaps the copy in.
func (s *Store) update(id string, fn func(p *models.Project) error) (models.Project, error) {
	s.mu.Lock()
	cur, ok := s.projects[id]
	if !ok {
		s.mu.Unlock()
		return models.Project{}, ErrProjectNotFound
	}

	next := cur.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return models.Project{}, err
	}
	next.UpdatedAt = s.now()
	s.projects[id] = &next
	snapshot := next.Clone()
	s.mu.Unlock()

	s.save(&snapshot)
	return snapshot, nil
}

func (s *Store) save(p *models.Project) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.Save(ctx, p); err != nil {
		log.Printf("mirror save project %s error: %v", p.ID, err)
	}
}

func setStatus(p *models.Project, kind models.ArtifactKind, status models.Status) {
	if kind == models.KindText {
		p.TextStatus = status
	} else {
		p.RenderStatus = status
	}
}

func settledStatus(p *models.Project, kind models.ArtifactKind) models.Status {
	if p.Artifact(kind) != nil {
		return models.StatusReady
	}
	return models.StatusIdle
}
