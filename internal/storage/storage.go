// Package storage provides database storage interfaces and implementations.
//
// The database is the system of record behind the in-memory lifecycle store:
// projects are mirrored into it after every committed mutation and loaded
// back at start-up.
package storage

import (
	"context"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// Ping checks the connection.
	Ping(ctx context.Context) error

	Projects() ProjectRepository
	Channels() ChannelRepository
}

// ProjectRepository defines operations for project persistence.
// GetByID returns nil, nil when the project does not exist.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	// Save upserts the project and appends publish records not yet stored.
	// A snapshot older than the stored one is ignored.
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Project, error)
}

// ChannelRepository defines operations for publishing channels.
// GetByID returns nil, nil when the channel does not exist.
type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Channel, error)
}
