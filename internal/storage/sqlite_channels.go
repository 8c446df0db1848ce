package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

type sqliteChannelRepo struct {
	db *sql.DB
}

func (r *sqliteChannelRepo) Create(ctx context.Context, channel *models.Channel) (err error) {
	defer func(start time.Time) { observe("channel_create", start, err) }(time.Now())

	query := `
		INSERT INTO channels (id, title, kind, target, subscribers_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		channel.ID, channel.Title, channel.Kind, channel.Target,
		channel.SubscribersCount, channel.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

func (r *sqliteChannelRepo) GetByID(ctx context.Context, id string) (channel *models.Channel, err error) {
	defer func(start time.Time) { observe("channel_get", start, err) }(time.Now())

	query := `
		SELECT id, title, kind, target, subscribers_count, created_at
		FROM channels WHERE id = ?
	`
	channel, err = scanChannel(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel by id: %w", err)
	}
	return channel, nil
}

func (r *sqliteChannelRepo) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("channel_delete", start, err) }(time.Now())

	result, err := r.db.ExecContext(ctx, "DELETE FROM channels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("channel not found: %s", id)
	}
	return nil
}

func (r *sqliteChannelRepo) List(ctx context.Context) (channels []*models.Channel, err error) {
	defer func(start time.Time) { observe("channel_list", start, err) }(time.Now())

	query := `
		SELECT id, title, kind, target, subscribers_count, created_at
		FROM channels ORDER BY title, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, channel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return channels, nil
}

func scanChannel(s rowScanner) (*models.Channel, error) {
	var c models.Channel
	if err := s.Scan(&c.ID, &c.Title, &c.Kind, &c.Target, &c.SubscribersCount, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
