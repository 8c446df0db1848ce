package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
)

type sqliteProjectRepo struct {
	db *sql.DB
}

// projectRow holds the encoded columns of a project.
type projectRow struct {
	attributes string
	render     sql.NullString
	text       sql.NullString
}

func encodeProject(p *models.Project) (projectRow, error) {
	var row projectRow

	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return row, fmt.Errorf("marshal attributes: %w", err)
	}
	row.attributes = string(attrs)

	if row.render, err = encodeArtifact(p.Render); err != nil {
		return row, err
	}
	if row.text, err = encodeArtifact(p.Text); err != nil {
		return row, err
	}
	return row, nil
}

func encodeArtifact(a *models.Artifact) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal %s artifact: %w", a.Kind, err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeArtifact(s sql.NullString) (*models.Artifact, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var a models.Artifact
	if err := json.Unmarshal([]byte(s.String), &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &a, nil
}

func (r *sqliteProjectRepo) Create(ctx context.Context, project *models.Project) (err error) {
	defer func(start time.Time) { observe("project_create", start, err) }(time.Now())

	row, err := encodeProject(project)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (id, attributes_json, style, locale, render_json, text_json,
			render_status, text_status, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		project.ID, row.attributes, project.Style, project.Locale, row.render, row.text,
		project.RenderStatus, project.TextStatus, project.UpdatedAt.UnixNano(),
		project.CreatedAt.UTC(), project.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) Save(ctx context.Context, project *models.Project) (err error) {
	defer func(start time.Time) { observe("project_save", start, err) }(time.Now())

	row, err := encodeProject(project)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save project: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (id, attributes_json, style, locale, render_json, text_json,
			render_status, text_status, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			attributes_json = excluded.attributes_json,
			style = excluded.style,
			locale = excluded.locale,
			render_json = excluded.render_json,
			text_json = excluded.text_json,
			render_status = excluded.render_status,
			text_status = excluded.text_status,
			revision = excluded.revision,
			updated_at = excluded.updated_at
		WHERE excluded.revision >= projects.revision
	`
	_, err = tx.ExecContext(ctx, query,
		project.ID, row.attributes, project.Style, project.Locale, row.render, row.text,
		project.RenderStatus, project.TextStatus, project.UpdatedAt.UnixNano(),
		project.CreatedAt.UTC(), project.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	for _, rec := range project.Publications {
		if err := insertPublication(ctx, tx, project.ID, rec); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save project: %w", err)
	}
	return nil
}

func insertPublication(ctx context.Context, tx *sql.Tx, projectID string, rec models.PublishRecord) error {
	render, err := json.Marshal(rec.Render)
	if err != nil {
		return fmt.Errorf("marshal publication render: %w", err)
	}
	text, err := encodeArtifact(rec.Text)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO publications (id, project_id, channel_id, render_json, text_json,
			published_by, outcome, error, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, projectID, rec.ChannelID, string(render), text,
		rec.PublishedBy, rec.Outcome, rec.Error, rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

func (r *sqliteProjectRepo) GetByID(ctx context.Context, id string) (project *models.Project, err error) {
	defer func(start time.Time) { observe("project_get", start, err) }(time.Now())

	query := `
		SELECT id, attributes_json, style, locale, render_json, text_json,
			render_status, text_status, created_at, updated_at
		FROM projects WHERE id = ?
	`
	project, err = scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project by id: %w", err)
	}

	pubs, err := r.publications(ctx, "WHERE project_id = ?", id)
	if err != nil {
		return nil, err
	}
	project.Publications = pubs[id]
	if project.Publications == nil {
		project.Publications = []models.PublishRecord{}
	}
	return project, nil
}

func (r *sqliteProjectRepo) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { observe("project_delete", start, err) }(time.Now())

	result, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project not found: %s", id)
	}
	return nil
}

func (r *sqliteProjectRepo) List(ctx context.Context) (projects []*models.Project, err error) {
	defer func(start time.Time) { observe("project_list", start, err) }(time.Now())

	query := `
		SELECT id, attributes_json, style, locale, render_json, text_json,
			render_status, text_status, created_at, updated_at
		FROM projects ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	rows.Close()

	pubs, err := r.publications(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		p.Publications = pubs[p.ID]
		if p.Publications == nil {
			p.Publications = []models.PublishRecord{}
		}
	}
	return projects, nil
}

// publications loads publish records grouped by project, oldest first.
func (r *sqliteProjectRepo) publications(ctx context.Context, where string, args ...any) (map[string][]models.PublishRecord, error) {
	query := `
		SELECT id, project_id, channel_id, render_json, text_json, published_by,
			outcome, error, published_at
		FROM publications ` + where + ` ORDER BY published_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]models.PublishRecord)
	for rows.Next() {
		var (
			rec         models.PublishRecord
			render      string
			text        sql.NullString
			publishedBy sql.NullString
			errText     sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.ChannelID, &render, &text,
			&publishedBy, &rec.Outcome, &errText, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan publication: %w", err)
		}
		if err := json.Unmarshal([]byte(render), &rec.Render); err != nil {
			return nil, fmt.Errorf("unmarshal publication render: %w", err)
		}
		if rec.Text, err = decodeArtifact(text); err != nil {
			return nil, err
		}
		rec.PublishedBy = publishedBy.String
		rec.Error = errText.String
		out[rec.ProjectID] = append(out[rec.ProjectID], rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*models.Project, error) {
	var (
		p      models.Project
		attrs  string
		render sql.NullString
		text   sql.NullString
	)
	if err := s.Scan(&p.ID, &attrs, &p.Style, &p.Locale, &render, &text,
		&p.RenderStatus, &p.TextStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}

	var err error
	if p.Render, err = decodeArtifact(render); err != nil {
		return nil, err
	}
	if p.Text, err = decodeArtifact(text); err != nil {
		return nil, err
	}
	return &p, nil
}
