package db

import (
	"context"
	"fmt"
)

// GetSourceByID looks up one source. Returns ErrNoRows when absent.
func (p *Pool) GetSourceByID(ctx context.Context, sourceID int64) (*Source, error) {
	const q = `
SELECT
	source_id,
	source_uuid::text,
	name,
	type,
	url,
	active,
	created_at
FROM monitoring.sources
WHERE source_id = $1
`
	var src Source
	if err := p.QueryRow(ctx, q, sourceID).Scan(
		&src.SourceID,
		&src.SourceUUID,
		&src.Name,
		&src.Type,
		&src.URL,
		&src.Active,
		&src.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &src, nil
}

// EnsureSource inserts a source by unique name if missing and returns the row.
func (p *Pool) EnsureSource(ctx context.Context, name, sourceType string, url *string) (*Source, error) {
	const insertQ = `
INSERT INTO monitoring.sources (name, type, url, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (name) DO NOTHING
`
	if _, err := p.Exec(ctx, insertQ, name, sourceType, url); err != nil {
		return nil, fmt.Errorf("ensure source %q: %w", name, err)
	}

	const selectQ = `
SELECT
	source_id,
	source_uuid::text,
	name,
	type,
	url,
	active,
	created_at
FROM monitoring.sources
WHERE name = $1
`
	var src Source
	if err := p.QueryRow(ctx, selectQ, name).Scan(
		&src.SourceID,
		&src.SourceUUID,
		&src.Name,
		&src.Type,
		&src.URL,
		&src.Active,
		&src.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("load source %q: %w", name, err)
	}
	return &src, nil
}

// ListActiveSources returns active sources ordered by name.
func (p *Pool) ListActiveSources(ctx context.Context) ([]Source, error) {
	const q = `
SELECT
	source_id,
	source_uuid::text,
	name,
	type,
	url,
	active,
	created_at
FROM monitoring.sources
WHERE active
ORDER BY name
`
	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query active sources: %w", err)
	}
	defer rows.Close()

	sources := make([]Source, 0, 8)
	for rows.Next() {
		var src Source
		if err := rows.Scan(
			&src.SourceID,
			&src.SourceUUID,
			&src.Name,
			&src.Type,
			&src.URL,
			&src.Active,
			&src.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}
