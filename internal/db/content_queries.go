package db

import (
	"context"
	"fmt"
	"time"
)

// InsertContentItem persists a new item and fills in the generated id, uuid,
// and creation timestamp.
func (p *Pool) InsertContentItem(ctx context.Context, item *ContentItem) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if item == nil {
		return fmt.Errorf("content item is nil")
	}

	const q = `
INSERT INTO monitoring.content_items (
	source_id,
	title,
	content,
	summary,
	original_url,
	published_at,
	status,
	language,
	tags,
	metadata,
	ai_analysis,
	created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING content_item_id, content_item_uuid::text, created_at
`

	return p.QueryRow(
		ctx,
		q,
		item.SourceID,
		item.Title,
		item.Content,
		item.Summary,
		item.OriginalURL,
		item.PublishedAt,
		item.Status,
		item.Language,
		nullableJSON(item.Tags),
		nullableJSON(item.Metadata),
		nullableJSON(item.AIAnalysis),
		item.CreatedAt,
	).Scan(&item.ContentItemID, &item.ContentItemUUID, &item.CreatedAt)
}

// DuplicateMember is the slice of a content item the collapse engine needs to
// decide keep/remove.
type DuplicateMember struct {
	ContentItemID int64
	SourceID      int64
	Title         string
	CreatedAt     time.Time
}

// ListExactDuplicateMembers returns every item belonging to a (title, source_id)
// group with more than one member, grouped together and ordered oldest-first
// within each group.
func (p *Pool) ListExactDuplicateMembers(ctx context.Context) ([]DuplicateMember, error) {
	const q = `
SELECT
	ci.content_item_id,
	ci.source_id,
	ci.title,
	ci.created_at
FROM monitoring.content_items ci
JOIN (
	SELECT title, source_id
	FROM monitoring.content_items
	GROUP BY title, source_id
	HAVING COUNT(*) > 1
) dup
	ON dup.title = ci.title
	AND dup.source_id = ci.source_id
ORDER BY ci.source_id, ci.title, ci.created_at ASC, ci.content_item_id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query exact duplicate members: %w", err)
	}
	defer rows.Close()

	members := make([]DuplicateMember, 0, 32)
	for rows.Next() {
		var m DuplicateMember
		if err := rows.Scan(&m.ContentItemID, &m.SourceID, &m.Title, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exact duplicate member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exact duplicate members: %w", err)
	}
	return members, nil
}

// ListItemsCreatedSince returns items created at or after the cutoff ordered
// newest-first.
func (p *Pool) ListItemsCreatedSince(ctx context.Context, cutoff time.Time) ([]DuplicateMember, error) {
	const q = `
SELECT
	content_item_id,
	source_id,
	title,
	created_at
FROM monitoring.content_items
WHERE created_at >= $1
ORDER BY created_at DESC, content_item_id DESC
`

	rows, err := p.Query(ctx, q, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("query recent items: %w", err)
	}
	defer rows.Close()

	members := make([]DuplicateMember, 0, 64)
	for rows.Next() {
		var m DuplicateMember
		if err := rows.Scan(&m.ContentItemID, &m.SourceID, &m.Title, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recent item: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent items: %w", err)
	}
	return members, nil
}

// RemoveContentItem deletes one item and every timeline event referencing it
// in a single transaction, so a crash can never strand an item whose events
// are already gone. Returns the event count and item count removed; an item
// count of zero means the row was already deleted by an overlapping decision.
func (p *Pool) RemoveContentItem(ctx context.Context, contentItemID int64) (int64, int64, error) {
	const deleteEventsQ = `
DELETE FROM monitoring.timeline_events
WHERE content_item_id = $1
`
	const deleteItemQ = `
DELETE FROM monitoring.content_items
WHERE content_item_id = $1
`

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("begin removal of item %d: %w", contentItemID, err)
	}

	eventsTag, err := tx.Exec(ctx, deleteEventsQ, contentItemID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, 0, fmt.Errorf("delete timeline events for item %d: %w", contentItemID, err)
	}

	itemTag, err := tx.Exec(ctx, deleteItemQ, contentItemID)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, 0, fmt.Errorf("delete content item %d: %w", contentItemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit removal of item %d: %w", contentItemID, err)
	}
	return eventsTag.RowsAffected(), itemTag.RowsAffected(), nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
