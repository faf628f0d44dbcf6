package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"restyle-service/internal/domain"
)

// SavedRepositoryPG implements domain.SavedRepository using PostgreSQL.
type SavedRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewSavedRepository constructs a new saved entry repository.
func NewSavedRepository(pool *pgxpool.Pool) *SavedRepositoryPG {
	return &SavedRepositoryPG{pool: pool}
}

// Put upserts the bookmark. Saving an already-saved id leaves exactly one
// entry, keeping save idempotent. The saved_at timestamp is server-assigned.
func (r *SavedRepositoryPG) Put(ctx context.Context, entry *domain.SavedEntry) error {
	row := r.pool.QueryRow(ctx, `
INSERT INTO saved_entries (id, owner_id, url, style, saved_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (owner_id, id) DO UPDATE SET url = EXCLUDED.url, style = EXCLUDED.style
RETURNING saved_at;
`, entry.ID, entry.OwnerID, entry.URL, entry.Style)
	return row.Scan(&entry.SavedAt)
}

// Delete removes the bookmark entirely. Unsaving a non-existent id is a no-op.
func (r *SavedRepositoryPG) Delete(ctx context.Context, ownerID, entryID string) error {
	_, err := r.pool.Exec(ctx, `
DELETE FROM saved_entries
WHERE owner_id = $1 AND id = $2;
`, ownerID, entryID)
	return err
}

// Exists reports whether the owner has bookmarked the entry.
func (r *SavedRepositoryPG) Exists(ctx context.Context, ownerID, entryID string) (bool, error) {
	row := r.pool.QueryRow(ctx, `
SELECT 1 FROM saved_entries
WHERE owner_id = $1 AND id = $2;
`, ownerID, entryID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByOwner returns the owner's bookmarks, most recently saved first.
func (r *SavedRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.SavedEntry, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, url, style, saved_at
FROM saved_entries
WHERE owner_id = $1
ORDER BY saved_at DESC;
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.SavedEntry
	for rows.Next() {
		var entry domain.SavedEntry
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.URL, &entry.Style, &entry.SavedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ domain.SavedRepository = (*SavedRepositoryPG)(nil)
