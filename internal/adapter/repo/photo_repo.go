package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restyle-service/internal/domain"
)

// PhotoRepositoryPG implements domain.PhotoRepository using PostgreSQL.
type PhotoRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPhotoRepository constructs a new photo record repository.
func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepositoryPG {
	return &PhotoRepositoryPG{pool: pool}
}

// Create inserts a new photo record with an empty generated list.
func (r *PhotoRepositoryPG) Create(ctx context.Context, record *domain.PhotoRecord) error {
	query := `
INSERT INTO photo_records (id, owner_id, original_url, generated_urls, width, height, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING created_at;
`
	urls := record.GeneratedURLs
	if urls == nil {
		urls = []string{}
	}
	row := r.pool.QueryRow(ctx, query, record.ID, record.OwnerID, record.OriginalURL, urls, record.Width, record.Height)
	if err := row.Scan(&record.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// UpdateGenerated replaces the generated URL list wholesale.
func (r *PhotoRepositoryPG) UpdateGenerated(ctx context.Context, ownerID, photoID string, urls []string) error {
	if urls == nil {
		urls = []string{}
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE photo_records
SET generated_urls = $3
WHERE owner_id = $1 AND id = $2;
`, ownerID, photoID, urls)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID fetches a single record scoped to its owner.
func (r *PhotoRepositoryPG) GetByID(ctx context.Context, ownerID, photoID string) (*domain.PhotoRecord, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, owner_id, original_url, generated_urls, width, height, created_at
FROM photo_records
WHERE owner_id = $1 AND id = $2;
`, ownerID, photoID)
	var record domain.PhotoRecord
	if err := row.Scan(&record.ID, &record.OwnerID, &record.OriginalURL, &record.GeneratedURLs, &record.Width, &record.Height, &record.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByOwner returns all records for the owner, most recent first. The
// descending order is a contract consumers rely on for default sort.
func (r *PhotoRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.PhotoRecord, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, owner_id, original_url, generated_urls, width, height, created_at
FROM photo_records
WHERE owner_id = $1
ORDER BY created_at DESC;
`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PhotoRecord
	for rows.Next() {
		var record domain.PhotoRecord
		if err := rows.Scan(&record.ID, &record.OwnerID, &record.OriginalURL, &record.GeneratedURLs, &record.Width, &record.Height, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes the record entirely.
func (r *PhotoRepositoryPG) Delete(ctx context.Context, ownerID, photoID string) error {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM photo_records
WHERE owner_id = $1 AND id = $2;
`, ownerID, photoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.PhotoRepository = (*PhotoRepositoryPG)(nil)
