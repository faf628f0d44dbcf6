package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS photo_records (
	id             TEXT NOT NULL,
	owner_id       TEXT NOT NULL,
	original_url   TEXT NOT NULL,
	generated_urls TEXT[] NOT NULL DEFAULT '{}',
	width          INT NOT NULL DEFAULT 0,
	height         INT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_photo_records_owner_created
	ON photo_records (owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS saved_entries (
	id       TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	url      TEXT NOT NULL,
	style    TEXT NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_saved_entries_owner_saved
	ON saved_entries (owner_id, saved_at DESC);
`

// EnsureSchema creates the tables this service needs if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
