package domain

import "context"

// PhotoRepository defines persistence for photo records. Only the generation
// pipeline writes generated URLs, so UpdateGenerated replaces the list
// wholesale rather than merging.
type PhotoRepository interface {
	Create(ctx context.Context, record *PhotoRecord) error
	UpdateGenerated(ctx context.Context, ownerID, photoID string, urls []string) error
	GetByID(ctx context.Context, ownerID, photoID string) (*PhotoRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]PhotoRecord, error)
	Delete(ctx context.Context, ownerID, photoID string) error
}

// SavedRepository handles persistence for variant bookmarks, keyed by the
// derived entry id and independent of PhotoRecord.
type SavedRepository interface {
	Put(ctx context.Context, entry *SavedEntry) error
	Delete(ctx context.Context, ownerID, entryID string) error
	Exists(ctx context.Context, ownerID, entryID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]SavedEntry, error)
}
