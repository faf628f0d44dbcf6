// Package docstore exposes the per-owner document collections used by the
// generation pipeline: photo records and saved variant bookmarks. It wraps the
// repository contracts with an in-process live subscription that pushes the
// full, freshly ordered record list on every change. Consumers must treat each
// emission as replacing prior state, never as an incremental patch.
package docstore

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"restyle-service/internal/domain"
)

// Store is the document store client scoped by owner id.
type Store struct {
	photos domain.PhotoRepository
	saved  domain.SavedRepository
	logger zerolog.Logger

	mu      sync.Mutex
	subs    map[int]*subscriber
	nextSub int
}

type subscriber struct {
	ownerID string
	ch      chan []domain.PhotoRecord

	mu     sync.Mutex
	closed bool
}

// New builds a Store over the given repositories.
func New(photos domain.PhotoRepository, saved domain.SavedRepository, logger zerolog.Logger) *Store {
	return &Store{
		photos: photos,
		saved:  saved,
		logger: logger,
		subs:   make(map[int]*subscriber),
	}
}

// CreateRecord registers a new photo record. Duplicate ids for the same owner
// are rejected with domain.ErrDuplicateRecord.
func (s *Store) CreateRecord(ctx context.Context, record *domain.PhotoRecord) error {
	if err := s.photos.Create(ctx, record); err != nil {
		return err
	}
	s.notify(ctx, record.OwnerID)
	return nil
}

// SetGeneratedURLs replaces the record's generated list wholesale.
func (s *Store) SetGeneratedURLs(ctx context.Context, ownerID, photoID string, urls []string) error {
	if err := s.photos.UpdateGenerated(ctx, ownerID, photoID, urls); err != nil {
		return err
	}
	s.notify(ctx, ownerID)
	return nil
}

// Record fetches one photo record.
func (s *Store) Record(ctx context.Context, ownerID, photoID string) (*domain.PhotoRecord, error) {
	return s.photos.GetByID(ctx, ownerID, photoID)
}

// Records returns all records for the owner ordered by creation time
// descending.
func (s *Store) Records(ctx context.Context, ownerID string) ([]domain.PhotoRecord, error) {
	return s.photos.ListByOwner(ctx, ownerID)
}

// DeleteRecord removes the record entirely.
func (s *Store) DeleteRecord(ctx context.Context, ownerID, photoID string) error {
	if err := s.photos.Delete(ctx, ownerID, photoID); err != nil {
		return err
	}
	s.notify(ctx, ownerID)
	return nil
}

// SaveEntry upserts a bookmark; the saved_at timestamp is server-assigned.
func (s *Store) SaveEntry(ctx context.Context, entry *domain.SavedEntry) error {
	return s.saved.Put(ctx, entry)
}

// UnsaveEntry removes the bookmark entirely; a missing id is a no-op.
func (s *Store) UnsaveEntry(ctx context.Context, ownerID, entryID string) error {
	return s.saved.Delete(ctx, ownerID, entryID)
}

// IsSaved reports whether the owner bookmarked the entry.
func (s *Store) IsSaved(ctx context.Context, ownerID, entryID string) (bool, error) {
	return s.saved.Exists(ctx, ownerID, entryID)
}

// SavedEntries lists the owner's bookmarks, most recent first.
func (s *Store) SavedEntries(ctx context.Context, ownerID string) ([]domain.SavedEntry, error) {
	return s.saved.ListByOwner(ctx, ownerID)
}

// Subscribe registers a live view over the owner's record list. The current
// list is pushed immediately, then the full updated list after every change.
// When the subscriber lags, stale emissions are dropped in favour of the
// latest list. The returned cancel function must be called to release the
// subscription.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (<-chan []domain.PhotoRecord, func()) {
	sub := &subscriber{ownerID: ownerID, ch: make(chan []domain.PhotoRecord, 1)}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = sub
	s.mu.Unlock()

	if records, err := s.photos.ListByOwner(ctx, ownerID); err == nil {
		sub.push(records)
	} else {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("docstore: initial subscription snapshot failed")
	}

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel
}

func (s *Store) notify(ctx context.Context, ownerID string) {
	s.mu.Lock()
	var targets []*subscriber
	for _, sub := range s.subs {
		if sub.ownerID == ownerID {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return
	}
	records, err := s.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("docstore: subscription refresh failed")
		return
	}
	for _, sub := range targets {
		sub.push(records)
	}
}

func (sub *subscriber) push(records []domain.PhotoRecord) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- records:
			return
		default:
		}
		// replace a stale pending emission with the latest list
		select {
		case <-sub.ch:
		default:
		}
	}
}

func (sub *subscriber) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}
