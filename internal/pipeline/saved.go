package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"restyle-service/internal/domain"
)

// LoadPersisted reads every record for the current owner and flattens their
// generated URLs, newest record first, into a recall list. It also rehydrates
// the in-memory saved set. The refresh is side-effect-free with respect to
// the state machine: repository failures are logged and swallowed, never
// surfaced as the Error state.
func (p *Pipeline) LoadPersisted(ctx context.Context) ([]domain.GeneratedVariant, error) {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return nil, &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}

	records, err := p.docs.Records(ctx, owner)
	if err != nil {
		p.logger.Warn().Err(err).Str("owner_id", owner).Msg("pipeline: recall load failed")
		return nil, nil
	}
	var recall []domain.GeneratedVariant
	for _, rec := range records {
		for i, url := range rec.GeneratedURLs {
			recall = append(recall, domain.GeneratedVariant{
				ID:        domain.SavedEntryID(url),
				URL:       url,
				Style:     fmt.Sprintf("Generated Style %d", i+1),
				CreatedAt: rec.CreatedAt,
			})
		}
	}

	entries, err := p.docs.SavedEntries(ctx, owner)
	if err != nil {
		p.logger.Warn().Err(err).Str("owner_id", owner).Msg("pipeline: saved load failed")
		return recall, nil
	}
	p.mu.Lock()
	for _, e := range entries {
		p.saved[e.ID] = e
	}
	p.mu.Unlock()
	return recall, nil
}

// Save bookmarks a variant. The in-memory set is authoritative for the
// session; the persisted mirror is best-effort. Saving an already saved
// variant is a no-op.
func (p *Pipeline) Save(ctx context.Context, variant domain.GeneratedVariant) error {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}
	entry := domain.SavedEntry{
		ID:      domain.SavedEntryID(variant.URL),
		OwnerID: owner,
		URL:     variant.URL,
		Style:   variant.Style,
		SavedAt: time.Now().UTC(),
	}
	p.mu.Lock()
	p.saved[entry.ID] = entry
	p.mu.Unlock()
	if err := p.docs.SaveEntry(ctx, &entry); err != nil {
		p.reportNonFatal("mirror saved entry", err)
	}
	return nil
}

// Unsave removes a bookmark by its derived id. Unknown ids are a no-op.
func (p *Pipeline) Unsave(ctx context.Context, entryID string) error {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}
	p.mu.Lock()
	delete(p.saved, entryID)
	p.mu.Unlock()
	if err := p.docs.UnsaveEntry(ctx, owner, entryID); err != nil {
		p.reportNonFatal("unmirror saved entry", err)
	}
	return nil
}

// IsSaved reports whether the variant with the given derived id is
// bookmarked in this session.
func (p *Pipeline) IsSaved(entryID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.saved[entryID]
	return ok
}

// Saved returns the session's bookmarks, most recent first.
func (p *Pipeline) Saved() []domain.SavedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.SavedEntry, 0, len(p.saved))
	for _, e := range p.saved {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
