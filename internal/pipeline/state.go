package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"restyle-service/internal/domain"
	"restyle-service/internal/providers/image"
	"restyle-service/internal/storage"
)

// PhotoInfo describes the current photo for snapshots.
type PhotoInfo struct {
	ID          string `json:"id"`
	OriginalURL string `json:"original_url,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Snapshot is a point-in-time copy of the pipeline state, safe to render or
// serialize without holding any lock.
type Snapshot struct {
	State    State                     `json:"state"`
	Progress float64                   `json:"progress"`
	Message  string                    `json:"message,omitempty"`
	Photo    *PhotoInfo                `json:"photo,omitempty"`
	Variants []domain.GeneratedVariant `json:"variants,omitempty"`
}

// Snapshot returns the current state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{
		State:    p.state,
		Progress: p.progress,
		Message:  p.message,
	}
	if p.photo != nil {
		snap.Photo = &PhotoInfo{
			ID:          p.photo.ID,
			OriginalURL: p.photo.OriginalURL,
			Width:       p.photo.Width,
			Height:      p.photo.Height,
		}
	}
	if len(p.variants) > 0 {
		snap.Variants = append([]domain.GeneratedVariant(nil), p.variants...)
	}
	return snap
}

// Reset returns the pipeline to Empty, discarding the current photo, the
// variants, the message, and the progress. The saved set is untouched.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.photo = nil
	p.variants = nil
	p.message = ""
	p.state = StateEmpty
	p.setProgressLocked(0)
	p.mu.Unlock()
	p.publish(0)
}

// ClearGenerated drops the variants but keeps the current photo, moving back
// to Uploaded so another generation can run on the same original. Progress
// returns to zero with the variants it was reporting on.
func (p *Pipeline) ClearGenerated() {
	p.mu.Lock()
	if p.state == StateGenerating {
		p.mu.Unlock()
		return
	}
	p.variants = nil
	p.message = ""
	if p.photo != nil {
		p.state = StateUploaded
	} else {
		p.state = StateEmpty
	}
	p.setProgressLocked(0)
	p.mu.Unlock()
	p.publish(0)
}

// DeletePhoto removes a photo record and its blobs. The record delete is
// authoritative; blob deletes are best-effort and reported on the non-fatal
// channel. Deleting the photo currently loaded resets the pipeline.
func (p *Pipeline) DeletePhoto(ctx context.Context, photoID string) error {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}
	if err := p.docs.DeleteRecord(ctx, owner, photoID); err != nil {
		return &Failure{Kind: FailurePersistence, Err: err}
	}
	if err := p.blobs.Delete(ctx, storage.OriginalKey(owner, photoID)); err != nil {
		p.reportNonFatal("delete original blob", err)
	}
	if err := p.blobs.DeletePrefix(ctx, storage.GeneratedPrefix(owner, photoID)); err != nil {
		p.reportNonFatal("delete generated blobs", err)
	}

	p.mu.Lock()
	if p.photo != nil && p.photo.ID == photoID {
		p.photo = nil
		p.variants = nil
		p.message = ""
		p.state = StateEmpty
		p.setProgressLocked(0)
	}
	p.mu.Unlock()
	return nil
}

func (p *Pipeline) setProgressLocked(v float64) {
	p.progress = v
}

func (p *Pipeline) publish(v float64) {
	p.mu.Lock()
	p.progress = v
	p.mu.Unlock()
	if p.onProgress != nil {
		p.onProgress(v)
	}
}

func (p *Pipeline) reportNonFatal(op string, err error) {
	p.logger.Warn().Err(err).Str("op", op).Msg("pipeline: non-fatal failure")
	if p.nonFatal != nil {
		p.nonFatal(op, err)
	}
}

// zipVariants pairs backend variants with session metadata. Variants the
// backend could not label get a positional fallback name.
func zipVariants(produced []image.Variant) []domain.GeneratedVariant {
	now := time.Now().UTC()
	out := make([]domain.GeneratedVariant, len(produced))
	for i, v := range produced {
		style := v.Style
		if style == "" {
			style = fmt.Sprintf("Generated Style %d", i+1)
		}
		out[i] = domain.GeneratedVariant{
			ID:        uuid.NewString(),
			URL:       v.URL,
			Style:     style,
			CreatedAt: now,
		}
	}
	return out
}
