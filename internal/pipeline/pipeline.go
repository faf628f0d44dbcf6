// Package pipeline drives a photo from "uploaded" to "styled results". It
// owns the state machine the UI collaborator renders, coordinates the blob
// store, the document store, the style planner, and the generation backend,
// and is the single place that classifies failures.
package pipeline

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"restyle-service/internal/domain"
	"restyle-service/internal/providers/image"
	"restyle-service/internal/providers/styleplan"
	"restyle-service/internal/storage"
)

// State enumerates the pipeline lifecycle states.
type State string

const (
	StateEmpty      State = "empty"
	StateUploaded   State = "uploaded"
	StateGenerating State = "generating"
	StateResults    State = "results"
	StateError      State = "error"
)

// Identity supplies the stable per-device owner id. Absence is a hard
// precondition failure for every operation that touches storage.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// DocumentStore is the persistence surface the pipeline needs. Satisfied by
// docstore.Store.
type DocumentStore interface {
	CreateRecord(ctx context.Context, record *domain.PhotoRecord) error
	SetGeneratedURLs(ctx context.Context, ownerID, photoID string, urls []string) error
	Records(ctx context.Context, ownerID string) ([]domain.PhotoRecord, error)
	DeleteRecord(ctx context.Context, ownerID, photoID string) error
	SaveEntry(ctx context.Context, entry *domain.SavedEntry) error
	UnsaveEntry(ctx context.Context, ownerID, entryID string) error
	SavedEntries(ctx context.Context, ownerID string) ([]domain.SavedEntry, error)
}

// Backend produces styled variants for an uploaded photo.
type Backend interface {
	Restyle(ctx context.Context, req image.Request) ([]image.Variant, error)
}

type currentPhoto struct {
	ID          string
	Data        []byte
	OriginalURL string
	Width       int
	Height      int
}

// Pipeline is the generation orchestrator. All collaborators are injected so
// tests can substitute fakes. Its mutable state is guarded by an internal
// mutex; the reentrancy rule (one generate at a time) is enforced by the
// state machine itself, independent of any UI binding.
type Pipeline struct {
	identity   Identity
	blobs      storage.BlobStore
	docs       DocumentStore
	backend    Backend
	planner    styleplan.Planner
	logger     zerolog.Logger
	retry      storage.RetryPolicy
	styleCount int
	onProgress func(float64)
	nonFatal   func(op string, err error)

	mu       sync.Mutex
	state    State
	photo    *currentPhoto
	variants []domain.GeneratedVariant
	saved    map[string]domain.SavedEntry
	message  string
	progress float64
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithProgress registers a listener invoked at every stage boundary with the
// current [0,1] completion fraction.
func WithProgress(fn func(float64)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// WithNonFatal registers the side channel for best-effort operations whose
// failures are swallowed (mirrored bookmarks, blob deletes).
func WithNonFatal(fn func(op string, err error)) Option {
	return func(p *Pipeline) { p.nonFatal = fn }
}

// WithRetryPolicy overrides the original-upload retry policy.
func WithRetryPolicy(policy storage.RetryPolicy) Option {
	return func(p *Pipeline) { p.retry = policy }
}

// WithStyleCount overrides the number of styles requested per generation.
func WithStyleCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.styleCount = n
		}
	}
}

// New constructs an orchestrator in the Empty state.
func New(identity Identity, blobs storage.BlobStore, docs DocumentStore, backend Backend, planner styleplan.Planner, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		identity:   identity,
		blobs:      blobs,
		docs:       docs,
		backend:    backend,
		planner:    planner,
		logger:     logger,
		retry:      storage.DefaultRetryPolicy(),
		styleCount: 4,
		state:      StateEmpty,
		saved:      make(map[string]domain.SavedEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SubmitPhoto accepts the photo bytes, transitions to Uploaded optimistically
// so the caller can render a local preview, then uploads the original with
// retry and registers the photo record. Passing nil data retries the retained
// photo from a previous failed submit, so the user never re-selects the file.
// A submit while a generation is in flight is rejected.
func (p *Pipeline) SubmitPhoto(ctx context.Context, data []byte) (string, error) {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return "", &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}

	p.mu.Lock()
	if p.state == StateGenerating {
		p.mu.Unlock()
		return "", &Failure{Kind: FailurePrecondition, Err: domain.ErrGenerationInFlight}
	}
	retrying := data == nil
	if retrying {
		if p.photo == nil {
			p.mu.Unlock()
			return "", &Failure{Kind: FailurePrecondition, Err: domain.ErrInvalidImage}
		}
		data = p.photo.Data
	}
	width, height, err := probeImage(data)
	if err != nil {
		p.mu.Unlock()
		return "", &Failure{Kind: FailurePrecondition, Err: err}
	}
	photo := p.photo
	if !retrying || photo == nil {
		photo = &currentPhoto{ID: uuid.NewString()}
	}
	photo.Data = data
	photo.Width = width
	photo.Height = height
	p.photo = photo
	p.variants = nil
	p.message = ""
	p.state = StateUploaded
	p.setProgressLocked(0)
	p.mu.Unlock()

	key := storage.OriginalKey(owner, photo.ID)
	contentType := http.DetectContentType(data)
	url, err := storage.UploadWithRetry(ctx, p.blobs, key, contentType, data, p.retry)
	if err != nil {
		return "", p.fail(&Failure{Kind: FailureUpload, Err: err})
	}

	record := &domain.PhotoRecord{
		ID:          photo.ID,
		OwnerID:     owner,
		OriginalURL: url,
		Width:       width,
		Height:      height,
	}
	if err := p.docs.CreateRecord(ctx, record); err != nil && !errors.Is(err, domain.ErrDuplicateRecord) {
		return "", p.fail(&Failure{Kind: FailurePersistence, Err: err})
	}

	p.mu.Lock()
	photo.OriginalURL = url
	p.state = StateUploaded
	p.mu.Unlock()
	p.logger.Info().Str("photo_id", photo.ID).Str("owner_id", owner).Msg("pipeline: original uploaded")
	return photo.ID, nil
}

// Generate runs the three weighted stages: planning, backend invocation, and
// persistence. Valid only from Uploaded, Results, or Error with an uploaded
// photo present; a call while Generating is rejected without side effects.
func (p *Pipeline) Generate(ctx context.Context) error {
	owner, ok := p.identity.CurrentUserID(ctx)
	if !ok {
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrNoOwner}
	}

	p.mu.Lock()
	if p.state == StateGenerating {
		p.mu.Unlock()
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrGenerationInFlight}
	}
	if p.state == StateEmpty || p.photo == nil || p.photo.OriginalURL == "" {
		p.mu.Unlock()
		return &Failure{Kind: FailurePrecondition, Err: domain.ErrInvalidState}
	}
	photo := p.photo
	p.state = StateGenerating
	p.message = ""
	p.setProgressLocked(0)
	p.mu.Unlock()
	p.publish(0)

	p.publish(0.2)
	plan, err := p.planner.Plan(ctx, photo.OriginalURL, p.styleCount)
	if err != nil || len(plan) == 0 {
		if err == nil {
			err = domain.ErrBackendFailure
		}
		return p.fail(&Failure{Kind: FailureBackend, Err: err})
	}
	p.publish(0.4)

	p.publish(0.5)
	produced, err := p.backend.Restyle(ctx, image.Request{
		OwnerID:  owner,
		PhotoID:  photo.ID,
		ImageURL: photo.OriginalURL,
		Plan:     plan,
	})
	if err != nil {
		return p.fail(&Failure{Kind: FailureBackend, Err: err})
	}
	// zero variants after an apparently successful call is still a failure:
	// it distinguishes "backend returned nothing usable" from "not generated yet"
	if len(produced) == 0 {
		return p.fail(&Failure{Kind: FailureBackend, Err: domain.ErrEmptyResult})
	}
	p.publish(0.8)

	urls := make([]string, len(produced))
	for i, v := range produced {
		urls[i] = v.URL
	}
	if err := p.docs.SetGeneratedURLs(ctx, owner, photo.ID, urls); err != nil {
		return p.fail(&Failure{Kind: FailurePersistence, Err: err})
	}

	variants := zipVariants(produced)
	p.mu.Lock()
	p.variants = variants
	p.state = StateResults
	p.setProgressLocked(1)
	p.mu.Unlock()
	p.publish(1)
	p.logger.Info().Str("photo_id", photo.ID).Int("variants", len(variants)).Msg("pipeline: generation complete")
	return nil
}
