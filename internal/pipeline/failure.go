package pipeline

import (
	"errors"
	"fmt"

	"restyle-service/internal/domain"
	"restyle-service/internal/providers/genai"
)

// FailureKind classifies pipeline failures for the UI collaborator.
type FailureKind string

const (
	FailureUpload       FailureKind = "upload_failure"
	FailureBackend      FailureKind = "backend_failure"
	FailurePersistence  FailureKind = "persistence_failure"
	FailurePrecondition FailureKind = "precondition_failure"
)

// Failure wraps an underlying error with its classification. Precondition
// failures are rejected synchronously and never move the pipeline to the
// Error state; the other kinds do.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Message renders the user-facing description for the Error state.
func (f *Failure) Message() string {
	switch {
	case errors.Is(f.Err, domain.ErrEmptyResult):
		return "The backend produced no usable variants. Please try again."
	case errors.Is(f.Err, genai.ErrUnauthorized):
		return "The generation service rejected the request. Check the API credentials."
	case f.Kind == FailureUpload:
		return "Uploading the photo failed. Your photo is kept so you can retry."
	case f.Kind == FailurePersistence:
		return "Saving the results failed. The generated images are still available."
	default:
		return "Generating styled variants failed. Please try again."
	}
}

// fail moves the pipeline to Error, records the message, resets progress and
// returns the failure for the caller. The current photo is retained so the
// user can retry without re-selecting.
func (p *Pipeline) fail(f *Failure) error {
	p.mu.Lock()
	p.state = StateError
	p.message = f.Message()
	p.setProgressLocked(0)
	p.mu.Unlock()
	p.publish(0)
	p.logger.Error().Err(f.Err).Str("kind", string(f.Kind)).Msg("pipeline: operation failed")
	return f
}
