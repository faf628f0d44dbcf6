// Package handlers exposes the restyling pipeline over HTTP. Every route is
// scoped to the authenticated owner id from the bearer token; each owner gets
// its own pipeline session.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"restyle-service/internal/docstore"
	"restyle-service/internal/middleware"
	"restyle-service/internal/pipeline"
	"restyle-service/internal/providers/styleplan"
	"restyle-service/internal/storage"
)

// App bundles the handler dependencies.
type App struct {
	Logger     zerolog.Logger
	Store      *docstore.Store
	Blobs      storage.BlobStore
	Backend    pipeline.Backend
	Planner    styleplan.Planner
	JWTSecret  string
	StyleCount int
	Sessions   *SessionRegistry
}

func (a *App) styleCount() int {
	if a.StyleCount > 0 {
		return a.StyleCount
	}
	return 4
}

// ContextIdentity resolves the owner id placed on the request context by the
// auth middleware. It is the Identity implementation wired into every
// pipeline session.
type ContextIdentity struct{}

func (ContextIdentity) CurrentUserID(ctx context.Context) (string, bool) {
	return middleware.OwnerIDFromContext(ctx)
}

// SessionRegistry maps owner ids to their pipeline session, creating one on
// first use.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*pipeline.Pipeline
	factory  func() *pipeline.Pipeline
}

func NewSessionRegistry(factory func() *pipeline.Pipeline) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*pipeline.Pipeline),
		factory:  factory,
	}
}

func (r *SessionRegistry) Get(ownerID string) *pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.sessions[ownerID]
	if !ok {
		p = r.factory()
		r.sessions[ownerID] = p
	}
	return p
}

// session returns the caller's pipeline, or writes 401 and returns nil.
func (a *App) session(w http.ResponseWriter, r *http.Request) *pipeline.Pipeline {
	owner, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		return nil
	}
	return a.Sessions.Get(owner)
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": kind, "message": message},
	})
}
