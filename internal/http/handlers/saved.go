package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restyle-service/internal/domain"
)

type saveVariantRequest struct {
	URL   string `json:"url"`
	Style string `json:"style"`
}

// SavedCreate bookmarks a generated variant. Saving the same URL twice is a
// no-op; the entry id is derived from the URL.
func (a *App) SavedCreate(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	var req saveVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.URL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url required")
		return
	}
	variant := domain.GeneratedVariant{URL: req.URL, Style: req.Style}
	if err := sess.Save(r.Context(), variant); err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]string{"id": domain.SavedEntryID(req.URL)})
}

// SavedDelete removes a bookmark; unknown ids are a no-op.
func (a *App) SavedDelete(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	if err := sess.Unsave(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.pipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recall reloads the owner's previously generated variants from persistence
// and rehydrates the bookmark set. Repository failures degrade to an empty
// list instead of an error.
func (a *App) Recall(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	variants, err := sess.LoadPersisted(r.Context())
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	if variants == nil {
		variants = []domain.GeneratedVariant{}
	}
	a.json(w, http.StatusOK, map[string]any{"variants": variants})
}

// SavedList returns the session's bookmarks, most recent first.
func (a *App) SavedList(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	entries := sess.Saved()
	if entries == nil {
		entries = []domain.SavedEntry{}
	}
	a.json(w, http.StatusOK, map[string]any{"saved": entries})
}
