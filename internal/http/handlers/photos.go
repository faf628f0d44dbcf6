package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restyle-service/internal/domain"
	"restyle-service/internal/middleware"
	"restyle-service/internal/pipeline"
	"restyle-service/internal/storage"
	"restyle-service/pkg/zip"
)

type submitPhotoRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type submitPhotoResponse struct {
	PhotoID  string            `json:"photo_id"`
	Snapshot pipeline.Snapshot `json:"snapshot"`
}

// PhotosSubmit accepts the photo bytes and starts a session around them.
func (a *App) PhotosSubmit(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	var req submitPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ImageBase64 == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_base64 required")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image_base64 is not valid base64")
		return
	}
	photoID, err := sess.SubmitPhoto(r.Context(), data)
	if err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusCreated, submitPhotoResponse{PhotoID: photoID, Snapshot: sess.Snapshot()})
}

// PhotosGenerate runs the generation stages for the session's current photo.
func (a *App) PhotosGenerate(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	photoID := chi.URLParam(r, "id")
	snap := sess.Snapshot()
	if snap.Photo == nil || snap.Photo.ID != photoID {
		a.error(w, http.StatusNotFound, "not_found", "photo is not the current session photo")
		return
	}
	if err := sess.Generate(r.Context()); err != nil {
		a.pipelineError(w, err)
		return
	}
	a.json(w, http.StatusOK, sess.Snapshot())
}

// PhotoStatus reports the live snapshot for the current photo, or a snapshot
// derived from the persisted record for an older one.
func (a *App) PhotoStatus(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	photoID := chi.URLParam(r, "id")
	snap := sess.Snapshot()
	if snap.Photo != nil && snap.Photo.ID == photoID {
		a.json(w, http.StatusOK, snap)
		return
	}
	owner, _ := middleware.OwnerIDFromContext(r.Context())
	record, err := a.Store.Record(r.Context(), owner, photoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "photo not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load photo record failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load photo")
		return
	}
	a.json(w, http.StatusOK, snapshotFromRecord(record))
}

// PhotosList returns the owner's persisted records, newest first.
func (a *App) PhotosList(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		return
	}
	records, err := a.Store.Records(r.Context(), owner)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list photo records failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list photos")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"photos": records})
}

// PhotoDelete removes the record; blob cleanup is best-effort inside the
// pipeline.
func (a *App) PhotoDelete(w http.ResponseWriter, r *http.Request) {
	sess := a.session(w, r)
	if sess == nil {
		return
	}
	photoID := chi.URLParam(r, "id")
	if err := sess.DeletePhoto(r.Context(), photoID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "photo not found")
			return
		}
		a.pipelineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PhotoDownload streams the generated variants as a zip archive.
func (a *App) PhotoDownload(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		return
	}
	photoID := chi.URLParam(r, "id")
	record, err := a.Store.Record(r.Context(), owner, photoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "photo not found")
			return
		}
		a.Logger.Error().Err(err).Msg("load photo record failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load photo")
		return
	}
	var assets []zip.Asset
	for i := range record.GeneratedURLs {
		key := storage.GeneratedKey(owner, photoID, i)
		data, err := a.Blobs.Download(r.Context(), key)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", key).Msg("variant blob missing, skipped")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("variant-%d.png", i+1),
			MIME:     "image/png",
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no generated variants to download")
		return
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Str("photo_id", photoID).Msg("archive variants failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", photoID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func snapshotFromRecord(record *domain.PhotoRecord) pipeline.Snapshot {
	snap := pipeline.Snapshot{
		State: pipeline.StateUploaded,
		Photo: &pipeline.PhotoInfo{
			ID:          record.ID,
			OriginalURL: record.OriginalURL,
			Width:       record.Width,
			Height:      record.Height,
		},
	}
	if len(record.GeneratedURLs) > 0 {
		snap.State = pipeline.StateResults
		snap.Progress = 1
		for i, url := range record.GeneratedURLs {
			snap.Variants = append(snap.Variants, domain.GeneratedVariant{
				ID:        domain.SavedEntryID(url),
				URL:       url,
				Style:     fmt.Sprintf("Generated Style %d", i+1),
				CreatedAt: record.CreatedAt,
			})
		}
	}
	return snap
}

// pipelineError maps pipeline failures onto HTTP statuses.
func (a *App) pipelineError(w http.ResponseWriter, err error) {
	var f *pipeline.Failure
	if !errors.As(err, &f) {
		a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
		return
	}
	switch f.Kind {
	case pipeline.FailurePrecondition:
		switch {
		case errors.Is(f.Err, domain.ErrNoOwner):
			a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		case errors.Is(f.Err, domain.ErrGenerationInFlight):
			a.error(w, http.StatusConflict, "conflict", "a generation is already in flight")
		case errors.Is(f.Err, domain.ErrInvalidState):
			a.error(w, http.StatusConflict, "conflict", "no uploaded photo to generate from")
		case errors.Is(f.Err, domain.ErrInvalidImage):
			a.error(w, http.StatusBadRequest, "bad_request", "payload is not a decodable image")
		default:
			a.error(w, http.StatusBadRequest, "bad_request", f.Err.Error())
		}
	case pipeline.FailureUpload, pipeline.FailureBackend:
		a.error(w, http.StatusBadGateway, "bad_gateway", f.Message())
	case pipeline.FailurePersistence:
		a.error(w, http.StatusInternalServerError, "internal", f.Message())
	default:
		a.error(w, http.StatusInternalServerError, "internal", f.Message())
	}
}
