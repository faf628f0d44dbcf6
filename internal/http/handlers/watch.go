package handlers

import (
	"encoding/json"
	"net/http"

	"restyle-service/internal/middleware"
)

// PhotosWatch streams the owner's record list as server-sent events. The
// current list is emitted immediately, then the full replacement list after
// every change, until the client disconnects.
func (a *App) PhotosWatch(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	updates, cancel := a.Store.Subscribe(r.Context(), owner)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case records, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(map[string]any{"photos": records})
			if err != nil {
				a.Logger.Error().Err(err).Msg("marshal watch emission failed")
				continue
			}
			if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
