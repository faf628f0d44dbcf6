package handlers

import (
	"net/http"
)

// Health is the liveness probe. It reports readiness of the process itself;
// storage and backend reachability surface through the pipeline endpoints.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "restyle-service",
	})
}
