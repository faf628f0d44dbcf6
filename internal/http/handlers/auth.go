package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"restyle-service/internal/middleware"
)

type anonymousAuthRequest struct {
	DeviceID string `json:"device_id"`
}

type anonymousAuthResponse struct {
	Token   string `json:"token"`
	OwnerID string `json:"owner_id"`
}

const ownerTokenTTL = 365 * 24 * time.Hour

// AuthAnonymous mints a bearer token for an anonymous device identity. A
// client that already has an owner id sends it back to keep its photos across
// reinstalls; otherwise a fresh id is issued.
func (a *App) AuthAnonymous(w http.ResponseWriter, r *http.Request) {
	var req anonymousAuthRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	ownerID := req.DeviceID
	if ownerID == "" {
		ownerID = uuid.NewString()
	}
	token, err := middleware.IssueOwnerToken(a.JWTSecret, ownerID, ownerTokenTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign owner token failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}
	a.json(w, http.StatusOK, anonymousAuthResponse{Token: token, OwnerID: ownerID})
}
