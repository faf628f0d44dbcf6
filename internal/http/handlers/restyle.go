package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"restyle-service/internal/middleware"
	"restyle-service/internal/providers/image"
)

type restyleResponse struct {
	Success       bool     `json:"success"`
	GeneratedURLs []string `json:"generated_urls"`
	Styles        []string `json:"styles"`
}

// Restyle is the stateless invocation: one image URL in, the generated
// variant URLs and style labels out. Validation happens before the backend is
// ever contacted.
func (a *App) Restyle(w http.ResponseWriter, r *http.Request) {
	owner, ok := middleware.OwnerIDFromContext(r.Context())
	if !ok {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing owner context")
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	raw, ok := payload["image_url"]
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url required")
		return
	}
	imageURL, ok := raw.(string)
	if !ok || imageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "image_url must be a non-empty string")
		return
	}

	plan, err := a.Planner.Plan(r.Context(), imageURL, a.styleCount())
	if err != nil || len(plan) == 0 {
		a.Logger.Error().Err(err).Msg("style planning failed")
		a.error(w, http.StatusBadGateway, "bad_gateway", "style planning failed")
		return
	}
	variants, err := a.Backend.Restyle(r.Context(), image.Request{
		OwnerID:  owner,
		PhotoID:  uuid.NewString(),
		ImageURL: imageURL,
		Plan:     plan,
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("restyle invocation failed")
		a.error(w, http.StatusBadGateway, "bad_gateway", "generation failed")
		return
	}
	resp := restyleResponse{Success: true, GeneratedURLs: []string{}, Styles: []string{}}
	for _, v := range variants {
		resp.GeneratedURLs = append(resp.GeneratedURLs, v.URL)
		resp.Styles = append(resp.Styles, v.Style)
	}
	a.json(w, http.StatusOK, resp)
}
