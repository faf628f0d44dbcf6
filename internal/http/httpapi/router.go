package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"restyle-service/internal/http/handlers"
	"restyle-service/internal/middleware"
)

// Options tunes the router middleware stack.
type Options struct {
	RateLimitPerMin int
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	// Health
	r.Get("/v1/healthz", app.Health)

	if opts.RateLimitPerMin > 0 {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).
			Post("/v1/auth/anonymous", app.AuthAnonymous)
	} else {
		r.Post("/v1/auth/anonymous", app.AuthAnonymous)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(app.JWTSecret))
		// after Auth so the limiter keys on owner id, not NAT-shared IPs
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}

		r.Route("/v1/photos", func(r chi.Router) {
			r.Post("/", app.PhotosSubmit)
			r.Get("/", app.PhotosList)
			r.Get("/watch", app.PhotosWatch)
			r.Post("/{id}/generate", app.PhotosGenerate)
			r.Get("/{id}", app.PhotoStatus)
			r.Get("/{id}/download", app.PhotoDownload)
			r.Delete("/{id}", app.PhotoDelete)
		})

		r.Post("/v1/restyle", app.Restyle)
		r.Get("/v1/recall", app.Recall)

		r.Route("/v1/saved", func(r chi.Router) {
			r.Post("/", app.SavedCreate)
			r.Get("/", app.SavedList)
			r.Delete("/{id}", app.SavedDelete)
		})
	})

	return r
}
