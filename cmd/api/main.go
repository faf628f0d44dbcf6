package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"restyle-service/internal/adapter/repo"
	"restyle-service/internal/docstore"
	"restyle-service/internal/http/handlers"
	httpapi "restyle-service/internal/http/httpapi"
	"restyle-service/internal/infra"
	"restyle-service/internal/pipeline"
	"restyle-service/internal/providers/genai"
	"restyle-service/internal/providers/image"
	"restyle-service/internal/providers/styleplan"
	"restyle-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := repo.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init blob store")
	}

	genClient, err := genai.NewClient(genai.Options{
		APIKey:  cfg.GenAPIKey,
		BaseURL: cfg.GenBaseURL,
		Model:   cfg.GenModel,
		Timeout: cfg.GenTimeout,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init generation client")
	}

	planner := newPlanner(cfg, genClient, logger)
	backend := image.NewRestyler(genClient, blobs, logger)
	store := docstore.New(repo.NewPhotoRepository(dbpool), repo.NewSavedRepository(dbpool), logger)

	app := &handlers.App{
		Logger:     logger,
		Store:      store,
		Blobs:      blobs,
		Backend:    backend,
		Planner:    planner,
		JWTSecret:  cfg.JWTSecret,
		StyleCount: cfg.StyleCount,
		Sessions: handlers.NewSessionRegistry(func() *pipeline.Pipeline {
			return pipeline.New(handlers.ContextIdentity{}, blobs, store, backend, planner, logger,
				pipeline.WithStyleCount(cfg.StyleCount))
		}),
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		AllowedOrigins:  cfg.AllowedOrigins,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func newBlobStore(ctx context.Context, cfg *infra.Config) (storage.BlobStore, error) {
	if strings.EqualFold(cfg.StorageBackend, "s3") {
		return storage.NewS3Store(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3PublicRead)
	}
	return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
}

func newPlanner(cfg *infra.Config, client *genai.Client, logger zerolog.Logger) styleplan.Planner {
	if strings.EqualFold(cfg.StylePlanner, "caption") {
		return styleplan.NewCaptionPlanner(captioner{client}, logger)
	}
	return styleplan.NewStaticPlanner()
}

// captioner bridges the transport client onto the planner's completion
// surface.
type captioner struct {
	client *genai.Client
}

func (c captioner) GenerateText(ctx context.Context, req styleplan.TextRequest) (string, error) {
	return c.client.GenerateText(ctx, genai.TextRequest{Prompt: req.Prompt, ImageURL: req.ImageURL})
}
