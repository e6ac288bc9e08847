package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
	authRateBurst  = 10
	authVisitorTTL = 5 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup drains the asset ingestor and must be called
// during shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	tokens := auth.NewManager(auth.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, users)

	store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	prober := media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)
	ingestor := media.NewAssetIngestor(prober, store, videos, media.AssetIngestorConfig{
		QueueSize: cfg.IngestQueueSize,
		Workers:   cfg.IngestWorkers,
	}, slog.Default())

	deps := handlers.Dependencies{
		Users:         users,
		Tokens:        tokens,
		Videos:        videos,
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Dashboard:     repositories.NewPostgresDashboardRepository(pool),
		Storage:       store,
		Ingestor:      ingestor,
		Auth:          middleware.Auth{Verifier: tokens, Users: users},
		Limiter:       middleware.NewIPRateLimiter(authRateLimit, authRateWindow, authRateBurst, authVisitorTTL),
		BcryptCost:    cfg.BcryptCost,
		UploadTempDir: cfg.UploadTempDir,
	}

	return deps, ingestor.Shutdown, nil
}
