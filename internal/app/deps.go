package app

import (
	"context"
	"fmt"
	"time"

	"github.com/synthera/backend/internal/auth"
	"github.com/synthera/backend/internal/config"
	"github.com/synthera/backend/internal/db"
	"github.com/synthera/backend/internal/handlers"
	"github.com/synthera/backend/internal/media"
	"github.com/synthera/backend/internal/middleware"
	"github.com/synthera/backend/internal/payments"
	"github.com/synthera/backend/internal/repositories"
	"github.com/synthera/backend/internal/storage"
	"github.com/synthera/backend/internal/uploads"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	sessionStore := repositories.NewPostgresSessionStore(pool)
	users := repositories.NewPostgresUserRepository(pool)
	creators := repositories.NewPostgresCreatorRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	assets, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
	}

	uploader := uploads.NewOrchestrator(
		videos,
		creators,
		assets,
		media.NewFFprobeProber(cfg.Media.FFprobePath, cfg.Media.ProbeTimeout),
		media.NewFFmpegThumbnailer(cfg.Media.FFmpegPath, cfg.Media.ProbeTimeout),
		cfg.Media.TempDir,
		media.ValidationOptions{
			MaxSize:           cfg.Upload.MaxFileSize,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		},
	)

	return handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Videos:        videos,
		Creators:      creators,
		Purchases:     repositories.NewPostgresPurchaseRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Library:       repositories.NewPostgresLibraryRepository(pool),
		Stats:         repositories.NewPostgresStatsRepository(pool),
		Gateway:       payments.NewStripeGateway(cfg.Stripe),
		Uploader:      uploader,
		AuthLimiter:   middleware.NewIPRateLimiter(30, time.Minute, 10, 10*time.Minute),
		Prices: handlers.SubscriptionPriceTable{
			PremiumMonthly: cfg.Stripe.PremiumMonthlyPriceID,
			PremiumYearly:  cfg.Stripe.PremiumYearlyPriceID,
			ProMonthly:     cfg.Stripe.ProMonthlyPriceID,
			ProYearly:      cfg.Stripe.ProYearlyPriceID,
		},
		LicenseFeeRate: cfg.Fees.LicenseRate,
		TipFeeRate:     cfg.Fees.TipRate,
	}, nil
}
