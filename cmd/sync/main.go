package main

import (
	"context"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/gbp"
	"reviewhub/internal/logger"
	"reviewhub/internal/mailer"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// Runs one full review sync and exits. Deploy it as a scheduled job when the
// HTTP trigger endpoint is not an option.
func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}

	credRepo := repository.NewCredentialRepo(pool)
	locationRepo := repository.NewLocationRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	widgetRepo := repository.NewWidgetRepo(pool)
	userRepo := repository.NewUserRepo(pool)

	tokens := gbp.NewTokenProvider(credRepo, gbp.NewOAuthConfig(cfg), logger)
	mail := mailer.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)

	syncSvc := service.NewSyncService(locationRepo, reviewRepo, widgetRepo, userRepo, tokens, gbp.NewClient(), mail, cfg.FrontendURL, logger)

	report, err := syncSvc.Run(ctx)
	if err != nil {
		logger.Fatal().Msgf("Sync run failed: %v", err)
	}
	logger.Info().
		Int("total_synced", report.TotalSynced).
		Int("total_new", report.TotalNew).
		Int("locations_processed", report.LocationsProcessed).
		Msg("Sync run complete")
}
