package router

import (
	"context"
	"net/http"
	"time"

	"reviewhub/internal/api/v1/handler"
	"reviewhub/internal/config"
	"reviewhub/internal/gbp"
	"reviewhub/internal/mailer"
	"reviewhub/internal/middleware"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the whole API together and returns the root handler plus the
// database pool so the caller can close it on shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBConnectionString)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	validate := validator.New(validator.WithRequiredStructEnabled())

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	credRepo := repository.NewCredentialRepo(pool)
	locationRepo := repository.NewLocationRepo(pool)
	reviewRepo := repository.NewReviewRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)
	widgetRepo := repository.NewWidgetRepo(pool)

	// Google Business Profile plumbing
	oauthCfg := gbp.NewOAuthConfig(cfg)
	tokens := gbp.NewTokenProvider(credRepo, oauthCfg, logger)
	gbpClient := gbp.NewClient()
	directory := gbp.NewDirectory()

	mail := mailer.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)

	// Services
	sessionTTL := time.Duration(cfg.SessionTTLHrs) * time.Hour
	authSvc := service.NewAuthService(userRepo, credRepo, oauthCfg, cfg.JWTSecret, sessionTTL, logger)
	userSvc := service.NewUserService(userRepo)
	locationSvc := service.NewLocationService(locationRepo, subscriptionRepo, tokens, directory, logger)
	reviewSvc := service.NewReviewService(reviewRepo, locationRepo, tokens, gbpClient, logger)
	widgetSvc := service.NewWidgetService(widgetRepo, locationRepo, reviewRepo, subscriptionRepo, logger)
	subscriptionSvc := service.NewSubscriptionService(subscriptionRepo, locationRepo, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, locationRepo, subscriptionSvc, logger)
	drafter := service.NewAnthropicDrafter(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	syncSvc := service.NewSyncService(locationRepo, reviewRepo, widgetRepo, userRepo, tokens, gbpClient, mail, cfg.FrontendURL, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, userSvc, cfg.FrontendURL, logger)
	locationHandler := handler.NewLocationHandler(locationSvc, reviewSvc, widgetSvc, validate, logger)
	reviewHandler := handler.NewReviewHandler(reviewSvc, drafter, validate, logger)
	billingHandler := handler.NewBillingHandler(stripeSvc, validate, logger)
	embedHandler := handler.NewEmbedHandler(widgetSvc, cfg.AppBaseURL, logger)
	syncHandler := handler.NewSyncHandler(syncSvc, cfg.CronSecret, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)

	apiV1Mux := http.NewServeMux()
	authHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	locationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	reviewHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	embedHandler.RegisterRoutes(apiV1Mux)
	syncHandler.RegisterRoutes(apiV1Mux)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), pool, nil
}
