package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minh-le0205/tour-rest-api/internal/auth"
	"github.com/minh-le0205/tour-rest-api/internal/database"
	httpServer "github.com/minh-le0205/tour-rest-api/internal/http"
	"github.com/minh-le0205/tour-rest-api/internal/metrics"
	"github.com/minh-le0205/tour-rest-api/internal/ratelimit"
	"github.com/minh-le0205/tour-rest-api/internal/review"
	"github.com/minh-le0205/tour-rest-api/internal/tour"
	"github.com/minh-le0205/tour-rest-api/internal/user"
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, logger := a.cfg, a.logger
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_strategy", cfg.Auth.TokenStrategy,
		"email_provider", cfg.Email.Provider,
	)

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(a.db.DB, logger)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Redis only backs rate limiting and the forgot-password cooldown
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled || cfg.RateLimit.ForgotCooldown {
		redisClient, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewLimiter(redisClient)
	}

	m := metrics.New()

	mailer, err := newMailer(cfg.Email, cfg.Auth.ResetTokenTTL, logger)
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(a.db)
	authService, tokens, err := a.authService(userRepo, mailer, auth.WithEventRecorder(m))
	if err != nil {
		return err
	}

	var cooldown auth.Cooldown
	if limiter != nil && cfg.RateLimit.ForgotCooldown {
		cooldown = limiter
	}

	router := httpServer.NewRouter(httpServer.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Limiter: limiter,
		Gate:    auth.NewMiddleware(tokens, userRepo, m),
		Auth:    auth.NewHandler(authService, cooldown),
		Users:   user.NewHandler(userRepo, authService),
		Tours:   tour.NewHandler(tour.NewRepository(a.db)),
		Reviews: review.NewHandler(review.NewRepository(a.db)),
	})

	server := httpServer.NewServer(cfg.Server, router, logger)
	return server.Run(ctx)
}
