package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/minh-le0205/tour-rest-api/internal/auth"
	"github.com/minh-le0205/tour-rest-api/internal/config"
	"github.com/minh-le0205/tour-rest-api/internal/database"
	"github.com/minh-le0205/tour-rest-api/internal/email"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

// app holds what every command needs: configuration, a logger and the
// database handle.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	db     *bun.DB
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	db, err := database.Open(ctx, cfg.Database.ConnectionString(), database.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLife,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// authService builds the account service and the token service it issues
// with.
func (a *app) authService(users auth.UserStore, mailer *email.Mailer, opts ...auth.Option) (*auth.Service, auth.TokenService, error) {
	tokens, err := newTokenService(a.cfg.Auth)
	if err != nil {
		return nil, nil, err
	}

	resets, err := auth.NewResetTokenService([]byte(a.cfg.Auth.ResetTokenKey), a.cfg.Auth.ResetTokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize reset tokens: %w", err)
	}

	params := auth.DefaultArgon2Params()
	params.Time = a.cfg.Auth.Argon2Time
	params.MemoryKiB = a.cfg.Auth.Argon2MemoryKiB
	params.Threads = a.cfg.Auth.Argon2Threads
	hasher, err := auth.NewPasswordHasher(params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	opts = append([]auth.Option{auth.WithWelcomeSender(mailer)}, opts...)
	service := auth.NewService(users, tokens, resets, hasher, mailer, a.logger, opts...)
	return service, tokens, nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenStrategy {
	case config.TokenStrategyJWT:
		svc, err := auth.NewJWTService([]byte(cfg.TokenKey), cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewPasetoService([]byte(cfg.TokenKey), cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	}
}

func newMailer(cfg config.EmailConfig, resetTTL time.Duration, logger *logging.Logger) (*email.Mailer, error) {
	var sender email.Sender
	switch cfg.Provider {
	case config.EmailProviderSMTP:
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From, cfg.SendTimeout)
	case config.EmailProviderPostmark:
		pm, err := email.NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.From)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postmark: %w", err)
		}
		sender = pm
	default:
		sender = email.NewLogSender(logger)
	}
	return email.NewMailer(sender, cfg.FrontendURL, resetTTL), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
