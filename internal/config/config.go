package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Env             string        `env:"APP_ENV" envDefault:"dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS" envDefault:"http://localhost:3000"` // CORS allowed origins
	MaxBodyBytes    int64         `env:"SERVER_MAX_BODY_BYTES" envDefault:"10240"`

	// Honour X-Forwarded-For / X-Real-IP only behind a proxy that sets them.
	TrustProxyHeaders bool `env:"SERVER_TRUST_PROXY_HEADERS" envDefault:"false"`
}

type DatabaseConfig struct {
	Host           string        `env:"DB_HOST" envDefault:"localhost"`
	Port           string        `env:"DB_PORT" envDefault:"5432"`
	User           string        `env:"DB_USER" envDefault:"postgres"`
	Password       string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string        `env:"DB_NAME" envDefault:"tours"`
	SSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	ChannelBinding string        `env:"DB_CHANNEL_BINDING"` // "require" for Neon DB, empty for local
	AutoMigrate    bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	MaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	ConnMaxLife    time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

const (
	TokenStrategyPaseto = "paseto"
	TokenStrategyJWT    = "jwt"
)

type AuthConfig struct {
	TokenStrategy string `env:"AUTH_TOKEN_STRATEGY" envDefault:"paseto"`

	// Symmetric key: exactly 32 bytes for paseto, at least 32 for jwt.
	TokenKey      string        `env:"AUTH_TOKEN_KEY,required"`
	TokenTTL      time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"2160h"`
	ResetTokenKey string        `env:"AUTH_RESET_TOKEN_KEY,required"`
	ResetTokenTTL time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"10m"`

	Argon2Time      uint32 `env:"AUTH_ARGON2_TIME" envDefault:"3"`
	Argon2MemoryKiB uint32 `env:"AUTH_ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Threads   uint8  `env:"AUTH_ARGON2_THREADS" envDefault:"4"`
}

const (
	EmailProviderSMTP     = "smtp"
	EmailProviderPostmark = "postmark"
	EmailProviderLog      = "log"
)

type EmailConfig struct {
	Provider             string `env:"EMAIL_PROVIDER" envDefault:"log"`
	From                 string `env:"EMAIL_FROM" envDefault:"Natours <hello@natours.dev>"`
	SMTPHost             string `env:"SMTP_HOST"`
	SMTPPort             string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser             string `env:"SMTP_USER"`
	SMTPPassword         string `env:"SMTP_PASS"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	FrontendURL          string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"` // Frontend URL for reset links

	// Upper bound for one delivery, including dial and the SMTP dialog.
	SendTimeout time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
}

type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	APIRequests    int           `env:"RATE_LIMIT_API_REQUESTS" envDefault:"100"`
	APIWindow      time.Duration `env:"RATE_LIMIT_API_WINDOW" envDefault:"1h"`
	AuthRequests   int           `env:"RATE_LIMIT_AUTH_REQUESTS" envDefault:"10"`
	AuthWindow     time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"15m"`
	ForgotCooldown bool          `env:"RATE_LIMIT_FORGOT_COOLDOWN" envDefault:"true"`
}

// Load reads configuration from environment variables, after loading a
// .env file if one exists.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains([]string{"dev", "prod"}, c.Server.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be dev or prod, got %q", c.Server.Env))
	}
	if c.Email.SendTimeout <= 0 {
		errs = append(errs, errors.New("EMAIL_SEND_TIMEOUT must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("SERVER_MAX_BODY_BYTES must be positive"))
	}

	switch c.Auth.TokenStrategy {
	case TokenStrategyPaseto:
		// Validate PASETO key length (must be 32 bytes for v4.local)
		if len(c.Auth.TokenKey) != 32 {
			errs = append(errs, fmt.Errorf("AUTH_TOKEN_KEY must be exactly 32 bytes for paseto, got %d", len(c.Auth.TokenKey)))
		}
	case TokenStrategyJWT:
		if len(c.Auth.TokenKey) < 32 {
			errs = append(errs, fmt.Errorf("AUTH_TOKEN_KEY must be at least 32 bytes for jwt, got %d", len(c.Auth.TokenKey)))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_STRATEGY must be paseto or jwt, got %q", c.Auth.TokenStrategy))
	}
	if len(c.Auth.ResetTokenKey) < 32 {
		errs = append(errs, fmt.Errorf("AUTH_RESET_TOKEN_KEY must be at least 32 bytes, got %d", len(c.Auth.ResetTokenKey)))
	}
	if c.Auth.TokenKey != "" && c.Auth.TokenKey == c.Auth.ResetTokenKey {
		errs = append(errs, errors.New("AUTH_RESET_TOKEN_KEY must differ from AUTH_TOKEN_KEY"))
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL and AUTH_RESET_TOKEN_TTL must be positive"))
	}

	switch c.Email.Provider {
	case EmailProviderLog:
	case EmailProviderSMTP:
		if c.Email.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required for the smtp provider"))
		}
	case EmailProviderPostmark:
		if c.Email.PostmarkServerToken == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required for the postmark provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER must be smtp, postmark or log, got %q", c.Email.Provider))
	}

	if c.RateLimit.Enabled && (c.RateLimit.APIRequests <= 0 || c.RateLimit.AuthRequests <= 0) {
		errs = append(errs, errors.New("rate limit request counts must be positive"))
	}

	return errors.Join(errs...)
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

// Address returns the listen address for the HTTP server (:port)
func (c *ServerConfig) Address() string {
	return ":" + c.Port
}
