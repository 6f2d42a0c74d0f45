package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Server   ServerConfig
	Slack    SlackConfig
	Esign    EsignConfig
	Staff    StaffConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds portal session token settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	SessionTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// SlackConfig holds the back-office notification settings. Both fields empty
// disables Slack entirely.
type SlackConfig struct {
	BotToken     string
	StaffChannel string
}

// EsignConfig holds signing workflow settings.
type EsignConfig struct {
	SigningBaseURL string        // public base of the signing UI, embedded in emails
	PortalBaseURL  string        // public base of the tenant portal, embedded in invitations
	AgreementTTL   time.Duration // default signing deadline for new agreements
	InvitationTTL  time.Duration // how long invitation tokens stay redeemable
	RateLimitRPS   float64       // per-IP limit on the public endpoints
	RateLimitBurst int
}

// StaffConfig holds back-office API access settings.
type StaffConfig struct {
	APIKey string //nolint:gosec // G117: staff API key config
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, staff API key, DB password) must be
// set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("LEASEDESK_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("LEASEDESK_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("LEASEDESK_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("LEASEDESK_JWT_SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("LEASEDESK_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("LEASEDESK_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	agreementTTL, err := getEnvDuration("LEASEDESK_AGREEMENT_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	invitationTTL, err := getEnvDuration("LEASEDESK_INVITATION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimitRPS, err := getEnvFloat("LEASEDESK_RATE_LIMIT_RPS", 5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimitBurst, err := getEnvInt("LEASEDESK_RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("LEASEDESK_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("LEASEDESK_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("LEASEDESK_DB_USER", "leasedesk"),
			Password: getEnv("LEASEDESK_DB_PASSWORD", ""),
			DBName:   getEnv("LEASEDESK_DB_NAME", "leasedesk_dev"),
			SSLMode:  getEnv("LEASEDESK_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("LEASEDESK_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("LEASEDESK_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:     getEnv("LEASEDESK_JWT_SECRET", ""),
			SessionTTL: sessionTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("LEASEDESK_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Slack: SlackConfig{
			BotToken:     getEnv("LEASEDESK_SLACK_BOT_TOKEN", ""),
			StaffChannel: getEnv("LEASEDESK_SLACK_STAFF_CHANNEL", ""),
		},
		Esign: EsignConfig{
			SigningBaseURL: getEnv("LEASEDESK_SIGNING_BASE_URL", "http://localhost:5173"),
			PortalBaseURL:  getEnv("LEASEDESK_PORTAL_BASE_URL", "http://localhost:5173"),
			AgreementTTL:   agreementTTL,
			InvitationTTL:  invitationTTL,
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Staff: StaffConfig{
			APIKey: getEnv("LEASEDESK_STAFF_API_KEY", ""),
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("LEASEDESK_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("LEASEDESK_JWT_SECRET must be at least 32 characters")
	}

	if c.Staff.APIKey == "" {
		log.Warn().Msg("LEASEDESK_STAFF_API_KEY is empty; staff endpoints will reject all requests")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("LEASEDESK_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Slack.BotToken != "" && c.Slack.StaffChannel == "" {
		return errors.New("LEASEDESK_SLACK_STAFF_CHANNEL is required when LEASEDESK_SLACK_BOT_TOKEN is set")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("LEASEDESK_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("LEASEDESK_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.SessionTTL <= 0 {
		return fmt.Errorf("LEASEDESK_JWT_SESSION_TTL must be positive, got %s", c.JWT.SessionTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("LEASEDESK_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("LEASEDESK_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Esign.AgreementTTL <= 0 {
		return fmt.Errorf("LEASEDESK_AGREEMENT_TTL must be positive, got %s", c.Esign.AgreementTTL)
	}
	if c.Esign.InvitationTTL <= 0 {
		return fmt.Errorf("LEASEDESK_INVITATION_TTL must be positive, got %s", c.Esign.InvitationTTL)
	}
	if c.Esign.RateLimitRPS <= 0 {
		return fmt.Errorf("LEASEDESK_RATE_LIMIT_RPS must be positive, got %g", c.Esign.RateLimitRPS)
	}
	if c.Esign.RateLimitBurst < 1 {
		return fmt.Errorf("LEASEDESK_RATE_LIMIT_BURST must be >= 1, got %d", c.Esign.RateLimitBurst)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
