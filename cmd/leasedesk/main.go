package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/leasedesk/leasedesk/internal/auth"
	"github.com/leasedesk/leasedesk/internal/config"
	"github.com/leasedesk/leasedesk/internal/docrender"
	"github.com/leasedesk/leasedesk/internal/esign"
	"github.com/leasedesk/leasedesk/internal/invite"
	"github.com/leasedesk/leasedesk/internal/notify"
	"github.com/leasedesk/leasedesk/internal/server"
	"github.com/leasedesk/leasedesk/internal/store/postgres"
	redisstore "github.com/leasedesk/leasedesk/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("LEASEDESK_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("LEASEDESK_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// `leasedesk migrate` applies the schema and exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if migrateErr := store.Migrate(ctx); migrateErr != nil {
			return migrateErr
		}
		log.Info().Msg("schema applied")
		return nil
	}

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Portal session auth.
	authSvc := auth.NewService(store.PortalAccounts(), cfg.JWT.Secret, cfg.JWT.SessionTTL)

	// Email gateway. Deliveries go to the structured log until an SMTP
	// provider is wired in.
	gateway := notify.LogGateway{}

	// Optional Slack staff notifier.
	var staff esign.StaffAnnouncer
	if cfg.Slack.BotToken != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		staff = notify.NewStaffNotifier(slackClient, cfg.Slack.StaffChannel)
		log.Info().Str("channel", cfg.Slack.StaffChannel).Msg("Slack staff notifications enabled")
	}

	// Invitation lifecycle.
	inviteSvc := invite.NewService(
		store.Invitations(),
		store.Tenants(),
		gateway,
		authSvc,
		cfg.Esign.PortalBaseURL,
		cfg.Esign.InvitationTTL,
	)

	// Agreement lifecycle.
	esignSvc := esign.NewService(
		store.Agreements(),
		store.Signatures(),
		store.Leases(),
		store.Tenants(),
		store.PortalAccounts(),
		inviteSvc,
		gateway,
		docrender.NewTemplateRenderer(),
		staff,
		pubsub,
		cfg.Esign.SigningBaseURL,
		cfg.Esign.AgreementTTL,
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, esignSvc, inviteSvc, authSvc, pubsub)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
