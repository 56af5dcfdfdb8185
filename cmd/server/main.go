package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pitchside/pitchbook/internal/api/auth"
	"github.com/pitchside/pitchbook/internal/api/bookings"
	"github.com/pitchside/pitchbook/internal/api/fields"
	"github.com/pitchside/pitchbook/internal/api/friends"
	"github.com/pitchside/pitchbook/internal/api/member"
	"github.com/pitchside/pitchbook/internal/api/teams"
	"github.com/pitchside/pitchbook/internal/config"
	"github.com/pitchside/pitchbook/internal/db"
	"github.com/pitchside/pitchbook/internal/email"
	"github.com/pitchside/pitchbook/internal/identity"
	"github.com/pitchside/pitchbook/internal/profiles"
	"github.com/pitchside/pitchbook/internal/ratelimit"
	"github.com/pitchside/pitchbook/internal/scheduler"
	"github.com/pitchside/pitchbook/internal/session"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	cognitoClient, err := identity.NewClient(cfg.Auth.PoolID, cfg.Auth.ClientID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create identity client")
	}

	// Audit trail for provider session transitions.
	unsubscribe := cognitoClient.Subscribe(func(ident *identity.Identity) {
		if ident == nil {
			log.Info().Msg("Provider session ended")
			return
		}
		log.Info().Str("user_id", ident.UserID).Msg("Provider session established")
	})
	defer unsubscribe()

	// The provider mux routes tokens by scheme; bare tokens go to Cognito.
	providerMux := identity.NewProviderMux(cognitoClient)
	if cfg.Auth.LocalLogin {
		providerMux.Register(auth.LocalTokenScheme, auth.NewLocalProvider(database.Queries))
		log.Warn().Msg("Local login enabled")
	}
	clerkEnabled := cfg.Auth.ClerkSecretKey != ""
	if clerkEnabled {
		clerkProvider, err := identity.NewClerkProvider(cfg.Auth.ClerkSecretKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Clerk provider")
		}
		providerMux.Register(auth.ClerkTokenScheme, clerkProvider)
	}

	store := profiles.NewStore(database.Queries)
	resolver := session.NewResolver(providerMux, store, session.WithCallTimeout(cfg.Auth.ProviderTimeout))

	cache, err := session.NewCookieCache(cfg.App.SecretKey, cfg.Auth.CachedSessionTTL, cfg.App.Environment != "development")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session cache")
	}

	var sender email.EmailSender
	if cfg.Email.AccessKeyID != "" {
		sesClient, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create email client")
		}
		sender = sesClient
	} else {
		log.Warn().Msg("Email credentials not configured, outbound email disabled")
	}

	auth.InitHandlers(cfg, database.Queries, cognitoClient, store, ratelimit.New(nil))
	auth.InitClerk(clerkEnabled)
	fields.InitHandlers(database)
	bookings.InitHandlers(database, sender)
	teams.InitHandlers(database)
	friends.InitHandlers(database)
	member.InitHandlers(database.Queries, store)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterJobs(cfg, database, sender); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown failed")
		}
	}()

	server := newServer(cfg, resolver, cache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
