package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/user-session-api/internal/api/rest"
	"github.com/CameronXie/user-session-api/internal/api/rest/handlers"
	"github.com/CameronXie/user-session-api/internal/api/rest/middlewares"
	"github.com/CameronXie/user-session-api/internal/authn"
	"github.com/CameronXie/user-session-api/internal/config"
	"github.com/CameronXie/user-session-api/internal/keyfetcher"
	"github.com/CameronXie/user-session-api/internal/metrics"
	"github.com/CameronXie/user-session-api/internal/password"
	"github.com/CameronXie/user-session-api/internal/token"
	"github.com/CameronXie/user-session-api/internal/version"
)

const (
	PrivateKeyEnv = "PRIVATE_KEY_BASE64"
	PublicKeyEnv  = "PUBLIC_KEY_BASE64"

	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 20 * time.Second
	IdleTimeout       = 120 * time.Second
	ShutdownTimeout   = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("version", version.Version),
	)

	if err := run(logger); err != nil {
		logger.Error("api_failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := newUserStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init user store: %w", err)
	}
	defer store.close()

	m := metrics.New()
	authenticator := authn.NewAuthenticator(
		authn.NewDirectory(store.repository, password.NewBcryptHasher(password.DefaultCost)),
		token.NewIssuer(token.IssuerConfig{
			KeyFetcher: keyfetcher.NewCached(keySource(cfg.PrivateKeyFile, PrivateKeyEnv)),
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
			TTL:        cfg.TokenTTL,
		}),
		logger,
	)

	if cfg.GenericAuthErrors {
		logger.Info("generic authentication errors enabled")
	} else {
		logger.Warn("sign in responses distinguish unknown emails from wrong passwords")
	}

	mux := rest.NewMuxWithHandlers(&rest.RouterConfig{
		SessionsHandler: handlers.NewSessionsHandler(
			authenticator,
			m,
			&handlers.SessionsConfig{GenericAuthErrors: cfg.GenericAuthErrors},
			logger,
		),
		AuthenticationMiddleware: middlewares.NewJWTAuthenticationMiddleware(
			token.NewVerifier(token.VerifierConfig{
				KeyFetcher: keyfetcher.NewCached(keySource(cfg.PublicKeyFile, PublicKeyEnv)),
				Issuer:     cfg.JWTIssuer,
				Audience:   cfg.JWTAudience,
				ClockSkew:  cfg.ClockSkew,
			}),
			logger,
		),
		Metrics: m,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr, "user_store", cfg.UserStore)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("api_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// keySource prefers a PEM file and falls back to a base64 encoded environment variable.
func keySource(file, env string) keyfetcher.From {
	if file != "" {
		return keyfetcher.FromFile(file)
	}
	return keyfetcher.FromBase64Env(env)
}
