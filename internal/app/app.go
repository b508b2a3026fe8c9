package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/auth"
	"github.com/vovakirdan/rankchat-server/internal/config"
	"github.com/vovakirdan/rankchat-server/internal/core"
	"github.com/vovakirdan/rankchat-server/internal/proto"
	"github.com/vovakirdan/rankchat-server/internal/session"
	"github.com/vovakirdan/rankchat-server/internal/store"
	"github.com/vovakirdan/rankchat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/rankchat-server/internal/transport/http"
)

// App wires together storage, the chat hub and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	auth            *auth.Service
	sessions        *session.Registry
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	counts, err := st.CountMessages(context.Background())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("count stored messages: %w", err)
	}
	for room, n := range counts {
		logger.Info().Str("room", room).Int("messages", n).Msg("stored messages found")
	}

	authService := auth.NewService(st, JWTConfig(cfg))
	sessions := session.NewRegistry(cfg.SessionBuffer)
	hub := core.NewHub(store.NewPersister(st), proto.EncodeMessage, logger)
	server := transporthttp.NewServer(hub, authService, st, sessions, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		auth:            authService,
		sessions:        sessions,
		store:           st,
		log:             logger,
	}, nil
}

// JWTConfig derives token settings from cfg.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
}

// Handler exposes the HTTP handler, mostly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Auth exposes the auth service so callers can provision users.
func (a *App) Auth() *auth.Service {
	return a.auth
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Int("sessions", a.sessions.Len()).Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Close()
			return err
		}

		a.Close()
		return <-serverErr
	}
}

// Close releases the database. Run calls it on exit.
func (a *App) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	} else {
		a.log.Info().Msg("store closed")
	}
	a.store = nil
}
