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

	adapthttp "phrasebook/internal/adapter/http"
	"phrasebook/internal/adapter/memory"
	"phrasebook/internal/adapter/postgres"
	"phrasebook/internal/app"
	"phrasebook/internal/config"
	"phrasebook/internal/domain"
)

// store is what both storage backends provide.
type store interface {
	domain.UserRepository
	domain.PhraseListRepository
	domain.TxManager
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	db, closeDB, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB()
	log.Info("storage ready", "driver", cfg.Database.Driver)

	sessions := memory.NewSessionStore(cfg.Session.TTL)
	if cfg.Session.TTL > 0 {
		go purgeSessions(ctx, sessions, cfg.Session.PurgeInterval, log)
	}

	authSvc := app.NewAuthService(db, sessions, cfg.Auth.BcryptCost, log)
	listSvc := app.NewPhraseListService(db)
	importSvc := app.NewImportService(db, db, log)

	if cfg.Session.Secret == "" {
		log.Warn("SESSION_SECRET not set; cookies will not survive a restart")
	}
	opts := adapthttp.Options{
		CookieName:     cfg.Session.CookieName,
		CookieSecret:   []byte(cfg.Session.Secret),
		CookieSecure:   cfg.Session.Secure,
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	}
	if cfg.OIDC.Enabled() {
		sso, err := adapthttp.NewSSO(ctx, cfg.OIDC)
		if err != nil {
			return err
		}
		opts.SSO = sso
		log.Info("single sign-on enabled", "issuer", cfg.OIDC.Issuer)
	}

	srv, err := adapthttp.New(authSvc, listSvc, importSvc, log, opts)
	if err != nil {
		return fmt.Errorf("http adapter: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (store, func(), error) {
	if cfg.Driver == "memory" {
		return memory.New(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

func purgeSessions(ctx context.Context, sessions *memory.SessionStore, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.PurgeExpired(ctx); n > 0 {
				log.Debug("purged expired sessions", "count", n, "active", sessions.Len())
			}
		}
	}
}
