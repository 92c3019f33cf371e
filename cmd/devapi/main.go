// Command devapi serves the questionnaire API locally for the CLI and for
// integration tests.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/api"
	"github.com/terramo-esg/terramo/internal/config"
	dbstore "github.com/terramo-esg/terramo/internal/db"
	"github.com/terramo-esg/terramo/internal/logging"
	"github.com/terramo-esg/terramo/internal/utils"
)

func main() {
	cfg, err := config.Load(os.Getenv("TERRAMO_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("devapi stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	handler, err := newHandler(store, cfg, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.DevAPI.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("devapi listening", zap.String("addr", cfg.DevAPI.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("devapi shutting down")
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config, logger *zap.Logger) (api.Store, error) {
	if cfg.DevAPI.DBPath == "" {
		logger.Info("using in-memory store")
		return api.NewMemoryStore(), nil
	}
	logger.Info("using sqlite store", zap.String("path", cfg.DevAPI.DBPath))
	store, err := dbstore.Open(cfg.DevAPI.DBPath, utils.SafeEnv("TERRAMO_MIGRATIONS_DIR", ""))
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

// newHandler seeds store and returns the wrapped router.
func newHandler(store api.Store, cfg config.Config, logger *zap.Logger) (http.Handler, error) {
	rt := api.NewRouter(store, api.Options{
		Secret:     []byte(cfg.DevAPI.JWTSecret),
		InviteBase: utils.SafeEnv("TERRAMO_INVITE_BASE", "http://localhost:3000"),
		Logger:     logger,
		Version:    utils.SafeEnv("TERRAMO_COMMIT", "dev"),

		AllowedOrigins: cfg.DevAPI.AllowedOrigins,
		Locale:         cfg.Locale,
	})
	seeded, err := api.Seed(store, rt.Auth())
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if seeded.AdminInvite != "" {
		logger.Info("seeded demo data",
			zap.String("admin", api.DemoAdminEmail),
			zap.String("stakeholder", api.DemoStakeholderEmail),
			zap.String("password", api.DemoPassword),
			zap.String("admin_invite", seeded.AdminInvite),
			zap.Any("group_invites", seeded.GroupTokens))
	}
	return rt.Handler(), nil
}
