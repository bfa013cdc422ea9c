package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"redsocial/internal/config"
	"redsocial/internal/db"
	"redsocial/internal/logging"
	"redsocial/internal/middleware"
	"redsocial/internal/observability"
	"redsocial/internal/router"
	"redsocial/internal/services"
	"redsocial/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:           "redsocial",
		Short:         "REST backend for posts, reactions and comment threads",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE:  runMigrate,
	}

	portFlag string
)

func init() {
	serveCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setup loads configuration, installs the logger and opens the database.
func setup() (*config.Config, *slog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}
	logger := logging.Setup(cfg.Log)

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, gdb, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_, _, gdb, err := setup()
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	return db.Migrate(gdb)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, gdb, err := setup()
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if cfg.Server.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return err
		}
	}

	engine, err := buildEngine(cfg, logger, gdb)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Addr(), Handler: engine}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("redsocial server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildEngine wires services and handlers on top of the open database.
func buildEngine(cfg *config.Config, logger *slog.Logger, gdb *gorm.DB) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	store, err := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix)
	if err != nil {
		return nil, err
	}
	profiles, err := services.NewProfileProvider(gdb, cfg.ProfileCache.Size, cfg.ProfileCache.TTL)
	if err != nil {
		return nil, err
	}

	reg := observability.NewRegistry()
	metrics := observability.NewMetrics(reg)

	return router.New(router.Deps{
		Reactions:    services.NewReactionService(gdb, metrics),
		Comments:     services.NewCommentService(gdb, profiles, metrics),
		Posts:        services.NewPostService(gdb, store),
		Users:        services.NewUserService(gdb, store, profiles),
		Profiles:     profiles,
		Logger:       logger,
		Metrics:      metrics,
		Gatherer:     reg,
		RateLimiter:  middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		UploadDir:    cfg.Uploads.Dir,
		UploadPrefix: store.PublicPrefix,
	}), nil
}
