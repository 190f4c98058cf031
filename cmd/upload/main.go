package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/api/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/internal/api/middleware"
	"github.com/Kvazar-213452/Voxta-mobile/internal/config"
	"github.com/Kvazar-213452/Voxta-mobile/internal/database"
	"github.com/Kvazar-213452/Voxta-mobile/internal/models"
	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "upload",
		Short:         "Base64 avatar and file upload service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadUpload(ctx, config.OverridesFromFlags(cmd.Flags()))
			if err != nil {
				logger.Errorf("Failed to load config: %v", err)
				return err
			}
			return run(ctx, cfg)
		},
	}
	config.RegisterServiceFlags(cmd.Flags())
	cmd.Flags().String(config.FlagDataDir, "", "directory uploads are written to and served from")
	cmd.Flags().String(config.FlagDatabasePath, "", "SQLite upload ledger path")
	return cmd
}

func run(ctx context.Context, cfg *config.Upload) error {
	if err := logger.Configure(cfg.Debug, cfg.LogLevel); err != nil {
		logger.Warnf("Ignoring %s: %v", config.KeyLogLevel, err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Errorf("Failed to create data dir: %v", err)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		logger.Errorf("Failed to create database dir: %v", err)
		return err
	}

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("Failed to open database: %v", err)
		return err
	}
	defer db.Close()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Length"},
	}))
	router.Use(middleware.LoggingMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	uploadHandler := handlers.NewUploadHandler(cfg.DataDir, cfg.MaxUploadBytes, models.New(db.DB))
	uploadHandler.Register(router)
	router.Static("/"+handlers.AvatarsDir, filepath.Join(cfg.DataDir, handlers.AvatarsDir))
	router.Static("/"+handlers.FilesDir, filepath.Join(cfg.DataDir, handlers.FilesDir))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Upload service listening on %s (data dir %s)", cfg.Addr(), cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("Server failed: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
		return err
	}
	logger.Infof("Upload service stopped")
	return nil
}
