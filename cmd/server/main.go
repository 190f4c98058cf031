package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/api/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/internal/api/middleware"
	"github.com/Kvazar-213452/Voxta-mobile/internal/config"
	"github.com/Kvazar-213452/Voxta-mobile/internal/crypto"
	"github.com/Kvazar-213452/Voxta-mobile/internal/metrics"
	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
	"github.com/Kvazar-213452/Voxta-mobile/internal/websocket"
	wshandlers "github.com/Kvazar-213452/Voxta-mobile/internal/websocket/handlers"
	"github.com/Kvazar-213452/Voxta-mobile/pkg/types"
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
		Use:           "server",
		Short:         "Socket.IO presence directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadPresence(ctx, config.OverridesFromFlags(cmd.Flags()))
			if err != nil {
				logger.Errorf("Failed to load config: %v", err)
				return err
			}
			return run(ctx, cfg)
		},
	}
	config.RegisterServiceFlags(cmd.Flags())
	cmd.Flags().String(config.FlagSecret, "", "JWT signing secret (overrides "+config.KeySecret+")")
	return cmd
}

func run(ctx context.Context, cfg *config.Presence) error {
	if err := logger.Configure(cfg.Debug, cfg.LogLevel); err != nil {
		logger.Warnf("Ignoring %s: %v", config.KeyLogLevel, err)
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager, err := crypto.NewJWTManager(cfg.Secret)
	if err != nil {
		logger.Errorf("Failed to create JWT manager: %v", err)
		return err
	}

	registry := presence.NewRegistry()
	observer := metrics.NewPresence(registry)

	logger.Infof("Initializing Socket.IO server...")
	deps := wshandlers.NewDeps(registry, jwtManager, wshandlers.NewSessions(), observer, time.Now)
	sio := websocket.NewSocketIOServer(deps, websocket.Options{
		Path:           cfg.SocketPath,
		UpgradeTimeout: cfg.UpgradeTimeout,
		PingInterval:   cfg.PingInterval,
		PingTimeout:    cfg.PingTimeout,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Length"},
	}))
	router.Use(middleware.LoggingMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, types.Banner)
	})

	presenceHandler := handlers.NewPresenceHandler(registry)
	router.GET("/healthz", presenceHandler.Health)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(observer.Handler()))
	}

	protected := router.Group("/v1")
	protected.Use(middleware.AuthMiddleware(jwtManager))
	protected.GET("/status/:userId", presenceHandler.GetStatus)

	sio.Mount(router)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Presence server listening on %s (socket path %s)", cfg.Addr(), sio.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Errorf("Server failed: %v", err)
			_ = sio.Close()
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Infof("Shutting down (%d connections, %d users online)", sio.ConnectedSockets(), registry.OnlineCount())
	if err := sio.Close(); err != nil {
		logger.Warnf("Failed to close Socket.IO server: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
		return err
	}
	logger.Infof("Server stopped")
	return nil
}
