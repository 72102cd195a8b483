package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
	"canvas-engine/infrastructure/config"
	"canvas-engine/infrastructure/di"
	"canvas-engine/interfaces/http/rest"
	"canvas-engine/interfaces/websocket"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "canvasd",
	Short: "canvasd serves a canvas document over HTTP and WebSocket",
	Long: "canvasd opens one canvas document, keeps its state on a single\n" +
		"session loop, and exposes it through a REST API, a WebSocket event\n" +
		"stream, and Prometheus metrics.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the canvas server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the canvasd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("canvasd %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Shutdown()

	logger := container.Logger
	sess := container.Session

	// WebSocket fan-out subscribes before the session loop starts.
	hub := websocket.NewHub(logger)
	broadcaster := websocket.NewBroadcaster(hub, logger)
	sess.Subscribe(broadcaster.Handle)
	inputHandler := websocket.NewInputHandler(sess, hub, logger)
	wsServer := websocket.NewServer(hub, nil, inputHandler.Handle, logger)
	go hub.Run()
	defer hub.Stop()

	// Session loop
	sessionCtx, cancelSession := context.WithCancel(context.Background())
	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		sess.Run(sessionCtx)
	}()

	if err := sess.Load(ctx); err != nil {
		cancelSession()
		<-sessionDone
		return fmt.Errorf("failed to load document: %w", err)
	}

	// Live-reload domain tunables when a file is configured.
	if cfg.TunablesPath != "" {
		watcher, werr := config.NewTunablesWatcher(cfg.TunablesPath, logger)
		if werr != nil {
			logger.Warn("Tunables watcher unavailable", zap.Error(werr))
		} else {
			defer watcher.Stop()
			watcher.OnChange(func(updated *domaincfg.DomainConfig) {
				applyCtx, applyCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer applyCancel()
				if err := sess.ApplyTunables(applyCtx, updated); err != nil {
					logger.Warn("Failed to apply reloaded tunables", zap.Error(err))
					return
				}
				logger.Info("Domain tunables reloaded",
					zap.String("path", cfg.TunablesPath),
					zap.Float64("max_zoom", updated.MaxZoom))
			})
			watcher.Start()
		}
	}

	router := rest.NewRouter(sess, cfg, container.DomainConfig, logger, wsServer)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("document_id", container.DocumentID.String()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		cancelSession()
		<-sessionDone
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	// Stopping the session flushes pending writes before the backend closes.
	cancelSession()
	<-sessionDone

	logger.Info("Server stopped")
	return nil
}
