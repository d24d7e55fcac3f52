package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	api "digest-backend/cmd/api"
	"digest-backend/internal/trigger/pubsub"
	"digest-backend/internal/trigger/ticker"
	"digest-backend/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server",
	Long: `Serves the invocation endpoints and, when configured, also listens on
Pub/Sub and runs the in-process daily ticker.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	// Initialize Pub/Sub listener
	// Only start if project ID is configured
	if cfg.GoogleProjectID != "" {
		listener, err := pubsub.NewListener(ctx, cfg.GoogleProjectID, cfg.GooglePubSubTopic, cfg.GooglePubSubSubscription,
			cfg.GoogleCredentials, a.service, cache.NewTTL(pubsub.DedupWindow), log)
		if err != nil {
			log.Error("Failed to initialize Pub/Sub listener", zap.Error(err))
		} else {
			defer listener.Close()
			go func() {
				if err := listener.Start(ctx); err != nil {
					log.Error("Pub/Sub listener stopped", zap.Error(err))
				}
			}()
		}
	} else {
		log.Info("GOOGLE_PROJECT_ID not configured, Pub/Sub trigger disabled")
	}

	if cfg.InternalTicker {
		t := ticker.NewDailyTicker(a.service, ticker.DefaultInterval, log)
		t.Start(ctx)
		defer t.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(a.service, a.backends, cfg, log)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Server starting", zap.String("port", cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Server stopped")
	return nil
}
