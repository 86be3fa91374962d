package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/config"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/fetcher"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/handler"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/metrics"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/middleware"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/poller"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
	"github.com/tubefeed/youtube-rss-ingestion-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable

	ctx := context.Background()
	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	logger.Log.Info("database connection established",
		zap.Int32("maxConns", pool.Config().MaxConns),
	)

	channelRepo := repository.NewChannelRepository(pool)
	videoRepo := repository.NewVideoRepository(pool)
	savedVideoRepo := repository.NewSavedVideoRepository(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pollMetrics := metrics.New(registry)

	feedFetcher := fetcher.New(cfg.Poll.FetchTimeout, fetcher.WithUserAgent(cfg.Poll.UserAgent))
	feedPoller := poller.New(channelRepo, videoRepo, feedFetcher, pollMetrics)
	resolver := youtube.NewResolver(nil, cfg.Poll.UserAgent)

	pollHandler := handler.NewPollHandler(feedPoller, cfg.Poll.AdminToken)
	channelHandler := handler.NewChannelHandler(channelRepo)
	videoHandler := handler.NewVideoHandler(videoRepo)
	savedVideoHandler := handler.NewSavedVideoHandler(savedVideoRepo)
	channelFromURLHandler := handler.NewChannelFromURLHandler(resolver)
	healthHandler := handler.NewHealthHandler(pool)

	if len(cfg.Server.APIKeys) == 0 {
		logger.Log.Warn("no API keys configured, /api/v1 routes will reject all requests")
	}
	auth := middleware.NewAPIKeyAuth(cfg.Server.APIKeys)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", healthHandler.Liveness)
	router.GET("/ready", healthHandler.Readiness)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Token-protected trigger for external schedulers (cron).
	router.POST("/poll", pollHandler.TriggerPollWithToken)

	api := router.Group("/api/v1", auth.Middleware())
	{
		api.POST("/poll", pollHandler.TriggerPoll)

		api.GET("/channels", channelHandler.List)
		api.POST("/channels", channelHandler.Create)
		api.PATCH("/channels/:id", channelHandler.Update)
		api.POST("/channels/extract-id", channelFromURLHandler.ExtractChannelID)

		api.GET("/videos", videoHandler.List)
		api.GET("/videos/search", videoHandler.Search)
		api.POST("/videos/:id/toggle-hidden", videoHandler.ToggleHidden)
		api.POST("/videos/:id/toggle-short", videoHandler.ToggleShort)

		api.GET("/saved-videos", savedVideoHandler.List)
		api.POST("/saved-videos", savedVideoHandler.Create)
		api.DELETE("/saved-videos/:id", savedVideoHandler.Delete)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("failed to close server", zap.Error(err))
			}
			os.Exit(1)
		}

		logger.Log.Info("server stopped gracefully")
	}
}
