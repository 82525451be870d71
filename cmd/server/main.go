package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-notifier/config"
	"payment-notifier/internal/controllers"
	"payment-notifier/internal/payments"
	"payment-notifier/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v79"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	setupLogging(cfg)
	metrics := config.GetMetrics()

	// The API key is used by the Stripe SDK for any follow-up calls; the
	// webhook secret alone covers signature verification.
	stripe.Key = cfg.StripeAPIKey

	// Initialize WebSocket hub and webhook receiver
	hub := websocket.NewHub()
	defer hub.Close()

	receiver := payments.NewReceiver(cfg.StripeWebhookSecret)

	// Initialize Controllers
	webhookController := controllers.NewWebhookController(receiver, hub, metrics)
	homeController := controllers.NewHomeController()

	// Initialize Gin Router with CORS and metrics middleware
	router := gin.Default()
	router.Use(corsMiddleware(cfg))
	router.Use(config.MetricsMiddleware(metrics))

	// Start metrics server on separate port
	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", config.MetricsHandler())

		metricsServer := &http.Server{
			Addr:    ":" + cfg.PrometheusPort,
			Handler: metricsMux,
		}

		log.Info().Str("port", cfg.PrometheusPort).Msg("Metrics server starting")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Metrics server failed")
		}
	}()

	// Health check endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "clients": hub.ClientCount()})
	})

	// Application routes
	router.GET("/", homeController.Index)
	router.POST("/api/webhook", webhookController.HandleWebhook)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(c, hub)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogFile != "" {
		log.Logger = log.Output(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
		})
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Stripe-Signature")
	return cors.New(corsCfg)
}
