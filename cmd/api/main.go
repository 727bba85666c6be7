// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/config"
	"github.com/verbalize-ai/voice-platform/internal/handler"
	"github.com/verbalize-ai/voice-platform/internal/llm"
	"github.com/verbalize-ai/voice-platform/internal/middleware"
	natsclient "github.com/verbalize-ai/voice-platform/internal/nats"
	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/internal/voice"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
	"github.com/verbalize-ai/voice-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "voice-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure KV buckets and the message stream exist
	buckets, err := natsclient.EnsureBuckets(ctx, natsClient)
	if err != nil {
		log.Error("failed to ensure KV buckets", zap.Error(err))
		os.Exit(1)
	}

	messageLog := natsclient.NewMessageLog(natsClient)
	if err := messageLog.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Initialize voice clients (both stages ride the OpenAI audio APIs)
	voiceClient, err := voice.NewOpenAIClient(voice.OpenAIConfig{
		APIKey:   cfg.OpenAIAPIKey,
		STTModel: cfg.STTModel,
		TTSModel: cfg.TTSModel,
		TTSVoice: cfg.TTSVoice,
	})
	if err != nil {
		log.Error("failed to create voice client", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client; without one, replies degrade to an echo
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == "anthropic" && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderAnthropic, cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, replies degraded", zap.Error(err))
		llmClient = nil
	}

	// Initialize stores and services
	ledgerSvc := service.NewLedgerService(natsclient.NewAccountStore(buckets.Accounts), log)
	conversationSvc := service.NewConversationService(
		natsclient.NewConversationStore(buckets.Conversations),
		messageLog,
		log,
	)
	couponSvc := service.NewCouponService(
		natsclient.NewCouponStore(buckets.Coupons),
		natsclient.NewRedemptionStore(buckets.Redemptions),
		ledgerSvc,
		log,
	)
	turnSvc := service.NewTurnService(
		ledgerSvc,
		conversationSvc,
		voiceClient,
		voiceClient,
		llmClient,
		cfg.ChatModel,
		log,
	)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	turnHandler := handler.NewTurnHandler(turnSvc, cfg.MaxAudioBytes, log)
	couponHandler := handler.NewCouponHandler(couponSvc, log)
	accountHandler := handler.NewAccountHandler(ledgerSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{
			"X-Transcript", "X-AI-Response", "X-Conversation-Id",
			"X-Credits-Remaining", "X-Correlation-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.MaterializeAccount(ledgerSvc, log))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/account", accountHandler.Get)
		r.Post("/payment/mock", accountHandler.MockPayment)

		r.Post("/voice/turns", turnHandler.Create)

		r.Post("/coupons/redeem", couponHandler.Redeem)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/{id}/messages", conversationHandler.Messages)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
