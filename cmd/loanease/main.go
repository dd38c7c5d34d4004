package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loanease/loanease-go/internal/config"
	"github.com/loanease/loanease-go/internal/handler"
	"github.com/loanease/loanease-go/internal/infra/client"
	"github.com/loanease/loanease-go/internal/infra/directory"
	"github.com/loanease/loanease-go/internal/infra/observability"
	"github.com/loanease/loanease-go/internal/infra/resilience"
	"github.com/loanease/loanease-go/internal/infra/store"
	"github.com/loanease/loanease-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("gemini_model", cfg.GeminiModel),
		zap.Duration("llm_timeout", cfg.LLMTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_sessions", cfg.MaxSessions),
		zap.Duration("session_max_idle", cfg.SessionMaxIdle),
	)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, LLM calls will fail and replies degrade to fallbacks")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "loanease")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("gemini")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.LLMTimeout + 5*time.Second}

	llm := client.NewGeminiClient(httpClient, client.GeminiConfig{
		BaseURL: cfg.GeminiAPIURL,
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.LLMTimeout,
	}, cb, resilienceCfg, logger, metrics)

	// --- Stores ---
	sessions := store.NewSessionStore(store.SessionStoreConfig{
		MaxSessions:   cfg.MaxSessions,
		MaxIdle:       cfg.SessionMaxIdle,
		SweepInterval: cfg.SessionSweepInterval,
		OnEvict:       metrics.IncrSessionEvicted,
	})
	defer sessions.Stop()
	apps := store.NewApplicationStore()

	// --- Customer directory ---
	dir := directory.New()

	// --- Services ---
	orch := service.NewOrchestrator(llm, sessions, apps, dir, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(orch, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
