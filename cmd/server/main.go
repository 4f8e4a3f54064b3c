package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/tenxcards/internal/api"
	"github.com/vytor/tenxcards/internal/auth"
	"github.com/vytor/tenxcards/internal/config"
	"github.com/vytor/tenxcards/internal/db"
	"github.com/vytor/tenxcards/internal/llm"
	"github.com/vytor/tenxcards/internal/logger"
	"github.com/vytor/tenxcards/internal/ratelimit"
	"github.com/vytor/tenxcards/internal/repository/sqlite"
	"github.com/vytor/tenxcards/internal/scheduler"
	"github.com/vytor/tenxcards/internal/services"
	"github.com/vytor/tenxcards/internal/validation"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("10x Cards Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("auth_mode=%s", cfg.AuthMode)
	log.Debug("rate_limit=%d per %s (store=%s)", cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitStore)
	log.Debug("generation_limit_per_hour=%d", cfg.GenerationLimitPerHour)
	log.Debug("llm_provider=%s model=%s timeout=%s", cfg.LLMProvider, cfg.LLMModel, cfg.LLMTimeout)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Load templates
	log.Debug("loading templates")
	tmpl, err := api.LoadTemplates()
	if err != nil {
		log.Error("failed to load templates: %v", err)
		os.Exit(1)
	}

	strategy, err := auth.FromConfig(cfg)
	if err != nil {
		log.Error("failed to configure auth: %v", err)
		os.Exit(1)
	}
	if cfg.AuthMode == config.AuthModeFixed {
		log.Warn("AUTH_MODE=fixed: every request is authenticated as %s", cfg.FixedUserID)
	}

	generator, err := llm.FromConfig(cfg)
	if err != nil {
		log.Error("failed to configure llm: %v", err)
		os.Exit(1)
	}

	// Rate limiting
	var requestStore ratelimit.Store
	var limitStore api.Pinger
	switch cfg.RateLimitStore {
	case config.StoreRedis:
		redisStore, err := ratelimit.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, "tenxcards")
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		requestStore = redisStore
		limitStore = redisStore
	default:
		requestStore = ratelimit.NewMemoryStore()
	}
	requestLimiter := ratelimit.New(requestStore, "rate_limit", cfg.RateLimitRequests, cfg.RateLimitWindow)
	budget := ratelimit.New(ratelimit.NewCacheStore(10*time.Minute), "generation_limit", cfg.GenerationLimitPerHour, time.Hour)

	sched := scheduler.New()
	sched.Add(ratelimit.SweepJob{Store: requestStore}, cfg.RateLimitSweepInterval)

	// Initialize services
	v := validation.New()
	flashcardRepo := sqlite.NewFlashcardRepository(database.DB)
	generationRepo := sqlite.NewGenerationRepository(database.DB)

	srv := &api.Server{
		GenerationService: services.NewGenerationService(generationRepo, generator, budget, v),
		FlashcardService:  services.NewFlashcardService(flashcardRepo, generationRepo, v),
		Auth:              strategy,
		Limiter:           requestLimiter,
		DB:                database,
		LimitStore:        limitStore,
		Templates:         tmpl,
		CookieSecure:      cfg.CookieSecure,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping scheduler")
	sched.Stop()

	log.Info("===========================================")
	log.Info("10x Cards Server Stopped")
	log.Info("===========================================")
}
