package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/config"
	dbPostgres "github.com/kailas-cloud/chronik/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/chronik/internal/db/redis"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	logpkg "github.com/kailas-cloud/chronik/internal/logger"
	"github.com/kailas-cloud/chronik/internal/metrics"
	"github.com/kailas-cloud/chronik/internal/repository/respcache"
	searchrepo "github.com/kailas-cloud/chronik/internal/repository/search"
	chiTransport "github.com/kailas-cloud/chronik/internal/transport/chi"
	healthuc "github.com/kailas-cloud/chronik/internal/usecase/health"
	searchuc "github.com/kailas-cloud/chronik/internal/usecase/search"
	"github.com/kailas-cloud/chronik/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	if fc := cfg.Logging.File; fc.Enabled {
		logger, err = logpkg.WithFile(logger, logpkg.FileConfig{
			Filename:   fc.Filename,
			MaxSizeMB:  fc.MaxSizeMB,
			MaxBackups: fc.MaxBackups,
			MaxAgeDays: fc.MaxAgeDays,
			Compress:   fc.Compress,
		})
		if err != nil {
			panic("failed to open log file: " + err.Error())
		}
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chronik search server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.DBName),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	store, err := dbPostgres.NewStore(dbPostgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeSec) * time.Second,
		LogLevel:        cfg.Database.LogLevel,
		SlowThreshold:   time.Duration(cfg.Database.SlowThresholdMs) * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Optional response cache. Pass nil interfaces, not typed nil pointers.
	var (
		cache       searchuc.Cache
		cachePinger healthuc.Pinger
	)
	if cfg.Cache.Enabled {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Cache.Addrs,
			Password:    cfg.Cache.Password,
			DialTimeout: 2 * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer kv.Close()

		if err := kv.WaitForReady(ctx, 5*time.Second); err != nil {
			// The cache is an optimization; searches still work without it.
			logger.Warn("Cache not ready, continuing", zap.Error(err))
		}
		cache = respcache.New(kv, time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.SearchCacheTotal, logger)
		cachePinger = kv
		logger.Info("Response cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Create repositories and use cases
	searchRepo := searchrepo.New(store, searchRepoOptions(cfg.Search)...)
	searchSvc := searchuc.New(searchRepo, cache, searchuc.Config{
		StrategyTimeout: time.Duration(cfg.Search.StrategyTimeoutMs) * time.Millisecond,
		MaxConcurrency:  cfg.Search.MaxConcurrency,
	}, logger)
	healthSvc := healthuc.New(store, cachePinger)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Mount(r, cfg.Auth.SessionCookie)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searchRepoOptions turns the search config into per-type strategy tuning.
func searchRepoOptions(sc config.SearchConfig) []searchrepo.Option {
	opts := []searchrepo.Option{searchrepo.WithFallbackCounter(metrics.SearchTrigramFallbackTotal)}
	for _, t := range entity.All() {
		tu := searchrepo.DefaultTuning(t)
		tu.Threshold = sc.TrigramThreshold
		tu.MinResults = sc.TrigramMinResults
		if o, ok := sc.Types[string(t)]; ok {
			if o.PrefixMatch != nil {
				tu.PrefixMatch = *o.PrefixMatch
			}
			if o.Trigram != nil {
				tu.Trigram = *o.Trigram
			}
			if o.TrigramThreshold != nil {
				tu.Threshold = *o.TrigramThreshold
			}
			if o.MinResults != nil {
				tu.MinResults = *o.MinResults
			}
		}
		opts = append(opts, searchrepo.WithTuning(t, tu))
	}
	return opts
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Error: "Internal server error",
						Code:  chiTransport.CodeServerError,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line. The query string is left out: it carries user search text.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
