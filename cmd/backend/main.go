// Package main provides the entry point for the Uplink URL shortener service.
package main

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/config"
	"Uplink-Backend/internal/database"
	httpHandler "Uplink-Backend/internal/handler/http"
	"Uplink-Backend/internal/ratelimit"
	"Uplink-Backend/internal/repository/postgres"
	"Uplink-Backend/internal/service"
	"Uplink-Backend/internal/worker"
	"Uplink-Backend/pkg/logger"
	"Uplink-Backend/pkg/useragent"
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting Uplink backend", zap.String("env", cfg.Env))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations if enabled
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// Initialize User-Agent parser for click enrichment
	uaParser, err := useragent.New(log)
	if err != nil {
		log.Warn("failed to initialize User-Agent parser, clicks will not be enriched", zap.Error(err))
	}

	// Background pool for fire-and-forget writes (token touches, click enrichment)
	pool := worker.New(log, worker.DefaultConfig())
	if err := pool.Start(); err != nil {
		log.Fatal("failed to start background pool", zap.Error(err))
	}

	// Rate limiter: shared redis counter when configured, in-memory otherwise
	var limiter ratelimit.Limiter
	if cfg.RateLimit.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window, log)
		log.Info("using redis rate limiter", zap.String("addr", cfg.RateLimit.RedisAddr))
	} else {
		fw := ratelimit.NewFixedWindow(
			cfg.RateLimit.MaxRequests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Retention,
			cfg.RateLimit.SweepInterval,
			log,
		)
		defer fw.Close()
		limiter = fw
		log.Info("using in-memory rate limiter (single-instance, best-effort)")
	}

	// Initialize storage and services
	storage := postgres.New(db, log)
	linkService := service.NewLinkService(storage, &cfg.Shortener, log)
	redirectService := service.NewRedirectService(storage, pool, uaParser, log)
	tokenService := auth.NewTokenService(storage, pool, log)

	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:            []byte(cfg.Auth.JWTSecret),
		AccessTokenDuration:  cfg.Auth.AccessTokenTTL,
		RefreshTokenDuration: cfg.Auth.RefreshTokenTTL,
		Issuer:               cfg.Auth.Issuer,
	})
	passwordService := auth.NewPasswordService()

	hosts := httpHandler.NewHostResolver(cfg.Shortener.DefaultDomain, cfg.Shortener.AllowedDomains, log)

	httpAPIServer := httpHandler.NewServer(
		storage,
		linkService,
		redirectService,
		tokenService,
		jwtService,
		passwordService,
		limiter,
		hosts,
		log,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      httpAPIServer.SetupRoutes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down Uplink backend...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := pool.Stop(); err != nil {
		log.Error("failed to stop background pool", zap.Error(err))
	}
}
