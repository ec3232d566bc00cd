package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/config"
	internalhttp "eduadmin/internal/http"
	"eduadmin/internal/jobs"
	"eduadmin/internal/logging"
	"eduadmin/internal/metrics"
	"eduadmin/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store := session.NewStore()
	unsubscribe := store.Subscribe(func(sess session.Session, ok bool) {
		if ok {
			logger.Info("session started", zap.String("user_id", sess.User.ID), zap.String("role", sess.User.Role))
			return
		}
		logger.Info("session ended")
	})
	defer unsubscribe()

	client := apiclient.New(store, apiclient.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
		Metrics:   m,
	})

	var locker jobs.Locker
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		locker = jobs.NewRedisLocker(redisClient, cfg.FreezeTimeout)
	}

	freezer := jobs.NewFreezer(client, locker, logger, m)
	if _, err := jobs.StartFreezeJob(ctx, cfg, freezer, logger); err != nil {
		logger.Fatal("freeze job init failed", zap.Error(err))
	}

	server := internalhttp.NewServer(cfg, client, freezer, m, logger)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("console listening", zap.String("addr", cfg.HTTPAddr), zap.String("api", cfg.APIBaseURL))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}
