package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/logging"
)

func main() {
	cfg, err := loadConfig(".env", ".env.local")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Str("redis", opts.Addr).Msg("Failed to connect to Redis")
		}
		cancel()
		logger.Info().Str("redis", opts.Addr).Msg("Connected to Redis")
	}

	clientCfg := client.DefaultConfig(cfg.APIURL, cfg.UserAgent)
	clientCfg.Redis = rdb
	apiClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API client")
	}
	defer apiClient.Close()

	rate, _ := cfg.Rate()
	limit, err := newLimiter(rate, rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create rate limiter")
	}

	srv := &server{
		auth:   api.New(apiClient),
		redis:  rdb,
		secure: cfg.Production(),
		logger: logger.With().Str("component", "proxy").Logger(),
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(cfg.Origins, limit),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Str("upstream", cfg.APIURL).
			Str("environment", cfg.Environment).
			Msg("Starting auth proxy")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
	logger.Info().Msg("Proxy stopped")
}
