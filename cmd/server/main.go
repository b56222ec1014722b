package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tradeforge-io/signal-engine-go/internal/api"
	"github.com/tradeforge-io/signal-engine-go/internal/api/handlers"
	"github.com/tradeforge-io/signal-engine-go/internal/config"
	"github.com/tradeforge-io/signal-engine-go/internal/engine"
	"github.com/tradeforge-io/signal-engine-go/internal/logging"
	"github.com/tradeforge-io/signal-engine-go/internal/market"
	"github.com/tradeforge-io/signal-engine-go/internal/notify"
	"github.com/tradeforge-io/signal-engine-go/internal/observability"
	"github.com/tradeforge-io/signal-engine-go/internal/predict"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

func run() error {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := observability.InitSentry(cfg.Sentry, version, cfg.Environment); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	defer observability.Flush(context.Background())

	logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	logger.LogStartup("signal-engine", version, cfg.Server.Port)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var gateway market.Gateway = market.NewPostgresGateway(pool, logger)
	var redisCheck api.HealthChecker

	// Redis is optional; the engine reads straight from Postgres without it.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, market data cache disabled")
		redisClient = nil
	} else {
		cached := market.NewCachedGateway(gateway, redisClient, cfg.Redis.TTL, logger)
		gateway = cached
		redisCheck = cached.HealthCheck
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.WithError(err).Warn("failed to close redis client")
			}
		}()
	}

	predictor := predict.NewClient(cfg.Predictor, logger)
	eng := engine.New(cfg.Engine, gateway, predictor, nil, nil, logger)

	notifier := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
	if notifier == nil {
		logger.Info("telegram notifications disabled")
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	signalHandler := handlers.NewSignalHandler(eng, notifier, logger)
	api.SetupRoutes(router, signalHandler, version, pool.Ping, redisCheck)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.LogShutdown("signal-engine", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
