package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogverse/internal/blogapi"
	"blogverse/internal/config"
	"blogverse/internal/db"
	webhttp "blogverse/internal/http"
	"blogverse/internal/observability"
	"blogverse/internal/repository"
	"blogverse/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sessionRepo, redisClient, closeRepo, err := openSessionRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("session store", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}
	defer closeRepo()

	sessions, err := service.NewSessionManager(logger, sessionRepo, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("session manager", zap.Error(err))
	}
	defer sessions.Close()

	metrics := observability.NewMetrics()
	sessions.Subscribe(func(ev service.SessionEvent) {
		metrics.SessionEvent(ev.State.Token != "")
	})

	api := blogapi.NewClient(cfg.APIBaseURL, &http.Client{}, logger, metrics)
	tracker := webhttp.NewFetchTracker(sessions, metrics.FetchCanceled)
	defer tracker.Close()

	renderer, err := webhttp.NewRenderer()
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	opts := webhttp.Options{
		CookieSecure:  cfg.CookieSecure,
		SessionTTL:    cfg.SessionTTL,
		MaxImageBytes: cfg.MaxImageBytes,
	}
	limiter := service.NewMemoryLoginLimiter(cfg.LoginRateWindow, cfg.LoginRateLimit)
	if redisClient != nil {
		limiter = service.NewRedisLoginLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateLimit)
	}
	authHandler := webhttp.NewAuthHandler(logger, api, tracker, renderer, limiter, opts)
	blogHandler := webhttp.NewBlogHandler(logger, api, tracker, renderer, opts)
	router := webhttp.NewRouter(logger, renderer, metrics, sessions, authHandler, blogHandler, opts)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", zap.Error(err))
			}
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.String("session_backend", cfg.SessionBackend),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openSessionRepository construye el backend de sesiones elegido y su funcion de cierre.
// El cliente redis solo es distinto de nil con el backend redis.
func openSessionRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.SessionRepository, *redis.Client, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(ctxPing).Err(); err != nil {
			// Las sesiones quedan en carga hasta que redis responda.
			logger.Warn("redis ping failed", zap.Error(err))
		}
		return repository.NewRedisSessionRepository(client), client, func() { client.Close() }, nil

	case config.SessionBackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.Ping(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		repo := repository.NewPgSessionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		go purgeLoop(ctx, logger, repo.PurgeExpired)
		return repo, nil, pool.Close, nil

	case config.SessionBackendSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		repo := repository.NewSQLiteSessionRepository(sqlDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			sqlDB.Close()
			return nil, nil, nil, err
		}
		go purgeLoop(ctx, logger, repo.PurgeExpired)
		return repo, nil, func() { sqlDB.Close() }, nil

	default:
		return repository.NewMemorySessionRepository(cfg.SessionMemorySize, cfg.SessionTTL), nil, func() {}, nil
	}
}

// purgeLoop borra registros vencidos cada hora hasta que ctx termine.
func purgeLoop(ctx context.Context, logger *zap.Logger, purge func(context.Context) (int64, error)) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
