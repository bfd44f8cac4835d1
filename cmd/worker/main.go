package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"heliomovie/internal/helioviewer"
	"heliomovie/internal/pkg/config"
	"heliomovie/internal/pkg/logger"
	"heliomovie/internal/pkg/shutdown"
	"heliomovie/internal/repo"
	"heliomovie/internal/storage"
	"heliomovie/internal/worker"
)

func main() {
	_ = godotenv.Load()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "info"),
		Format:      config.Env("LOG_FORMAT", "json"),
		ServiceName: "heliomovie-worker",
		AddSource:   config.BoolEnv("LOG_SOURCE", false),
	})

	log.Info("starting heliomovie worker")

	dbURL := config.MustEnv("DATABASE_URL")
	redisAddr := config.MustEnv("REDIS_ADDR")
	apiBaseURL := config.Env("HELIOVIEWER_BASE_URL", helioviewer.DefaultBaseURL)
	queueName := config.Env("MOVIE_QUEUE_NAME", "heliomovie:jobs")

	ctx := context.Background()

	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	if err := repo.NewMovies(pool).EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to ensure movies schema", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	sp, err := storage.NewProvider()
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	runCtx, cancel := context.WithCancel(ctx)
	shutdownMgr.RegisterSimple("worker-loop", cancel)

	go func() {
		if err := worker.Run(runCtx, worker.Deps{
			Pool:       pool,
			RDB:        rdb,
			QueueName:  queueName,
			APIBaseURL: apiBaseURL,
			SP:         sp,
			Log:        log,
		}); err != nil && err != context.Canceled {
			log.Error("worker stopped", "error", err.Error())
		}
	}()

	shutdownMgr.Wait()
}
