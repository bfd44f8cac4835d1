package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"heliomovie/internal/pkg/logger"
	"heliomovie/internal/ports"
	"heliomovie/internal/repo"
	"heliomovie/internal/worker/queue"
)

type Deps struct {
	Pool      *pgxpool.Pool
	RDB       *redis.Client
	SP        ports.StorageProvider
	QueueName string
	Log       *logger.Logger
}

type Handler struct {
	pool   *pgxpool.Pool
	rdb    *redis.Client
	sp     ports.StorageProvider
	movies *repo.Movies
	queue  *queue.RedisQueue
	log    *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		pool:   d.Pool,
		rdb:    d.RDB,
		sp:     d.SP,
		movies: repo.NewMovies(d.Pool),
		queue:  queue.NewRedisQueue(d.RDB, d.QueueName),
		log:    log.WithComponent("api"),
	}
}
