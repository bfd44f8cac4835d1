package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"heliomovie/internal/pkg/logger"
	"heliomovie/internal/ports"
)

type Deps struct {
	Pool       *pgxpool.Pool
	RDB        *redis.Client
	QueueName  string
	APIBaseURL string
	SP         ports.StorageProvider
	Log        *logger.Logger
}
