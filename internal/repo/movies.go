// Package repo persists movie jobs accepted by the API until a worker
// finishes them.
package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"heliomovie/internal/pkg/errors"
)

// Lifecycle states of a stored movie job.
const (
	StatusQueued  = "QUEUED"
	StatusRunning = "RUNNING"
	StatusDone    = "DONE"
	StatusFailed  = "FAILED"
)

// MovieJob is one row of the movies table.
type MovieJob struct {
	ID         string
	Status     string
	ParamsJSON string
	ObjectKey  string
	ErrorText  string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

type Movies struct {
	pool *pgxpool.Pool
}

func NewMovies(pool *pgxpool.Pool) *Movies {
	return &Movies{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS movies (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    params_json TEXT NOT NULL,
    object_key  TEXT,
    error_text  TEXT,
    created_at  TIMESTAMPTZ NOT NULL,
    started_at  TIMESTAMPTZ,
    finished_at TIMESTAMPTZ
)`

// EnsureSchema creates the movies table when missing.
func (m *Movies) EnsureSchema(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, schema)
	return err
}

func (m *Movies) Create(ctx context.Context, id, paramsJSON string) (MovieJob, error) {
	job := MovieJob{
		ID:         id,
		Status:     StatusQueued,
		ParamsJSON: paramsJSON,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := m.pool.Exec(ctx,
		`INSERT INTO movies (id, status, params_json, created_at) VALUES ($1,$2,$3,$4)`,
		job.ID, job.Status, job.ParamsJSON, job.CreatedAt,
	)
	if err != nil {
		return MovieJob{}, errors.Wrap(err, "repo.create", "insert movie failed")
	}
	return job, nil
}

func (m *Movies) Get(ctx context.Context, id string) (MovieJob, error) {
	var job MovieJob
	err := m.pool.QueryRow(ctx,
		`SELECT id, status, params_json, COALESCE(object_key,''), COALESCE(error_text,''),
		        created_at, started_at, finished_at
		 FROM movies WHERE id=$1`,
		id,
	).Scan(&job.ID, &job.Status, &job.ParamsJSON, &job.ObjectKey, &job.ErrorText,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err == pgx.ErrNoRows {
		return MovieJob{}, errors.NotFound("movie", id)
	}
	if err != nil {
		return MovieJob{}, errors.Wrap(err, "repo.get", "select movie failed")
	}
	return job, nil
}

func (m *Movies) List(ctx context.Context, status string, limit int) ([]MovieJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = m.pool.Query(ctx,
			`SELECT id, status, COALESCE(object_key,''), COALESCE(error_text,''), created_at
			 FROM movies WHERE status=$1
			 ORDER BY created_at DESC
			 LIMIT $2`,
			status, limit,
		)
	} else {
		rows, err = m.pool.Query(ctx,
			`SELECT id, status, COALESCE(object_key,''), COALESCE(error_text,''), created_at
			 FROM movies
			 ORDER BY created_at DESC
			 LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, errors.Wrap(err, "repo.list", "select movies failed")
	}
	defer rows.Close()

	out := make([]MovieJob, 0, limit)
	for rows.Next() {
		var job MovieJob
		if err := rows.Scan(&job.ID, &job.Status, &job.ObjectKey, &job.ErrorText, &job.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "repo.list", "scan movie failed")
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (m *Movies) MarkRunning(ctx context.Context, id string) error {
	_, err := m.pool.Exec(ctx,
		`UPDATE movies SET status=$2, started_at=NOW(), finished_at=NULL, error_text=NULL WHERE id=$1`,
		id, StatusRunning,
	)
	return err
}

func (m *Movies) MarkDone(ctx context.Context, id, objectKey string) error {
	_, err := m.pool.Exec(ctx,
		`UPDATE movies SET status=$2, object_key=$3, finished_at=NOW() WHERE id=$1`,
		id, StatusDone, objectKey,
	)
	return err
}

func (m *Movies) MarkFailed(ctx context.Context, id, msg string) error {
	if len(msg) > 2000 {
		msg = msg[:2000]
	}
	_, err := m.pool.Exec(ctx,
		`UPDATE movies SET status=$2, error_text=$3, finished_at=NOW() WHERE id=$1`,
		id, StatusFailed, msg,
	)
	return err
}
