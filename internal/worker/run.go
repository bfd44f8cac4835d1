package worker

import (
	"context"
	"time"

	"heliomovie/internal/helioviewer"
	"heliomovie/internal/movie"
	"heliomovie/internal/pkg/logger"
	"heliomovie/internal/repo"
	"heliomovie/internal/worker/queue"
)

// Run consumes queued movie job ids and drives each one through the
// movie creator, recording the outcome on the job row.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	q := queue.NewRedisQueue(d.RDB, d.QueueName)
	movies := repo.NewMovies(d.Pool)
	creator := movie.New(movie.Deps{
		API:   helioviewer.NewClient(d.APIBaseURL, log),
		Store: d.SP,
		Log:   log,
	})

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		// Use a separate context with timeout for queue operations
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		jobID, err := q.Pop(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}

			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			time.Sleep(1 * time.Second)
			continue
		}

		if jobID == "" {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)

		jobLog.Info("processing movie job")
		startTime := time.Now()

		if err := processJob(jobCtx, movies, creator, jobID); err != nil {
			jobLog.Error("movie job failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("movie job completed",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}

// processJob runs one job end to end. The returned error is already
// recorded on the job row; it is surfaced only for logging.
func processJob(ctx context.Context, movies *repo.Movies, creator *movie.Creator, jobID string) error {
	job, err := movies.Get(ctx, jobID)
	if err != nil {
		return err
	}

	params, err := repo.DecodeParams(job.ParamsJSON)
	if err != nil {
		_ = movies.MarkFailed(ctx, jobID, "invalid job parameters: "+err.Error())
		return err
	}

	if err := movies.MarkRunning(ctx, jobID); err != nil {
		return err
	}

	objectKey, err := creator.CreateMovie(ctx, params.Request, params.Options)
	if err != nil {
		_ = movies.MarkFailed(ctx, jobID, err.Error())
		return err
	}

	return movies.MarkDone(ctx, jobID, objectKey)
}
