// Package movie orchestrates the full movie-creation lifecycle against the
// rendering service: queue the job, poll it to a terminal state under a
// wall-clock deadline, download the result and persist it to storage.
package movie

import (
	"bytes"
	"context"
	"time"

	"heliomovie/internal/helioviewer"
	"heliomovie/internal/pkg/errors"
	"heliomovie/internal/pkg/logger"
	"heliomovie/internal/ports"
)

// API is the slice of the rendering service consumed by the Creator.
// *helioviewer.Client satisfies it.
type API interface {
	QueueMovie(ctx context.Context, req helioviewer.MovieRequest) (helioviewer.JobHandle, error)
	GetMovieStatus(ctx context.Context, h helioviewer.JobHandle, format string) (helioviewer.MovieStatus, error)
	DownloadMovie(ctx context.Context, h helioviewer.JobHandle, format string, hq bool) ([]byte, error)
}

const (
	// DefaultTimeout bounds one orchestration run when Options.Timeout is zero.
	DefaultTimeout = 5 * time.Minute
	// defaultPollInterval is the fixed wait between status queries. It keeps
	// load on the service bounded while staying responsive for short jobs.
	defaultPollInterval = 3 * time.Second
)

// Options is caller-supplied policy for one run. None of it is sent to
// the rendering service.
type Options struct {
	// Overwrite replaces an existing object at the target key. When false,
	// persistence fails instead of clobbering.
	Overwrite bool
	// Filename is the output basename; the format extension is appended.
	// When empty a unique name is synthesized from the job id and the
	// request's date range.
	Filename string
	// HighQuality requests the higher-quality download (mp4 only, ignored
	// by the service for other formats).
	HighQuality bool
	// Timeout is the wall-clock budget for the whole run.
	Timeout time.Duration
}

type Deps struct {
	API   API
	Store ports.StorageProvider
	Log   *logger.Logger
	// PollInterval overrides the status-poll spacing. Tests use this.
	PollInterval time.Duration
}

// Creator drives one movie job from submission to a persisted file.
// Each CreateMovie call is self-contained: it owns its job handle and
// deadline, so concurrent calls are independent.
type Creator struct {
	api          API
	store        ports.StorageProvider
	log          *logger.Logger
	pollInterval time.Duration
}

func New(d Deps) *Creator {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	interval := d.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Creator{
		api:          d.API,
		store:        d.Store,
		log:          log.WithComponent("creator"),
		pollInterval: interval,
	}
}

// CreateMovie runs the submit → poll → download → persist pipeline and
// returns the object key of the stored movie. Every failure stops the
// run immediately; nothing is retried and no partial file is left behind.
func (c *Creator) CreateMovie(ctx context.Context, req helioviewer.MovieRequest, opts Options) (string, error) {
	format := req.OutputFormat()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := c.log.FromContext(ctx)

	log.Debug("queueing movie", "format", format, "timeout", timeout.String())
	handle, err := c.api.QueueMovie(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "creator.submit", "failed to queue movie")
	}
	log = log.WithJobID(handle.ID)
	log.Info("movie queued")

	// The deadline is fixed once, before the first poll.
	deadline := time.Now().Add(timeout)

	if err := c.waitForCompletion(ctx, handle, format, deadline, timeout, log); err != nil {
		return "", err
	}

	log.Debug("downloading movie", "hq", opts.HighQuality)
	data, err := c.api.DownloadMovie(ctx, handle, format, opts.HighQuality)
	if err != nil {
		return "", errors.Wrap(err, "creator.fetch", "failed to download movie")
	}

	name := ResolveFilename(opts.Filename, handle.ID, req.StartTime, req.EndTime, format)
	log.Debug("persisting movie", "object_key", name, "bytes", len(data))

	out, err := c.store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   name,
		ContentType: contentTypeFor(format),
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		Overwrite:   opts.Overwrite,
	})
	if err != nil {
		return "", errors.Wrap(err, "creator.persist", "failed to persist movie")
	}

	log.Info("movie created", "object_key", out.ObjectKey, "bytes", out.Size)
	return out.ObjectKey, nil
}

// waitForCompletion polls until the job completes. A Failed status surfaces
// the service-supplied message; anything non-terminal sleeps one interval and
// then checks the deadline. The deadline is checked only after a non-terminal
// status, so a terminal state observed at or past the deadline still wins.
func (c *Creator) waitForCompletion(ctx context.Context, handle helioviewer.JobHandle, format string, deadline time.Time, timeout time.Duration, log *logger.Logger) error {
	for {
		st, err := c.api.GetMovieStatus(ctx, handle, format)
		if err != nil {
			return errors.Wrap(err, "creator.poll", "failed to query movie status")
		}

		switch st.Code {
		case helioviewer.StatusComplete:
			log.Debug("movie complete")
			return nil
		case helioviewer.StatusFailed:
			msg := st.Error
			if msg == "" {
				msg = "movie rendering failed"
			}
			return errors.Remote(msg)
		default:
			log.Debug("movie not ready", "status", st.Code.String(), "raw_status", st.RawCode)
		}

		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return errors.Cancelled("creator.poll", err)
		}
		if time.Now().After(deadline) {
			return errors.Timeout(timeout)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func contentTypeFor(format string) string {
	switch format {
	case helioviewer.FormatWebM:
		return "video/webm"
	case helioviewer.FormatFLV:
		return "video/x-flv"
	default:
		return "video/mp4"
	}
}
