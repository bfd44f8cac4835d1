package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"heliomovie/internal/helioviewer"
	"heliomovie/internal/httpkit"
	"heliomovie/internal/movie"
	"heliomovie/internal/pkg/errors"
	"heliomovie/internal/repo"
)

// CreateMovieRequest is the POST /movies body: the rendering parameters
// plus the orchestration policy for this job.
type CreateMovieRequest struct {
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Layers      string    `json:"layers"`
	Events      string    `json:"events"`
	EventLabels bool      `json:"event_labels"`
	ImageScale  float64   `json:"image_scale"`
	Format      string    `json:"format"`
	FrameRate   string    `json:"frame_rate,omitempty"`
	MaxFrames   *int      `json:"max_frames,omitempty"`
	MovieLength *float64  `json:"movie_length,omitempty"`
	Watermark   *bool     `json:"watermark,omitempty"`
	Width       *string   `json:"width,omitempty"`
	Height      *string   `json:"height,omitempty"`

	Overwrite      bool    `json:"overwrite"`
	Filename       string  `json:"filename,omitempty"`
	HighQuality    bool    `json:"hq"`
	TimeoutMinutes float64 `json:"timeout_minutes,omitempty"`
}

func (r CreateMovieRequest) toParams() repo.Params {
	watermark := true
	if r.Watermark != nil {
		watermark = *r.Watermark
	}

	req := helioviewer.MovieRequest{
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Layers:      r.Layers,
		Events:      r.Events,
		EventLabels: r.EventLabels,
		ImageScale:  r.ImageScale,
		Format:      r.Format,
		FrameRate:   r.FrameRate,
		MaxFrames:   r.MaxFrames,
		MovieLength: r.MovieLength,
		Watermark:   watermark,
		Width:       r.Width,
		Height:      r.Height,
	}

	opts := movie.Options{
		Overwrite:   r.Overwrite,
		Filename:    r.Filename,
		HighQuality: r.HighQuality,
		Timeout:     time.Duration(r.TimeoutMinutes * float64(time.Minute)),
	}

	return repo.Params{Request: req, Options: opts}
}

func (h *Handler) PostMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateMovieRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	params := req.toParams()
	if err := params.Request.Validate(); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	paramsJSON, err := params.Encode()
	if err != nil {
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "encoding params failed", nil)
		return
	}

	movieID := uuid.NewString()
	job, err := h.movies.Create(ctx, movieID, paramsJSON)
	if err != nil {
		h.log.FromContext(ctx).Error("movie insert failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	if err := h.queue.Push(ctx, movieID); err != nil {
		h.log.FromContext(ctx).Error("queue push failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "queue push failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{
		"movie": map[string]any{
			"id":         job.ID,
			"status":     job.Status,
			"created_at": job.CreatedAt,
		},
	})
}

func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	limit := 50
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	jobs, err := h.movies.List(ctx, status, limit)
	if err != nil {
		h.log.FromContext(ctx).Error("movie list failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	items := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, map[string]any{
			"id":         j.ID,
			"status":     j.Status,
			"object_key": j.ObjectKey,
			"error":      j.ErrorText,
			"created_at": j.CreatedAt,
		})
	}

	httpkit.WriteJSON(w, 200, map[string]any{"movies": items})
}

func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := chi.URLParam(r, "movieId")

	job, err := h.movies.Get(ctx, movieID)
	if err != nil {
		httpkit.WriteErr(w, errors.GetHTTPStatus(err), string(errors.GetCode(err)), "movie not found", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"movie": map[string]any{
			"id":          job.ID,
			"status":      job.Status,
			"object_key":  job.ObjectKey,
			"error":       job.ErrorText,
			"created_at":  job.CreatedAt,
			"started_at":  job.StartedAt,
			"finished_at": job.FinishedAt,
		},
	})
}

// StreamMovie serves the finished artifact's bytes from storage.
func (h *Handler) StreamMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := chi.URLParam(r, "movieId")

	job, err := h.movies.Get(ctx, movieID)
	if err != nil {
		httpkit.WriteErr(w, errors.GetHTTPStatus(err), string(errors.GetCode(err)), "movie not found", nil)
		return
	}
	if job.Status != repo.StatusDone || job.ObjectKey == "" {
		httpkit.WriteErr(w, 409, "CONFLICT", "movie is not finished", map[string]any{"status": job.Status})
		return
	}

	rc, contentType, size, err := h.sp.GetObject(ctx, job.ObjectKey)
	if err != nil {
		h.log.FromContext(ctx).Error("artifact read failed", "error", err.Error(), "object_key", job.ObjectKey)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "artifact read failed", nil)
		return
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(200)
	_, _ = io.Copy(w, rc)
}
