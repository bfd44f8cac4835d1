// Package helioviewer is an HTTP client for the Helioviewer movie API.
// It covers the three calls needed to drive a movie job end to end:
// queueMovie, getMovieStatus and downloadMovie.
package helioviewer

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Movie output containers supported by the service.
const (
	FormatMP4  = "mp4"
	FormatWebM = "webm"
	FormatFLV  = "flv"
)

// ValidFormat reports whether f is a known movie container.
func ValidFormat(f string) bool {
	switch f {
	case FormatMP4, FormatWebM, FormatFLV:
		return true
	}
	return false
}

// JobHandle identifies a queued movie job to subsequent calls.
// It is valid from submission until the job reaches a terminal state
// and must not be reused across orchestration runs.
type JobHandle struct {
	ID    string
	Token string
}

// StatusCode is the classified state of a movie job.
type StatusCode int

const (
	StatusQueued StatusCode = iota
	StatusProcessing
	StatusComplete
	StatusFailed
)

func (s StatusCode) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusProcessing:
		return "processing"
	case StatusComplete:
		return "complete"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further polling should occur.
func (s StatusCode) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// ClassifyStatus maps a raw service status code onto a StatusCode.
// Unknown codes classify as queued on purpose: the service may grow
// new intermediate codes and they must not be read as failures.
func ClassifyStatus(raw int) StatusCode {
	switch raw {
	case 0:
		return StatusQueued
	case 1:
		return StatusProcessing
	case 2:
		return StatusComplete
	case 3:
		return StatusFailed
	default:
		return StatusQueued
	}
}

// MovieStatus is one observation of a job's state. It is fetched fresh
// on every poll and never cached.
type MovieStatus struct {
	Code StatusCode
	// RawCode is the untranslated service status code.
	RawCode int
	// Error carries the service-supplied failure text when Code is StatusFailed.
	Error string
}

// MovieRequest is the full set of rendering parameters for queueMovie.
// Optional parameters are pointers and are omitted from the wire request
// when nil. The zero value is not usable; at minimum StartTime, EndTime,
// Layers and ImageScale must be set.
type MovieRequest struct {
	StartTime   time.Time
	EndTime     time.Time
	Layers      string
	Events      string
	EventLabels bool
	ImageScale  float64

	// Format defaults to mp4 when empty.
	Format    string
	FrameRate string
	MaxFrames *int

	Scale     *bool
	ScaleType *string
	ScaleX    *float64
	ScaleY    *float64

	MovieLength *float64
	Watermark   bool
	Width       *string
	Height      *string

	X0 *string
	Y0 *string
	X1 *string
	Y1 *string
	X2 *string
	Y2 *string

	Size           int
	MovieIcons     *int
	FollowViewport *int

	ReqObservationDate *time.Time
}

// OutputFormat returns the effective movie container for the request.
func (r MovieRequest) OutputFormat() string {
	if r.Format == "" {
		return FormatMP4
	}
	return r.Format
}

// Validate checks the request before submission.
func (r MovieRequest) Validate() error {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("startTime and endTime are required")
	}
	if !r.EndTime.After(r.StartTime) {
		return fmt.Errorf("endTime must be after startTime")
	}
	if r.Layers == "" {
		return fmt.Errorf("layers is required")
	}
	if r.ImageScale <= 0 {
		return fmt.Errorf("imageScale must be positive")
	}
	if !ValidFormat(r.OutputFormat()) {
		return fmt.Errorf("unknown movie format: %s", r.OutputFormat())
	}
	return nil
}

// Values encodes the request as queueMovie query parameters.
func (r MovieRequest) Values() url.Values {
	v := url.Values{}
	v.Set("startTime", r.StartTime.UTC().Format(time.RFC3339))
	v.Set("endTime", r.EndTime.UTC().Format(time.RFC3339))
	v.Set("layers", r.Layers)
	v.Set("events", r.Events)
	v.Set("eventsLabels", strconv.FormatBool(r.EventLabels))
	v.Set("imageScale", formatFloat(r.ImageScale))
	v.Set("format", r.OutputFormat())
	v.Set("watermark", strconv.FormatBool(r.Watermark))
	v.Set("size", strconv.Itoa(r.Size))

	if r.FrameRate != "" {
		v.Set("frameRate", r.FrameRate)
	}
	if r.MaxFrames != nil {
		v.Set("maxFrames", strconv.Itoa(*r.MaxFrames))
	}
	if r.Scale != nil {
		v.Set("scale", strconv.FormatBool(*r.Scale))
	}
	if r.ScaleType != nil {
		v.Set("scaleType", *r.ScaleType)
	}
	if r.ScaleX != nil {
		v.Set("scaleX", formatFloat(*r.ScaleX))
	}
	if r.ScaleY != nil {
		v.Set("scaleY", formatFloat(*r.ScaleY))
	}
	if r.MovieLength != nil {
		v.Set("movieLength", formatFloat(*r.MovieLength))
	}
	if r.Width != nil {
		v.Set("width", *r.Width)
	}
	if r.Height != nil {
		v.Set("height", *r.Height)
	}
	setIfPresent(v, "x0", r.X0)
	setIfPresent(v, "y0", r.Y0)
	setIfPresent(v, "x1", r.X1)
	setIfPresent(v, "y1", r.Y1)
	setIfPresent(v, "x2", r.X2)
	setIfPresent(v, "y2", r.Y2)
	if r.MovieIcons != nil {
		v.Set("movieIcons", strconv.Itoa(*r.MovieIcons))
	}
	if r.FollowViewport != nil {
		v.Set("followViewport", strconv.Itoa(*r.FollowViewport))
	}
	if r.ReqObservationDate != nil {
		v.Set("reqObservationDate", r.ReqObservationDate.UTC().Format(time.RFC3339))
	}

	return v
}

func setIfPresent(v url.Values, key string, s *string) {
	if s != nil {
		v.Set(key, *s)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
