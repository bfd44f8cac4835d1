package helioviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"heliomovie/internal/pkg/errors"
	"heliomovie/internal/pkg/logger"
)

// DefaultBaseURL points at the public Helioviewer API.
const DefaultBaseURL = "https://api.helioviewer.org"

// requestTimeout bounds each individual HTTP call, independent of the
// orchestration deadline, so a hung request cannot starve the budget.
const requestTimeout = 60 * time.Second

// Client talks to the Helioviewer movie API over HTTP.
type Client struct {
	baseURL string
	hc      *http.Client
	log     *logger.Logger
}

func NewClient(baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: requestTimeout},
		log:     log.WithComponent("helioviewer"),
	}
}

type queueMovieResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	ETA   int64  `json:"eta"`
	Queue int    `json:"queue"`
	Error string `json:"error"`
}

type movieStatusResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// QueueMovie submits the movie job and returns its handle.
// A non-empty error field in the response is surfaced verbatim as a
// remote error; there are no retries at this layer.
func (c *Client) QueueMovie(ctx context.Context, req MovieRequest) (JobHandle, error) {
	const op = "helioviewer.queue"

	if err := req.Validate(); err != nil {
		return JobHandle{}, errors.WrapWithCode(err, errors.CodeValidation, op, "invalid movie request")
	}

	body, err := c.get(ctx, "/v2/queueMovie/", req.Values())
	if err != nil {
		return JobHandle{}, errors.Wrap(err, op, "queueMovie request failed")
	}

	var resp queueMovieResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return JobHandle{}, errors.WrapWithCode(err, errors.CodeTransport, op, "malformed queueMovie response")
	}
	if resp.Error != "" {
		return JobHandle{}, errors.Remote(resp.Error)
	}
	if resp.ID == "" || resp.Token == "" {
		return JobHandle{}, errors.New(errors.CodeTransport, "queueMovie response missing id or token")
	}

	c.log.Debug("movie queued", "id", resp.ID, "eta_s", resp.ETA, "queue_position", resp.Queue)
	return JobHandle{ID: resp.ID, Token: resp.Token}, nil
}

// GetMovieStatus performs exactly one status query for the job.
// It classifies the raw code but leaves terminal-failure handling to
// the caller, which owns the polling policy.
func (c *Client) GetMovieStatus(ctx context.Context, h JobHandle, format string) (MovieStatus, error) {
	const op = "helioviewer.status"

	v := url.Values{}
	v.Set("id", h.ID)
	v.Set("format", format)
	v.Set("token", h.Token)

	body, err := c.get(ctx, "/v2/getMovieStatus/", v)
	if err != nil {
		return MovieStatus{}, errors.Wrap(err, op, "getMovieStatus request failed")
	}

	var resp movieStatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return MovieStatus{}, errors.WrapWithCode(err, errors.CodeTransport, op, "malformed getMovieStatus response")
	}

	return MovieStatus{
		Code:    ClassifyStatus(resp.Status),
		RawCode: resp.Status,
		Error:   resp.Error,
	}, nil
}

// DownloadMovie fetches the finished movie's bytes. The hq flag requests
// a higher-quality file; the service only honors it for mp4 and silently
// ignores it otherwise, so it is always passed through.
func (c *Client) DownloadMovie(ctx context.Context, h JobHandle, format string, hq bool) ([]byte, error) {
	const op = "helioviewer.download"

	v := url.Values{}
	v.Set("id", h.ID)
	v.Set("format", format)
	v.Set("hq", strconv.FormatBool(hq))

	body, contentType, err := c.getRaw(ctx, "/v2/downloadMovie/", v)
	if err != nil {
		return nil, errors.Wrap(err, op, "downloadMovie request failed")
	}

	// The service answers a JSON envelope instead of bytes when the
	// download itself fails.
	if strings.Contains(contentType, "application/json") {
		var resp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &resp) == nil && resp.Error != "" {
			return nil, errors.Remote(resp.Error)
		}
	}

	c.log.Debug("movie downloaded", "id", h.ID, "bytes", len(body))
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, v url.Values) ([]byte, error) {
	body, _, err := c.getRaw(ctx, path, v)
	return body, err
}

func (c *Client) getRaw(ctx context.Context, path string, v url.Values) ([]byte, string, error) {
	u := c.baseURL + path + "?" + v.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.CodeTransport, "helioviewer.request", "building request failed")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", errors.WrapWithCode(err, errors.CodeTransport, "helioviewer.request", "request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, "", errors.Newf(errors.CodeTransport, "helioviewer http %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", errors.WrapWithCode(err, errors.CodeTransport, "helioviewer.request",
			fmt.Sprintf("reading response for %s failed", path))
	}

	return body, res.Header.Get("Content-Type"), nil
}
