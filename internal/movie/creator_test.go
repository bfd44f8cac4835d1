package movie

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heliomovie/internal/adapters/storage/localfs"
	"heliomovie/internal/helioviewer"
	"heliomovie/internal/pkg/errors"
	"heliomovie/internal/ports"
)

// fakeAPI scripts the rendering service: statuses are served in order and
// the last one repeats forever.
type fakeAPI struct {
	handle   helioviewer.JobHandle
	queueErr error

	statuses  []helioviewer.MovieStatus
	statusErr error

	data        []byte
	downloadErr error

	queueCalls    int
	statusCalls   int
	downloadCalls int
}

func (f *fakeAPI) QueueMovie(ctx context.Context, req helioviewer.MovieRequest) (helioviewer.JobHandle, error) {
	f.queueCalls++
	if f.queueErr != nil {
		return helioviewer.JobHandle{}, f.queueErr
	}
	return f.handle, nil
}

func (f *fakeAPI) GetMovieStatus(ctx context.Context, h helioviewer.JobHandle, format string) (helioviewer.MovieStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return helioviewer.MovieStatus{}, f.statusErr
	}
	idx := f.statusCalls - 1
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	return f.statuses[idx], nil
}

func (f *fakeAPI) DownloadMovie(ctx context.Context, h helioviewer.JobHandle, format string, hq bool) ([]byte, error) {
	f.downloadCalls++
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.data, nil
}

func status(raw int, msg string) helioviewer.MovieStatus {
	return helioviewer.MovieStatus{Code: helioviewer.ClassifyStatus(raw), RawCode: raw, Error: msg}
}

func testRequest() helioviewer.MovieRequest {
	return helioviewer.MovieRequest{
		StartTime:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Layers:      "[10,1,100]",
		ImageScale:  2.4,
		EventLabels: true,
		Watermark:   true,
	}
}

func newTestCreator(t *testing.T, api API) (*Creator, ports.StorageProvider) {
	t.Helper()
	store := localfs.New(t.TempDir())
	c := New(Deps{
		API:          api,
		Store:        store,
		PollInterval: 5 * time.Millisecond,
	})
	return c, store
}

func readObject(t *testing.T, store ports.StorageProvider, key string) string {
	t.Helper()
	rc, _, _, err := store.GetObject(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestCreateMovie(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "42", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(0, ""), status(1, ""), status(2, "")},
		data:     []byte("movie-bytes"),
	}
	c, store := newTestCreator(t, api)

	path, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

	require.NoError(t, err)
	assert.Equal(t, "42_2024-01-01_2024-01-02.mp4", path)
	assert.Equal(t, 1, api.queueCalls)
	assert.Equal(t, 3, api.statusCalls)
	assert.Equal(t, 1, api.downloadCalls)
	assert.Equal(t, "movie-bytes", readObject(t, store, path))
}

func TestCreateMovieCompleteOnFirstPoll(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "a1", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(2, "")},
		data:     []byte("x"),
	}
	c, _ := newTestCreator(t, api)

	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

	require.NoError(t, err)
	assert.Equal(t, 1, api.statusCalls, "complete status must end polling immediately")
	assert.Equal(t, 1, api.downloadCalls, "exactly one download per completed job")
}

func TestCreateMovieSubmitError(t *testing.T) {
	api := &fakeAPI{queueErr: errors.Remote("Invalid layer string")}
	c, _ := newTestCreator(t, api)

	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

	require.Error(t, err)
	assert.True(t, errors.IsRemote(err))
	assert.Equal(t, 0, api.statusCalls, "submit failure must prevent polling")
	assert.Equal(t, 0, api.downloadCalls, "submit failure must prevent download")
}

func TestCreateMovieFailedStatus(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "b2", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(1, ""), status(3, "Frame rendering crashed")},
	}
	c, _ := newTestCreator(t, api)

	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

	require.Error(t, err)
	assert.True(t, errors.IsRemote(err))

	var domErr *errors.Error
	require.True(t, errors.As(err, &domErr))
	assert.Equal(t, "Frame rendering crashed", domErr.Message, "service message must pass through unmodified")
	assert.Equal(t, 0, api.downloadCalls, "failed status must prevent download")
}

func TestCreateMovieTimeout(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "c3", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(0, "")},
	}
	c, _ := newTestCreator(t, api)

	start := time.Now()
	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: 20 * time.Millisecond})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, elapsed, time.Second, "timeout must fire within one poll interval of slack")
	assert.Equal(t, 0, api.downloadCalls)
}

func TestCreateMovieUnknownStatusKeepsWaiting(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "d4", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(7, ""), status(99, ""), status(2, "")},
		data:     []byte("x"),
	}
	c, _ := newTestCreator(t, api)

	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

	require.NoError(t, err, "unknown status codes must not fail the run")
	assert.Equal(t, 3, api.statusCalls)
}

func TestCreateMovieTerminalStatusBeatsDeadline(t *testing.T) {
	// The first poll burns the whole budget; the second discovers Complete.
	// The deadline check happens only after a non-terminal status, so the
	// late Complete still wins.
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "e5", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(1, ""), status(2, "")},
		data:     []byte("x"),
	}
	store := localfs.New(t.TempDir())
	c := New(Deps{API: api, Store: store, PollInterval: 30 * time.Millisecond})

	_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: 10 * time.Millisecond})

	// One 30ms sleep exceeds the 10ms budget, so the run times out before
	// the second poll can observe Complete.
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))

	// But when Complete arrives on the first poll past the deadline, it wins.
	api2 := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "e6", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(2, "")},
		data:     []byte("x"),
	}
	c2 := New(Deps{API: api2, Store: store, PollInterval: 30 * time.Millisecond})
	_, err = c2.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Nanosecond})
	require.NoError(t, err)
}

func TestCreateMovieCancellation(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "f6", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(0, "")},
	}
	store := localfs.New(t.TempDir())
	c := New(Deps{API: api, Store: store, PollInterval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.CreateMovie(ctx, testRequest(), Options{Timeout: time.Minute})

	require.Error(t, err)
	assert.Equal(t, errors.CodeCancelled, errors.GetCode(err))
}

func TestCreateMovieCallerFilename(t *testing.T) {
	api := &fakeAPI{
		handle:   helioviewer.JobHandle{ID: "g7", Token: "tok"},
		statuses: []helioviewer.MovieStatus{status(2, "")},
		data:     []byte("x"),
	}
	c, _ := newTestCreator(t, api)

	req := testRequest()
	req.Format = helioviewer.FormatWebM
	path, err := c.CreateMovie(context.Background(), req, Options{Filename: "movie", Timeout: time.Minute})

	require.NoError(t, err)
	assert.Equal(t, "movie.webm", path)
}

func TestCreateMovieOverwrite(t *testing.T) {
	newAPI := func() *fakeAPI {
		return &fakeAPI{
			handle:   helioviewer.JobHandle{ID: "h8", Token: "tok"},
			statuses: []helioviewer.MovieStatus{status(2, "")},
			data:     []byte("fresh-bytes"),
		}
	}

	t.Run("existing target without overwrite fails", func(t *testing.T) {
		c, store := newTestCreator(t, newAPI())
		seedObject(t, store, "h8_2024-01-01_2024-01-02.mp4", "stale")

		_, err := c.CreateMovie(context.Background(), testRequest(), Options{Timeout: time.Minute})

		require.Error(t, err)
		assert.True(t, errors.IsConflict(err))
		assert.Equal(t, "stale", readObject(t, store, "h8_2024-01-01_2024-01-02.mp4"))
	})

	t.Run("existing target with overwrite is replaced", func(t *testing.T) {
		c, store := newTestCreator(t, newAPI())
		seedObject(t, store, "h8_2024-01-01_2024-01-02.mp4", "stale")

		path, err := c.CreateMovie(context.Background(), testRequest(), Options{Overwrite: true, Timeout: time.Minute})

		require.NoError(t, err)
		assert.Equal(t, "fresh-bytes", readObject(t, store, path))
	})
}

func seedObject(t *testing.T, store ports.StorageProvider, key, content string) {
	t.Helper()
	_, err := store.PutObject(context.Background(), ports.PutObjectInput{
		ObjectKey: key,
		Reader:    strings.NewReader(content),
		Size:      int64(len(content)),
		Overwrite: true,
	})
	require.NoError(t, err)
}
