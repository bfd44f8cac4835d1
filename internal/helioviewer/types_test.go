package helioviewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		raw  int
		want StatusCode
	}{
		{0, StatusQueued},
		{1, StatusProcessing},
		{2, StatusComplete},
		{3, StatusFailed},
		// Forward-compatible default: unknown codes keep the poll loop
		// waiting instead of failing.
		{4, StatusQueued},
		{-1, StatusQueued},
		{99, StatusQueued},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStatus(tt.raw), "raw code %d", tt.raw)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusComplete.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("mp4"))
	assert.True(t, ValidFormat("webm"))
	assert.True(t, ValidFormat("flv"))
	assert.False(t, ValidFormat("avi"))
	assert.False(t, ValidFormat(""))
}

func TestMovieRequestValidate(t *testing.T) {
	base := testRequest()
	require.NoError(t, base.Validate())

	t.Run("missing layers", func(t *testing.T) {
		r := base
		r.Layers = ""
		assert.Error(t, r.Validate())
	})

	t.Run("end before start", func(t *testing.T) {
		r := base
		r.EndTime = r.StartTime.Add(-time.Hour)
		assert.Error(t, r.Validate())
	})

	t.Run("bad format", func(t *testing.T) {
		r := base
		r.Format = "mov"
		assert.Error(t, r.Validate())
	})

	t.Run("zero image scale", func(t *testing.T) {
		r := base
		r.ImageScale = 0
		assert.Error(t, r.Validate())
	})
}

func TestMovieRequestValues(t *testing.T) {
	r := testRequest()
	v := r.Values()

	assert.Equal(t, "2024-01-01T00:00:00Z", v.Get("startTime"))
	assert.Equal(t, "2024-01-02T00:00:00Z", v.Get("endTime"))
	assert.Equal(t, "mp4", v.Get("format"))
	assert.Equal(t, "true", v.Get("watermark"))

	// Optional params stay off the wire when unset.
	for _, key := range []string{"maxFrames", "scale", "width", "height", "x0", "movieIcons"} {
		assert.False(t, v.Has(key), "expected %s to be omitted", key)
	}

	frames := 300
	width := "1920"
	r.MaxFrames = &frames
	r.Width = &width
	v = r.Values()
	assert.Equal(t, "300", v.Get("maxFrames"))
	assert.Equal(t, "1920", v.Get("width"))
}

func TestOutputFormatDefault(t *testing.T) {
	var r MovieRequest
	assert.Equal(t, FormatMP4, r.OutputFormat())

	r.Format = FormatWebM
	assert.Equal(t, FormatWebM, r.OutputFormat())
}
