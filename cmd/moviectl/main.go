// moviectl queues a movie on the rendering service, waits for it to finish
// and saves the result to a local file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"heliomovie/internal/adapters/storage/localfs"
	"heliomovie/internal/helioviewer"
	"heliomovie/internal/movie"
	"heliomovie/internal/pkg/config"
	"heliomovie/internal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		start       = flag.String("start", "", "start of the time range (RFC3339, required)")
		end         = flag.String("end", "", "end of the time range (RFC3339, required)")
		layers      = flag.String("layers", "", "image layers string, e.g. \"[10,1,100]\" (required)")
		events      = flag.String("events", "", "event overlays string, e.g. \"[AR,all,1]\"")
		eventLabels = flag.Bool("event-labels", false, "render event labels")
		imageScale  = flag.Float64("image-scale", 0, "image scale in arcseconds per pixel (required)")
		format      = flag.String("format", helioviewer.FormatMP4, "movie container: mp4, webm or flv")
		filename    = flag.String("filename", "", "output basename; extension is appended (default: derived from job)")
		outDir      = flag.String("out", ".", "directory to save the movie into")
		overwrite   = flag.Bool("overwrite", false, "replace the output file if it exists")
		hq          = flag.Bool("hq", false, "download the higher-quality file (mp4 only)")
		timeoutMin  = flag.Float64("timeout", 5, "minutes to wait for the movie")
	)
	flag.Parse()

	log := logger.New(logger.Config{
		Level:       config.Env("LOG_LEVEL", "warn"),
		Format:      "text",
		ServiceName: "moviectl",
	})

	startTime, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		fatalf("invalid -start: %v", err)
	}
	endTime, err := time.Parse(time.RFC3339, *end)
	if err != nil {
		fatalf("invalid -end: %v", err)
	}

	req := helioviewer.MovieRequest{
		StartTime:   startTime,
		EndTime:     endTime,
		Layers:      *layers,
		Events:      *events,
		EventLabels: *eventLabels,
		ImageScale:  *imageScale,
		Format:      *format,
		Watermark:   true,
	}
	if err := req.Validate(); err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseURL := config.Env("HELIOVIEWER_BASE_URL", helioviewer.DefaultBaseURL)
	creator := movie.New(movie.Deps{
		API:   helioviewer.NewClient(baseURL, log),
		Store: localfs.New(*outDir),
		Log:   log,
	})

	path, err := creator.CreateMovie(ctx, req, movie.Options{
		Overwrite:   *overwrite,
		Filename:    *filename,
		HighQuality: *hq,
		Timeout:     time.Duration(*timeoutMin * float64(time.Minute)),
	})
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Println(filepath.Join(*outDir, path))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "moviectl: "+format+"\n", args...)
	os.Exit(1)
}
