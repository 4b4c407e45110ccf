package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/desertthunder/flix/internal/formatter"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/time/rate"
)

// PosterOpts contains configuration for concurrent poster downloads.
type PosterOpts struct {
	OutputDir  string       // Destination directory (default: posters)
	NumWorkers int          // Concurrent downloads (default: 4, max: 8)
	RateLimit  float64      // Downloads started per second (default: 5)
	Client     *http.Client // Defaults to a client with a 30s timeout
}

// PosterResult summarizes a [DownloadPosters] run.
type PosterResult struct {
	Total        int
	Downloaded   int
	Failed       int
	Paths        map[string]string // movie ID -> written file
	Errors       map[string]error  // movie ID -> failure; movies without an ID are keyed by position and title
	ManifestPath string
}

type posterJob struct {
	movie models.Movie
}

type posterOutcome struct {
	movie models.Movie
	path  string
	err   error
}

// DownloadPosters fetches the poster of every movie into opts.OutputDir using a worker pool.
//
// Individual failures are collected in the result; only setup errors and cancellation abort the run.
// A posters.json manifest is written next to the images.
func DownloadPosters(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	movies []models.MovieView,
	opts PosterOpts,
) (*PosterResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = "posters"
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &PosterResult{
		Total:  len(movies),
		Paths:  make(map[string]string, len(movies)),
		Errors: make(map[string]error),
	}

	completed := 0
	queued := make([]models.Movie, 0, len(movies))
	for i, m := range movies {
		if strings.TrimSpace(m.ID) == "" {
			completed++
			err := fmt.Errorf("%w: movie has no ID", shared.ErrInvalidArgument)
			result.Failed++
			result.Errors[unidentifiedKey(i, m.Title)] = err
			sendProgress(progress, posterFailedUpdate(completed, len(movies), m.Title, err))
			continue
		}
		queued = append(queued, m.Movie)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan posterJob, len(queued))
	outcomes := make(chan posterOutcome, len(queued))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go posterWorker(ctx, &wg, jobs, outcomes, opts)
	}

	go func() {
		defer close(jobs)
		for _, m := range queued {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- posterJob{movie: m}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		completed++
		if o.err != nil {
			result.Failed++
			result.Errors[o.movie.ID] = o.err
			sendProgress(progress, posterFailedUpdate(completed, len(movies), o.movie.Title, o.err))
			continue
		}
		result.Downloaded++
		result.Paths[o.movie.ID] = o.path
		sendProgress(progress, posterSavedUpdate(completed, len(movies), o.movie.Title))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifest := &formatter.PosterManifest{Directory: opts.OutputDir, Downloaded: result.Paths, Failed: map[string]string{}}
	for id, err := range result.Errors {
		manifest.Failed[id] = err.Error()
	}
	path, err := formatter.WritePosterManifest(manifest)
	if err != nil {
		return result, fmt.Errorf("downloads completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = path
	return result, nil
}

func posterWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan posterJob,
	outcomes chan<- posterOutcome,
	opts PosterOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		path, err := formatter.WritePoster(ctx, opts.Client, job.movie, opts.OutputDir)
		outcomes <- posterOutcome{movie: job.movie, path: path, err: err}
	}
}

func unidentifiedKey(position int, title string) string {
	return fmt.Sprintf("#%d %s", position, title)
}
