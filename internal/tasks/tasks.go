// package tasks implements the client-side workflows built on the myFlix API and the session store.
package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/flix/internal/models"
)

// MovieCache persists the last fetched catalog. Implemented by repositories.MovieRepository.
type MovieCache interface {
	ReplaceAll(ctx context.Context, movies []models.Movie) error
	List(ctx context.Context) ([]models.Movie, error)
	Get(ctx context.Context, id string) (*models.Movie, error)
	CachedAt(ctx context.Context) (time.Time, error)
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
