package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

// ExportKind selects what [Library.Snapshot] collects.
type ExportKind int

const (
	ExportFavorites ExportKind = iota
	ExportCatalog
)

func (k ExportKind) String() string {
	if k == ExportCatalog {
		return "catalog"
	}
	return "favorites"
}

// Snapshot is a point-in-time copy of the session user and their movies.
type Snapshot struct {
	Kind       ExportKind
	ExportedAt time.Time
	User       models.User
	Movies     []models.MovieView
}

// LoadOpts controls where [Library.Catalog] reads movies from.
type LoadOpts struct {
	Offline bool // Read only from the cache
}

// Library loads the movie catalog for the session user.
type Library struct {
	api    services.MovieAPI
	store  session.Store
	cache  MovieCache
	logger *log.Logger
}

// NewLibrary creates a Library. cache may be nil.
func NewLibrary(api services.MovieAPI, store session.Store, cache MovieCache, logger *log.Logger) *Library {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Library{api: api, store: store, cache: cache, logger: logger}
}

// Catalog fetches every movie and flags the session user's favorites.
//
// Fetched movies replace the cache. When the API cannot be reached, a non-empty cache is used instead.
func (l *Library) Catalog(ctx context.Context, opts LoadOpts) (*Catalog, error) {
	sess, err := l.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	movies, cachedAt, err := l.movies(ctx, opts, nil, 1, 1)
	if err != nil {
		return nil, err
	}

	c := NewCatalog(movies, sess.User.FavoriteMovies)
	c.SetCachedAt(cachedAt)
	return c, nil
}

// movies returns the catalog movies and, when they were read from the cache, when it was written.
func (l *Library) movies(ctx context.Context, opts LoadOpts, progress chan<- ProgressUpdate, step, total int) ([]models.Movie, time.Time, error) {
	if opts.Offline {
		return l.cached(ctx, progress, step, total)
	}

	sendProgress(progress, fetchMoviesUpdate(step, total))
	movies, err := l.api.GetAllMovies(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrAPIRequest) && l.cache != nil {
			if cached, at, cerr := l.cached(ctx, progress, step, total); cerr == nil && len(cached) > 0 {
				l.logger.Warn("API unreachable, using cached catalog", "error", err, "movies", len(cached), "cached_at", at)
				return cached, at, nil
			}
		}
		return nil, time.Time{}, err
	}

	if l.cache != nil {
		if err := l.cache.ReplaceAll(ctx, movies); err != nil {
			l.logger.Warn("failed to cache catalog", "error", err)
		}
	}
	return movies, time.Time{}, nil
}

func (l *Library) cached(ctx context.Context, progress chan<- ProgressUpdate, step, total int) ([]models.Movie, time.Time, error) {
	if l.cache == nil {
		return nil, time.Time{}, fmt.Errorf("%w: no movie cache configured", shared.ErrServiceUnavailable)
	}
	movies, err := l.cache.List(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	at, err := l.cache.CachedAt(ctx)
	if err != nil {
		l.logger.Warn("failed to read cache age", "error", err)
	}
	l.logger.Debug("read cached catalog", "movies", len(movies), "cached_at", at)
	sendProgress(progress, cachedMoviesUpdate(step, total, len(movies)))
	return movies, at, nil
}

// CachedMovie looks up a movie in the cache by id, then by title.
func (l *Library) CachedMovie(ctx context.Context, idOrTitle string) (*models.Movie, error) {
	if l.cache == nil {
		return nil, fmt.Errorf("%w: no movie cache configured", shared.ErrServiceUnavailable)
	}

	m, err := l.cache.Get(ctx, idOrTitle)
	if err == nil || !errors.Is(err, shared.ErrMovieNotFound) {
		return m, err
	}

	movies, lerr := l.cache.List(ctx)
	if lerr != nil {
		return nil, lerr
	}
	for _, cached := range movies {
		if strings.EqualFold(cached.Title, strings.TrimSpace(idOrTitle)) {
			return &cached, nil
		}
	}
	return nil, err
}

// Favorites returns the session user's favorite movies.
//
// With remote set the server's view (GET /users/{username}/movies) is returned; otherwise the
// full catalog is filtered by the cached favorite ids.
func (l *Library) Favorites(ctx context.Context, remote bool) ([]models.MovieView, error) {
	if !remote {
		c, err := l.Catalog(ctx, LoadOpts{})
		if err != nil {
			return nil, err
		}
		return c.Favorites(), nil
	}

	sess, err := l.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	movies, err := l.api.GetFavoriteMovies(ctx, sess.User.Username)
	if err != nil {
		return nil, err
	}

	views := make([]models.MovieView, len(movies))
	for i, m := range movies {
		views[i] = models.MovieView{Movie: m, IsFavorite: true}
	}
	return views, nil
}

// Snapshot refreshes the session user, loads the catalog and returns the movies selected by kind.
//
// The refreshed user replaces the cached record so the export and the session agree.
func (l *Library) Snapshot(ctx context.Context, progress chan<- ProgressUpdate, kind ExportKind) (*Snapshot, error) {
	return l.snapshot(ctx, progress, kind, 3)
}

func (l *Library) snapshot(ctx context.Context, progress chan<- ProgressUpdate, kind ExportKind, total int) (*Snapshot, error) {
	sess, err := l.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, fetchProfileUpdate(1, total, sess.User.Username))
	user, err := l.api.GetUser(ctx, sess.User.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if err := l.store.Write(ctx, sess.Token, *user); err != nil {
		l.logger.Warn("failed to update cached user", "error", err)
	}

	movies, _, err := l.movies(ctx, LoadOpts{}, progress, 2, total)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch movies: %w", err)
	}

	catalog := NewCatalog(movies, user.FavoriteMovies)
	sendProgress(progress, buildCatalogUpdate(3, total, catalog))

	snap := &Snapshot{Kind: kind, ExportedAt: time.Now().UTC(), User: user.Clone(), Movies: catalog.Views()}
	if kind == ExportFavorites {
		snap.Movies = catalog.Favorites()
	}
	return snap, nil
}
