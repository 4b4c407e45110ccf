package tasks

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/flix/internal/models"
)

// Catalog is the in-memory movie list with favorite flags derived from a user's favorites.
//
// It is safe for concurrent use; accessors return copies.
type Catalog struct {
	mu       sync.RWMutex
	views    []models.MovieView
	index    map[string]int
	cachedAt time.Time
}

// NewCatalog builds a catalog from movies, flagging every id found in favorites.
func NewCatalog(movies []models.Movie, favorites []string) *Catalog {
	c := &Catalog{
		views: make([]models.MovieView, len(movies)),
		index: make(map[string]int, len(movies)),
	}
	for i, m := range movies {
		c.views[i] = models.MovieView{Movie: m, IsFavorite: slices.Contains(favorites, m.ID)}
		c.index[m.ID] = i
	}
	return c
}

// CachedAt reports when the movies were cached. It is zero when they came straight from the API.
func (c *Catalog) CachedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cachedAt
}

// SetCachedAt marks the catalog as read from a cache written at at.
func (c *Catalog) SetCachedAt(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedAt = at
}

// Len returns the number of movies.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.views)
}

// Views returns every movie in catalog order.
func (c *Catalog) Views() []models.MovieView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.views)
}

// Favorites returns the flagged movies in catalog order.
func (c *Catalog) Favorites() []models.MovieView {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []models.MovieView{}
	for _, v := range c.views {
		if v.IsFavorite {
			out = append(out, v)
		}
	}
	return out
}

// Movie returns the movie with id.
func (c *Catalog) Movie(id string) (models.MovieView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return models.MovieView{}, false
	}
	return c.views[i], true
}

// FindByTitle returns the first movie whose title matches, ignoring case.
func (c *Catalog) FindByTitle(title string) (models.MovieView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, v := range c.views {
		if strings.EqualFold(v.Title, strings.TrimSpace(title)) {
			return v, true
		}
	}
	return models.MovieView{}, false
}

// IsFavorite reports the flag for id. A movie not in the catalog is not a favorite.
func (c *Catalog) IsFavorite(id string) bool {
	v, ok := c.Movie(id)
	return ok && v.IsFavorite
}

// SetFavorite sets the flag for id and reports whether the movie was present.
func (c *Catalog) SetFavorite(id string, favorite bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return false
	}
	c.views[i].IsFavorite = favorite
	return true
}

// Apply re-derives every flag from favorites.
func (c *Catalog) Apply(favorites []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.views {
		c.views[i].IsFavorite = slices.Contains(favorites, c.views[i].ID)
	}
}
