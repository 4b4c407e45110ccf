package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

// FavoritesAPI is the remote half of a favorite toggle.
type FavoritesAPI interface {
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
}

// Outcome describes what a favorite mutation did.
type Outcome int

const (
	NoSession Outcome = iota
	Added
	Removed
)

func (o Outcome) String() string {
	switch o {
	case NoSession:
		return "no session"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return ""
	}
}

// ToggleResult reports a completed favorite mutation.
type ToggleResult struct {
	Outcome    Outcome
	MovieID    string
	IsFavorite bool
	User       models.User // Cached user after the change
}

type direction int

const (
	toggle direction = iota
	add
	remove
)

// Synchronizer keeps the remote favorites, the cached session user and a [Catalog] in step.
//
// Mutations for the same username run one at a time.
type Synchronizer struct {
	api    FavoritesAPI
	store  session.Store
	logger *log.Logger
	locks  *keyedLock
}

// NewSynchronizer creates a Synchronizer. A nil logger writes to stderr.
func NewSynchronizer(api FavoritesAPI, store session.Store, logger *log.Logger) *Synchronizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Synchronizer{api: api, store: store, logger: logger, locks: newKeyedLock()}
}

// Toggle flips the favorite status of movieID.
//
// The current status comes from catalog; a movie missing from it counts as not favorite.
// With a nil catalog the cached user's favorite list decides.
func (s *Synchronizer) Toggle(ctx context.Context, catalog *Catalog, movieID string) (*ToggleResult, error) {
	return s.mutate(ctx, catalog, movieID, toggle)
}

// Add marks movieID as a favorite regardless of its current flag.
func (s *Synchronizer) Add(ctx context.Context, catalog *Catalog, movieID string) (*ToggleResult, error) {
	return s.mutate(ctx, catalog, movieID, add)
}

// Remove unmarks movieID. The remote call is made even when the id is not cached as a favorite.
func (s *Synchronizer) Remove(ctx context.Context, catalog *Catalog, movieID string) (*ToggleResult, error) {
	return s.mutate(ctx, catalog, movieID, remove)
}

func (s *Synchronizer) mutate(ctx context.Context, catalog *Catalog, movieID string, dir direction) (*ToggleResult, error) {
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie id is required", shared.ErrMissingArgument)
	}

	sess, err := s.store.Read(ctx)
	if errors.Is(err, shared.ErrNoSession) {
		return &ToggleResult{Outcome: NoSession, MovieID: movieID}, nil
	}
	if err != nil {
		return nil, err
	}

	unlock, err := s.locks.lock(ctx, sess.User.Username)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// The session may have changed while waiting for the lock.
	sess, err = s.store.Read(ctx)
	if errors.Is(err, shared.ErrNoSession) {
		return &ToggleResult{Outcome: NoSession, MovieID: movieID}, nil
	}
	if err != nil {
		return nil, err
	}

	removing := dir == remove
	if dir == toggle {
		if catalog != nil {
			removing = catalog.IsFavorite(movieID)
		} else {
			removing = sess.User.HasFavorite(movieID)
		}
	}

	username := sess.User.Username
	var updated models.User
	if removing {
		if _, err := s.api.RemoveFavorite(ctx, username, movieID); err != nil {
			s.logger.Warn("remove favorite failed", "user", username, "movie", movieID, "error", err)
			return nil, err
		}
		updated = sess.User.WithoutFavorite(movieID)
	} else {
		if _, err := s.api.AddFavorite(ctx, username, movieID); err != nil {
			s.logger.Warn("add favorite failed", "user", username, "movie", movieID, "error", err)
			return nil, err
		}
		updated = sess.User.WithFavorite(movieID)
	}

	result := &ToggleResult{Outcome: Added, MovieID: movieID, IsFavorite: !removing, User: updated}
	if removing {
		result.Outcome = Removed
	}

	writeErr := s.store.Write(ctx, sess.Token, updated)
	if catalog != nil {
		catalog.SetFavorite(movieID, !removing)
	}
	if writeErr != nil {
		return result, fmt.Errorf("favorite %s on server but the session could not be saved: %w", result.Outcome, writeErr)
	}

	s.logger.Info("favorite updated", "user", username, "movie", movieID, "outcome", result.Outcome)
	return result, nil
}
