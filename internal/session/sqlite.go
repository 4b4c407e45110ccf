package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/shared"
)

// SQLiteStore is the durable [Store].
type SQLiteStore struct {
	repo   *repositories.SessionRepository
	logger *log.Logger
}

// NewSQLiteStore creates a store over a migrated database.
func NewSQLiteStore(db *sql.DB, logger *log.Logger) *SQLiteStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SQLiteStore{repo: repositories.NewSessionRepository(db), logger: logger}
}

func (s *SQLiteStore) Write(ctx context.Context, token string, user models.User) error {
	values, err := encode(token, user)
	if err != nil {
		return err
	}

	if err := s.repo.Put(ctx, values); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}

	s.logger.Debug("session written", "user", user.Username, "favorites", len(user.FavoriteMovies))
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context) (*models.Session, error) {
	values, err := s.repo.Get(ctx, KeyToken, KeyUser)
	if err != nil {
		return nil, err
	}
	return decode(values)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, KeyToken, KeyUser); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreUnwritable, err)
	}
	s.logger.Debug("session cleared")
	return nil
}

// SavedAt returns when the token was last written.
func (s *SQLiteStore) SavedAt(ctx context.Context) (time.Time, error) {
	return s.repo.UpdatedAt(ctx, KeyToken)
}
