package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
	"github.com/jmoiron/sqlx"
)

// MovieRepository caches the movie catalog so listings work without a round trip.
type MovieRepository struct {
	db *sqlx.DB
}

type movieRow struct {
	ID               string    `db:"id"`
	Title            string    `db:"title"`
	Description      string    `db:"description"`
	GenreName        string    `db:"genre_name"`
	GenreDescription string    `db:"genre_description"`
	DirectorName     string    `db:"director_name"`
	DirectorBio      string    `db:"director_bio"`
	DirectorBorn     *string   `db:"director_birthdate"`
	DirectorDied     *string   `db:"director_deathdate"`
	ImagePath        string    `db:"image_path"`
	Featured         bool      `db:"featured"`
	Position         int       `db:"position"`
	CachedAt         time.Time `db:"cached_at"`
}

func (row movieRow) toModel() models.Movie {
	return models.Movie{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Genre:       models.Genre{Name: row.GenreName, Description: row.GenreDescription},
		Director: models.Director{
			Name:      row.DirectorName,
			Bio:       row.DirectorBio,
			Birthdate: parseCachedDate(row.DirectorBorn),
			Deathdate: parseCachedDate(row.DirectorDied),
		},
		ImagePath: row.ImagePath,
		Featured:  row.Featured,
	}
}

const movieColumns = `id, title, description, genre_name, genre_description, director_name, director_bio,
	director_birthdate, director_deathdate, image_path, featured, position, cached_at`

// cachedDate stores d as YYYY-MM-DD, or NULL when absent.
func cachedDate(d *models.Date) *string {
	if d == nil || d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func parseCachedDate(s *string) *models.Date {
	if s == nil || *s == "" {
		return nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}

// NewMovieRepository creates a new MovieRepository with the given database connection
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: wrap(db)}
}

// ReplaceAll swaps the cached catalog for movies, preserving their order.
func (r *MovieRepository) ReplaceAll(ctx context.Context, movies []models.Movie) error {
	query := `INSERT INTO movies (` + movieColumns + `)
		VALUES (:id, :title, :description, :genre_name, :genre_description, :director_name, :director_bio,
			:director_birthdate, :director_deathdate, :image_path, :featured, :position, :cached_at)`

	now := time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
			return fmt.Errorf("failed to clear movie cache: %w", err)
		}

		for i, m := range movies {
			row := movieRow{
				ID:               m.ID,
				Title:            m.Title,
				Description:      m.Description,
				GenreName:        m.Genre.Name,
				GenreDescription: m.Genre.Description,
				DirectorName:     m.Director.Name,
				DirectorBio:      m.Director.Bio,
				DirectorBorn:     cachedDate(m.Director.Birthdate),
				DirectorDied:     cachedDate(m.Director.Deathdate),
				ImagePath:        m.ImagePath,
				Featured:         m.Featured,
				Position:         i,
				CachedAt:         now,
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return fmt.Errorf("failed to cache movie %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// List returns the cached catalog in the order it was fetched.
func (r *MovieRepository) List(ctx context.Context) ([]models.Movie, error) {
	var rows []movieRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT "+movieColumns+" FROM movies ORDER BY position ASC"); err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.toModel())
	}
	return movies, nil
}

// Get returns the cached movie with id.
func (r *MovieRepository) Get(ctx context.Context, id string) (*models.Movie, error) {
	var row movieRow
	err := r.db.GetContext(ctx, &row, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	m := row.toModel()
	return &m, nil
}

// CachedAt returns when the catalog was last replaced, or the zero time if it is empty.
func (r *MovieRepository) CachedAt(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := r.db.GetContext(ctx, &at, "SELECT cached_at FROM movies ORDER BY cached_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read cache time: %w", err)
	}
	return at, nil
}
