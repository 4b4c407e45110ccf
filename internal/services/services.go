// package services implements the HTTP client for the myFlix REST API
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// DefaultBaseURL is the hosted myFlix API.
const DefaultBaseURL = "https://my-movies-flix-app-56f9661dc035.herokuapp.com"

// TokenSource supplies the bearer token attached to authenticated requests.
//
// Token returns an error wrapping [shared.ErrNoSession] when no one is logged in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// MovieAPI is the set of myFlix operations consumed by the task layer.
type MovieAPI interface {
	Register(ctx context.Context, details models.UserDetails) (*models.AuthResponse, error)
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)

	GetUser(ctx context.Context, username string) (*models.User, error)
	EditUser(ctx context.Context, username string, update models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error

	GetAllMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, title string) (*models.Movie, error)
	GetDirector(ctx context.Context, name string) (*models.Director, error)
	GetGenre(ctx context.Context, name string) (*models.Genre, error)

	GetFavoriteMovies(ctx context.Context, username string) ([]models.Movie, error)
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
}

var _ MovieAPI = (*APIService)(nil)

// StaticToken is a [TokenSource] for a token that is not (yet) persisted, e.g. during session import.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty token", shared.ErrNoSession)
	}
	return string(s), nil
}
