// myFlix endpoints.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// segment escapes one path segment, rejecting blanks so a call never hits the collection route by accident.
func segment(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s is required", shared.ErrValidation, name)
	}
	return url.PathEscape(value), nil
}

// Register creates an account. Calls POST /users.
//
// Validation runs before any request is made.
func (a *APIService) Register(ctx context.Context, details models.UserDetails) (*models.AuthResponse, error) {
	body, err := NormalizeUserDetails(details)
	if err != nil {
		return nil, err
	}

	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/users", false, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token. Calls POST /login.
//
// Rejected credentials (400 or 401) also wrap [shared.ErrAuthFailed].
func (a *APIService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := a.do(ctx, http.MethodPost, "/login", false, creds, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "login response carried no token", Err: shared.ErrMalformedResponse}
	}
	return &resp, nil
}

// GetUser calls GET /users/{username}.
func (a *APIService) GetUser(ctx context.Context, username string) (*models.User, error) {
	u, err := segment("username", username)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := a.do(ctx, http.MethodGet, "/users/"+u, true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EditUser calls PUT /users/{username} with the non-empty fields of update.
func (a *APIService) EditUser(ctx context.Context, username string, update models.UserUpdate) (*models.User, error) {
	u, err := segment("username", username)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := a.do(ctx, http.MethodPut, "/users/"+u, true, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser calls DELETE /users/{username}. The server answers with plain text, which is discarded.
func (a *APIService) DeleteUser(ctx context.Context, username string) error {
	u, err := segment("username", username)
	if err != nil {
		return err
	}
	return a.do(ctx, http.MethodDelete, "/users/"+u, true, nil, nil)
}

// GetAllMovies calls GET /movies.
func (a *APIService) GetAllMovies(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	if err := a.do(ctx, http.MethodGet, "/movies", true, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMovie calls GET /movies/{title}.
func (a *APIService) GetMovie(ctx context.Context, title string) (*models.Movie, error) {
	t, err := segment("title", title)
	if err != nil {
		return nil, err
	}

	var movie models.Movie
	if err := a.do(ctx, http.MethodGet, "/movies/"+t, true, nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetDirector calls GET /movies/Director/{name}.
func (a *APIService) GetDirector(ctx context.Context, name string) (*models.Director, error) {
	n, err := segment("director name", name)
	if err != nil {
		return nil, err
	}

	var director models.Director
	if err := a.do(ctx, http.MethodGet, "/movies/Director/"+n, true, nil, &director); err != nil {
		return nil, err
	}
	return &director, nil
}

// GetGenre calls GET /movies/Genre/{name}.
func (a *APIService) GetGenre(ctx context.Context, name string) (*models.Genre, error) {
	n, err := segment("genre name", name)
	if err != nil {
		return nil, err
	}

	var genre models.Genre
	if err := a.do(ctx, http.MethodGet, "/movies/Genre/"+n, true, nil, &genre); err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetFavoriteMovies calls GET /users/{username}/movies.
func (a *APIService) GetFavoriteMovies(ctx context.Context, username string) ([]models.Movie, error) {
	u, err := segment("username", username)
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	if err := a.do(ctx, http.MethodGet, "/users/"+u+"/movies", true, nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// AddFavorite calls POST /users/{username}/movies/{movieID} and returns the updated user.
func (a *APIService) AddFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return a.favorite(ctx, http.MethodPost, username, movieID)
}

// RemoveFavorite calls DELETE /users/{username}/movies/{movieID} and returns the updated user.
func (a *APIService) RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return a.favorite(ctx, http.MethodDelete, username, movieID)
}

func (a *APIService) favorite(ctx context.Context, method, username, movieID string) (*models.User, error) {
	u, err := segment("username", username)
	if err != nil {
		return nil, err
	}
	m, err := segment("movie id", movieID)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := a.do(ctx, method, "/users/"+u+"/movies/"+m, true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
