package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store persists the active session.
//
// Read returns [shared.ErrNoSession] when no token is stored.
type Store interface {
	Write(ctx context.Context, token string, user models.User) error
	Read(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}

// Timestamped is implemented by stores that record when the session was last written.
//
// SavedAt returns the zero time when nothing is stored.
type Timestamped interface {
	SavedAt(ctx context.Context) (time.Time, error)
}

// TokenSource yields the bearer token for authenticated requests.
type TokenSource struct {
	store Store
}

// Tokens returns a TokenSource reading from store.
func Tokens(store Store) *TokenSource {
	return &TokenSource{store: store}
}

// Token returns the stored bearer token or [shared.ErrNoSession].
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	s, err := ts.store.Read(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// encode serializes a session into its two stored values.
func encode(token string, user models.User) (map[string]string, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", shared.ErrInvalidToken)
	}

	data, err := json.Marshal(user.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return map[string]string{KeyToken: token, KeyUser: string(data)}, nil
}

// decode rebuilds a session from stored values.
//
// A token without a user is treated as no session: nothing can be done with it.
func decode(values map[string]string) (*models.Session, error) {
	token, ok := values[KeyToken]
	if !ok || token == "" {
		return nil, shared.ErrNoSession
	}

	raw, ok := values[KeyUser]
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: token stored without a user", shared.ErrNoSession)
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptSession, err)
	}

	return &models.Session{Token: token, User: user.Clone()}, nil
}
