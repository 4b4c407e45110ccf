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

// Transition is the authentication state change a flow asks the caller to perform.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionAuthenticated
	TransitionUnauthenticated
)

func (t Transition) String() string {
	switch t {
	case TransitionAuthenticated:
		return "authenticated"
	case TransitionUnauthenticated:
		return "unauthenticated"
	default:
		return "none"
	}
}

// ProfileEdit holds the fields of a profile update. Empty optional fields are left unchanged.
type ProfileEdit struct {
	Username string
	Password string
	Email    string
	Birthday *models.Date
}

// Status describes the stored session.
type Status struct {
	LoggedIn  bool
	User      models.User
	Token     *shared.TokenInfo // nil when the token cannot be decoded
	Expired   bool
	Remaining time.Duration
	SavedAt   time.Time // zero when the store does not record it
}

// Flows implements registration, login, logout and account management on top of the API client and a [session.Store].
type Flows struct {
	api    services.MovieAPI
	store  session.Store
	logger *log.Logger

	// Scope returns a client that authenticates with token instead of the store. Used by Import.
	Scope func(token string) services.MovieAPI

	now func() time.Time
}

// NewFlows creates the auth flows. When api is an [*services.APIService], Import is wired automatically.
func NewFlows(api services.MovieAPI, store session.Store, logger *log.Logger) *Flows {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	f := &Flows{api: api, store: store, logger: logger, now: time.Now}
	if svc, ok := api.(*services.APIService); ok {
		f.Scope = func(token string) services.MovieAPI {
			return svc.WithTokens(services.StaticToken(token))
		}
	}
	return f
}

// Register validates details, creates the account and stores the returned session.
func (f *Flows) Register(ctx context.Context, details models.UserDetails) (*models.Session, Transition, error) {
	normalized, err := services.NormalizeUserDetails(details)
	if err != nil {
		return nil, TransitionNone, err
	}

	resp, err := f.api.Register(ctx, normalized)
	if err != nil {
		return nil, TransitionNone, err
	}
	return f.persist(ctx, resp, "registered")
}

// Login exchanges credentials for a session. Server messages are returned unchanged.
func (f *Flows) Login(ctx context.Context, username, password string) (*models.Session, Transition, error) {
	resp, err := f.api.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return nil, TransitionNone, err
	}
	return f.persist(ctx, resp, "logged in")
}

func (f *Flows) persist(ctx context.Context, resp *models.AuthResponse, event string) (*models.Session, Transition, error) {
	if err := f.store.Write(ctx, resp.Token, resp.User); err != nil {
		return nil, TransitionNone, err
	}
	f.logger.Info(event, "user", resp.User.Username)
	return &models.Session{Token: resp.Token, User: resp.User.Clone()}, TransitionAuthenticated, nil
}

// Logout clears the local session. The server is not contacted.
func (f *Flows) Logout(ctx context.Context) (Transition, error) {
	if err := f.store.Clear(ctx); err != nil {
		return TransitionNone, err
	}
	f.logger.Info("logged out")
	return TransitionUnauthenticated, nil
}

// DeleteAccount deletes the session user on the server, then clears the session.
//
// The session is kept when the server refuses.
func (f *Flows) DeleteAccount(ctx context.Context) (Transition, error) {
	sess, err := f.store.Read(ctx)
	if err != nil {
		return TransitionNone, err
	}

	if err := f.api.DeleteUser(ctx, sess.User.Username); err != nil {
		return TransitionNone, err
	}

	if err := f.store.Clear(ctx); err != nil {
		return TransitionNone, err
	}
	f.logger.Info("account deleted", "user", sess.User.Username)
	return TransitionUnauthenticated, nil
}

// EditProfile sends the non-empty fields of edit and replaces the cached user with the response.
//
// The username is required; the password is sent only when set.
func (f *Flows) EditProfile(ctx context.Context, edit ProfileEdit) (*models.User, error) {
	sess, err := f.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	update := models.UserUpdate{
		Username: strings.TrimSpace(edit.Username),
		Password: edit.Password,
		Email:    strings.ToLower(strings.TrimSpace(edit.Email)),
		Birthday: edit.Birthday,
	}
	if update.Username == "" {
		return nil, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if update.Email != "" && !services.ValidEmail(update.Email) {
		return nil, fmt.Errorf("%w: invalid email address %q", shared.ErrValidation, edit.Email)
	}

	updated, err := f.api.EditUser(ctx, sess.User.Username, update)
	if err != nil {
		return nil, err
	}

	if err := f.store.Write(ctx, sess.Token, *updated); err != nil {
		return nil, err
	}
	f.logger.Info("profile updated", "user", updated.Username)

	out := updated.Clone()
	return &out, nil
}

// Refresh fetches the session user from the server and replaces the cached record.
func (f *Flows) Refresh(ctx context.Context) (*models.User, error) {
	sess, err := f.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	user, err := f.api.GetUser(ctx, sess.User.Username)
	if err != nil {
		return nil, err
	}

	if err := f.store.Write(ctx, sess.Token, *user); err != nil {
		return nil, err
	}

	out := user.Clone()
	return &out, nil
}

// Import seeds the session from a bearer token obtained elsewhere (e.g. a browser request).
//
// The username is read from the token and the user record is fetched with that token before anything is stored.
func (f *Flows) Import(ctx context.Context, token string) (*models.Session, Transition, error) {
	info, err := shared.InspectToken(token)
	if err != nil {
		return nil, TransitionNone, err
	}
	if info.Username == "" {
		return nil, TransitionNone, fmt.Errorf("%w: token carries no username", shared.ErrInvalidToken)
	}
	if info.Expired(f.now()) {
		return nil, TransitionNone, fmt.Errorf("%w: expired at %s", shared.ErrTokenExpired, info.ExpiresAt.Format(time.RFC3339))
	}
	if f.Scope == nil {
		return nil, TransitionNone, fmt.Errorf("%w: session import", shared.ErrNotImplemented)
	}

	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	user, err := f.Scope(raw).GetUser(ctx, info.Username)
	if err != nil {
		return nil, TransitionNone, err
	}
	return f.persist(ctx, &models.AuthResponse{Token: raw, User: *user}, "session imported")
}

// Status reports whether a session is stored and, when it is, who it belongs to and when it expires.
func (f *Flows) Status(ctx context.Context) (*Status, error) {
	sess, err := f.store.Read(ctx)
	if errors.Is(err, shared.ErrNoSession) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, err
	}

	st := &Status{LoggedIn: true, User: sess.User}
	if ts, ok := f.store.(session.Timestamped); ok {
		if at, err := ts.SavedAt(ctx); err == nil {
			st.SavedAt = at
		} else {
			f.logger.Warn("failed to read session save time", "error", err)
		}
	}
	if info, err := shared.InspectToken(sess.Token); err == nil {
		now := f.now()
		st.Token = info
		st.Expired = info.Expired(now)
		st.Remaining = info.Remaining(now)
	} else {
		f.logger.Debug("stored token is not a JWT", "error", err)
	}
	return st, nil
}
