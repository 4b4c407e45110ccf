package tasks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

// mockAPI is an in-memory [services.MovieAPI] that counts calls and can be told to fail.
type mockAPI struct {
	mu       sync.Mutex
	users    map[string]models.User
	movies   []models.Movie
	calls    []string
	failWith error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	gate        chan struct{} // when set, favorite calls block until it yields
}

var _ services.MovieAPI = (*mockAPI)(nil)

func newMockAPI(movies ...models.Movie) *mockAPI {
	return &mockAPI{users: make(map[string]models.User), movies: movies}
}

func (m *mockAPI) record(call string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return m.failWith
}

func (m *mockAPI) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (m *mockAPI) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockAPI) Register(_ context.Context, d models.UserDetails) (*models.AuthResponse, error) {
	if err := m.record("Register"); err != nil {
		return nil, err
	}
	u := models.User{ID: "u-" + d.Username, Username: d.Username, Email: d.Email, Birthday: d.Birthday, FavoriteMovies: []string{}}
	m.mu.Lock()
	m.users[u.Username] = u
	m.mu.Unlock()
	return &models.AuthResponse{User: u, Token: "token-" + d.Username}, nil
}

func (m *mockAPI) Login(_ context.Context, c models.Credentials) (*models.AuthResponse, error) {
	if err := m.record("Login"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[c.Username]
	if !ok {
		return nil, &services.APIError{StatusCode: 400, Message: "Incorrect username or password.", Err: shared.ErrAPIStatus}
	}
	return &models.AuthResponse{User: u.Clone(), Token: "token-" + u.Username}, nil
}

func (m *mockAPI) GetUser(_ context.Context, username string) (*models.User, error) {
	if err := m.record("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, &services.APIError{StatusCode: 404, Message: "User not found", Err: shared.ErrAPIStatus}
	}
	out := u.Clone()
	return &out, nil
}

func (m *mockAPI) EditUser(_ context.Context, username string, upd models.UserUpdate) (*models.User, error) {
	if err := m.record("EditUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[username]
	delete(m.users, username)
	if upd.Username != "" {
		u.Username = upd.Username
	}
	if upd.Email != "" {
		u.Email = upd.Email
	}
	m.users[u.Username] = u
	out := u.Clone()
	return &out, nil
}

func (m *mockAPI) DeleteUser(_ context.Context, username string) error {
	if err := m.record("DeleteUser"); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.users, username)
	m.mu.Unlock()
	return nil
}

func (m *mockAPI) GetAllMovies(context.Context) ([]models.Movie, error) {
	if err := m.record("GetAllMovies"); err != nil {
		return nil, err
	}
	return m.movies, nil
}

func (m *mockAPI) GetMovie(context.Context, string) (*models.Movie, error) {
	return nil, m.record("GetMovie")
}

func (m *mockAPI) GetDirector(context.Context, string) (*models.Director, error) {
	return nil, m.record("GetDirector")
}

func (m *mockAPI) GetGenre(context.Context, string) (*models.Genre, error) {
	return nil, m.record("GetGenre")
}

func (m *mockAPI) GetFavoriteMovies(_ context.Context, username string) ([]models.Movie, error) {
	if err := m.record("GetFavoriteMovies"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Movie{}
	for _, mv := range m.movies {
		if m.users[username].HasFavorite(mv.ID) {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *mockAPI) AddFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return m.favorite(ctx, "AddFavorite", username, movieID, models.User.WithFavorite)
}

func (m *mockAPI) RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return m.favorite(ctx, "RemoveFavorite", username, movieID, models.User.WithoutFavorite)
}

func (m *mockAPI) favorite(_ context.Context, call, username, movieID string, apply func(models.User, string) models.User) (*models.User, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if m.gate != nil {
		<-m.gate
	}

	if err := m.record(call); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := apply(m.users[username], movieID)
	m.users[username] = u
	out := u.Clone()
	return &out, nil
}

// failingStore wraps a store and fails every write.
type failingStore struct {
	inner session.Store
}

func (f failingStore) Write(context.Context, string, models.User) error {
	return shared.ErrStoreUnwritable
}

func (f failingStore) Read(ctx context.Context) (*models.Session, error) { return f.inner.Read(ctx) }

func (f failingStore) Clear(ctx context.Context) error { return f.inner.Clear(ctx) }
