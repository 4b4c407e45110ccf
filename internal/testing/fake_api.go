package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// FakeSecret signs the tokens issued by [FakeAPI].
const FakeSecret = "fake-myflix-secret"

// Call is one request observed by [FakeAPI].
type Call struct {
	Method     string
	Path       string
	Authorized bool
	RequestID  string
	Body       []byte
}

type fakeUser struct {
	user     models.User
	password string
}

type failure struct {
	status int
	body   string
}

// FakeAPI is an in-process myFlix server backed by httptest.
//
// It keeps users and movies in memory, signs real HS256 tokens and records every call.
type FakeAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]*fakeUser
	movies   []models.Movie
	calls    []Call
	failures map[string]failure
	nextID   int
}

// NewFakeAPI starts a fake server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{users: make(map[string]*fakeUser), failures: make(map[string]failure)}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake server.
func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// AddUser seeds an account.
func (f *FakeAPI) AddUser(user models.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = f.newID("u")
	}
	f.users[user.Username] = &fakeUser{user: user.Clone(), password: password}
}

// User returns the server-side record for username.
func (f *FakeAPI) User(username string) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return models.User{}, false
	}
	return u.user.Clone(), true
}

// SetMovies replaces the catalog.
func (f *FakeAPI) SetMovies(movies ...models.Movie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies = slices.Clone(movies)
}

// FailNext makes the next request for method and decoded path answer with status and body.
func (f *FakeAPI) FailNext(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, body: body}
}

// Calls returns every recorded request in arrival order.
func (f *FakeAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount counts recorded requests matching method whose path starts with prefix.
func (f *FakeAPI) CallCount(method, prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// TokenFor mints a valid token for username.
func (f *FakeAPI) TokenFor(t *testing.T, username string) string {
	t.Helper()
	return MintToken(t, username, 7*24*time.Hour)
}

// MintToken signs a token in the shape the myFlix API issues.
func MintToken(t *testing.T, username string, ttl time.Duration) string {
	t.Helper()
	token, err := signToken(username, ttl)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}

func signToken(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"Username": username,
		"sub":      username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(FakeSecret))
}

func (f *FakeAPI) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *FakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)

	r.Post("/users", f.handleRegister)
	r.Post("/login", f.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)

		r.Get("/movies", f.handleMovies)
		r.Get("/movies/{title}", f.handleMovie)
		r.Get("/movies/Director/{name}", f.handleDirector)
		r.Get("/movies/Genre/{name}", f.handleGenre)

		r.Get("/users/{username}", f.handleGetUser)
		r.Put("/users/{username}", f.handleEditUser)
		r.Delete("/users/{username}", f.handleDeleteUser)

		r.Get("/users/{username}/movies", f.handleFavoriteMovies)
		r.Post("/users/{username}/movies/{movieID}", f.handleAddFavorite)
		r.Delete("/users/{username}/movies/{movieID}", f.handleRemoveFavorite)
	})

	return r
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = readAll(r)
		}

		f.mu.Lock()
		f.calls = append(f.calls, Call{
			Method:     r.Method,
			Path:       r.URL.EscapedPath(),
			Authorized: r.Header.Get("Authorization") != "",
			RequestID:  r.Header.Get("X-Request-ID"),
			Body:       body,
		})
		key := r.Method + " " + r.URL.Path
		fail, failing := f.failures[key]
		delete(f.failures, key)
		f.mu.Unlock()

		if failing {
			w.WriteHeader(fail.status)
			w.Write([]byte(fail.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte(FakeSecret), nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var details models.UserDetails
	if err := decodeBody(r, &details); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": []map[string]string{{"msg": "Invalid request body"}}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[details.Username]; exists {
		http.Error(w, details.Username+" already exists", http.StatusBadRequest)
		return
	}

	user := models.User{ID: f.newID("u"), Username: details.Username, Email: details.Email, Birthday: details.Birthday, FavoriteMovies: []string{}}
	f.users[user.Username] = &fakeUser{user: user, password: details.Password}
	f.respondWithToken(w, http.StatusCreated, user)
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Something is not right"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[creds.Username]
	if !ok || u.password != creds.Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Incorrect username or password.", "user": false})
		return
	}
	f.respondWithToken(w, http.StatusOK, u.user)
}

func (f *FakeAPI) respondWithToken(w http.ResponseWriter, status int, user models.User) {
	token, err := signToken(user.Username, 7*24*time.Hour)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, models.AuthResponse{User: user.Clone(), Token: token})
}

func (f *FakeAPI) handleMovies(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	writeJSON(w, http.StatusOK, f.movies)
}

func (f *FakeAPI) handleMovie(w http.ResponseWriter, r *http.Request) {
	title := param(r, "title")

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		if m.Title == title {
			writeJSON(w, http.StatusOK, m)
			return
		}
	}
	http.Error(w, "Movie not found", http.StatusNotFound)
}

func (f *FakeAPI) handleDirector(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		if m.Director.Name == name {
			writeJSON(w, http.StatusOK, m.Director)
			return
		}
	}
	http.Error(w, "Director not found", http.StatusNotFound)
}

func (f *FakeAPI) handleGenre(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movies {
		if m.Genre.Name == name {
			writeJSON(w, http.StatusOK, m.Genre)
			return
		}
	}
	http.Error(w, "Genre not found", http.StatusNotFound)
}

func (f *FakeAPI) handleGetUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[param(r, "username")]
	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u.user)
}

func (f *FakeAPI) handleEditUser(w http.ResponseWriter, r *http.Request) {
	var update models.UserUpdate
	if err := decodeBody(r, &update); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, []map[string]string{{"msg": "Invalid request body"}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	username := param(r, "username")
	u, ok := f.users[username]
	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if update.Username != "" && update.Username != username {
		delete(f.users, username)
		u.user.Username = update.Username
		f.users[update.Username] = u
	}
	if update.Email != "" {
		u.user.Email = update.Email
	}
	if update.Birthday != nil {
		u.user.Birthday = update.Birthday
	}
	if update.Password != "" {
		u.password = update.Password
	}
	writeJSON(w, http.StatusOK, u.user)
}

func (f *FakeAPI) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	username := param(r, "username")
	if _, ok := f.users[username]; !ok {
		http.Error(w, username+" was not found", http.StatusBadRequest)
		return
	}
	delete(f.users, username)
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(username + " was deleted."))
}

func (f *FakeAPI) handleFavoriteMovies(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[param(r, "username")]
	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	favorites := []models.Movie{}
	for _, m := range f.movies {
		if u.user.HasFavorite(m.ID) {
			favorites = append(favorites, m)
		}
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (f *FakeAPI) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	f.updateFavorites(w, r, models.User.WithFavorite)
}

func (f *FakeAPI) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	f.updateFavorites(w, r, models.User.WithoutFavorite)
}

func (f *FakeAPI) updateFavorites(w http.ResponseWriter, r *http.Request, apply func(models.User, string) models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[param(r, "username")]
	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	u.user = apply(u.user, param(r, "movieID"))
	writeJSON(w, http.StatusOK, u.user)
}

func param(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
