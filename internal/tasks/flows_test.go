package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
	tu "github.com/desertthunder/flix/internal/testing"
)

func TestFlowsRegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Register persists the session", func(t *testing.T) {
		api := newMockAPI()
		store := session.NewMemoryStore()
		flows := NewFlows(api, store, nil)

		sess, tr, err := flows.Register(ctx, models.UserDetails{Username: " bob ", Email: "BOB@example.com", Password: "pw"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tr != TransitionAuthenticated {
			t.Errorf("expected authenticated, got %v", tr)
		}
		if sess.User.Username != "bob" || sess.User.Email != "bob@example.com" {
			t.Errorf("expected normalized user, got %+v", sess.User)
		}

		stored, err := store.Read(ctx)
		if err != nil || stored.Token != "token-bob" {
			t.Errorf("expected stored session, got %+v (err %v)", stored, err)
		}
	})

	t.Run("Register validation", func(t *testing.T) {
		api := newMockAPI()
		store := session.NewMemoryStore()

		_, tr, err := NewFlows(api, store, nil).Register(ctx, models.UserDetails{Username: "bob", Email: "bob@"})
		if !errors.Is(err, shared.ErrValidation) || tr != TransitionNone {
			t.Errorf("expected validation failure, got %v (%v)", err, tr)
		}
		if api.total() != 0 || store.Writes() != 0 {
			t.Error("validation failure must not reach the API or the store")
		}
	})

	t.Run("Login failure keeps the server message", func(t *testing.T) {
		store := session.NewMemoryStore()
		_, tr, err := NewFlows(newMockAPI(), store, nil).Login(ctx, "ghost", "pw")

		var apiErr *services.APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Incorrect username or password." {
			t.Errorf("expected server message, got %v", err)
		}
		if tr != TransitionNone || store.Writes() != 0 {
			t.Error("failed login must not authenticate")
		}
	})

	t.Run("Login then Logout", func(t *testing.T) {
		api := newMockAPI()
		api.users["alice"] = models.User{Username: "alice", FavoriteMovies: []string{"m1"}}
		store := session.NewMemoryStore()
		flows := NewFlows(api, store, nil)

		if _, tr, err := flows.Login(ctx, "alice", "pw"); err != nil || tr != TransitionAuthenticated {
			t.Fatalf("login failed: %v (%v)", err, tr)
		}

		tr, err := flows.Logout(ctx)
		if err != nil || tr != TransitionUnauthenticated {
			t.Fatalf("logout failed: %v (%v)", err, tr)
		}
		if _, err := store.Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected cleared store, got %v", err)
		}
		if api.total() != 1 {
			t.Errorf("logout must be local, got %d calls", api.total())
		}
	})
}

func TestFlowsAccount(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*mockAPI, *session.MemoryStore, *Flows) {
		t.Helper()
		api := newMockAPI()
		user := models.User{ID: "u1", Username: "alice", Email: "alice@example.com", FavoriteMovies: []string{"m1"}}
		api.users["alice"] = user
		store := session.NewMemoryStore()
		_ = store.Write(ctx, "tok", user)
		return api, store, NewFlows(api, store, nil)
	}

	t.Run("DeleteAccount clears after success", func(t *testing.T) {
		api, store, flows := setup(t)

		tr, err := flows.DeleteAccount(ctx)
		if err != nil || tr != TransitionUnauthenticated {
			t.Fatalf("unexpected result %v (%v)", err, tr)
		}
		if _, ok := api.users["alice"]; ok {
			t.Error("expected server-side delete")
		}
		if _, err := store.Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected cleared session, got %v", err)
		}
	})

	t.Run("DeleteAccount keeps session on failure", func(t *testing.T) {
		api, store, flows := setup(t)
		api.failWith = &services.APIError{StatusCode: 500, Message: "boom", Err: shared.ErrAPIStatus}

		tr, err := flows.DeleteAccount(ctx)
		if !errors.Is(err, shared.ErrAPIStatus) || tr != TransitionNone {
			t.Fatalf("expected failure, got %v (%v)", err, tr)
		}
		if _, err := store.Read(ctx); err != nil {
			t.Errorf("session must survive a failed delete, got %v", err)
		}
	})

	t.Run("DeleteAccount without session", func(t *testing.T) {
		api := newMockAPI()
		_, err := NewFlows(api, session.NewMemoryStore(), nil).DeleteAccount(ctx)
		if !errors.Is(err, shared.ErrNoSession) || api.total() != 0 {
			t.Errorf("expected ErrNoSession without calls, got %v", err)
		}
	})

	t.Run("EditProfile replaces user and keeps token", func(t *testing.T) {
		_, store, flows := setup(t)

		u, err := flows.EditProfile(ctx, ProfileEdit{Username: "alice2", Email: "New@Example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Username != "alice2" || u.Email != "new@example.com" {
			t.Errorf("unexpected user %+v", u)
		}

		s, _ := store.Read(ctx)
		if s.Token != "tok" || s.User.Username != "alice2" {
			t.Errorf("expected token kept and user replaced, got %+v", s)
		}
	})

	t.Run("EditProfile requires username", func(t *testing.T) {
		api, _, flows := setup(t)
		if _, err := flows.EditProfile(ctx, ProfileEdit{Username: "  "}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if _, err := flows.EditProfile(ctx, ProfileEdit{Username: "alice", Email: "nope"}); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for bad email, got %v", err)
		}
		if api.count("EditUser") != 0 {
			t.Error("invalid edits must not reach the API")
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		api, store, flows := setup(t)
		api.users["alice"] = api.users["alice"].WithFavorite("m2")

		u, err := flows.Refresh(ctx)
		if err != nil || len(u.FavoriteMovies) != 2 {
			t.Fatalf("unexpected refresh %+v (err %v)", u, err)
		}
		s, _ := store.Read(ctx)
		if len(s.User.FavoriteMovies) != 2 {
			t.Errorf("expected refreshed cache, got %v", s.User.FavoriteMovies)
		}
	})
}

func TestFlowsStatusAndImport(t *testing.T) {
	ctx := context.Background()

	t.Run("Status without session", func(t *testing.T) {
		st, err := NewFlows(newMockAPI(), session.NewMemoryStore(), nil).Status(ctx)
		if err != nil || st.LoggedIn {
			t.Errorf("expected logged out status, got %+v (err %v)", st, err)
		}
	})

	t.Run("Status reads token expiry", func(t *testing.T) {
		store := session.NewMemoryStore()
		_ = store.Write(ctx, tu.MintToken(t, "alice", time.Hour), models.User{Username: "alice"})

		st, err := NewFlows(newMockAPI(), store, nil).Status(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !st.LoggedIn || st.Token == nil || st.Expired || st.Remaining <= 0 {
			t.Errorf("unexpected status %+v", st)
		}
		if st.SavedAt.IsZero() || time.Since(st.SavedAt) > time.Minute {
			t.Errorf("expected a recent save time, got %v", st.SavedAt)
		}
	})

	t.Run("Status without save times", func(t *testing.T) {
		store := failingStore{inner: session.NewMemoryStore()}
		_ = store.inner.Write(ctx, "opaque", models.User{Username: "alice"})

		st, err := NewFlows(newMockAPI(), store, nil).Status(ctx)
		if err != nil || !st.LoggedIn || !st.SavedAt.IsZero() {
			t.Errorf("expected logged in without save time, got %+v (err %v)", st, err)
		}
	})

	t.Run("Status with opaque token", func(t *testing.T) {
		store := session.NewMemoryStore()
		_ = store.Write(ctx, "opaque", models.User{Username: "alice"})

		st, err := NewFlows(newMockAPI(), store, nil).Status(ctx)
		if err != nil || !st.LoggedIn || st.Token != nil {
			t.Errorf("expected logged in without token info, got %+v (err %v)", st, err)
		}
	})

	t.Run("Import", func(t *testing.T) {
		api := newMockAPI()
		api.users["alice"] = models.User{Username: "alice", FavoriteMovies: []string{"m1"}}
		store := session.NewMemoryStore()
		flows := NewFlows(api, store, nil)

		var scopedWith string
		flows.Scope = func(token string) services.MovieAPI {
			scopedWith = token
			return api
		}

		token := tu.MintToken(t, "alice", time.Hour)
		sess, tr, err := flows.Import(ctx, "Bearer "+token)
		if err != nil || tr != TransitionAuthenticated {
			t.Fatalf("import failed: %v (%v)", err, tr)
		}
		if scopedWith != token || sess.Token != token {
			t.Errorf("expected raw token to be used, got %q / %q", scopedWith, sess.Token)
		}
		stored, _ := store.Read(ctx)
		if !stored.User.HasFavorite("m1") {
			t.Errorf("expected fetched user stored, got %+v", stored.User)
		}
	})

	t.Run("Import rejects expired tokens", func(t *testing.T) {
		api := newMockAPI()
		flows := NewFlows(api, session.NewMemoryStore(), nil)
		flows.Scope = func(string) services.MovieAPI { return api }

		_, _, err := flows.Import(ctx, tu.MintToken(t, "alice", -time.Hour))
		if !errors.Is(err, shared.ErrTokenExpired) || api.total() != 0 {
			t.Errorf("expected ErrTokenExpired without calls, got %v", err)
		}
	})

	t.Run("Import with real client is wired", func(t *testing.T) {
		flows := NewFlows(services.NewAPIService("http://127.0.0.1:0", nil, nil), session.NewMemoryStore(), nil)
		if flows.Scope == nil {
			t.Error("expected Scope to be wired for APIService")
		}
	})
}
