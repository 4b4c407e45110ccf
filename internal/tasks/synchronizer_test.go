package tasks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/services"
	"github.com/desertthunder/flix/internal/session"
	"github.com/desertthunder/flix/internal/shared"
)

// setupSync logs alice in with the given favorites on both the mock server and the store.
func setupSync(t *testing.T, favorites ...string) (*mockAPI, *session.MemoryStore, *Synchronizer) {
	t.Helper()

	api := newMockAPI(testMovies...)
	user := models.User{ID: "u1", Username: "alice", FavoriteMovies: favorites}
	api.users["alice"] = user.Clone()

	store := session.NewMemoryStore()
	if err := store.Write(context.Background(), "tok", user); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return api, store, NewSynchronizer(api, store, nil)
}

func cachedFavorites(t *testing.T, store session.Store) []string {
	t.Helper()
	s, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("failed to read session: %v", err)
	}
	return s.User.FavoriteMovies
}

func TestSynchronizerToggle(t *testing.T) {
	ctx := context.Background()

	t.Run("adds a non-favorite", func(t *testing.T) {
		api, store, syncer := setupSync(t)
		catalog := NewCatalog(testMovies, nil)

		res, err := syncer.Toggle(ctx, catalog, "m1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Added || !res.IsFavorite {
			t.Errorf("expected added, got %+v", res)
		}
		if api.count("AddFavorite") != 1 {
			t.Errorf("expected one add call, got %d", api.count("AddFavorite"))
		}
		if !catalog.IsFavorite("m1") {
			t.Error("catalog flag should be set")
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m1"}) {
			t.Errorf("expected cached [m1], got %v", got)
		}
	})

	t.Run("removes a favorite", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m1", "m2")
		catalog := NewCatalog(testMovies, []string{"m1", "m2"})

		res, err := syncer.Toggle(ctx, catalog, "m1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Removed || res.IsFavorite {
			t.Errorf("expected removed, got %+v", res)
		}
		if api.count("RemoveFavorite") != 1 {
			t.Error("expected one remove call")
		}
		if catalog.IsFavorite("m1") {
			t.Error("catalog flag should be cleared")
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m2"}) {
			t.Errorf("expected cached [m2], got %v", got)
		}
	})

	t.Run("round trip restores original state", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m2")
		catalog := NewCatalog(testMovies, []string{"m2"})
		before := catalog.Views()

		if _, err := syncer.Toggle(ctx, catalog, "m3"); err != nil {
			t.Fatalf("first toggle failed: %v", err)
		}
		if _, err := syncer.Toggle(ctx, catalog, "m3"); err != nil {
			t.Fatalf("second toggle failed: %v", err)
		}

		after := catalog.Views()
		for i := range before {
			if before[i].IsFavorite != after[i].IsFavorite {
				t.Errorf("flag for %s changed: %v -> %v", before[i].ID, before[i].IsFavorite, after[i].IsFavorite)
			}
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m2"}) {
			t.Errorf("expected cached [m2], got %v", got)
		}
		if remote := api.users["alice"].FavoriteMovies; !slices.Equal(remote, []string{"m2"}) {
			t.Errorf("expected remote [m2], got %v", remote)
		}
	})

	t.Run("failed add changes nothing", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m2")
		api.failWith = &services.APIError{Message: "request failed: connection refused", Err: shared.ErrAPIRequest}
		catalog := NewCatalog(testMovies, []string{"m2"})
		writes := store.Writes()

		res, err := syncer.Toggle(ctx, catalog, "m1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if res != nil {
			t.Errorf("expected no result, got %+v", res)
		}
		if catalog.IsFavorite("m1") {
			t.Error("catalog flag must be unchanged")
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m2"}) {
			t.Errorf("cached user must be unchanged, got %v", got)
		}
		if store.Writes() != writes {
			t.Errorf("store must not be written, got %d writes", store.Writes()-writes)
		}
	})

	t.Run("no session makes no call", func(t *testing.T) {
		api := newMockAPI(testMovies...)
		syncer := NewSynchronizer(api, session.NewMemoryStore(), nil)
		catalog := NewCatalog(testMovies, nil)

		res, err := syncer.Add(ctx, catalog, "m1")
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if res.Outcome != NoSession {
			t.Errorf("expected NoSession, got %v", res.Outcome)
		}
		if api.total() != 0 {
			t.Errorf("expected no network calls, got %d", api.total())
		}
		if catalog.IsFavorite("m1") {
			t.Error("catalog must be unchanged")
		}
	})

	t.Run("unavailable store behaves as no session", func(t *testing.T) {
		api := newMockAPI(testMovies...)
		res, err := NewSynchronizer(api, session.Unavailable{}, nil).Toggle(ctx, nil, "m1")
		if err != nil || res.Outcome != NoSession || api.total() != 0 {
			t.Errorf("expected NoSession without calls, got %+v (err %v, calls %d)", res, err, api.total())
		}
	})

	t.Run("movie missing from catalog is added", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m9")
		catalog := NewCatalog(testMovies, []string{"m9"})

		res, err := syncer.Toggle(ctx, catalog, "m9")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != Added || api.count("AddFavorite") != 1 {
			t.Errorf("expected an add call, got %+v", res)
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m9"}) {
			t.Errorf("append must not duplicate, got %v", got)
		}
	})

	t.Run("nil catalog uses cached favorites", func(t *testing.T) {
		api, _, syncer := setupSync(t, "m1")

		res, err := syncer.Toggle(ctx, nil, "m1")
		if err != nil || res.Outcome != Removed || api.count("RemoveFavorite") != 1 {
			t.Errorf("expected removal, got %+v (err %v)", res, err)
		}
	})

	t.Run("missing movie id", func(t *testing.T) {
		_, _, syncer := setupSync(t)
		if _, err := syncer.Toggle(ctx, nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSynchronizerForcedDirection(t *testing.T) {
	ctx := context.Background()

	t.Run("Remove of a non-favorite still calls the server", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m2")
		catalog := NewCatalog(testMovies, []string{"m2"})

		res, err := syncer.Remove(ctx, catalog, "m1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.count("RemoveFavorite") != 1 {
			t.Error("expected remote remove call")
		}
		if res.Outcome != Removed {
			t.Errorf("expected Removed, got %v", res.Outcome)
		}
		if got := cachedFavorites(t, store); slices.Contains(got, "m1") || !slices.Equal(got, []string{"m2"}) {
			t.Errorf("expected cached [m2], got %v", got)
		}
	})

	t.Run("Add of a favorite does not duplicate", func(t *testing.T) {
		api, store, syncer := setupSync(t, "m1")
		catalog := NewCatalog(testMovies, []string{"m1"})

		if _, err := syncer.Add(ctx, catalog, "m1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if api.count("AddFavorite") != 1 {
			t.Error("expected remote add call")
		}
		if got := cachedFavorites(t, store); !slices.Equal(got, []string{"m1"}) {
			t.Errorf("expected cached [m1], got %v", got)
		}
	})

	t.Run("store failure after remote success", func(t *testing.T) {
		api := newMockAPI(testMovies...)
		api.users["alice"] = models.User{Username: "alice"}
		mem := session.NewMemoryStore()
		_ = mem.Write(ctx, "tok", models.User{Username: "alice"})
		syncer := NewSynchronizer(api, failingStore{inner: mem}, nil)
		catalog := NewCatalog(testMovies, nil)

		res, err := syncer.Add(ctx, catalog, "m1")
		if !errors.Is(err, shared.ErrStoreUnwritable) {
			t.Fatalf("expected ErrStoreUnwritable, got %v", err)
		}
		if res == nil || res.Outcome != Added {
			t.Errorf("expected the remote outcome to be reported, got %+v", res)
		}
		if !catalog.IsFavorite("m1") {
			t.Error("catalog should follow the server once the remote call succeeded")
		}
	})
}

func TestSynchronizerSerializesPerUser(t *testing.T) {
	ctx := context.Background()
	api, store, syncer := setupSync(t)
	api.gate = make(chan struct{})
	catalog := NewCatalog(testMovies, nil)

	var wg sync.WaitGroup
	for _, id := range []string{"m1", "m2", "m3"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := syncer.Toggle(ctx, catalog, id); err != nil {
				t.Errorf("toggle %s failed: %v", id, err)
			}
		}(id)
	}

	for range 3 {
		select {
		case api.gate <- struct{}{}:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a favorite call")
		}
	}
	wg.Wait()

	if got := api.maxInFlight.Load(); got != 1 {
		t.Errorf("expected at most one in-flight mutation, got %d", got)
	}

	got := cachedFavorites(t, store)
	slices.Sort(got)
	if !slices.Equal(got, []string{"m1", "m2", "m3"}) {
		t.Errorf("no toggle may be lost, got %v", got)
	}
	if len(catalog.Favorites()) != 3 {
		t.Errorf("expected 3 flagged movies, got %d", len(catalog.Favorites()))
	}
}

func TestKeyedLockCancellation(t *testing.T) {
	locks := newKeyedLock()
	unlock, err := locks.lock(context.Background(), "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.lock(ctx, "alice"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	other, err := locks.lock(context.Background(), "bob")
	if err != nil {
		t.Fatalf("other keys must not block: %v", err)
	}
	other()
	unlock()

	if len(locks.slots) != 0 {
		t.Errorf("expected released slots to be removed, got %d", len(locks.slots))
	}
}
