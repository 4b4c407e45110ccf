package session

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/repositories"
	"github.com/desertthunder/flix/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func alice() models.User {
	return models.User{ID: "u1", Username: "alice", Email: "alice@example.com", FavoriteMovies: []string{"m1"}}
}

// storeContract runs the behavior every durable store shares.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("Read on empty store", func(t *testing.T) {
		if _, err := newStore(t).Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("Write then Read", func(t *testing.T) {
		store := newStore(t)
		if err := store.Write(ctx, "tok", alice()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s, err := store.Read(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Token != "tok" {
			t.Errorf("expected token tok, got %q", s.Token)
		}
		if s.User.Username != "alice" || !s.User.HasFavorite("m1") {
			t.Errorf("unexpected user %+v", s.User)
		}
	})

	t.Run("Write replaces both keys", func(t *testing.T) {
		store := newStore(t)
		_ = store.Write(ctx, "old", alice())

		u := alice().WithFavorite("m2")
		if err := store.Write(ctx, "new", u); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s, _ := store.Read(ctx)
		if s.Token != "new" || len(s.User.FavoriteMovies) != 2 {
			t.Errorf("expected replaced session, got %+v", s)
		}
	})

	t.Run("Write rejects empty token", func(t *testing.T) {
		store := newStore(t)
		if err := store.Write(ctx, " ", alice()); !errors.Is(err, shared.ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		store := newStore(t)
		_ = store.Write(ctx, "tok", alice())

		if err := store.Clear(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession after clear, got %v", err)
		}
		if err := store.Clear(ctx); err != nil {
			t.Errorf("clearing an empty store should succeed, got %v", err)
		}
	})

	t.Run("Read returns a copy", func(t *testing.T) {
		store := newStore(t)
		_ = store.Write(ctx, "tok", alice())

		s, _ := store.Read(ctx)
		s.User.FavoriteMovies[0] = "mutated"

		again, _ := store.Read(ctx)
		if again.User.FavoriteMovies[0] != "m1" {
			t.Error("mutating a read session must not affect the store")
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewSQLiteStore(setupTestDB(t), nil) })

	ctx := context.Background()

	t.Run("token without user", func(t *testing.T) {
		db := setupTestDB(t)
		_ = repositories.NewSessionRepository(db).Put(ctx, map[string]string{KeyToken: "tok"})

		if _, err := NewSQLiteStore(db, nil).Read(ctx); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})

	t.Run("corrupt user", func(t *testing.T) {
		db := setupTestDB(t)
		_ = repositories.NewSessionRepository(db).Put(ctx, map[string]string{KeyToken: "tok", KeyUser: "{not json"})

		if _, err := NewSQLiteStore(db, nil).Read(ctx); !errors.Is(err, shared.ErrCorruptSession) {
			t.Errorf("expected ErrCorruptSession, got %v", err)
		}
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := t.TempDir() + "/flix.db"
		cfg := shared.DatabaseConfig{Path: path, MaxOpenConns: 1, MaxIdleConns: 1}

		db, err := shared.OpenDatabase(cfg)
		if err != nil {
			t.Fatalf("failed to open: %v", err)
		}
		if err := NewSQLiteStore(db, nil).Write(ctx, "tok", alice()); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		db.Close()

		db, err = shared.OpenDatabase(cfg)
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()

		s, err := NewSQLiteStore(db, nil).Read(ctx)
		if err != nil || s.User.Username != "alice" {
			t.Errorf("expected persisted session, got %+v (err %v)", s, err)
		}
	})

	t.Run("SavedAt tracks the token row", func(t *testing.T) {
		store := NewSQLiteStore(setupTestDB(t), nil)

		if at, err := store.SavedAt(ctx); err != nil || !at.IsZero() {
			t.Errorf("expected zero time before any write, got %v (err %v)", at, err)
		}
		_ = store.Write(ctx, "tok", alice())
		if at, err := store.SavedAt(ctx); err != nil || at.IsZero() {
			t.Errorf("expected save time after write, got %v (err %v)", at, err)
		}
		_ = store.Clear(ctx)
		if at, _ := store.SavedAt(ctx); !at.IsZero() {
			t.Errorf("expected zero time after clear, got %v", at)
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLiteStore(db, nil)
		db.Close()

		if err := store.Write(ctx, "tok", alice()); !errors.Is(err, shared.ErrStoreUnwritable) {
			t.Errorf("expected ErrStoreUnwritable, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })

	store := NewMemoryStore()
	_ = store.Write(context.Background(), "tok", alice())
	_ = store.Write(context.Background(), "", alice())
	if store.Writes() != 1 {
		t.Errorf("expected 1 write, got %d", store.Writes())
	}

	var ts Timestamped = store
	if at, _ := ts.SavedAt(context.Background()); at.IsZero() {
		t.Error("expected save time after write")
	}
	_ = store.Clear(context.Background())
	if at, _ := ts.SavedAt(context.Background()); !at.IsZero() {
		t.Errorf("expected zero time after clear, got %v", at)
	}
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var store Store = Unavailable{}

	if err := store.Write(ctx, "tok", alice()); err != nil {
		t.Errorf("write should be a silent no-op, got %v", err)
	}
	if _, err := store.Read(ctx); !errors.Is(err, shared.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("clear should be a silent no-op, got %v", err)
	}
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ts := Tokens(store)

	if _, err := ts.Token(ctx); !errors.Is(err, shared.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	_ = store.Write(ctx, "tok", alice())
	token, err := ts.Token(ctx)
	if err != nil || token != "tok" {
		t.Errorf("expected tok, got %q (err %v)", token, err)
	}
}
