package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Put(ctx, map[string]string{"token": "abc", "user": `{"Username":"alice"}`}); err != nil {
			t.Fatalf("failed to put: %v", err)
		}

		values, err := repo.Get(ctx, "token", "user", "missing")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if values["token"] != "abc" {
			t.Errorf("expected token abc, got %q", values["token"])
		}
		if values["user"] != `{"Username":"alice"}` {
			t.Errorf("unexpected user value %q", values["user"])
		}
		if _, ok := values["missing"]; ok {
			t.Error("missing key should be absent")
		}
	})

	t.Run("Put overwrites", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		_ = repo.Put(ctx, map[string]string{"token": "first"})
		if err := repo.Put(ctx, map[string]string{"token": "second"}); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		values, _ := repo.Get(ctx, "token")
		if values["token"] != "second" {
			t.Errorf("expected second, got %q", values["token"])
		}

		at, err := repo.UpdatedAt(ctx, "token")
		if err != nil || at.IsZero() {
			t.Errorf("expected updated_at, got %v (err %v)", at, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		_ = repo.Put(ctx, map[string]string{"token": "abc", "user": "{}"})
		if err := repo.Delete(ctx, "token", "user", "never-written"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}

		values, _ := repo.Get(ctx, "token", "user")
		if len(values) != 0 {
			t.Errorf("expected empty result, got %v", values)
		}

		at, err := repo.UpdatedAt(ctx, "token")
		if err != nil || !at.IsZero() {
			t.Errorf("expected zero time for deleted key, got %v (err %v)", at, err)
		}
	})

	t.Run("Get with no keys", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		values, err := repo.Get(ctx)
		if err != nil || len(values) != 0 {
			t.Errorf("expected empty map, got %v (err %v)", values, err)
		}
	})
}

func TestMovieRepository(t *testing.T) {
	ctx := context.Background()
	born, _ := models.ParseDate("1944-02-22")
	died, _ := models.ParseDate("2017-04-26")
	movies := []models.Movie{
		{
			ID:          "m2",
			Title:       "Silence of the Lambs",
			Description: "A young FBI cadet...",
			Genre:       models.Genre{Name: "Thriller", Description: "Suspense"},
			Director:    models.Director{Name: "Jonathan Demme", Bio: "American director", Birthdate: &born, Deathdate: &died},
			ImagePath:   "https://example.com/lambs.png",
			Featured:    true,
		},
		{ID: "m1", Title: "Inception", Genre: models.Genre{Name: "Sci-Fi"}, Director: models.Director{Name: "Christopher Nolan"}},
	}

	t.Run("ReplaceAll and List keep order", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))

		if err := repo.ReplaceAll(ctx, movies); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 movies, got %d", len(got))
		}
		if got[0].ID != "m2" || got[1].ID != "m1" {
			t.Errorf("expected fetch order [m2 m1], got [%s %s]", got[0].ID, got[1].ID)
		}
		if got[0].Director.Name != "Jonathan Demme" || !got[0].Featured {
			t.Errorf("unexpected movie %+v", got[0])
		}
		if d := got[0].Director; d.Birthdate == nil || d.Birthdate.String() != "1944-02-22" || d.Deathdate == nil || d.Deathdate.String() != "2017-04-26" {
			t.Errorf("expected director dates to survive the cache, got %+v", d)
		}
		if d := got[1].Director; d.Birthdate != nil || d.Deathdate != nil {
			t.Errorf("expected no dates for m1, got %+v", d)
		}
	})

	t.Run("ReplaceAll drops stale rows", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))

		_ = repo.ReplaceAll(ctx, movies)
		if err := repo.ReplaceAll(ctx, movies[1:]); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		got, _ := repo.List(ctx)
		if len(got) != 1 || got[0].ID != "m1" {
			t.Errorf("expected only m1, got %+v", got)
		}

		at, err := repo.CachedAt(ctx)
		if err != nil || at.IsZero() {
			t.Errorf("expected cache time, got %v (err %v)", at, err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewMovieRepository(setupTestDB(t))
		_ = repo.ReplaceAll(ctx, movies)

		m, err := repo.Get(ctx, "m1")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if m.Title != "Inception" {
			t.Errorf("expected Inception, got %q", m.Title)
		}
	})
}
