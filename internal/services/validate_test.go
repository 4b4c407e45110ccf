package services

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

func TestNormalizeUserDetails(t *testing.T) {
	birthday := models.NewDate(time.Date(1990, time.April, 1, 0, 0, 0, 0, time.UTC))

	t.Run("trims and lower-cases", func(t *testing.T) {
		got, err := NormalizeUserDetails(models.UserDetails{
			Username: "  alice ",
			Password: "secret",
			Email:    "  Alice@Example.COM ",
			Birthday: &birthday,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("expected trimmed username, got %q", got.Username)
		}
		if got.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %q", got.Email)
		}
		if got.Password != "secret" {
			t.Errorf("password must pass through untouched, got %q", got.Password)
		}
		if got.Birthday.String() != "1990-04-01" {
			t.Errorf("expected birthday kept, got %v", got.Birthday)
		}
	})

	t.Run("zero birthday is omitted", func(t *testing.T) {
		got, err := NormalizeUserDetails(models.UserDetails{Username: "a", Email: "a@b.co", Birthday: &models.Date{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Birthday != nil {
			t.Errorf("expected nil birthday, got %v", got.Birthday)
		}
	})

	tt := []struct {
		name    string
		details models.UserDetails
	}{
		{name: "blank username", details: models.UserDetails{Username: "   ", Email: "a@b.co"}},
		{name: "missing at sign", details: models.UserDetails{Username: "a", Email: "ab.co"}},
		{name: "short tld", details: models.UserDetails{Username: "a", Email: "a@b.c"}},
		{name: "spaces inside", details: models.UserDetails{Username: "a", Email: "a b@c.com"}},
		{name: "empty email", details: models.UserDetails{Username: "a"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeUserDetails(tc.details); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	if !ValidEmail(" USER.name+tag@sub.example.org ") {
		t.Error("expected valid email")
	}
	if ValidEmail("user@localhost") {
		t.Error("expected email without tld to be rejected")
	}
}
