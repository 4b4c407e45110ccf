// package models defines the data model for the myFlix movie catalog client
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format used when the client sends dates (e.g. Birthday).
const DateLayout = "2006-01-02"

// Date is a calendar date that tolerates the formats the API emits.
//
// Accepts RFC3339 timestamps ("1990-04-01T00:00:00.000Z"), bare dates ("1990-04-01"), null and "".
// Always marshals as a bare date.
type Date struct {
	time.Time
}

// NewDate truncates t to a calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a bare date or an RFC3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// User is the account record returned by the API.
//
// The password is write-only and deliberately absent: it is never cached after authentication.
type User struct {
	ID             string   `json:"_id,omitempty"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       *Date    `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}

// HasFavorite reports whether movieID is in the user's favorite list.
func (u User) HasFavorite(movieID string) bool {
	return slices.Contains(u.FavoriteMovies, movieID)
}

// WithFavorite returns a copy of u with movieID appended to its favorites unless already present.
func (u User) WithFavorite(movieID string) User {
	out := u.Clone()
	if !out.HasFavorite(movieID) {
		out.FavoriteMovies = append(out.FavoriteMovies, movieID)
	}
	return out
}

// WithoutFavorite returns a copy of u with every occurrence of movieID removed from its favorites.
func (u User) WithoutFavorite(movieID string) User {
	out := u.Clone()
	out.FavoriteMovies = slices.DeleteFunc(out.FavoriteMovies, func(id string) bool { return id == movieID })
	return out
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	out.FavoriteMovies = slices.Clone(u.FavoriteMovies)
	if out.FavoriteMovies == nil {
		out.FavoriteMovies = []string{}
	}
	if u.Birthday != nil {
		b := *u.Birthday
		out.Birthday = &b
	}
	return out
}

// Session pairs a bearer token with the user snapshot it was issued for.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Genre is embedded in each movie.
type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

// Director is embedded in each movie.
type Director struct {
	Name      string `json:"Name"`
	Bio       string `json:"Bio"`
	Birthdate *Date  `json:"Birthdate,omitempty"`
	Deathdate *Date  `json:"Deathdate,omitempty"`
}

// Movie represents a catalog entry.
type Movie struct {
	ID          string   `json:"_id"`
	Title       string   `json:"Title"`
	Description string   `json:"Description"`
	Genre       Genre    `json:"Genre"`
	Director    Director `json:"Director"`
	ImagePath   string   `json:"ImagePath"`
	Featured    bool     `json:"Featured"`
}

// MovieView is a [Movie] decorated with the client-side favorite flag.
//
// IsFavorite is derived from the session user and is never sent to the API.
type MovieView struct {
	Movie
	IsFavorite bool `json:"isFavorite"`
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

// UserDetails is the registration request body.
type UserDetails struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Email    string `json:"Email"`
	Birthday *Date  `json:"Birthday,omitempty"`
}

// UserUpdate is a partial user sent to PUT /users/{username}. Empty fields are omitted.
type UserUpdate struct {
	Username       string   `json:"Username,omitempty"`
	Password       string   `json:"Password,omitempty"`
	Email          string   `json:"Email,omitempty"`
	Birthday       *Date    `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies,omitempty"`
}

// AuthResponse is returned by both registration and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
