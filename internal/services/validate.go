package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

var emailRegex = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// NormalizeUserDetails validates a registration request and returns the body that is sent.
//
// The username and email are trimmed; the email is lower-cased. Errors wrap [shared.ErrValidation].
func NormalizeUserDetails(details models.UserDetails) (models.UserDetails, error) {
	out := details
	out.Username = strings.TrimSpace(details.Username)
	out.Email = strings.ToLower(strings.TrimSpace(details.Email))

	if out.Username == "" {
		return models.UserDetails{}, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if !emailRegex.MatchString(out.Email) {
		return models.UserDetails{}, fmt.Errorf("%w: invalid email address %q", shared.ErrValidation, details.Email)
	}
	if details.Birthday != nil && details.Birthday.IsZero() {
		out.Birthday = nil
	}
	return out, nil
}

// ValidEmail reports whether s is an acceptable email address after trimming.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}
