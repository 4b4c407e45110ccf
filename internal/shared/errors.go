package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrNoSession       = fmt.Errorf("no session")
	ErrCorruptSession  = fmt.Errorf("stored session is corrupt")
	ErrTokenExpired    = fmt.Errorf("access token expired")
	ErrInvalidToken    = fmt.Errorf("invalid token")
	ErrAuthFailed      = fmt.Errorf("authentication failed")
	ErrStoreUnwritable = fmt.Errorf("session store unavailable")

	// API errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrAPIStatus          = fmt.Errorf("API returned an error")
	ErrMalformedResponse  = fmt.Errorf("malformed API response")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMovieNotFound      = fmt.Errorf("movie not found")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
