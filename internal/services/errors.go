package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the single failure shape returned by [APIService].
//
// Err is one of shared.ErrAPIRequest, shared.ErrAPIStatus or shared.ErrMalformedResponse.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Err, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type validationMessage struct {
	Msg string `json:"msg"`
}

// errorMessage extracts a human-readable message from a failed response body.
//
// The server answers validation failures with a list of {msg} entries (bare or under "errors"),
// other failures with {message}/{error} or plain text.
func errorMessage(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}

	var list []validationMessage
	if err := json.Unmarshal(body, &list); err == nil {
		if msg := joinMessages(list); msg != "" {
			return msg
		}
	}

	var obj struct {
		Errors  []validationMessage `json:"errors"`
		Message string              `json:"message"`
		Error   string              `json:"error"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		switch {
		case len(obj.Errors) > 0 && joinMessages(obj.Errors) != "":
			return joinMessages(obj.Errors)
		case obj.Message != "":
			return obj.Message
		case obj.Error != "":
			return obj.Error
		}
		return fmt.Sprintf("status %d", status)
	}

	var text string
	if err := json.Unmarshal(body, &text); err == nil && text != "" {
		return text
	}
	if json.Valid(body) {
		return fmt.Sprintf("status %d", status)
	}
	return trimmed
}

func joinMessages(list []validationMessage) string {
	msgs := make([]string, 0, len(list))
	for _, m := range list {
		if m.Msg != "" {
			msgs = append(msgs, m.Msg)
		}
	}
	return strings.Join(msgs, ", ")
}
