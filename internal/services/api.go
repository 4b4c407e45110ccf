// HTTP plumbing shared by every myFlix call.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flix/internal/shared"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// APIService issues requests against the myFlix API.
//
// It never persists anything: callers decide what to do with the returned session data.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewAPIService creates a client for baseURL. A nil client uses [http.DefaultClient] and
// a nil token source makes every authenticated call fail with [shared.ErrNoSession].
func NewAPIService(baseURL string, client *http.Client, tokens TokenSource) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		tokens:     tokens,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     shared.NewLogger(nil),
	}
}

// NewLimiter builds the client-side limiter. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// WithLimiter replaces the request limiter.
func (a *APIService) WithLimiter(l *rate.Limiter) *APIService {
	if l != nil {
		a.limiter = l
	}
	return a
}

// WithLogger replaces the logger used for request tracing.
func (a *APIService) WithLogger(l *log.Logger) *APIService {
	if l != nil {
		a.logger = l
	}
	return a
}

// WithTokens returns a copy of the client that reads bearer tokens from ts.
func (a *APIService) WithTokens(ts TokenSource) *APIService {
	c := *a
	c.tokens = ts
	return &c
}

// BaseURL returns the API origin without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
//
// The bearer token is attached when a session exists; non-2xx statuses are not errors here.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.raw(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.raw(ctx, http.MethodPost, path, data)
}

func (a *APIService) raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	token := ""
	if a.tokens != nil {
		if t, err := a.tokens.Token(ctx); err == nil {
			token = t
		}
	}

	resp, body, err := a.send(ctx, method, path, token, data)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// do performs a typed call: it attaches the bearer token when auth is set, maps non-2xx
// statuses to [APIError] and decodes a 2xx body into result when result is non-nil.
func (a *APIService) do(ctx context.Context, method, path string, auth bool, payload, result any) error {
	token := ""
	if auth {
		if a.tokens == nil {
			return fmt.Errorf("%w: %s %s requires a token", shared.ErrNoSession, method, path)
		}
		t, err := a.tokens.Token(ctx)
		if err != nil {
			if errors.Is(err, shared.ErrNoSession) {
				return err
			}
			return fmt.Errorf("%w: %v", shared.ErrNoSession, err)
		}
		token = t
	}

	var data []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: failed to encode request: %v", shared.ErrInvalidInput, err)
		}
		data = encoded
	}

	resp, body, err := a.send(ctx, method, path, token, data)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body), Err: shared.ErrAPIStatus}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: err.Error(), Err: shared.ErrMalformedResponse}
		}
	}
	return nil
}

// send waits on the limiter, issues the request and reads the whole body.
func (a *APIService) send(ctx context.Context, method, path, token string, data []byte) (*http.Response, []byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, nil, &APIError{Message: err.Error(), Err: shared.ErrAPIRequest}
	}

	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, nil, &APIError{Message: fmt.Sprintf("failed to create request: %v", err), Err: shared.ErrAPIRequest}
	}

	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	a.logger.Debug("request", "method", method, "path", path, "request_id", requestID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, &APIError{Message: fmt.Sprintf("request failed: %v", err), Err: shared.ErrAPIRequest}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: shared.ErrAPIRequest}
	}

	a.logger.Debug("response", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))
	return resp, body, nil
}
