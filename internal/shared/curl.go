// Utilities for lifting a session token out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlURLRegex    = regexp.MustCompile(`curl\s+'([^']+)'|curl\s+"([^"]+)"|curl\s+(https?://\S+)`)
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlRequest is the subset of a cURL command needed to replay an authenticated request.
type CurlRequest struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the URL, headers and cookie from a cURL command.
//
// Header names are kept as written; use [CurlRequest.Header] for case-insensitive lookups.
func ParseCurlCommand(cmd string) (*CurlRequest, error) {
	cmd = strings.ReplaceAll(cmd, "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	req := &CurlRequest{Headers: make(map[string]string)}

	if m := curlURLRegex.FindStringSubmatch(cmd); m != nil {
		req.URL = firstGroup(m)
	}

	for _, m := range curlHeaderRegex.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if req.Cookie == "" {
				req.Cookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(cmd); m != nil {
		req.Cookie = firstGroup(m)
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return req, nil
}

// Header returns the value of the named header, ignoring case.
func (c *CurlRequest) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// BearerToken returns the token carried in the Authorization header.
func (c *CurlRequest) BearerToken() (string, error) {
	auth := c.Header("Authorization")
	if auth == "" {
		return "", fmt.Errorf("%w: no Authorization header in curl command", ErrInvalidToken)
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: Authorization header is not a bearer token", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
