package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// readAll drains the request body and replaces it so handlers can read it again.
func readAll(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
