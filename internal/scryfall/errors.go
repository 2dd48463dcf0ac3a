package scryfall

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is returned when the catalog answers with an error status.
type APIError struct {
	StatusCode int
	URL        string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("scryfall: %s returned %d: %s", e.URL, e.StatusCode, e.Details)
	}
	return fmt.Sprintf("scryfall: %s returned %d", e.URL, e.StatusCode)
}

// ContentTypeError is returned when the image endpoint answers with something
// other than an image. The server was reached; the payload was wrong.
type ContentTypeError struct {
	ContentType string
	URL         string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("scryfall: expected an image from %s, got content type %q", e.URL, e.ContentType)
}

type errorResponse struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	details := strings.TrimSpace(string(body))

	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Details != "" {
		details = payload.Details
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Details:    details,
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
