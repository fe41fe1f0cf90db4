package farmapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized matches backend 401 responses; the token is missing or revoked.
	ErrUnauthorized = errors.New("farm api: unauthorized")
	// ErrNotFound matches backend 404 responses.
	ErrNotFound = errors.New("farm api: not found")
	// ErrTooManyPages is returned when a list still has a next link after maxPages.
	ErrTooManyPages = errors.New("farm api: pagination limit reached")
)

const maxMessageRunes = 200

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("farm api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// newAPIError decodes the usual backend error shapes:
// {"error": "..."}, {"detail": "..."} and {"field": ["msg", ...]}.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = fallbackMessage(status, body)
		return apiErr
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			apiErr.Message = s
			return apiErr
		}
	}

	fields := make(map[string]string)
	for key, raw := range payload {
		switch v := raw.(type) {
		case string:
			fields[key] = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			fields[key] = strings.Join(parts, " ")
		}
	}

	if len(fields) == 0 {
		apiErr.Message = fallbackMessage(status, nil)
		return apiErr
	}

	apiErr.Fields = fields
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	apiErr.Message = strings.Join(parts, "; ")
	return apiErr
}

func fallbackMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") {
		return http.StatusText(status)
	}
	if runes := []rune(text); len(runes) > maxMessageRunes {
		text = string(runes[:maxMessageRunes])
	}
	return text
}
