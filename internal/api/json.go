package api

import (
	"encoding/json"
	"regexp"
	"strings"

	apierrors "github.com/diogo/geminitutor/internal/errors"
)

var jsonFenceRegex = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// ParseJSONResponse decodes model output that may be wrapped in a ```json fence
func ParseJSONResponse[T any](text string) (T, error) {
	var out T

	payload := strings.TrimSpace(text)
	if m := jsonFenceRegex.FindStringSubmatch(payload); m != nil && m[2] != "" {
		payload = strings.TrimSpace(m[2])
	}

	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, apierrors.NewParseError(err.Error(), "json response")
	}
	return out, nil
}
