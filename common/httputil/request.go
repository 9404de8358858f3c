package httputil

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GetClientIP extracts the real client IP address from request headers.
// It checks X-Forwarded-For (first entry), then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// FirstParam returns the first non-empty value among the given query
// parameter names, along with the name that matched.
//
// Example:
//
//	v, name := httputil.FirstParam(r.URL.Query(), "$top", "top")
func FirstParam(q url.Values, names ...string) (string, string) {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v, name
		}
	}
	return "", ""
}

// ParseIntParam parses an integer parameter with a default value.
// An empty string yields defaultVal; a malformed one is an error.
func ParseIntParam(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return v, nil
}

// ParseBoolParam parses a boolean parameter. An empty string yields false.
func ParseBoolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return v, nil
}
