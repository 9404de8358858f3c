package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/lotuspetal/lotuspetal-api/common/httputil"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
)

// odataNames returns the accepted spellings of an OData option, "$"-prefixed first.
func odataNames(name string) []string {
	return []string{"$" + name, name}
}

// boundedInt reads field from q under any of names and enforces [min, max].
// Out-of-range values are rejected, never clamped.
func boundedInt(q url.Values, field string, names []string, def, min, max int) (int, error) {
	raw, _ := httputil.FirstParam(q, names...)
	v, err := httputil.ParseIntParam(raw, def)
	if err != nil {
		return 0, hubclient.Validation("%s must be an integer", field)
	}
	if v < min || v > max {
		return 0, hubclient.Validation("%s must be between %d and %d, got %d", field, min, max, v)
	}
	return v, nil
}

// minInt reads an optional integer that must be at least min.
func minInt(raw, field string, min int) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := httputil.ParseIntParam(raw, 0)
	if err != nil {
		return nil, hubclient.Validation("%s must be an integer", field)
	}
	if v < min {
		return nil, hubclient.Validation("%s must be at least %d, got %d", field, min, v)
	}
	return &v, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// validTimestamp reports whether s is an ISO-8601 date or date-time.
func validTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// nonEmptyStrings rejects lists containing blank entries.
func nonEmptyStrings(field string, values []string) error {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return hubclient.Validation("%s[%d] must be a non-empty string", field, i)
		}
	}
	return nil
}

// decodeBody decodes a JSON object body into v. An absent body is accepted
// unless required.
func decodeBody(body []byte, v any, required bool) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if required {
			return hubclient.Validation("request body is required")
		}
		return nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return hubclient.Validation("%s must be %s", typeErr.Field, describeType(typeErr.Type))
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return hubclient.Validation("request body is not valid JSON")
		}
		return hubclient.Validation("request body must be a JSON object")
	}
	return nil
}

func describeType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Slice:
		return "a list"
	case reflect.Map, reflect.Struct:
		return "an object"
	default:
		return "a " + t.Kind().String()
	}
}
