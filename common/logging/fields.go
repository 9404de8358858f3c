package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across the gateway.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
	FieldError     = "error"
	FieldTenant    = "tenant"
	FieldRoute     = "route"
	FieldUpstream  = "upstream_url"
	FieldEventID   = "event_id"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// RequestID returns a slog attribute for the request ID.
func RequestID(id string) slog.Attr {
	return slog.String(FieldRequestID, id)
}

// Method returns a slog attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String(FieldMethod, method)
}

// Path returns a slog attribute for the HTTP path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for an elapsed duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Tenant returns a slog attribute for the effective hub tenant.
func Tenant(id string) slog.Attr {
	return slog.String(FieldTenant, id)
}

// Route returns a slog attribute for the gateway route name.
func Route(name string) slog.Attr {
	return slog.String(FieldRoute, name)
}

// Upstream returns a slog attribute for the attempted hub URL.
func Upstream(url string) slog.Attr {
	return slog.String(FieldUpstream, url)
}

// EventID returns a slog attribute for a sourcing event ID.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}
