package hubclient

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusClientClosedRequest is reported when the inbound caller went away
// before the hub answered.
const StatusClientClosedRequest = 499

// Kind classifies an UpstreamError.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindConnectivity    Kind = "connectivity"
	KindTimeout         Kind = "timeout"
	KindCanceled        Kind = "canceled"
	KindUpstream        Kind = "upstream"
	KindInvalidResponse Kind = "invalid_response"
)

// UpstreamError is the only error type returned across gateway components.
// StatusCode is the status the gateway answers with.
type UpstreamError struct {
	StatusCode int
	Message    string
	Payload    map[string]any
	Kind       Kind

	// Body is the raw hub response text for KindUpstream.
	Body string
	// URL is the hub URL that was attempted, if any.
	URL string
}

func (e *UpstreamError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s (%d) %s: %s", e.Kind, e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

// Validation returns a 400 error raised before any hub call.
func Validation(format string, args ...any) *UpstreamError {
	return &UpstreamError{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, args...),
		Kind:       KindValidation,
	}
}

// AsUpstreamError extracts an *UpstreamError from err. Any other error is
// reported as a 502 connectivity failure.
func AsUpstreamError(err error) *UpstreamError {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue
	}
	return &UpstreamError{
		StatusCode: http.StatusBadGateway,
		Message:    err.Error(),
		Kind:       KindConnectivity,
	}
}

// IsKind reports whether err is an UpstreamError of kind k.
func IsKind(err error, k Kind) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == k
}
