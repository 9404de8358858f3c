package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the single error envelope returned to gateway clients.
type ErrorBody struct {
	Status   int            `json:"status"`
	Detail   string         `json:"detail"`
	Upstream map[string]any `json:"upstream,omitempty"`
}

// WriteJSON writes a JSON response with the given status code and data.
// Encoding errors are logged; the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteRawJSON writes an already-encoded JSON document unchanged.
func WriteRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// WriteError writes the error envelope. upstream may be nil.
func WriteError(w http.ResponseWriter, status int, detail string, upstream map[string]any) {
	if len(upstream) == 0 {
		upstream = nil
	}
	WriteJSON(w, status, ErrorBody{Status: status, Detail: detail, Upstream: upstream})
}
