package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		status int
		data   any
	}{
		{name: "map", status: http.StatusOK, data: map[string]string{"message": "success"}},
		{name: "struct", status: http.StatusCreated, data: struct{ ID string }{"123"}},
		{name: "slice", status: http.StatusOK, data: []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content type application/json, got %s", ct)
			}
			if !json.Valid(w.Body.Bytes()) {
				t.Errorf("response is not valid JSON: %s", w.Body.String())
			}
		})
	}
}

func TestWriteRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteRawJSON(w, http.StatusOK, json.RawMessage(`{"value":[1,2]}`))
	if w.Body.String() != `{"value":[1,2]}` {
		t.Errorf("body was modified: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	WriteRawJSON(w, http.StatusOK, nil)
	if w.Body.String() != "null" {
		t.Errorf("expected null for empty body, got %s", w.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name         string
		upstream     map[string]any
		wantUpstream bool
	}{
		{name: "without payload", upstream: nil},
		{name: "empty payload omitted", upstream: map[string]any{}},
		{name: "with payload", upstream: map[string]any{"detail": "not found"}, wantUpstream: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, http.StatusNotFound, "not found", tt.upstream)

			if w.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", w.Code)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["status"] != float64(404) {
				t.Errorf("expected status field 404, got %v", body["status"])
			}
			if body["detail"] != "not found" {
				t.Errorf("expected detail 'not found', got %v", body["detail"])
			}
			if _, ok := body["upstream"]; ok != tt.wantUpstream {
				t.Errorf("upstream present = %v, want %v", ok, tt.wantUpstream)
			}
		})
	}
}
