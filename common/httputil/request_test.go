package httputil

import (
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{name: "X-Forwarded-For single", headers: map[string]string{"X-Forwarded-For": "203.0.113.195"}, expected: "203.0.113.195"},
		{name: "X-Forwarded-For multiple", headers: map[string]string{"X-Forwarded-For": " 203.0.113.195 , 70.41.3.18"}, expected: "203.0.113.195"},
		{name: "X-Real-IP", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, expected: "198.51.100.7"},
		{name: "RemoteAddr fallback", remote: "192.0.2.1:1234", expected: "192.0.2.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			if got := GetClientIP(req); got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFirstParam(t *testing.T) {
	q := url.Values{"top": {"10"}, "$select": {"name"}}

	if v, name := FirstParam(q, "$top", "top"); v != "10" || name != "top" {
		t.Errorf("got (%q, %q), want (10, top)", v, name)
	}
	if v, name := FirstParam(q, "$select", "select"); v != "name" || name != "$select" {
		t.Errorf("got (%q, %q), want (name, $select)", v, name)
	}
	if v, name := FirstParam(q, "$filter", "filter"); v != "" || name != "" {
		t.Errorf("expected no match, got (%q, %q)", v, name)
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		input   string
		def     int
		want    int
		wantErr bool
	}{
		{"", 50, 50, false},
		{"10", 50, 10, false},
		{" 7 ", 50, 7, false},
		{"-1", 50, -1, false},
		{"abc", 50, 0, true},
		{"1.5", 50, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseIntParam(tt.input, tt.def)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntParam(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseIntParam(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseBoolParam(t *testing.T) {
	for in, want := range map[string]bool{"": false, "true": true, "1": true, "false": false} {
		got, err := ParseBoolParam(in)
		if err != nil || got != want {
			t.Errorf("ParseBoolParam(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseBoolParam("maybe"); err == nil {
		t.Error("expected error for non-boolean")
	}
}
