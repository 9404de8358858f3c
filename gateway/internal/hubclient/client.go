// Package hubclient calls the connector hub and classifies every failure
// into an *UpstreamError.
package hubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lotuspetal/lotuspetal-api/common/middleware"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/metrics"
)

const userAgent = "lotuspetal-gateway"

// Recorder observes completed hub calls. status is 0 for transport failures.
type Recorder interface {
	RecordCall(tenant, route string, status int)
}

// Call describes a single hub request.
type Call struct {
	// Route names the gateway route for metrics and usage stats.
	Route  string
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body   any
	Tenant string
	// Timeout overrides the client default when positive.
	Timeout time.Duration
}

// Options configures a Client.
type Options struct {
	BaseURL             string
	Token               string
	AuthMode            string
	Timeout             time.Duration
	MaxIdleConnsPerHost int
	Recorder            Recorder

	// HTTPClient replaces the default pooled client. Tests only.
	HTTPClient *http.Client
}

// Client is safe for concurrent use and immutable after New.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	auth       authenticator
	recorder   Recorder
}

// New constructs a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		maxIdle := opts.MaxIdleConnsPerHost
		if maxIdle <= 0 {
			maxIdle = 32
		}
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxIdle * 4,
				MaxIdleConnsPerHost: maxIdle,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		auth:       authenticator{mode: opts.AuthMode, token: opts.Token, now: time.Now},
		recorder:   opts.Recorder,
	}
}

// BaseURL returns the configured hub base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL builds the full hub URL. Query keys are encoded in sorted order.
func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do executes call and returns the hub's JSON body verbatim. The returned
// error is always an *UpstreamError.
func (c *Client) Do(ctx context.Context, call Call) (json.RawMessage, error) {
	target := c.URL(call.Path, call.Query)
	start := time.Now()

	body, status, err := c.do(ctx, call, target)

	outcome := "ok"
	if err != nil {
		ue := AsUpstreamError(err)
		outcome = string(ue.Kind)
		if ue.Kind == KindUpstream {
			status = ue.StatusCode
		}
	}
	metrics.RecordUpstreamCall(call.Route, outcome, time.Since(start).Seconds())
	if c.recorder != nil {
		c.recorder.RecordCall(call.Tenant, call.Route, status)
	}

	return body, err
}

func (c *Client) do(ctx context.Context, call Call, target string) (json.RawMessage, int, error) {
	var reader io.Reader
	if call.Body != nil {
		buf, err := json.Marshal(call.Body)
		if err != nil {
			return nil, 0, Validation("request body cannot be encoded: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, call.Method, target, reader)
	if err != nil {
		return nil, 0, &UpstreamError{
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("cannot build upstream request for %s: %v", target, err),
			Kind:       KindConnectivity,
			URL:        target,
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderRequestID, reqID)
	}
	if err := c.auth.apply(req, call.Tenant); err != nil {
		return nil, 0, &UpstreamError{
			StatusCode: http.StatusBadGateway,
			Message:    err.Error(),
			Kind:       KindConnectivity,
			URL:        target,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, transportError(ctx, callCtx, err, target)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, transportError(ctx, callCtx, err, target)
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, upstreamFailure(resp.StatusCode, raw, target)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null"), resp.StatusCode, nil
	}
	if !json.Valid(raw) {
		return nil, resp.StatusCode, &UpstreamError{
			StatusCode: http.StatusBadGateway,
			Message:    "upstream returned invalid JSON",
			Kind:       KindInvalidResponse,
			Body:       string(raw),
			URL:        target,
		}
	}

	return json.RawMessage(raw), resp.StatusCode, nil
}

// transportError classifies a failure that produced no hub status.
// parent is the inbound context, callCtx the one carrying the call timeout.
func transportError(parent, callCtx context.Context, err error, target string) *UpstreamError {
	if errors.Is(parent.Err(), context.Canceled) {
		return &UpstreamError{
			StatusCode: StatusClientClosedRequest,
			Message:    "request canceled by client",
			Kind:       KindCanceled,
			URL:        target,
		}
	}

	var netErr net.Error
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamError{
			StatusCode: http.StatusGatewayTimeout,
			Message:    "upstream timed out at " + target,
			Kind:       KindTimeout,
			URL:        target,
		}
	}

	return &UpstreamError{
		StatusCode: http.StatusBadGateway,
		Message:    "cannot reach upstream at " + target,
		Kind:       KindConnectivity,
		URL:        target,
	}
}

// upstreamFailure builds the error for a hub response with status >= 400.
func upstreamFailure(status int, raw []byte, target string) *UpstreamError {
	text := string(raw)
	ue := &UpstreamError{
		StatusCode: status,
		Kind:       KindUpstream,
		Body:       text,
		URL:        target,
		Payload:    map[string]any{},
	}

	var parsed any
	if len(bytes.TrimSpace(raw)) > 0 && json.Unmarshal(raw, &parsed) == nil {
		if obj, ok := parsed.(map[string]any); ok {
			ue.Payload = obj
			if detail, ok := obj["detail"]; ok && detail != nil {
				if s, ok := detail.(string); ok {
					ue.Message = s
				} else if b, err := json.Marshal(detail); err == nil {
					ue.Message = string(b)
				}
			}
		}
	}

	if ue.Message == "" {
		ue.Message = strings.TrimSpace(text)
	}
	if ue.Message == "" {
		ue.Message = http.StatusText(status)
	}
	return ue
}
