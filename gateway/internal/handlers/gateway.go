package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/lotuspetal/lotuspetal-api/common/httputil"
	"github.com/lotuspetal/lotuspetal-api/common/logging"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/hubclient"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/metrics"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/routes"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/tenant"
)

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1 << 20

// Upstream executes hub calls. *hubclient.Client implements it.
type Upstream interface {
	Do(ctx context.Context, call hubclient.Call) (json.RawMessage, error)
}

// Timeouts are the hub call deadlines per route class.
type Timeouts struct {
	Control time.Duration
	Read    time.Duration
}

// For returns the deadline for routes of class.
func (t Timeouts) For(class routes.TimeoutClass) time.Duration {
	if class == routes.ReadTimeout {
		return t.Read
	}
	return t.Control
}

// Gateway turns route table entries into HTTP handlers.
type Gateway struct {
	upstream Upstream
	resolver tenant.Resolver
	timeouts Timeouts
	logger   *logging.Logger
}

// NewGateway creates a Gateway. A nil logger uses logging.Default.
func NewGateway(upstream Upstream, resolver tenant.Resolver, timeouts Timeouts, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{upstream: upstream, resolver: resolver, timeouts: timeouts, logger: logger}
}

// Handler returns the handler shared by all paths of rt. The explicit and
// shortcut variants differ only in whether {tenant} is present.
func (g *Gateway) Handler(rt routes.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := g.serve(w, r, rt)
		metrics.RecordRequest(rt.Name, status, time.Since(start).Seconds())
	}
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request, rt routes.Route) int {
	ctx := r.Context()

	var effectiveTenant string
	if !rt.Tenantless {
		effectiveTenant = g.resolver.Resolve(r.PathValue("tenant"))
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return g.fail(w, r, rt, hubclient.Validation("request body exceeds %d bytes", tooLarge.Limit))
		}
		return g.fail(w, r, rt, hubclient.Validation("cannot read request body"))
	}

	call, err := rt.Build(routes.Request{
		Tenant:  effectiveTenant,
		Logical: r.PathValue("logical"),
		Query:   r.URL.Query(),
		Body:    body,
	})
	if err != nil {
		metrics.ValidationErrors.WithLabelValues(rt.Name).Inc()
		return g.fail(w, r, rt, err)
	}
	call.Route = rt.Name
	call.Timeout = g.timeouts.For(rt.Timeout)

	result, err := g.upstream.Do(ctx, call)
	if err != nil {
		ue := hubclient.AsUpstreamError(err)
		if rt.Relaxed && ue.Kind == hubclient.KindUpstream {
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"ok":     false,
				"status": ue.StatusCode,
				"error":  ue.Body,
			})
			g.logger.WarnContext(ctx, "hub error downgraded",
				logging.Route(rt.Name), logging.Status(ue.StatusCode), logging.Upstream(ue.URL))
			return http.StatusOK
		}
		if rt.Timeout == routes.ReadTimeout && ue.Kind == hubclient.KindTimeout {
			ue = &hubclient.UpstreamError{
				StatusCode: ue.StatusCode,
				Message:    "gateway timeout calling upstream at " + ue.URL,
				Kind:       ue.Kind,
				URL:        ue.URL,
			}
		}
		return g.fail(w, r, rt, ue)
	}

	httputil.WriteRawJSON(w, http.StatusOK, result)
	return http.StatusOK
}

// fail writes the error envelope. A canceled caller gets nothing back.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, rt routes.Route, err error) int {
	ue := hubclient.AsUpstreamError(err)
	attrs := []any{
		logging.Route(rt.Name),
		logging.Status(ue.StatusCode),
		logging.Error(ue),
	}
	if ue.URL != "" {
		attrs = append(attrs, logging.Upstream(ue.URL))
	}

	switch ue.Kind {
	case hubclient.KindCanceled:
		g.logger.InfoContext(r.Context(), "caller went away before hub answered", attrs...)
		return ue.StatusCode
	case hubclient.KindValidation:
		g.logger.DebugContext(r.Context(), "request rejected", attrs...)
	default:
		g.logger.WarnContext(r.Context(), "hub call failed", attrs...)
	}

	var payload map[string]any
	if ue.Kind == hubclient.KindUpstream {
		payload = ue.Payload
	}
	httputil.WriteError(w, ue.StatusCode, ue.Message, payload)
	return ue.StatusCode
}
