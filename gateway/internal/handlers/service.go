// Package handlers holds the HTTP handlers of the gateway: the generated
// hub-forwarding handlers and the gateway's own service endpoints.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/lotuspetal/lotuspetal-api/common/httputil"
	"github.com/lotuspetal/lotuspetal-api/common/logging"
	"github.com/lotuspetal/lotuspetal-api/common/messaging"
	"github.com/lotuspetal/lotuspetal-api/common/usagestats"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/events"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/routes"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/tenant"
)

const serviceName = "lotuspetal-gateway"

// StatsReader reads per-tenant usage. *usagestats.Client implements it.
type StatsReader interface {
	GetStats(ctx context.Context, tenant string) (*usagestats.Stats, error)
	Ping(ctx context.Context) error
}

// Service serves the gateway's own endpoints.
type Service struct {
	Routes   []routes.Route
	Resolver tenant.Resolver
	HubURL   string
	Store    events.Store
	// Stats is nil when usage stats are disabled.
	Stats StatsReader
	// Bus is nil when event ingestion is disabled.
	Bus    messaging.Client
	Logger *logging.Logger
}

type routeInfo struct {
	Name     string   `json:"name"`
	Summary  string   `json:"summary"`
	Methods  string   `json:"methods"`
	Path     string   `json:"path"`
	Shortcut string   `json:"shortcut,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
}

// Index lists the public routes.
func (s *Service) Index(w http.ResponseWriter, r *http.Request) {
	infos := make([]routeInfo, 0, len(s.Routes))
	for _, rt := range s.Routes {
		infos = append(infos, routeInfo{
			Name:     rt.Name,
			Summary:  rt.Summary,
			Methods:  rt.MethodList(),
			Path:     rt.Path,
			Shortcut: rt.Shortcut,
			Aliases:  rt.Aliases,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"service":        serviceName,
		"default_tenant": s.Resolver.Default,
		"hub":            s.HubURL,
		"routes":         infos,
	})
}

func (s *Service) Healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Readyz checks the event store and, when enabled, redis and NATS.
func (s *Service) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true

	if err := s.Store.Ping(ctx); err != nil {
		checks["event_store"] = err.Error()
		ready = false
	} else {
		checks["event_store"] = "ok"
	}

	if s.Stats != nil {
		if err := s.Stats.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if s.Bus != nil {
		if health := messaging.CheckClientHealth(s.Bus); !health.Connected {
			checks["nats"] = health.Error
			ready = false
		} else {
			checks["nats"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// TenantStats returns usage counters for {tenant}.
func (s *Service) TenantStats(w http.ResponseWriter, r *http.Request) {
	t := r.PathValue("tenant")
	s.writeStats(w, r, t, "tenant "+t)
}

// TenantlessStats returns usage counters of tenantless routes.
func (s *Service) TenantlessStats(w http.ResponseWriter, r *http.Request) {
	s.writeStats(w, r, usagestats.Tenantless, "tenantless routes")
}

func (s *Service) writeStats(w http.ResponseWriter, r *http.Request, t, label string) {
	if s.Stats == nil {
		httputil.WriteError(w, http.StatusNotFound, "usage stats are not enabled", nil)
		return
	}

	stats, err := s.Stats.GetStats(r.Context(), t)
	if errors.Is(err, usagestats.ErrNoStats) {
		httputil.WriteError(w, http.StatusNotFound, "no usage recorded for "+label, nil)
		return
	}
	if err != nil {
		s.logger().ErrorContext(r.Context(), "failed to read usage stats", logging.Tenant(t), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to read usage stats", nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// ListEvents lists stored sourcing events for {tenant} or the default tenant.
func (s *Service) ListEvents(w http.ResponseWriter, r *http.Request) {
	t := s.Resolver.Resolve(r.PathValue("tenant"))

	list, err := s.Store.List(r.Context(), t)
	if err != nil {
		s.logger().ErrorContext(r.Context(), "failed to list events", logging.Tenant(t), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list events", nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"tenant_id": t,
		"count":     len(list),
		"events":    list,
	})
}

func (s *Service) logger() *logging.Logger {
	if s.Logger == nil {
		return logging.Default()
	}
	return s.Logger
}
