package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lotuspetal/lotuspetal-api/common/logging"
	"github.com/lotuspetal/lotuspetal-api/common/middleware"
	"github.com/lotuspetal/lotuspetal-api/gateway/internal/handlers"
)

// NewRouter constructs a ServeMux with every hub route and the gateway's own
// endpoints registered.
func NewRouter(gw *handlers.Gateway, svc *handlers.Service, corsOrigins []string, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	// Hub routes: explicit, shortcut and alias paths share one handler.
	for _, rt := range svc.Routes {
		h := gw.Handler(rt)
		for _, pattern := range rt.Patterns() {
			mux.HandleFunc(pattern, h)
		}
	}

	mux.HandleFunc("GET /{$}", svc.Index)

	// Usage and stored events
	mux.HandleFunc("GET /stats/tenants/{tenant}", svc.TenantStats)
	mux.HandleFunc("GET /stats/tenantless", svc.TenantlessStats)
	mux.HandleFunc("GET /events", svc.ListEvents)
	mux.HandleFunc("GET /events/{tenant}", svc.ListEvents)

	// Health endpoints
	mux.HandleFunc("/healthz", svc.Healthz)
	mux.HandleFunc("/readyz", svc.Readyz)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = middleware.CORS(middleware.DefaultCORSConfig(corsOrigins))(handler)
	handler = logging.AccessLog(logger)(handler)
	return middleware.RequestID(handler)
}
