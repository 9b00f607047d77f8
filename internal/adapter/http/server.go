package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/observability"
	"github.com/couchcryptid/water-outage-monitor/internal/query"
)

// OutageQuerier answers outage queries for the API.
type OutageQuerier interface {
	Outages(ctx context.Context, q domain.Query) (query.Result, error)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Server exposes the outage query API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	querier    OutageQuerier
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics
// routes. GET /api/outages is registered when querier is non-nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, querier OutageQuerier, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Upstream fetches may take up to ARCGIS_TIMEOUT.
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		querier: querier,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if querier != nil {
		mux.HandleFunc("GET /api/outages", s.handleOutages)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleOutages(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := domain.NewQuery(params.Get("county"), params.Get("refnum"), params.Get("location"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required parameter: county"})
		return
	}

	res, err := s.querier.Outages(r.Context(), q)
	if err != nil {
		s.logger.Error("outage query failed", "county", q.County, "error", err,
			"upstream", errors.Is(err, domain.ErrUpstreamFetch))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to fetch outage data",
			Details: err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	s.metrics.APIRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
