// Package api exposes simulations, stored runs and cached quotes over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"strategy-sim-go/internal/config"
	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/marketdata"
	"strategy-sim-go/internal/models"
	"strategy-sim-go/internal/simulation"
)

// Runner executes a simulation.
type Runner interface {
	Run(ctx context.Context, req simulation.Request) (*simulation.Result, error)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, userID string, res *simulation.Result) (*models.SimulationRun, error)
	ListRuns(ctx context.Context, userID string, limit int) ([]models.SimulationRun, error)
	GetRun(ctx context.Context, runID string) (*models.SimulationRun, error)
}

// BarSource loads daily bars for a symbol.
type BarSource interface {
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// QuoteSource returns the latest cached quote.
type QuoteSource interface {
	Latest(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// Deps are the collaborators of the server. Bars and Quotes may be nil, which disables
// fetching bars by symbol and the quote endpoint.
type Deps struct {
	Runner   Runner
	Store    RunStore
	Bars     BarSource
	Quotes   QuoteSource
	Defaults config.Simulation
	Registry *prometheus.Registry
	Logger   *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	router   *mux.Router
	server   *http.Server
	deps     Deps
	logger   *zap.Logger
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

type ctxKey int

const requestIDKey ctxKey = iota

// NewServer creates a server listening on cfg.Port.
func NewServer(cfg config.Server, deps Deps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		logger: deps.Logger.Named("api-server"),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simulator_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simulator_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	deps.Registry.MustRegister(s.requests, s.latency)

	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.instrumentMiddleware)

	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/simulations", s.createSimulationHandler).Methods(http.MethodPost)
	api.HandleFunc("/simulations", s.listSimulationsHandler).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", s.getSimulationHandler).Methods(http.MethodGet)
	api.HandleFunc("/quotes/{symbol}", s.quoteHandler).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		s.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.latency.WithLabelValues(route).Observe(elapsed.Seconds())

		s.logger.Debug("Request served",
			zap.Any("request_id", r.Context().Value(requestIDKey)),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}
