package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"strategy-sim-go/internal/database"
	"strategy-sim-go/internal/domain"
	"strategy-sim-go/internal/marketdata"
	"strategy-sim-go/internal/metrics"
	"strategy-sim-go/internal/models"
	"strategy-sim-go/internal/pricecache"
	"strategy-sim-go/internal/simulation"
)

const (
	dateLayout       = "2006-01-02"
	defaultListLimit = 50
	maxBodyBytes     = 8 << 20
)

// SimulationRequest is the body of POST /api/simulations. Either Bars or Symbol with a
// date window must be given; unset fields take the configured defaults.
type SimulationRequest struct {
	Symbol         string       `json:"symbol"`
	Strategy       string       `json:"strategy"`
	RiskTolerance  string       `json:"risk_tolerance"`
	InitialCapital *float64     `json:"initial_capital"`
	FeePercentage  *float64     `json:"fee_percentage"`
	Start          string       `json:"start"`
	End            string       `json:"end"`
	Seed           uint64       `json:"seed"`
	MonteCarloRuns int          `json:"monte_carlo_runs"`
	Bars           []domain.Bar `json:"bars"`
}

// RunDetail is the body of GET /api/simulations/{id}.
type RunDetail struct {
	models.SimulationRun
	Metrics metrics.Report `json:"metrics"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, errorResponse) {
	var (
		cfgErr   *domain.ConfigurationError
		inputErr *domain.InvalidInputError
		dataErr  *domain.InsufficientDataError
	)
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Field: cfgErr.Field}
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error()}
	case errors.Is(err, marketdata.ErrNoData), errors.Is(err, database.ErrNotFound), errors.Is(err, pricecache.ErrNotCached):
		return http.StatusNotFound, errorResponse{Error: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.Any("request_id", r.Context().Value(requestIDKey)),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createSimulationHandler(w http.ResponseWriter, r *http.Request) {
	var body SimulationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := s.buildRequest(r, body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.deps.Runner.Run(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.deps.Store != nil {
		if _, err := s.deps.Store.SaveRun(r.Context(), userID(r), res); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	w.Header().Set("Location", "/api/simulations/"+res.RunID)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) buildRequest(r *http.Request, body SimulationRequest) (req simulation.Request, err error) {
	d := s.deps.Defaults
	req = simulation.Request{
		Symbol:         strings.ToUpper(body.Symbol),
		InitialCapital: d.InitialCapital,
		FeePercentage:  d.FeePercentage,
		Seed:           body.Seed,
		MonteCarloRuns: body.MonteCarloRuns,
	}
	if body.InitialCapital != nil {
		req.InitialCapital = *body.InitialCapital
	}
	if body.FeePercentage != nil {
		req.FeePercentage = *body.FeePercentage
	}
	if req.Seed == 0 {
		req.Seed = d.Seed
	}
	if req.MonteCarloRuns == 0 {
		req.MonteCarloRuns = d.MonteCarloRuns
	}

	name := body.Strategy
	if name == "" {
		name = d.Strategy
	}
	if req.Strategy, err = domain.ParseStrategyName(name); err != nil {
		return req, err
	}
	tolerance := body.RiskTolerance
	if tolerance == "" {
		tolerance = d.RiskTolerance
	}
	if req.RiskTolerance, err = domain.ParseRiskTolerance(tolerance); err != nil {
		return req, err
	}

	if len(body.Bars) > 0 {
		req.Bars = body.Bars
		return req, nil
	}
	if req.Symbol == "" {
		return req, &domain.ConfigurationError{Field: "symbol", Reason: "symbol or bars is required"}
	}
	if s.deps.Bars == nil {
		return req, &domain.ConfigurationError{Field: "bars", Reason: "market data is not configured; send bars inline"}
	}

	start, err := parseDate("start", body.Start)
	if err != nil {
		return req, err
	}
	end, err := parseDate("end", body.End)
	if err != nil {
		return req, err
	}
	if !start.IsZero() {
		start = marketdata.PaddedStart(start, req.Strategy)
	}
	req.Bars, err = s.deps.Bars.Bars(r.Context(), req.Symbol, start, end)
	return req, err
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &domain.ConfigurationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (s *Server) listSimulationsHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusNotFound, "run storage is not configured")
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	user := r.URL.Query().Get("user")
	if user == "" {
		user = userID(r)
	}

	runs, err := s.deps.Store.ListRuns(r.Context(), user, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []models.SimulationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getSimulationHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		writeError(w, http.StatusNotFound, "run storage is not configured")
		return
	}
	run, err := s.deps.Store.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	report, err := database.DecodeReport(run)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RunDetail{SimulationRun: *run, Metrics: report})
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Quotes == nil {
		writeError(w, http.StatusNotFound, "price cache is not configured")
		return
	}
	quote, err := s.deps.Quotes.Latest(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
