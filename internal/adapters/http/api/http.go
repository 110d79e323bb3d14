// Package api serves the read-only league HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aaronukgarcia/prixsix/internal/adapters/repository"
	service "github.com/aaronukgarcia/prixsix/internal/app"
	"github.com/aaronukgarcia/prixsix/internal/domain/catalog"
	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EventsDependencies
	StandingsDependencies
	TeamsDependencies
	CacheDependencies
}

// Server wires HTTP routes for the league API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	standingsHandler *StandingsHandler
	teamsHandler     *TeamsHandler
	cacheHandler     *CacheHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps),
		standingsHandler: NewStandingsHandler(deps),
		teamsHandler:     NewTeamsHandler(deps),
		cacheHandler:     NewCacheHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r *mux.Router) {
	r.Use(RequestIDMiddleware)

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.Handle("/metrics", s.healthHandler.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleListEvents, "events")).Methods(http.MethodGet)
	v1.HandleFunc("/events/{eventID}/results", MetricsMiddleware(s.eventsHandler.HandleEventResults, "event_results")).Methods(http.MethodGet)
	v1.HandleFunc("/events/{eventID}/results/{teamID}", MetricsMiddleware(s.eventsHandler.HandleTeamResult, "team_result")).Methods(http.MethodGet)
	v1.HandleFunc("/standings", MetricsMiddleware(s.standingsHandler.HandleLatestStandings, "standings")).Methods(http.MethodGet)
	v1.HandleFunc("/standings/{eventID}", MetricsMiddleware(s.standingsHandler.HandleStandings, "standings")).Methods(http.MethodGet)
	v1.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandleListTeams, "teams")).Methods(http.MethodGet)
	v1.HandleFunc("/cache/invalidate", MetricsMiddleware(s.cacheHandler.HandleInvalidate, "cache_invalidate")).Methods(http.MethodPost)
}

// Handler returns a router with every route registered.
func (s *Server) Handler() *mux.Router {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// pageResponse is the wire shape of one window of rows.
type pageResponse[T any] struct {
	Rows       []T    `json:"rows"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
	Shown      int    `json:"shown"`
	TotalCount int    `json:"total_count"`
	Progress   string `json:"progress"`
}

func toPage[T any](w window.Window[T]) pageResponse[T] {
	rows := w.Rows
	if rows == nil {
		rows = []T{}
	}
	return pageResponse[T]{
		Rows:       rows,
		NextCursor: w.NextCursor,
		HasMore:    w.HasMore,
		Shown:      w.Shown,
		TotalCount: w.TotalCount,
		Progress:   w.Progress(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeUpstreamError maps an error from the read layer to a status code.
func writeUpstreamError(w http.ResponseWriter, op string, err error) {
	switch {
	case isBadRequest(err):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case isInvalidRecords(err):
		writeError(w, http.StatusUnprocessableEntity, "invalid_records", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, window.ErrInvalidCursor) ||
		errors.Is(err, window.ErrInvalidPageSize)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, service.ErrEventNotFound) ||
		errors.Is(err, service.ErrTeamNotFound) ||
		errors.Is(err, repository.ErrNotFound)
}

// isInvalidRecords reports stored league data that cannot be served as is:
// a malformed schedule, prediction, or result.
func isInvalidRecords(err error) bool {
	return errors.Is(err, repository.ErrInvalidRecord) ||
		errors.Is(err, catalog.ErrInvalidSchedule) ||
		errors.Is(err, model.ErrInvalidPrediction) ||
		errors.Is(err, model.ErrInvalidResult)
}

// pageParams reads ?limit= and ?cursor=. A missing limit is 0 (server default).
func pageParams(r *http.Request) (limit int, cursor string, err error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 {
			return 0, "", ErrBadRequest
		}
	}
	return limit, q.Get("cursor"), nil
}
