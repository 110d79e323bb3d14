package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
)

// EventsDependencies defines the event read operations.
type EventsDependencies interface {
	Events(ctx context.Context, completedOnly bool) ([]model.EventDescriptor, error)
	EventResults(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.TeamEventResult], error)
	TeamResult(ctx context.Context, eventID, teamID string) (model.TeamEventResult, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventsDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventsDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleListEvents handles GET /api/v1/events[?completed=true].
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"
	completed := false
	if s := r.URL.Query().Get("completed"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		completed = b
	}
	events, err := h.deps.Events(r.Context(), completed)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleEventResults handles GET /api/v1/events/{eventID}/results.
func (h *EventsHandler) HandleEventResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.event_results"
	limit, cursor, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	page, err := h.deps.EventResults(r.Context(), mux.Vars(r)["eventID"], limit, cursor)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(page))
}

// HandleTeamResult handles GET /api/v1/events/{eventID}/results/{teamID}.
func (h *EventsHandler) HandleTeamResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_result"
	vars := mux.Vars(r)
	res, err := h.deps.TeamResult(r.Context(), vars["eventID"], vars["teamID"])
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
