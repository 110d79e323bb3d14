package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
)

// StandingsDependencies defines the standings read operations.
type StandingsDependencies interface {
	Standings(ctx context.Context, eventID string, limit int, cursor string) (window.Window[model.StandingsRow], error)
	LatestCompleted(ctx context.Context) (model.EventDescriptor, bool, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps StandingsDependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsDependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

type standingsResponse struct {
	EventID string `json:"event_id"`
	pageResponse[model.StandingsRow]
}

// HandleStandings handles GET /api/v1/standings/{eventID}?limit=N&cursor=C.
func (h *StandingsHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.standings", mux.Vars(r)["eventID"])
}

// HandleLatestStandings serves standings as of the latest completed event.
func (h *StandingsHandler) HandleLatestStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.latest_standings"
	ev, ok, err := h.deps.LatestCompleted(r.Context())
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	h.serve(w, r, op, ev.ID)
}

func (h *StandingsHandler) serve(w http.ResponseWriter, r *http.Request, op, eventID string) {
	limit, cursor, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	page, err := h.deps.Standings(r.Context(), eventID, limit, cursor)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, standingsResponse{EventID: model.NormalizeID(eventID), pageResponse: toPage(page)})
}
