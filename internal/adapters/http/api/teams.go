package api

import (
	"context"
	"net/http"

	"github.com/aaronukgarcia/prixsix/internal/domain/model"
	"github.com/aaronukgarcia/prixsix/internal/domain/window"
)

// TeamsDependencies defines the team listing operation.
type TeamsDependencies interface {
	Teams(ctx context.Context, limit int, cursor string) (window.Window[model.Team], error)
}

// TeamsHandler handles team listing requests.
type TeamsHandler struct {
	deps TeamsDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleListTeams handles GET /api/v1/teams?limit=N&cursor=C.
func (h *TeamsHandler) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_teams"
	limit, cursor, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	page, err := h.deps.Teams(r.Context(), limit, cursor)
	if err != nil {
		writeUpstreamError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPage(page))
}
