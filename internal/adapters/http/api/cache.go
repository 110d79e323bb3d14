package api

import (
	"context"
	"net/http"
)

// CacheDependencies defines caller-controlled cache invalidation.
type CacheDependencies interface {
	InvalidateWeekend(ctx context.Context, weekendID string) int
	InvalidateAll(ctx context.Context) int
}

// CacheHandler handles cache invalidation requests.
type CacheHandler struct {
	deps CacheDependencies
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(deps CacheDependencies) *CacheHandler {
	return &CacheHandler{deps: deps}
}

type invalidateResponse struct {
	Weekend string `json:"weekend,omitempty"`
	Removed int    `json:"removed"`
}

// HandleInvalidate handles POST /api/v1/cache/invalidate[?weekend=ID].
// Without a weekend every entry is dropped.
func (h *CacheHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	weekend := r.URL.Query().Get("weekend")
	if weekend == "" {
		writeJSON(w, http.StatusOK, invalidateResponse{Removed: h.deps.InvalidateAll(r.Context())})
		return
	}
	writeJSON(w, http.StatusOK, invalidateResponse{Weekend: weekend, Removed: h.deps.InvalidateWeekend(r.Context(), weekend)})
}
