package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/service/mappers"
)

// This variable is set during build time.
var version string

// (GET /health)
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// (GET /version)
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.VersionInfo{Version: version})
}

// (POST /api/v1/events)
func (h *Handler) PushEvents(w http.ResponseWriter, r *http.Request) {
	var apiEvent api.Event
	if err := render.DecodeJSON(r.Body, &apiEvent); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	h.eventSrv.PushEvent(r.Context(), apiEvent)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, struct{}{})
}

// (GET /api/v1/admin/statistics)
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statisticsSrv.GetStatistics(r.Context())
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.StatisticsToApi(stats))
}
