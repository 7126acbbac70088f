package v1alpha1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/service/mappers"
	"github.com/synthetica/platform/internal/store"
)

// (GET /api/v1/projects/{id}/jobs)
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	projectID, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	opts := store.NewJobQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 {
		opts = opts.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && offset > 0 {
		opts = opts.WithOffset(offset)
	}

	jobs, err := h.jobSrv.ListJobs(r.Context(), user, projectID, opts)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs))
}

// (POST /api/v1/projects/{id}/jobs)
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	projectID, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	var form api.JobCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), user, projectID, form)
	if err != nil {
		zap.S().Named("job_handler").Errorw("failed to create job", "error", err, "project_id", projectID, "org_id", user.Organization)
		replyServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.JobToApi(*job))
}

// (GET /api/v1/jobs/{id})
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobSrv.GetJob(r.Context(), user, id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (POST /api/v1/jobs/{id}/cancel)
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobSrv.CancelJob(r.Context(), user, id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}
