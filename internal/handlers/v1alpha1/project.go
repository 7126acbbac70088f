package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/service/mappers"
)

// (GET /api/v1/projects)
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	projects, err := h.projectSrv.ListProjects(r.Context(), user)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ProjectListToApi(projects))
}

// (POST /api/v1/projects)
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	var form api.ProjectCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectSrv.CreateProject(r.Context(), user, form)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.ProjectToApi(*project))
}

// (GET /api/v1/projects/{id})
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	project, err := h.projectSrv.GetProject(r.Context(), user, id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ProjectToApi(*project))
}

// (PATCH /api/v1/projects/{id})
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	var form api.ProjectUpdate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectSrv.UpdateProject(r.Context(), user, id, form)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ProjectToApi(*project))
}

// (DELETE /api/v1/projects/{id})
//
// Projects are archived, not deleted.
func (h *Handler) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	project, err := h.projectSrv.ArchiveProject(r.Context(), user, id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.ProjectToApi(*project))
}

// (POST /api/v1/projects/{id}/members)
func (h *Handler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	var form api.ProjectMemberAdd
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.projectSrv.AddProjectMember(r.Context(), user, id, form)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.ProjectToApi(*project))
}

// (DELETE /api/v1/projects/{id}/members/{username})
func (h *Handler) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	username := chi.URLParam(r, "username")
	if username == "" {
		replyError(w, r, http.StatusBadRequest, "invalid username")
		return
	}

	if err := h.projectSrv.RemoveProjectMember(r.Context(), user, id, username); err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}
