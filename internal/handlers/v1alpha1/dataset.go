package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/auth"
	"github.com/synthetica/platform/internal/service/mappers"
)

// (GET /api/v1/projects/{id}/datasets)
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	projectID, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid project id")
		return
	}

	datasets, err := h.datasetSrv.ListDatasets(r.Context(), user, projectID)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.DatasetListToApi(datasets))
}

// (GET /api/v1/datasets/{id}/download-url)
func (h *Handler) GetDatasetDownloadURL(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid dataset id")
		return
	}

	url, expiresAt, err := h.datasetSrv.GetDownloadURL(r.Context(), user, id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, api.DatasetDownloadURL{Url: url, ExpiresAt: expiresAt})
}

// (DELETE /api/v1/datasets/{id})
func (h *Handler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid dataset id")
		return
	}

	if err := h.datasetSrv.DeleteDataset(r.Context(), user, id); err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// (POST /api/v1/datasets/{id}/chat)
func (h *Handler) ChatWithDataset(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())

	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid dataset id")
		return
	}

	var form api.ChatRequest
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.chatSrv.Chat(r.Context(), user, id, form.Prompt)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, api.ChatResponse{Reply: reply})
}
