package v1alpha1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/handlers/validator"
	"github.com/synthetica/platform/internal/service"
	"github.com/synthetica/platform/pkg/requestid"
)

type Handler struct {
	customerSrv   *service.CustomerService
	projectSrv    *service.ProjectService
	jobSrv        *service.JobService
	datasetSrv    *service.DatasetService
	chatSrv       *service.ChatService
	saSrv         *service.ServiceAccountService
	eventSrv      *service.EventService
	statisticsSrv *service.StatisticsService
	validator     *validator.Validator
}

func NewHandler(
	customerSrv *service.CustomerService,
	projectSrv *service.ProjectService,
	jobSrv *service.JobService,
	datasetSrv *service.DatasetService,
	chatSrv *service.ChatService,
	saSrv *service.ServiceAccountService,
	eventSrv *service.EventService,
	statisticsSrv *service.StatisticsService,
) *Handler {
	v := validator.NewValidator()
	v.Register(validator.NewPlatformValidationRules()...)

	return &Handler{
		customerSrv:   customerSrv,
		projectSrv:    projectSrv,
		jobSrv:        jobSrv,
		datasetSrv:    datasetSrv,
		chatSrv:       chatSrv,
		saSrv:         saSrv,
		eventSrv:      eventSrv,
		statisticsSrv: statisticsSrv,
		validator:     v,
	}
}

// replyError writes the error shape shared by every endpoint.
func replyError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{Message: message, RequestId: requestid.FromContextPtr(r.Context())})
}

// replyServiceError maps the typed service errors onto http statuses.
func replyServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch err.(type) {
	case *service.ErrResourceNotFound:
		replyError(w, r, http.StatusNotFound, err.Error())
	case *service.ErrResourceForbidden:
		replyError(w, r, http.StatusForbidden, err.Error())
	case *service.ErrDuplicateResource:
		replyError(w, r, http.StatusConflict, err.Error())
	case *service.ErrInvalidJobTransition:
		replyError(w, r, http.StatusConflict, err.Error())
	case *service.ErrProjectArchived:
		replyError(w, r, http.StatusConflict, err.Error())
	case *service.ErrCustomerSuspended:
		replyError(w, r, http.StatusForbidden, err.Error())
	case *service.ErrQuotaExceeded:
		replyError(w, r, http.StatusConflict, err.Error())
	case *service.ErrDatasetRetained:
		replyError(w, r, http.StatusConflict, err.Error())
	default:
		replyError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
