package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	api "github.com/synthetica/platform/api/v1alpha1"
	"github.com/synthetica/platform/internal/service/mappers"
	"github.com/synthetica/platform/internal/store"
	"github.com/synthetica/platform/internal/store/model"
)

var (
	customerStatuses = []string{model.CustomerStatusActive, model.CustomerStatusSuspended}
	billingTiers     = []string{model.BillingTierFree, model.BillingTierPro, model.BillingTierEnterprise}
)

// (GET /api/v1/customers)
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	filter := store.NewCustomerQueryFilter()
	if status := r.URL.Query().Get("status"); status != "" {
		if !funk.Contains(customerStatuses, status) {
			replyError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown customer status %q", status))
			return
		}
		filter = filter.ByStatus(status)
	}
	if tier := r.URL.Query().Get("billing_tier"); tier != "" {
		if !funk.Contains(billingTiers, tier) {
			replyError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown billing tier %q", tier))
			return
		}
		filter = filter.ByBillingTier(tier)
	}

	customers, err := h.customerSrv.ListCustomers(r.Context(), filter)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CustomerListToApi(customers))
}

// (POST /api/v1/customers)
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var form api.CustomerCreate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.customerSrv.CreateCustomer(r.Context(), form)
	if err != nil {
		zap.S().Named("customer_handler").Errorw("failed to create customer", "error", err, "org_id", form.OrgId)
		replyServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, mappers.CustomerToApi(*customer))
}

// (GET /api/v1/customers/{id})
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customerSrv.GetCustomer(r.Context(), id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CustomerToApi(*customer))
}

// (PATCH /api/v1/customers/{id})
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}

	var form api.CustomerUpdate
	if err := render.DecodeJSON(r.Body, &form); err != nil {
		replyError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		replyError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.customerSrv.UpdateCustomer(r.Context(), id, form)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CustomerToApi(*customer))
}

// (DELETE /api/v1/customers/{id})
//
// Customers are never hard-deleted, delete suspends the org.
func (h *Handler) SuspendCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customerSrv.SuspendCustomer(r.Context(), id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CustomerToApi(*customer))
}

// (POST /api/v1/customers/{id}/reactivate)
func (h *Handler) ReactivateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}

	customer, err := h.customerSrv.ReactivateCustomer(r.Context(), id)
	if err != nil {
		replyServiceError(w, r, err)
		return
	}

	render.JSON(w, r, mappers.CustomerToApi(*customer))
}

// (POST /api/v1/customers/{id}/service-account/rotate)
func (h *Handler) RotateServiceAccountKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		replyError(w, r, http.StatusBadRequest, "invalid customer id")
		return
	}

	key, err := h.saSrv.RotateKey(r.Context(), id)
	if err != nil {
		zap.S().Named("customer_handler").Errorw("failed to rotate service account key", "error", err, "customer_id", id)
		replyServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.ServiceAccountKey{KeyId: key.KeyID, PrivateKeyData: key.PrivateKeyData})
}
