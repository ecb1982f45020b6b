package http

import (
	"net/http"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/slogx"
)

type EntitlementHandler struct {
	BillingService *service.BillingService
}

// ServeHTTP godoc
//
//	@Summary		Check Entitlement
//	@Description	Resolve the current access verdict for the authenticated admin's entity.
//	@Tags			Billing
//	@Produce		json
//	@Success		200	{object}	entitlement.Access
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/entitlement [get].
func (h *EntitlementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	access, err := h.BillingService.Entitlement(ctx, domain.EntityType(claims.EntityType), claims.EntityID)
	if err != nil {
		log.Error("failed to resolve entitlement", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to resolve entitlement")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, access)
}
