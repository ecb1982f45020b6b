package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/slogx"
)

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

// HandleCreate godoc
//
//	@Summary		Create Invitation Code
//	@Description	Mint a new invitation code bound to an institution or scholarship. Super admin only.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateInvitationRequest	true	"Invitation request"
//	@Success		201		{object}	InvitationResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InvitationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req CreateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.EntityID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "entity_id is required")
		return
	}

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if req.ExpiresInDays < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "expires_in_days must be positive")
		return
	}

	var expiresAt time.Time
	switch {
	case req.ExpiresInDays > 0:
		expiresAt = time.Now().UTC().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
	case req.ExpiresAt != 0:
		expiresAt = time.Unix(req.ExpiresAt, 0)
	}

	inv, err := h.InvitationService.CreateInvitation(
		ctx,
		domain.EntityType(req.EntityType),
		req.EntityID,
		req.AssignedEmail,
		expiresAt,
		claims.Subject,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEntityType):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "entity_type must be institution or scholarship")
		case errors.Is(err, service.ErrUnknownEntity):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Entity not found")
		case errors.Is(err, service.ErrInvalidExpiry):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "expires_at must be in the future")
		default:
			log.Error("failed to create invitation", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toInvitationResponse(inv))
}

// HandleList godoc
//
//	@Summary		List Invitation Codes
//	@Description	List recent invitations, optionally filtered by status. Super admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"	Enums(pending, claimed, expired, revoked)
//	@Success		200		{array}		InvitationResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invitations [get].
func (h *InvitationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	status := domain.InvitationStatus(r.URL.Query().Get("status"))
	invs, err := h.InvitationService.ListInvitations(ctx, status, 0)
	if err != nil {
		log.Error("failed to list invitations", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list invitations")
		return
	}

	out := make([]InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitationResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleRevoke godoc
//
//	@Summary		Revoke Invitation Code
//	@Description	Cancel a pending invitation so it can no longer be claimed. Super admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Invitation id"
//	@Success		204	"Revoked"
//	@Failure		400	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id}/revoke [post].
func (h *InvitationHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")
	if err := h.InvitationService.RevokeInvitation(ctx, id); err != nil {
		if errors.Is(err, service.ErrInvalidInvitation) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invitation not found or already settled")
			return
		}
		log.Error("failed to revoke invitation", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to revoke invitation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleValidate godoc
//
//	@Summary		Validate Invitation Code
//	@Description	Check whether a code can still be redeemed. Public endpoint; invalid codes are reported uniformly.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ValidateInvitationRequest	true	"Code to check"
//	@Success		200		{object}	ValidateInvitationResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Router			/v1/invitations/validate [post].
func (h *InvitationHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ValidateInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Code == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	v, err := h.InvitationService.ValidateInvitation(ctx, req.Code)
	if err != nil {
		log.Error("failed to validate invitation", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to validate invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ValidateInvitationResponse{
		Valid:      v.Valid,
		EntityType: string(v.EntityType),
		EntityID:   v.EntityID,
		EntityName: v.EntityName,
		Message:    v.Message,
	})
}
