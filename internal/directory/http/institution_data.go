package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/slogx"
)

type InstitutionDataHandler struct {
	InstitutionService *service.InstitutionService
	IdentityService    *service.IdentityService
}

// actor loads the full identity behind the token; handlers need it for the
// entity-scope check and the audit trail's verified_by email.
func (h *InstitutionDataHandler) actor(w http.ResponseWriter, r *http.Request) (domain.AdminIdentity, bool) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return domain.AdminIdentity{}, false
	}
	admin, err := h.IdentityService.GetAdmin(ctx, claims.Subject)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Unknown identity")
		return domain.AdminIdentity{}, false
	}
	if !admin.IsActive {
		httpx.WriteError(w, http.StatusForbidden, "inactive_account", "Account is inactive")
		return domain.AdminIdentity{}, false
	}
	return admin, true
}

func writeInstitutionError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", verr.Field+" "+verr.Reason)
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "You do not manage this institution")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Institution not found")
	default:
		log.Error("institution data request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Request failed")
	}
}

// HandleCreate godoc
//
//	@Summary		Create Institution
//	@Description	Provision a new institution record. Platform operators only.
//	@Tags			InstitutionData
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateInstitutionRequest	true	"New institution"
//	@Success		201		{object}	InstitutionResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institutions [post].
func (h *InstitutionDataHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req CreateInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	// Super admins are provisioned out of band and may not exist as rows,
	// so the actor is built from the token alone here.
	actor := domain.AdminIdentity{
		ID:    claims.Subject,
		Email: claims.Email,
		Role:  domain.Role(claims.Role),
	}

	inst, err := h.InstitutionService.CreateInstitution(r.Context(), actor, service.CreateInstitutionInput{
		Name:    req.Name,
		City:    req.City,
		State:   req.State,
		Website: req.Website,
		Control: domain.ControlType(req.Control),
	})
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toInstitutionResponse(inst))
}

// HandleGet godoc
//
//	@Summary		Get Institution Profile
//	@Description	Return the full profile for an institution the admin manages.
//	@Tags			InstitutionData
//	@Produce		json
//	@Param			id	path		string	true	"Institution id"
//	@Success		200	{object}	InstitutionResponse
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Failure		404	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id} [get].
func (h *InstitutionDataHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	inst, err := h.InstitutionService.GetInstitution(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// HandleBasicInfo godoc
//
//	@Summary		Update Basic Info
//	@Description	Update name, location and website. Changes are audited and the completeness score recomputed.
//	@Tags			InstitutionData
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Institution id"
//	@Param			request	body		BasicInfoRequest	true	"Fields to update"
//	@Success		200		{object}	InstitutionResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/basic-info [put].
func (h *InstitutionDataHandler) HandleBasicInfo(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req BasicInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	inst, err := h.InstitutionService.UpdateBasicInfo(r.Context(), actor, r.PathValue("id"), service.BasicInfoUpdate{
		Name:    req.Name,
		City:    req.City,
		State:   req.State,
		Website: req.Website,
	})
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// HandleCostData godoc
//
//	@Summary		Update Cost Data
//	@Description	Update tuition, room and board figures. Negative amounts reject the whole update.
//	@Tags			InstitutionData
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Institution id"
//	@Param			request	body		CostDataRequest	true	"Fields to update"
//	@Success		200		{object}	InstitutionResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/cost-data [put].
func (h *InstitutionDataHandler) HandleCostData(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CostDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	inst, err := h.InstitutionService.UpdateCostData(r.Context(), actor, r.PathValue("id"), service.CostDataUpdate{
		TuitionInState:    req.TuitionInState,
		TuitionOutOfState: req.TuitionOutOfState,
		TuitionPrivate:    req.TuitionPrivate,
		TuitionInDistrict: req.TuitionInDistrict,
		RoomCost:          req.RoomCost,
		BoardCost:         req.BoardCost,
		RoomAndBoard:      req.RoomAndBoard,
	})
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// HandleAdmissionsData godoc
//
//	@Summary		Update Admissions Data
//	@Description	Update acceptance rate and test score ranges. Out-of-range values reject the whole update.
//	@Tags			InstitutionData
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Institution id"
//	@Param			request	body		AdmissionsDataRequest	true	"Fields to update"
//	@Success		200		{object}	InstitutionResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/admissions-data [put].
func (h *InstitutionDataHandler) HandleAdmissionsData(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req AdmissionsDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	inst, err := h.InstitutionService.UpdateAdmissionsData(r.Context(), actor, r.PathValue("id"), service.AdmissionsUpdate{
		AcceptanceRate: req.AcceptanceRate,
		SATReading25th: req.SATReading25th,
		SATReading75th: req.SATReading75th,
		SATMath25th:    req.SATMath25th,
		SATMath75th:    req.SATMath75th,
		ACTComposite25: req.ACTComposite25,
		ACTComposite75: req.ACTComposite75,
	})
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// HandleVerifyCurrent godoc
//
//	@Summary		Verify Data Is Current
//	@Description	Re-attest existing profile values for an academic year, marking the profile admin-verified.
//	@Tags			InstitutionData
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Institution id"
//	@Param			request	body		VerifyCurrentRequest	true	"Attestation"
//	@Success		200		{object}	service.VerifyCurrentResult
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/verify-current [post].
func (h *InstitutionDataHandler) HandleVerifyCurrent(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req VerifyCurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.AcademicYear == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "academic_year is required")
		return
	}

	result, err := h.InstitutionService.VerifyCurrent(r.Context(), actor, r.PathValue("id"), req.AcademicYear, req.Notes, req.Fields)
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleQuality godoc
//
//	@Summary		Data Quality Report
//	@Description	Return the completeness score breakdown, missing fields and verification summary.
//	@Tags			InstitutionData
//	@Produce		json
//	@Param			id	path		string	true	"Institution id"
//	@Success		200	{object}	service.QualityReport
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/quality [get].
func (h *InstitutionDataHandler) HandleQuality(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	report, err := h.InstitutionService.Quality(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

// HandleVerificationHistory godoc
//
//	@Summary		Verification History
//	@Description	Return the field-level audit trail, newest first.
//	@Tags			InstitutionData
//	@Produce		json
//	@Param			id		path		string	true	"Institution id"
//	@Param			limit	query		int		false	"Max records (default 50)"
//	@Success		200		{array}		VerificationRecordResponse
//	@Failure		403		{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/institution-data/{id}/verification-history [get].
func (h *InstitutionDataHandler) HandleVerificationHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := h.InstitutionService.VerificationHistory(r.Context(), actor, r.PathValue("id"), limit)
	if err != nil {
		writeInstitutionError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toVerificationResponse(recs))
}
