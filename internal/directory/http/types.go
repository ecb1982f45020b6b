package http

import (
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
)

// CreateInvitationRequest mints a new invitation code. Expiry can be given
// either as a day count or an absolute unix timestamp; the day form wins
// when both are present. Omitting both yields the 30-day default.
type CreateInvitationRequest struct {
	EntityType    string `json:"entity_type" example:"institution"`
	EntityID      string `json:"entity_id"`
	AssignedEmail string `json:"assigned_email,omitempty"`
	ExpiresInDays int    `json:"expires_in_days,omitempty" example:"30"`
	ExpiresAt     int64  `json:"expires_at,omitempty"` // unix seconds
}

// InvitationResponse is the admin-facing view of an invitation.
type InvitationResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	EntityType    string     `json:"entity_type"`
	EntityID      string     `json:"entity_id"`
	AssignedEmail string     `json:"assigned_email,omitempty"`
	Status        string     `json:"status"`
	ClaimedBy     string     `json:"claimed_by,omitempty"`
	ClaimedAt     *time.Time `json:"claimed_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ValidateInvitationRequest checks a code without claiming it.
type ValidateInvitationRequest struct {
	Code string `json:"code"`
}

// ValidateInvitationResponse deliberately reveals entity details only for
// valid codes.
type ValidateInvitationResponse struct {
	Valid      bool   `json:"valid"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	EntityName string `json:"entity_name,omitempty"`
	Message    string `json:"message"`
}

// RegisterRequest redeems an invitation code into an admin identity.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	InvitationCode string `json:"invitation_code"`
}

// AdminResponse is the public view of an admin identity.
type AdminResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenResponse carries a bearer access token.
type TokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type" example:"Bearer"`
	ExpiresIn   int64         `json:"expires_in"`
	Admin       AdminResponse `json:"admin"`
}

// InstitutionResponse is the admin console view of an institution profile.
type InstitutionResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Website string `json:"website,omitempty"`
	Control string `json:"control_type,omitempty"`

	TuitionInState    *float64 `json:"tuition_in_state,omitempty"`
	TuitionOutOfState *float64 `json:"tuition_out_of_state,omitempty"`
	TuitionPrivate    *float64 `json:"tuition_private,omitempty"`
	TuitionInDistrict *float64 `json:"tuition_in_district,omitempty"`
	RoomCost          *float64 `json:"room_cost,omitempty"`
	BoardCost         *float64 `json:"board_cost,omitempty"`
	RoomAndBoard      *float64 `json:"room_and_board,omitempty"`

	AcceptanceRate *float64 `json:"acceptance_rate,omitempty"`
	SATReading25th *int     `json:"sat_reading_25th,omitempty"`
	SATReading75th *int     `json:"sat_reading_75th,omitempty"`
	SATMath25th    *int     `json:"sat_math_25th,omitempty"`
	SATMath75th    *int     `json:"sat_math_75th,omitempty"`
	ACTComposite25 *int     `json:"act_composite_25th,omitempty"`
	ACTComposite75 *int     `json:"act_composite_75th,omitempty"`

	DataSource            string     `json:"data_source"`
	IPEDSYear             string     `json:"ipeds_year,omitempty"`
	DataCompletenessScore int        `json:"data_completeness_score"`
	DataLastUpdated       *time.Time `json:"data_last_updated,omitempty"`
}

// CreateInstitutionRequest provisions a new institution record.
type CreateInstitutionRequest struct {
	Name    string `json:"name"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Website string `json:"website,omitempty"`
	Control string `json:"control_type,omitempty" example:"public"`
}

// BasicInfoRequest updates identity fields; omitted fields are unchanged.
type BasicInfoRequest struct {
	Name    *string `json:"name,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Website *string `json:"website,omitempty"`
}

// CostDataRequest updates cost fields; omitted fields are unchanged.
type CostDataRequest struct {
	TuitionInState    *float64 `json:"tuition_in_state,omitempty"`
	TuitionOutOfState *float64 `json:"tuition_out_of_state,omitempty"`
	TuitionPrivate    *float64 `json:"tuition_private,omitempty"`
	TuitionInDistrict *float64 `json:"tuition_in_district,omitempty"`
	RoomCost          *float64 `json:"room_cost,omitempty"`
	BoardCost         *float64 `json:"board_cost,omitempty"`
	RoomAndBoard      *float64 `json:"room_and_board,omitempty"`
}

// AdmissionsDataRequest updates admissions fields; omitted fields are
// unchanged.
type AdmissionsDataRequest struct {
	AcceptanceRate *float64 `json:"acceptance_rate,omitempty"`
	SATReading25th *int     `json:"sat_reading_25th,omitempty"`
	SATReading75th *int     `json:"sat_reading_75th,omitempty"`
	SATMath25th    *int     `json:"sat_math_25th,omitempty"`
	SATMath75th    *int     `json:"sat_math_75th,omitempty"`
	ACTComposite25 *int     `json:"act_composite_25th,omitempty"`
	ACTComposite75 *int     `json:"act_composite_75th,omitempty"`
}

// VerifyCurrentRequest re-attests existing profile values.
type VerifyCurrentRequest struct {
	AcademicYear string   `json:"academic_year"`
	Notes        string   `json:"notes,omitempty"`
	Fields       []string `json:"fields,omitempty"`
}

// VerificationRecordResponse is one audit trail entry.
type VerificationRecordResponse struct {
	ID         string    `json:"id"`
	FieldName  string    `json:"field_name"`
	OldValue   string    `json:"old_value,omitempty"`
	NewValue   string    `json:"new_value,omitempty"`
	VerifiedBy string    `json:"verified_by"`
	VerifiedAt time.Time `json:"verified_at"`
	Notes      string    `json:"notes,omitempty"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of critical dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

func toInvitationResponse(inv domain.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:            inv.ID,
		Code:          inv.Code,
		EntityType:    string(inv.EntityType),
		EntityID:      inv.EntityID,
		AssignedEmail: inv.AssignedEmail,
		Status:        string(inv.Status),
		ClaimedBy:     inv.ClaimedBy,
		ClaimedAt:     inv.ClaimedAt,
		ExpiresAt:     inv.ExpiresAt,
		CreatedBy:     inv.CreatedBy,
		CreatedAt:     inv.CreatedAt,
	}
}

func toAdminResponse(a domain.AdminIdentity) AdminResponse {
	return AdminResponse{
		ID:         a.ID,
		Email:      a.Email,
		EntityType: string(a.EntityType),
		EntityID:   a.EntityID,
		Role:       string(a.Role),
		IsActive:   a.IsActive,
		LastLogin:  a.LastLogin,
		CreatedAt:  a.CreatedAt,
	}
}

func toInstitutionResponse(inst domain.Institution) InstitutionResponse {
	var lastUpdated *time.Time
	if !inst.DataLastUpdated.IsZero() {
		t := inst.DataLastUpdated
		lastUpdated = &t
	}
	return InstitutionResponse{
		ID:                    inst.ID,
		Name:                  inst.Name,
		City:                  inst.City,
		State:                 inst.State,
		Website:               inst.Website,
		Control:               string(inst.Control),
		TuitionInState:        inst.TuitionInState,
		TuitionOutOfState:     inst.TuitionOutOfState,
		TuitionPrivate:        inst.TuitionPrivate,
		TuitionInDistrict:     inst.TuitionInDistrict,
		RoomCost:              inst.RoomCost,
		BoardCost:             inst.BoardCost,
		RoomAndBoard:          inst.RoomAndBoard,
		AcceptanceRate:        inst.AcceptanceRate,
		SATReading25th:        inst.SATReading25th,
		SATReading75th:        inst.SATReading75th,
		SATMath25th:           inst.SATMath25th,
		SATMath75th:           inst.SATMath75th,
		ACTComposite25:        inst.ACTComposite25,
		ACTComposite75:        inst.ACTComposite75,
		DataSource:            string(inst.DataSource),
		IPEDSYear:             inst.IPEDSYear,
		DataCompletenessScore: inst.DataCompletenessScore,
		DataLastUpdated:       lastUpdated,
	}
}

func toVerificationResponse(recs []domain.VerificationRecord) []VerificationRecordResponse {
	out := make([]VerificationRecordResponse, 0, len(recs))
	for _, v := range recs {
		out = append(out, VerificationRecordResponse{
			ID:         v.ID,
			FieldName:  v.FieldName,
			OldValue:   v.OldValue,
			NewValue:   v.NewValue,
			VerifiedBy: v.VerifiedBy,
			VerifiedAt: v.VerifiedAt,
			Notes:      v.Notes,
		})
	}
	return out
}
