package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/metrics"
	"github.com/campusreach/directory/internal/directory/scoring"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/idx"
	"github.com/campusreach/directory/pkg/slogx"
)

var (
	ErrForbidden  = errors.New("entity scope mismatch")
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries the offending field alongside the sentinel so
// handlers can report which value was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// BasicInfoUpdate carries the identity fields an admin may change. Nil
// means "leave unchanged".
type BasicInfoUpdate struct {
	Name    *string
	City    *string
	State   *string
	Website *string
}

// CostDataUpdate carries the cost fields. All values are yearly dollars.
type CostDataUpdate struct {
	TuitionInState    *float64
	TuitionOutOfState *float64
	TuitionPrivate    *float64
	TuitionInDistrict *float64
	RoomCost          *float64
	BoardCost         *float64
	RoomAndBoard      *float64
}

// AdmissionsUpdate carries acceptance and test score fields.
type AdmissionsUpdate struct {
	AcceptanceRate *float64
	SATReading25th *int
	SATReading75th *int
	SATMath25th    *int
	SATMath75th    *int
	ACTComposite25 *int
	ACTComposite75 *int
}

// QualityReport summarises how complete and trustworthy an institution's
// profile currently is.
type QualityReport struct {
	InstitutionID     string         `json:"institution_id"`
	InstitutionName   string         `json:"institution_name"`
	CompletenessScore int            `json:"completeness_score"`
	Breakdown         map[string]int `json:"score_breakdown"`
	DataSource        string         `json:"data_source"`
	DataLastUpdated   *time.Time     `json:"data_last_updated"`
	IPEDSYear         string         `json:"ipeds_year,omitempty"`
	MissingFields     []string       `json:"missing_fields"`
	VerifiedFields    []string       `json:"verified_fields"`
	VerificationCount int            `json:"verification_count"`
	HasWebsite        bool           `json:"has_website"`
	HasTuitionData    bool           `json:"has_tuition_data"`
	HasRoomBoard      bool           `json:"has_room_board"`
	HasAdmissionsData bool           `json:"has_admissions_data"`
}

// VerifyCurrentResult reports the outcome of a re-attestation.
type VerifyCurrentResult struct {
	FieldsVerified    int    `json:"fields_verified"`
	AcademicYear      string `json:"academic_year"`
	CompletenessScore int    `json:"completeness_score"`
	DataSource        string `json:"data_source"`
}

// InstitutionService owns institution profile writes: every tracked-field
// change lands in one transaction together with its audit records and the
// recomputed completeness score.
type InstitutionService struct {
	Store   store.Store
	Metrics *metrics.Metrics
}

// CreateInstitutionInput seeds a new institution record. Profile details
// beyond identity arrive later through admin updates or data imports.
type CreateInstitutionInput struct {
	Name    string
	City    string
	State   string
	Website string
	Control domain.ControlType
}

// CreateInstitution provisions a new institution record. Platform operators
// only; delegated admins are bound to institutions that already exist.
func (s *InstitutionService) CreateInstitution(ctx context.Context, actor domain.AdminIdentity, in CreateInstitutionInput) (domain.Institution, error) {
	log := slogx.FromContext(ctx)

	if actor.Role != domain.RoleSuperAdmin {
		return domain.Institution{}, ErrForbidden
	}
	if in.Name == "" {
		return domain.Institution{}, &ValidationError{Field: "name", Reason: "is required"}
	}
	if in.Control != "" && !domain.ValidControlType(string(in.Control)) {
		return domain.Institution{}, &ValidationError{Field: "control_type", Reason: "must be public, private_nonprofit or private_forprofit"}
	}

	now := time.Now().UTC()
	inst := domain.Institution{
		ID:         idx.New().String(),
		Name:       in.Name,
		City:       in.City,
		State:      in.State,
		Website:    in.Website,
		Control:    in.Control,
		DataSource: domain.SourceManual,
		CreatedAt:  now,
	}
	inst.DataCompletenessScore = scoring.Score(inst, 0)

	if err := s.Store.Institutions().CreateInstitution(ctx, inst); err != nil {
		log.Error("failed to create institution", slog.String("name", in.Name), slog.Any("error", err))
		return domain.Institution{}, err
	}

	log.Info("institution created",
		slog.String("institution_id", inst.ID),
		slog.String("name", inst.Name),
	)
	return inst, nil
}

// GetInstitution returns the profile after an entity-scope check.
func (s *InstitutionService) GetInstitution(ctx context.Context, actor domain.AdminIdentity, id string) (domain.Institution, error) {
	if !actor.CanManage(domain.EntityInstitution, id) {
		return domain.Institution{}, ErrForbidden
	}
	return s.Store.Institutions().GetInstitutionByID(ctx, id)
}

// UpdateBasicInfo applies identity field changes.
func (s *InstitutionService) UpdateBasicInfo(ctx context.Context, actor domain.AdminIdentity, id string, upd BasicInfoUpdate) (domain.Institution, error) {
	return s.applyUpdate(ctx, actor, id, "Updated via admin console", func(inst *domain.Institution, ch *changeSet) error {
		ch.applyString("name", &inst.Name, upd.Name)
		ch.applyString("city", &inst.City, upd.City)
		ch.applyString("state", &inst.State, upd.State)
		ch.applyString("website", &inst.Website, upd.Website)
		return nil
	})
}

// UpdateCostData applies cost field changes; negative amounts reject the
// whole update.
func (s *InstitutionService) UpdateCostData(ctx context.Context, actor domain.AdminIdentity, id string, upd CostDataUpdate) (domain.Institution, error) {
	return s.applyUpdate(ctx, actor, id, "Cost data updated via admin console", func(inst *domain.Institution, ch *changeSet) error {
		fields := []struct {
			name string
			dst  **float64
			src  *float64
		}{
			{"tuition_in_state", &inst.TuitionInState, upd.TuitionInState},
			{"tuition_out_of_state", &inst.TuitionOutOfState, upd.TuitionOutOfState},
			{"tuition_private", &inst.TuitionPrivate, upd.TuitionPrivate},
			{"tuition_in_district", &inst.TuitionInDistrict, upd.TuitionInDistrict},
			{"room_cost", &inst.RoomCost, upd.RoomCost},
			{"board_cost", &inst.BoardCost, upd.BoardCost},
			{"room_and_board", &inst.RoomAndBoard, upd.RoomAndBoard},
		}
		for _, f := range fields {
			if f.src != nil && *f.src < 0 {
				return &ValidationError{Field: f.name, Reason: "must not be negative"}
			}
			ch.applyFloat(f.name, f.dst, f.src)
		}
		return nil
	})
}

// UpdateAdmissionsData applies admissions field changes with range checks:
// acceptance rate 0-100, SAT sections 200-800, ACT composite 1-36.
func (s *InstitutionService) UpdateAdmissionsData(ctx context.Context, actor domain.AdminIdentity, id string, upd AdmissionsUpdate) (domain.Institution, error) {
	return s.applyUpdate(ctx, actor, id, "Admissions data updated via admin console", func(inst *domain.Institution, ch *changeSet) error {
		if upd.AcceptanceRate != nil && (*upd.AcceptanceRate < 0 || *upd.AcceptanceRate > 100) {
			return &ValidationError{Field: "acceptance_rate", Reason: "must be between 0 and 100"}
		}
		ch.applyFloat("acceptance_rate", &inst.AcceptanceRate, upd.AcceptanceRate)

		sats := []struct {
			name string
			dst  **int
			src  *int
		}{
			{"sat_reading_25th", &inst.SATReading25th, upd.SATReading25th},
			{"sat_reading_75th", &inst.SATReading75th, upd.SATReading75th},
			{"sat_math_25th", &inst.SATMath25th, upd.SATMath25th},
			{"sat_math_75th", &inst.SATMath75th, upd.SATMath75th},
		}
		for _, f := range sats {
			if f.src != nil && (*f.src < 200 || *f.src > 800) {
				return &ValidationError{Field: f.name, Reason: "must be between 200 and 800"}
			}
			ch.applyInt(f.name, f.dst, f.src)
		}

		acts := []struct {
			name string
			dst  **int
			src  *int
		}{
			{"act_composite_25th", &inst.ACTComposite25, upd.ACTComposite25},
			{"act_composite_75th", &inst.ACTComposite75, upd.ACTComposite75},
		}
		for _, f := range acts {
			if f.src != nil && (*f.src < 1 || *f.src > 36) {
				return &ValidationError{Field: f.name, Reason: "must be between 1 and 36"}
			}
			ch.applyInt(f.name, f.dst, f.src)
		}
		return nil
	})
}

// VerifyCurrent re-attests that the profile's existing values are still
// accurate for an academic year: one old=new audit record per populated
// field, data source promoted to admin.
func (s *InstitutionService) VerifyCurrent(ctx context.Context, actor domain.AdminIdentity, id, academicYear, notes string, fields []string) (VerifyCurrentResult, error) {
	log := slogx.FromContext(ctx)

	if !actor.CanManage(domain.EntityInstitution, id) {
		return VerifyCurrentResult{}, ErrForbidden
	}
	if len(fields) == 0 {
		fields = []string{
			"tuition_in_state",
			"tuition_out_of_state",
			"tuition_private",
			"room_cost",
			"board_cost",
			"acceptance_rate",
		}
	}
	if notes == "" {
		notes = "Verified as current for " + academicYear
	}

	var result VerifyCurrentResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inst, err := tx.Institutions().GetInstitutionByID(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		verified := 0
		for _, name := range fields {
			if !domain.TrackedField(name) {
				continue
			}
			value, ok := fieldValue(inst, name)
			if !ok {
				continue
			}
			rec := domain.VerificationRecord{
				ID:            idx.New().String(),
				InstitutionID: id,
				FieldName:     name,
				OldValue:      value,
				NewValue:      value, // same value = attested as current
				VerifiedBy:    actor.Email,
				VerifiedAt:    now,
				Notes:         notes,
			}
			if err := tx.Verifications().AppendVerification(ctx, rec); err != nil {
				return err
			}
			verified++
		}

		inst.DataSource = domain.SourceAdmin
		inst.DataLastUpdated = now
		if academicYear != "" {
			inst.IPEDSYear = academicYear
		}

		imageCount, err := tx.Images().CountEntityImages(ctx, domain.EntityInstitution, id)
		if err != nil {
			return err
		}
		inst.DataCompletenessScore = scoring.Score(inst, imageCount)

		if err := tx.Institutions().UpdateInstitution(ctx, inst); err != nil {
			return err
		}

		result = VerifyCurrentResult{
			FieldsVerified:    verified,
			AcademicYear:      academicYear,
			CompletenessScore: inst.DataCompletenessScore,
			DataSource:        string(inst.DataSource),
		}
		return nil
	})
	if err != nil {
		return VerifyCurrentResult{}, err
	}

	if s.Metrics != nil {
		s.Metrics.ScoreRecomputations.Inc()
	}
	log.Info("institution data verified as current",
		slog.String("institution_id", id),
		slog.Int("fields_verified", result.FieldsVerified),
		slog.String("academic_year", academicYear),
	)
	return result, nil
}

// Quality builds the data quality report.
func (s *InstitutionService) Quality(ctx context.Context, actor domain.AdminIdentity, id string) (QualityReport, error) {
	if !actor.CanManage(domain.EntityInstitution, id) {
		return QualityReport{}, ErrForbidden
	}

	inst, err := s.Store.Institutions().GetInstitutionByID(ctx, id)
	if err != nil {
		return QualityReport{}, err
	}
	verifiedFields, err := s.Store.Verifications().VerifiedFieldNames(ctx, id)
	if err != nil {
		return QualityReport{}, err
	}
	count, err := s.Store.Verifications().CountVerifications(ctx, id)
	if err != nil {
		return QualityReport{}, err
	}
	imageCount, err := s.Store.Images().CountEntityImages(ctx, domain.EntityInstitution, id)
	if err != nil {
		return QualityReport{}, err
	}

	hasTuition := positiveFloat(inst.TuitionInState) || positiveFloat(inst.TuitionOutOfState) || positiveFloat(inst.TuitionPrivate)
	hasRoomBoard := positiveFloat(inst.RoomCost) || positiveFloat(inst.BoardCost) || positiveFloat(inst.RoomAndBoard)

	missing := []string{}
	if inst.Website == "" {
		missing = append(missing, "website")
	}
	if !hasTuition {
		missing = append(missing, "tuition")
	}
	if !hasRoomBoard {
		missing = append(missing, "room_and_board")
	}
	if inst.AcceptanceRate == nil {
		missing = append(missing, "acceptance_rate")
	}

	var lastUpdated *time.Time
	if !inst.DataLastUpdated.IsZero() {
		t := inst.DataLastUpdated
		lastUpdated = &t
	}

	return QualityReport{
		InstitutionID:     inst.ID,
		InstitutionName:   inst.Name,
		CompletenessScore: inst.DataCompletenessScore,
		Breakdown:         scoring.Breakdown(inst, imageCount),
		DataSource:        string(inst.DataSource),
		DataLastUpdated:   lastUpdated,
		IPEDSYear:         inst.IPEDSYear,
		MissingFields:     missing,
		VerifiedFields:    verifiedFields,
		VerificationCount: count,
		HasWebsite:        inst.Website != "",
		HasTuitionData:    hasTuition,
		HasRoomBoard:      hasRoomBoard,
		HasAdmissionsData: inst.AcceptanceRate != nil,
	}, nil
}

// VerificationHistory returns the audit trail, newest first.
func (s *InstitutionService) VerificationHistory(ctx context.Context, actor domain.AdminIdentity, id string, limit int) ([]domain.VerificationRecord, error) {
	if !actor.CanManage(domain.EntityInstitution, id) {
		return nil, ErrForbidden
	}
	if _, err := s.Store.Institutions().GetInstitutionByID(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.Verifications().ListVerifications(ctx, id, limit)
}

// applyUpdate runs one sectioned profile update: load, mutate, audit each
// changed field, promote the data source, recompute the score and persist,
// all inside a single transaction so partial updates never commit.
func (s *InstitutionService) applyUpdate(
	ctx context.Context,
	actor domain.AdminIdentity,
	id string,
	notes string,
	mutate func(inst *domain.Institution, ch *changeSet) error,
) (domain.Institution, error) {
	log := slogx.FromContext(ctx)

	if !actor.CanManage(domain.EntityInstitution, id) {
		return domain.Institution{}, ErrForbidden
	}

	var updated domain.Institution
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inst, err := tx.Institutions().GetInstitutionByID(ctx, id)
		if err != nil {
			return err
		}

		var ch changeSet
		if err := mutate(&inst, &ch); err != nil {
			return err
		}

		if len(ch.changes) == 0 {
			updated = inst
			return nil
		}

		now := time.Now().UTC()
		for _, c := range ch.changes {
			rec := domain.VerificationRecord{
				ID:            idx.New().String(),
				InstitutionID: id,
				FieldName:     c.name,
				OldValue:      c.oldValue,
				NewValue:      c.newValue,
				VerifiedBy:    actor.Email,
				VerifiedAt:    now,
				Notes:         notes,
			}
			if err := tx.Verifications().AppendVerification(ctx, rec); err != nil {
				return err
			}
		}

		inst.DataSource = promoteDataSource(inst.DataSource)
		inst.DataLastUpdated = now

		imageCount, err := tx.Images().CountEntityImages(ctx, domain.EntityInstitution, id)
		if err != nil {
			return err
		}
		inst.DataCompletenessScore = scoring.Score(inst, imageCount)

		if err := tx.Institutions().UpdateInstitution(ctx, inst); err != nil {
			return err
		}
		updated = inst
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrValidation) && !errors.Is(err, store.ErrNotFound) {
			log.Error("institution update failed",
				slog.String("institution_id", id),
				slog.Any("error", err),
			)
		}
		return domain.Institution{}, err
	}

	if s.Metrics != nil {
		s.Metrics.ScoreRecomputations.Inc()
	}
	log.Info("institution profile updated",
		slog.String("institution_id", id),
		slog.Int("completeness_score", updated.DataCompletenessScore),
		slog.String("data_source", string(updated.DataSource)),
	)
	return updated, nil
}

// promoteDataSource records that an admin has touched the profile:
// manual becomes admin, ipeds becomes mixed, verified sources stay put.
func promoteDataSource(src domain.DataSource) domain.DataSource {
	switch src {
	case domain.SourceManual:
		return domain.SourceAdmin
	case domain.SourceIPEDS:
		return domain.SourceMixed
	case domain.SourceAdmin, domain.SourceMixed:
		return src
	}
	return domain.SourceMixed
}

// changeSet accumulates field-level diffs for audit records.
type changeSet struct {
	changes []fieldChange
}

type fieldChange struct {
	name     string
	oldValue string
	newValue string
}

func (ch *changeSet) applyString(name string, dst *string, src *string) {
	if src == nil || *dst == *src {
		return
	}
	ch.changes = append(ch.changes, fieldChange{name, *dst, *src})
	*dst = *src
}

func (ch *changeSet) applyFloat(name string, dst **float64, src *float64) {
	if src == nil {
		return
	}
	if *dst != nil && **dst == *src {
		return
	}
	ch.changes = append(ch.changes, fieldChange{name, formatFloatPtr(*dst), formatFloat(*src)})
	v := *src
	*dst = &v
}

func (ch *changeSet) applyInt(name string, dst **int, src *int) {
	if src == nil {
		return
	}
	if *dst != nil && **dst == *src {
		return
	}
	ch.changes = append(ch.changes, fieldChange{name, formatIntPtr(*dst), strconv.Itoa(*src)})
	v := *src
	*dst = &v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func positiveFloat(f *float64) bool {
	return f != nil && *f > 0
}

// fieldValue renders one tracked field as audit text; ok is false when the
// field is unset or unknown.
func fieldValue(inst domain.Institution, name string) (string, bool) {
	switch name {
	case "name":
		return inst.Name, inst.Name != ""
	case "city":
		return inst.City, inst.City != ""
	case "state":
		return inst.State, inst.State != ""
	case "website":
		return inst.Website, inst.Website != ""
	case "tuition_in_state":
		return formatFloatPtr(inst.TuitionInState), inst.TuitionInState != nil
	case "tuition_out_of_state":
		return formatFloatPtr(inst.TuitionOutOfState), inst.TuitionOutOfState != nil
	case "tuition_private":
		return formatFloatPtr(inst.TuitionPrivate), inst.TuitionPrivate != nil
	case "tuition_in_district":
		return formatFloatPtr(inst.TuitionInDistrict), inst.TuitionInDistrict != nil
	case "room_cost":
		return formatFloatPtr(inst.RoomCost), inst.RoomCost != nil
	case "board_cost":
		return formatFloatPtr(inst.BoardCost), inst.BoardCost != nil
	case "room_and_board":
		return formatFloatPtr(inst.RoomAndBoard), inst.RoomAndBoard != nil
	case "acceptance_rate":
		return formatFloatPtr(inst.AcceptanceRate), inst.AcceptanceRate != nil
	case "sat_reading_25th":
		return formatIntPtr(inst.SATReading25th), inst.SATReading25th != nil
	case "sat_reading_75th":
		return formatIntPtr(inst.SATReading75th), inst.SATReading75th != nil
	case "sat_math_25th":
		return formatIntPtr(inst.SATMath25th), inst.SATMath25th != nil
	case "sat_math_75th":
		return formatIntPtr(inst.SATMath75th), inst.SATMath75th != nil
	case "act_composite_25th":
		return formatIntPtr(inst.ACTComposite25), inst.ACTComposite25 != nil
	case "act_composite_75th":
		return formatIntPtr(inst.ACTComposite75), inst.ACTComposite75 != nil
	case "data_source":
		return string(inst.DataSource), inst.DataSource != ""
	}
	return "", false
}
