package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
)

type institutionsRepo struct {
	db dbtx
}

const institutionColumns = `id, name, city, state, website, control_type,
	tuition_in_state, tuition_out_state, tuition_private, tuition_in_district,
	room_cost, board_cost, room_and_board, application_fee_ugrad, application_fee_grad,
	acceptance_rate, sat_reading_25, sat_reading_75, sat_math_25, sat_math_75,
	act_composite_25, act_composite_75,
	data_source, ipeds_year, data_completeness_score, data_last_updated, created_at`

func (r *institutionsRepo) GetInstitutionByID(ctx context.Context, id string) (domain.Institution, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+institutionColumns+`
		FROM institutions
		WHERE id = ?`, id)
	return scanInstitution(row)
}

func (r *institutionsRepo) CreateInstitution(ctx context.Context, inst domain.Institution) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO institutions (`+institutionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID,
		inst.Name,
		inst.City,
		inst.State,
		inst.Website,
		string(inst.Control),
		mapOptionalFloat(inst.TuitionInState),
		mapOptionalFloat(inst.TuitionOutOfState),
		mapOptionalFloat(inst.TuitionPrivate),
		mapOptionalFloat(inst.TuitionInDistrict),
		mapOptionalFloat(inst.RoomCost),
		mapOptionalFloat(inst.BoardCost),
		mapOptionalFloat(inst.RoomAndBoard),
		mapOptionalFloat(inst.ApplicationFeeUgrad),
		mapOptionalFloat(inst.ApplicationFeeGrad),
		mapOptionalFloat(inst.AcceptanceRate),
		mapOptionalInt(inst.SATReading25th),
		mapOptionalInt(inst.SATReading75th),
		mapOptionalInt(inst.SATMath25th),
		mapOptionalInt(inst.SATMath75th),
		mapOptionalInt(inst.ACTComposite25),
		mapOptionalInt(inst.ACTComposite75),
		string(inst.DataSource),
		mapOptionalString(ptrOrNil(inst.IPEDSYear)),
		inst.DataCompletenessScore,
		mapZeroTime(inst.DataLastUpdated),
		inst.CreatedAt,
	)
	return err
}

func (r *institutionsRepo) UpdateInstitution(ctx context.Context, inst domain.Institution) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE institutions
		SET name = ?, city = ?, state = ?, website = ?, control_type = ?,
		    tuition_in_state = ?, tuition_out_state = ?, tuition_private = ?, tuition_in_district = ?,
		    room_cost = ?, board_cost = ?, room_and_board = ?, application_fee_ugrad = ?, application_fee_grad = ?,
		    acceptance_rate = ?, sat_reading_25 = ?, sat_reading_75 = ?, sat_math_25 = ?, sat_math_75 = ?,
		    act_composite_25 = ?, act_composite_75 = ?,
		    data_source = ?, ipeds_year = ?, data_completeness_score = ?, data_last_updated = ?
		WHERE id = ?`,
		inst.Name,
		inst.City,
		inst.State,
		inst.Website,
		string(inst.Control),
		mapOptionalFloat(inst.TuitionInState),
		mapOptionalFloat(inst.TuitionOutOfState),
		mapOptionalFloat(inst.TuitionPrivate),
		mapOptionalFloat(inst.TuitionInDistrict),
		mapOptionalFloat(inst.RoomCost),
		mapOptionalFloat(inst.BoardCost),
		mapOptionalFloat(inst.RoomAndBoard),
		mapOptionalFloat(inst.ApplicationFeeUgrad),
		mapOptionalFloat(inst.ApplicationFeeGrad),
		mapOptionalFloat(inst.AcceptanceRate),
		mapOptionalInt(inst.SATReading25th),
		mapOptionalInt(inst.SATReading75th),
		mapOptionalInt(inst.SATMath25th),
		mapOptionalInt(inst.SATMath75th),
		mapOptionalInt(inst.ACTComposite25),
		mapOptionalInt(inst.ACTComposite75),
		string(inst.DataSource),
		mapOptionalString(ptrOrNil(inst.IPEDSYear)),
		inst.DataCompletenessScore,
		mapZeroTime(inst.DataLastUpdated),
		inst.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanInstitution(row rowScanner) (domain.Institution, error) {
	var (
		inst            domain.Institution
		control         sql.NullString
		tuitionInState  sql.NullFloat64
		tuitionOutState sql.NullFloat64
		tuitionPrivate  sql.NullFloat64
		tuitionDistrict sql.NullFloat64
		roomCost        sql.NullFloat64
		boardCost       sql.NullFloat64
		roomAndBoard    sql.NullFloat64
		appFeeUgrad     sql.NullFloat64
		appFeeGrad      sql.NullFloat64
		acceptanceRate  sql.NullFloat64
		satReading25    sql.NullInt64
		satReading75    sql.NullInt64
		satMath25       sql.NullInt64
		satMath75       sql.NullInt64
		actComposite25  sql.NullInt64
		actComposite75  sql.NullInt64
		dataSource      string
		ipedsYear       sql.NullString
		lastUpdated     sql.NullTime
	)
	err := row.Scan(
		&inst.ID,
		&inst.Name,
		&inst.City,
		&inst.State,
		&inst.Website,
		&control,
		&tuitionInState,
		&tuitionOutState,
		&tuitionPrivate,
		&tuitionDistrict,
		&roomCost,
		&boardCost,
		&roomAndBoard,
		&appFeeUgrad,
		&appFeeGrad,
		&acceptanceRate,
		&satReading25,
		&satReading75,
		&satMath25,
		&satMath75,
		&actComposite25,
		&actComposite75,
		&dataSource,
		&ipedsYear,
		&inst.DataCompletenessScore,
		&lastUpdated,
		&inst.CreatedAt,
	)
	if err != nil {
		return domain.Institution{}, mapNotFound(err)
	}
	if control.Valid {
		inst.Control = domain.ControlType(control.String)
	}
	inst.TuitionInState = mapNullFloatPtr(tuitionInState)
	inst.TuitionOutOfState = mapNullFloatPtr(tuitionOutState)
	inst.TuitionPrivate = mapNullFloatPtr(tuitionPrivate)
	inst.TuitionInDistrict = mapNullFloatPtr(tuitionDistrict)
	inst.RoomCost = mapNullFloatPtr(roomCost)
	inst.BoardCost = mapNullFloatPtr(boardCost)
	inst.RoomAndBoard = mapNullFloatPtr(roomAndBoard)
	inst.ApplicationFeeUgrad = mapNullFloatPtr(appFeeUgrad)
	inst.ApplicationFeeGrad = mapNullFloatPtr(appFeeGrad)
	inst.AcceptanceRate = mapNullFloatPtr(acceptanceRate)
	inst.SATReading25th = mapNullIntPtr(satReading25)
	inst.SATReading75th = mapNullIntPtr(satReading75)
	inst.SATMath25th = mapNullIntPtr(satMath25)
	inst.SATMath75th = mapNullIntPtr(satMath75)
	inst.ACTComposite25 = mapNullIntPtr(actComposite25)
	inst.ACTComposite75 = mapNullIntPtr(actComposite75)
	inst.DataSource = domain.DataSource(dataSource)
	if ipedsYear.Valid {
		inst.IPEDSYear = ipedsYear.String
	}
	if lastUpdated.Valid {
		inst.DataLastUpdated = lastUpdated.Time
	}
	return inst, nil
}

// mapZeroTime stores the zero time as NULL so freshly seeded rows don't
// carry a bogus year-one timestamp.
func mapZeroTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t, Valid: true}
}
