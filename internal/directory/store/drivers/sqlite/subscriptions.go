package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
)

type subscriptionsRepo struct {
	db dbtx
}

const subscriptionColumns = `id, entity_type, entity_id, status, plan_tier, external_customer_id, external_subscription_id, trial_end_date, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func (r *subscriptionsRepo) GetSubscriptionByEntity(ctx context.Context, entityType domain.EntityType, entityID string) (domain.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE entity_type = ? AND entity_id = ?`, string(entityType), entityID)
	return scanSubscription(row)
}

func (r *subscriptionsRepo) GetSubscriptionByExternalID(ctx context.Context, externalID string) (domain.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE external_subscription_id = ?`, externalID)
	return scanSubscription(row)
}

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		string(s.EntityType),
		s.EntityID,
		string(s.Status),
		string(s.PlanTier),
		mapOptionalString(ptrOrNil(s.ExternalCustomerID)),
		mapOptionalString(ptrOrNil(s.ExternalSubscriptionID)),
		mapOptionalTime(s.TrialEndDate),
		mapOptionalTime(s.CurrentPeriodStart),
		mapOptionalTime(s.CurrentPeriodEnd),
		s.CancelAtPeriodEnd,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return store.ErrAlreadyExists
	}
	return err
}

// UpdateSubscription overwrites every synchronizer-owned column. Replayed
// webhook deliveries therefore converge on the same row state.
func (r *subscriptionsRepo) UpdateSubscription(ctx context.Context, s domain.Subscription) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = ?,
		    plan_tier = ?,
		    external_customer_id = ?,
		    external_subscription_id = ?,
		    trial_end_date = ?,
		    current_period_start = ?,
		    current_period_end = ?,
		    cancel_at_period_end = ?,
		    updated_at = ?
		WHERE id = ?`,
		string(s.Status),
		string(s.PlanTier),
		mapOptionalString(ptrOrNil(s.ExternalCustomerID)),
		mapOptionalString(ptrOrNil(s.ExternalSubscriptionID)),
		mapOptionalTime(s.TrialEndDate),
		mapOptionalTime(s.CurrentPeriodStart),
		mapOptionalTime(s.CurrentPeriodEnd),
		s.CancelAtPeriodEnd,
		s.UpdatedAt,
		s.ID,
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

func scanSubscription(row rowScanner) (domain.Subscription, error) {
	var (
		s                  domain.Subscription
		entityType         string
		status             string
		planTier           string
		externalCustomer   sql.NullString
		externalSub        sql.NullString
		trialEnd           sql.NullTime
		currentPeriodStart sql.NullTime
		currentPeriodEnd   sql.NullTime
	)
	err := row.Scan(
		&s.ID,
		&entityType,
		&s.EntityID,
		&status,
		&planTier,
		&externalCustomer,
		&externalSub,
		&trialEnd,
		&currentPeriodStart,
		&currentPeriodEnd,
		&s.CancelAtPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return domain.Subscription{}, mapNotFound(err)
	}
	s.EntityType = domain.EntityType(entityType)
	s.Status = domain.SubscriptionStatus(status)
	s.PlanTier = domain.PlanTier(planTier)
	if externalCustomer.Valid {
		s.ExternalCustomerID = externalCustomer.String
	}
	if externalSub.Valid {
		s.ExternalSubscriptionID = externalSub.String
	}
	s.TrialEndDate = mapNullTimePtr(trialEnd)
	s.CurrentPeriodStart = mapNullTimePtr(currentPeriodStart)
	s.CurrentPeriodEnd = mapNullTimePtr(currentPeriodEnd)
	return s, nil
}
