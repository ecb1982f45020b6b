package domain

import "time"

// SubscriptionStatus mirrors the billing provider's subscription states.
type SubscriptionStatus string

const (
	SubscriptionNone     SubscriptionStatus = "none"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionUnpaid   SubscriptionStatus = "unpaid"
)

// PlanTier is the locally meaningful plan classification.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPremium PlanTier = "premium"
)

// Subscription is the local mirror of one entity's billing relationship.
// At most one row exists per (EntityType, EntityID); it is written only by
// the billing synchronizer, keyed by ExternalSubscriptionID once known.
type Subscription struct {
	ID                     string
	EntityType             EntityType
	EntityID               string
	ExternalCustomerID     string
	ExternalSubscriptionID string
	PlanTier               PlanTier
	Status                 SubscriptionStatus
	TrialEndDate           *time.Time
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
