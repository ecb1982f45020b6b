// Package entitlement decides what a tenant may access given its current
// subscription row. Resolution is pure and side-effect free; all state
// mutation belongs to the billing synchronizer.
package entitlement

import (
	"fmt"
	"math"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
)

// AccessLevel is the tier a tenant resolves to.
type AccessLevel string

const (
	AccessFree    AccessLevel = "free"
	AccessTrial   AccessLevel = "trial"
	AccessPremium AccessLevel = "premium"
)

// Access is the resolver's verdict for one entity at one instant.
type Access struct {
	HasAccess     bool        `json:"has_access"`
	AccessLevel   AccessLevel `json:"access_level"`
	DaysRemaining *int        `json:"days_remaining"`
	TrialExpired  bool        `json:"trial_expired"`
	NeedsPayment  bool        `json:"needs_payment"`
	Message       string      `json:"message"`
}

// Resolve maps a subscription row (nil when the entity has none) to an
// access verdict. Called on every gated request, so it must stay cheap.
func Resolve(sub *domain.Subscription, now time.Time) Access {
	if sub == nil {
		return Access{
			AccessLevel:  AccessFree,
			NeedsPayment: true,
			Message:      "Please subscribe to access premium features",
		}
	}

	if sub.Status == domain.SubscriptionActive && sub.PlanTier == domain.PlanPremium {
		return Access{
			HasAccess:   true,
			AccessLevel: AccessPremium,
			Message:     "Premium subscription active",
		}
	}

	if sub.Status == domain.SubscriptionTrialing && sub.TrialEndDate != nil {
		if sub.TrialEndDate.After(now) {
			days := daysUntil(*sub.TrialEndDate, now)
			return Access{
				HasAccess:     true,
				AccessLevel:   AccessTrial,
				DaysRemaining: &days,
				Message:       fmt.Sprintf("Trial active - %d days remaining", days),
			}
		}
		zero := 0
		return Access{
			AccessLevel:   AccessFree,
			DaysRemaining: &zero,
			TrialExpired:  true,
			NeedsPayment:  true,
			Message:       "Trial expired - please subscribe to continue",
		}
	}

	switch sub.Status {
	case domain.SubscriptionPastDue, domain.SubscriptionCanceled, domain.SubscriptionUnpaid:
		return Access{
			AccessLevel:  AccessFree,
			TrialExpired: true,
			NeedsPayment: true,
			Message:      "Subscription issue - please update payment",
		}
	}

	return Access{
		AccessLevel:  AccessFree,
		NeedsPayment: true,
		Message:      "Please subscribe to access premium features",
	}
}

// daysUntil rounds the remaining trial time up, so a trial with any time
// left reports at least one day.
func daysUntil(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}
