// Package metrics provides observability for the onboarding and entitlement
// subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks invitation, billing and scoring activity.
type Metrics struct {
	InvitationsCreated  prometheus.Counter
	InvitationsClaimed  prometheus.Counter
	InvitationsExpired  prometheus.Counter
	WebhookEvents       *prometheus.CounterVec
	EntitlementChecks   *prometheus.CounterVec
	ScoreRecomputations prometheus.Counter
}

// New creates a Metrics instance with all subsystem metrics registered on
// the default registry.
func New() *Metrics {
	return &Metrics{
		InvitationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "directory_invitations_created_total",
			Help: "Total number of invitation codes minted",
		}),
		InvitationsClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "directory_invitations_claimed_total",
			Help: "Total number of invitation codes successfully claimed",
		}),
		InvitationsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "directory_invitations_expired_total",
			Help: "Total number of invitation codes expired by sweep or validate",
		}),
		WebhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "directory_billing_webhook_events_total",
			Help: "Billing webhook events by type and outcome",
		}, []string{"type", "outcome"}),
		EntitlementChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "directory_entitlement_checks_total",
			Help: "Entitlement resolutions by resulting access level",
		}, []string{"level"}),
		ScoreRecomputations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "directory_score_recomputations_total",
			Help: "Completeness score recomputations triggered by profile writes",
		}),
	}
}

// ObserveWebhookEvent records one processed webhook event.
func (m *Metrics) ObserveWebhookEvent(eventType, outcome string) {
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveEntitlementCheck records one entitlement resolution.
func (m *Metrics) ObserveEntitlementCheck(level string) {
	m.EntitlementChecks.WithLabelValues(level).Inc()
}
