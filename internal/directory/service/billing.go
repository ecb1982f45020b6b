package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/campusreach/directory/internal/directory/billing"
	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/entitlement"
	"github.com/campusreach/directory/internal/directory/metrics"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/idx"
	"github.com/campusreach/directory/pkg/slogx"
)

// BillingService keeps the local subscription mirror in sync with inbound
// provider events and resolves entitlements from it.
type BillingService struct {
	Store   store.Store
	Metrics *metrics.Metrics
}

// ProcessEvent applies one provider event to the subscription mirror.
// Unknown event types and events referencing unknown subscriptions are
// acknowledged without error so the provider never retries them. Every
// write is a total overwrite keyed by the external id, which makes
// redelivery of an identical event a no-op by construction.
func (s *BillingService) ProcessEvent(ctx context.Context, ev billing.Event) error {
	log := slogx.FromContext(ctx)

	var (
		err     error
		outcome = "applied"
	)
	switch ev.Type {
	case billing.EventSubscriptionCreated:
		err = s.subscriptionCreated(ctx, ev)
	case billing.EventPaymentSucceeded:
		err = s.setStatusByInvoice(ctx, ev, domain.SubscriptionActive)
	case billing.EventPaymentFailed:
		err = s.setStatusByInvoice(ctx, ev, domain.SubscriptionPastDue)
	case billing.EventSubscriptionUpdated:
		err = s.subscriptionUpdated(ctx, ev)
	case billing.EventSubscriptionDeleted:
		err = s.subscriptionDeleted(ctx, ev)
	default:
		outcome = "ignored"
		log.Debug("ignoring unrecognized billing event", slog.String("type", ev.Type))
	}

	if err != nil {
		outcome = "error"
	}
	if s.Metrics != nil {
		s.Metrics.ObserveWebhookEvent(ev.Type, outcome)
	}
	return err
}

// Entitlement resolves the current access verdict for an entity.
func (s *BillingService) Entitlement(ctx context.Context, entityType domain.EntityType, entityID string) (entitlement.Access, error) {
	var subPtr *domain.Subscription
	sub, err := s.Store.Subscriptions().GetSubscriptionByEntity(ctx, entityType, entityID)
	switch {
	case err == nil:
		subPtr = &sub
	case errors.Is(err, store.ErrNotFound):
		// No row resolves to free tier.
	default:
		return entitlement.Access{}, err
	}

	access := entitlement.Resolve(subPtr, time.Now().UTC())
	if s.Metrics != nil {
		s.Metrics.ObserveEntitlementCheck(string(access.AccessLevel))
	}
	return access, nil
}

func (s *BillingService) subscriptionCreated(ctx context.Context, ev billing.Event) error {
	log := slogx.FromContext(ctx)

	obj, err := ev.Subscription()
	if err != nil {
		return err
	}

	entityID := obj.Metadata["entity_id"]
	if entityID == "" {
		log.Warn("subscription created event without entity metadata",
			slog.String("external_subscription_id", obj.ID),
		)
		return nil
	}
	entityType := domain.EntityType(obj.Metadata["entity_type"])
	if !domain.ValidEntityType(string(entityType)) {
		entityType = domain.EntityInstitution
	}

	now := time.Now().UTC()
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		sub, err := tx.Subscriptions().GetSubscriptionByEntity(ctx, entityType, entityID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		created := errors.Is(err, store.ErrNotFound)
		if created {
			sub = domain.Subscription{
				ID:         idx.New().String(),
				EntityType: entityType,
				EntityID:   entityID,
				CreatedAt:  now,
			}
		}

		sub.ExternalSubscriptionID = obj.ID
		sub.ExternalCustomerID = obj.Customer
		sub.Status = domain.SubscriptionStatus(obj.Status)
		sub.PlanTier = domain.PlanPremium
		sub.TrialEndDate = billing.UnixTimePtr(obj.TrialEnd)
		sub.CurrentPeriodStart = timePtr(billing.UnixTime(obj.CurrentPeriodStart))
		sub.CurrentPeriodEnd = timePtr(billing.UnixTime(obj.CurrentPeriodEnd))
		sub.CancelAtPeriodEnd = obj.CancelAtPeriodEnd
		sub.UpdatedAt = now

		if created {
			if err := tx.Subscriptions().CreateSubscription(ctx, sub); err != nil {
				return err
			}
		} else if err := tx.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
			return err
		}

		log.Info("subscription synced from created event",
			slog.String("entity_type", string(entityType)),
			slog.String("entity_id", entityID),
			slog.String("external_subscription_id", obj.ID),
			slog.String("status", string(sub.Status)),
		)
		return nil
	})
}

func (s *BillingService) setStatusByInvoice(ctx context.Context, ev billing.Event, status domain.SubscriptionStatus) error {
	log := slogx.FromContext(ctx)

	obj, err := ev.Invoice()
	if err != nil {
		return err
	}
	if obj.Subscription == "" {
		log.Warn("invoice event without subscription reference", slog.String("type", ev.Type))
		return nil
	}

	sub, err := s.Store.Subscriptions().GetSubscriptionByExternalID(ctx, obj.Subscription)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("invoice event for unknown subscription",
				slog.String("external_subscription_id", obj.Subscription),
			)
			return nil
		}
		return err
	}

	sub.Status = status
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Store.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	log.Info("subscription status synced from invoice event",
		slog.String("external_subscription_id", obj.Subscription),
		slog.String("status", string(status)),
	)
	return nil
}

func (s *BillingService) subscriptionUpdated(ctx context.Context, ev billing.Event) error {
	log := slogx.FromContext(ctx)

	obj, err := ev.Subscription()
	if err != nil {
		return err
	}

	sub, err := s.Store.Subscriptions().GetSubscriptionByExternalID(ctx, obj.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("update event for unknown subscription",
				slog.String("external_subscription_id", obj.ID),
			)
			return nil
		}
		return err
	}

	sub.Status = domain.SubscriptionStatus(obj.Status)
	sub.CancelAtPeriodEnd = obj.CancelAtPeriodEnd
	sub.CurrentPeriodEnd = timePtr(billing.UnixTime(obj.CurrentPeriodEnd))
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Store.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	log.Info("subscription synced from updated event",
		slog.String("external_subscription_id", obj.ID),
		slog.String("status", string(sub.Status)),
	)
	return nil
}

func (s *BillingService) subscriptionDeleted(ctx context.Context, ev billing.Event) error {
	log := slogx.FromContext(ctx)

	obj, err := ev.Subscription()
	if err != nil {
		return err
	}

	sub, err := s.Store.Subscriptions().GetSubscriptionByExternalID(ctx, obj.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("delete event for unknown subscription",
				slog.String("external_subscription_id", obj.ID),
			)
			return nil
		}
		return err
	}

	sub.Status = domain.SubscriptionCanceled
	sub.PlanTier = domain.PlanFree
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Store.Subscriptions().UpdateSubscription(ctx, sub); err != nil {
		return err
	}

	log.Info("subscription canceled from deleted event",
		slog.String("external_subscription_id", obj.ID),
	)
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }
