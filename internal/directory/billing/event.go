// Package billing holds the wire types and signature checks for inbound
// billing-provider webhook events. Interpretation of the events lives in
// the service layer.
package billing

import (
	"encoding/json"
	"errors"
	"time"
)

// Event types the synchronizer understands. Anything else is acknowledged
// and ignored so the provider can grow its catalog without breaking us.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

var (
	ErrMalformedEvent = errors.New("billing: malformed event")
)

// Event is the provider's envelope: a type plus a data.object payload.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// SubscriptionObject is the payload carried by subscription lifecycle
// events. Timestamps arrive as unix seconds.
type SubscriptionObject struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	TrialEnd           *int64            `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

// InvoiceObject is the payload carried by invoice payment events.
type InvoiceObject struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

// ParseEvent decodes the envelope and rejects structurally invalid bodies.
func ParseEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, ErrMalformedEvent
	}
	if ev.Type == "" {
		return Event{}, ErrMalformedEvent
	}
	return ev, nil
}

// Subscription decodes the event payload as a subscription object.
func (e Event) Subscription() (SubscriptionObject, error) {
	var obj SubscriptionObject
	if len(e.Data.Object) == 0 {
		return obj, ErrMalformedEvent
	}
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return obj, ErrMalformedEvent
	}
	if obj.ID == "" {
		return obj, ErrMalformedEvent
	}
	return obj, nil
}

// Invoice decodes the event payload as an invoice object.
func (e Event) Invoice() (InvoiceObject, error) {
	var obj InvoiceObject
	if len(e.Data.Object) == 0 {
		return obj, ErrMalformedEvent
	}
	if err := json.Unmarshal(e.Data.Object, &obj); err != nil {
		return obj, ErrMalformedEvent
	}
	return obj, nil
}

// UnixTime converts a provider timestamp to UTC.
func UnixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// UnixTimePtr converts an optional provider timestamp.
func UnixTimePtr(sec *int64) *time.Time {
	if sec == nil {
		return nil
	}
	t := UnixTime(*sec)
	return &t
}
