package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/campusreach/directory/internal/directory/billing"
	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/slogx"
)

// maxWebhookBody bounds how much of a webhook payload we read.
const maxWebhookBody = 1 << 20

type BillingWebhookHandler struct {
	BillingService *service.BillingService
	WebhookSecret  string
	Tolerance      time.Duration
}

// ServeHTTP godoc
//
//	@Summary		Billing Provider Webhook
//	@Description	Consume billing-provider events and sync the local subscription mirror. Signature required; unknown event types are acknowledged.
//	@Tags			Billing
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	httpx.ErrorResponse
//	@Failure		403	{object}	httpx.ErrorResponse
//	@Router			/v1/webhooks/billing [post].
func (h *BillingWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Failed to read request body")
		return
	}

	// No secret means a dev deployment; app startup refuses to run without
	// one anywhere else.
	if h.WebhookSecret != "" {
		tolerance := h.Tolerance
		if tolerance == 0 {
			tolerance = billing.DefaultTolerance
		}
		sig := r.Header.Get(billing.SignatureHeader)
		if err := billing.VerifySignature(payload, sig, h.WebhookSecret, tolerance, time.Now()); err != nil {
			log.Warn("rejected billing webhook", "err", err)
			httpx.WriteError(w, http.StatusForbidden, "invalid_signature", "Webhook signature verification failed")
			return
		}
	} else {
		log.Warn("billing webhook accepted without signature verification, no secret configured")
	}

	ev, err := billing.ParseEvent(payload)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Malformed event")
		return
	}

	if err := h.BillingService.ProcessEvent(ctx, ev); err != nil {
		if errors.Is(err, billing.ErrMalformedEvent) {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_payload", "Malformed event payload")
			return
		}
		log.Error("failed to process billing event", "type", ev.Type, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to process event")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
