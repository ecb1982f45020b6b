package directory_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entitlementResponse struct {
	HasAccess    bool   `json:"has_access"`
	AccessLevel  string `json:"access_level"`
	NeedsPayment bool   `json:"needs_payment"`
	Message      string `json:"message"`
}

// TestBillingLifecycle drives a subscription end to end through the signed
// webhook surface: free tier, premium after activation, downgraded after
// deletion.
func TestBillingLifecycle(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	super := superAdminToken(t)

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/v1/institutions", super, map[string]string{
		"name": "Billing University",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	inst := unmarshal[institutionResponse](t, raw)

	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/invitations", super, map[string]string{
		"entity_type": "institution",
		"entity_id":   inst.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	inv := unmarshal[invitationResponse](t, raw)

	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/auth/register", "", map[string]string{
		"email":           "bursar@test.edu",
		"password":        adminPassword,
		"invitation_code": inv.Code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = doForm(t, baseURL+"/v1/auth/login", url.Values{
		"email":    {"bursar@test.edu"},
		"password": {adminPassword},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	token := unmarshal[tokenResponse](t, raw).AccessToken

	// No subscription yet
	resp, raw = doJSON(t, http.MethodGet, baseURL+"/v1/entitlement", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	access := unmarshal[entitlementResponse](t, raw)
	assert.False(t, access.HasAccess)
	assert.Equal(t, "free", access.AccessLevel)
	assert.True(t, access.NeedsPayment)

	// Provider reports an active subscription
	created := []byte(fmt.Sprintf(`{
		"id": "evt_e2e_1",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_e2e",
			"customer": "cus_e2e",
			"status": "active",
			"metadata": {"entity_type": "institution", "entity_id": %q}
		}}
	}`, inst.ID))
	resp, raw = postWebhook(t, baseURL, created)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodGet, baseURL+"/v1/entitlement", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	access = unmarshal[entitlementResponse](t, raw)
	assert.True(t, access.HasAccess)
	assert.Equal(t, "premium", access.AccessLevel)

	// Provider cancels it
	deleted := []byte(`{
		"id": "evt_e2e_2",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_e2e", "customer": "cus_e2e", "status": "canceled"}}
	}`)
	resp, raw = postWebhook(t, baseURL, deleted)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodGet, baseURL+"/v1/entitlement", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	access = unmarshal[entitlementResponse](t, raw)
	assert.False(t, access.HasAccess)
	assert.True(t, access.NeedsPayment)
}

// TestWebhookRejectsUnsignedPayload verifies the signature gate at the
// network boundary.
func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	payload := []byte(`{"id":"evt_x","type":"invoice.payment_succeeded","data":{"object":{}}}`)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/webhooks/billing", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestWebhookAcknowledgesUnknownEvents checks unrecognized event types are
// accepted so the provider never retries them.
func TestWebhookAcknowledgesUnknownEvents(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	payload := []byte(`{"id":"evt_y","type":"customer.updated","data":{"object":{}}}`)
	resp, raw := postWebhook(t, baseURL, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}
