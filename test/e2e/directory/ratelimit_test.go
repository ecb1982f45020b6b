package directory_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRateLimitValidateEndpoint verifies the public invitation-validate
// endpoint is rate limited. It is the easiest surface to brute force codes
// against, so it carries the strict profile (5 req/min).
func TestRateLimitValidateEndpoint(t *testing.T) {
	baseURL, cleanup := setupContainerWithDefaultRateLimits(t)
	defer cleanup()

	body := map[string]string{"code": "ZZZZ-ZZZZ-ZZZZ-ZZZZ"}

	// First 5 requests pass through; the 6th should be cut off
	for i := range 5 {
		resp, raw := doJSON(t, http.MethodPost, baseURL+"/v1/invitations/validate", "", body)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d: %s", i+1, string(raw))
	}

	resp, _ := doJSON(t, http.MethodPost, baseURL+"/v1/invitations/validate", "", body)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "should be rate limited after 5 requests")

	t.Logf("Successfully rate limited after 5 requests to /v1/invitations/validate")
}

// TestRateLimitLoginEndpoint verifies login attempts are limited per
// IP + email pair.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL, cleanup := setupContainerWithDefaultRateLimits(t)
	defer cleanup()

	form := url.Values{
		"email":    {"nobody@test.edu"},
		"password": {"wrong-password"},
	}

	for i := range 5 {
		resp, raw := doForm(t, baseURL+"/v1/auth/login", form)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "request %d: %s", i+1, string(raw))
	}

	resp, _ := doForm(t, baseURL+"/v1/auth/login", form)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "should be rate limited after 5 requests")
}
