package directory_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type institutionResponse struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	DataSource            string `json:"data_source"`
	DataCompletenessScore int    `json:"data_completeness_score"`
}

type invitationResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	EntityID string `json:"entity_id"`
	Status   string `json:"status"`
}

type adminResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	EntityID string `json:"entity_id"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	Admin       adminResponse `json:"admin"`
}

type validateResponse struct {
	Valid      bool   `json:"valid"`
	EntityName string `json:"entity_name"`
	Message    string `json:"message"`
}

// TestOnboardingFlow walks the whole happy path: a platform operator
// provisions an institution and mints an invitation, the invitee registers,
// logs in, and edits the institution's profile with an audited update.
func TestOnboardingFlow(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	super := superAdminToken(t)

	// Provision institution
	resp, raw := doJSON(t, http.MethodPost, baseURL+"/v1/institutions", super, map[string]string{
		"name":         "E2E State University",
		"control_type": "public",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	inst := unmarshal[institutionResponse](t, raw)
	require.NotEmpty(t, inst.ID)

	// Mint invitation
	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/invitations", super, map[string]string{
		"entity_type": "institution",
		"entity_id":   inst.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	inv := unmarshal[invitationResponse](t, raw)
	require.NotEmpty(t, inv.Code)
	assert.Equal(t, "pending", inv.Status)

	// Public validation reveals the entity name
	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/invitations/validate", "", map[string]string{
		"code": inv.Code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	val := unmarshal[validateResponse](t, raw)
	assert.True(t, val.Valid)
	assert.Equal(t, "E2E State University", val.EntityName)

	// Register against the code
	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/auth/register", "", map[string]string{
		"email":           adminEmail,
		"password":        adminPassword,
		"invitation_code": inv.Code,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	admin := unmarshal[adminResponse](t, raw)
	assert.Equal(t, inst.ID, admin.EntityID)
	assert.Equal(t, "admin", admin.Role)

	// The code is single-use
	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/auth/register", "", map[string]string{
		"email":           "second@test.edu",
		"password":        adminPassword,
		"invitation_code": inv.Code,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(raw))

	// Login and inspect the identity
	resp, raw = doForm(t, baseURL+"/v1/auth/login", url.Values{
		"email":    {adminEmail},
		"password": {adminPassword},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	tok := unmarshal[tokenResponse](t, raw)
	require.NotEmpty(t, tok.AccessToken)

	resp, raw = doJSON(t, http.MethodGet, baseURL+"/v1/auth/me", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	me := unmarshal[adminResponse](t, raw)
	assert.Equal(t, admin.ID, me.ID)

	// Audited profile update bumps the completeness score
	resp, raw = doJSON(t, http.MethodPut, baseURL+"/v1/institution-data/"+inst.ID+"/basic-info", tok.AccessToken, map[string]string{
		"city":    "Springfield",
		"state":   "IL",
		"website": "https://e2e.edu",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	updated := unmarshal[institutionResponse](t, raw)
	assert.Equal(t, "admin", updated.DataSource)
	assert.Greater(t, updated.DataCompletenessScore, inst.DataCompletenessScore)

	// The admin cannot touch an institution it does not manage
	resp, raw = doJSON(t, http.MethodPost, baseURL+"/v1/institutions", super, map[string]string{
		"name": "Other College",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	other := unmarshal[institutionResponse](t, raw)

	resp, _ = doJSON(t, http.MethodGet, baseURL+"/v1/institution-data/"+other.ID, tok.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestInvitationMintRequiresOperator verifies the minting surface is closed
// to anonymous callers and to delegated admins.
func TestInvitationMintRequiresOperator(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	resp, _ := doJSON(t, http.MethodPost, baseURL+"/v1/invitations", "", map[string]string{
		"entity_type": "institution",
		"entity_id":   "inst-1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestValidateUnknownCodeIsUniform checks that probing with a made-up code
// reveals nothing about why it is invalid.
func TestValidateUnknownCodeIsUniform(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/v1/invitations/validate", "", map[string]string{
		"code": "ZZZZ-ZZZZ-ZZZZ-ZZZZ",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	val := unmarshal[validateResponse](t, raw)
	assert.False(t, val.Valid)
	assert.Equal(t, "Invalid or expired invitation code", val.Message)
	assert.Empty(t, val.EntityName)
}

func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupDirectoryContainer(t)
	defer cleanup()

	resp, raw := doJSON(t, http.MethodGet, baseURL+"/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, raw = doJSON(t, http.MethodGet, baseURL+"/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = doJSON(t, http.MethodGet, baseURL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
