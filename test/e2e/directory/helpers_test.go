package directory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/campusreach/directory/internal/directory/billing"
	"github.com/campusreach/directory/pkg/jwtx"
)

/*
 * Common constants and helper functions for directory service end-to-end
 * tests. This includes container setup, signed-token helpers, and thin HTTP
 * wrappers over the JSON API.
 */

const (
	testImageName = "campusreach-directory-test:latest"

	testIssuer        = "campusreach-directory"
	testSigningKeyID  = "directory-e2e-key"
	testWebhookSecret = "whsec_e2e_secret"

	adminEmail    = "dean@test.edu"
	adminPassword = "Admin123!hunter"
)

// signer is shared with the container via a mounted PEM so tests can mint
// super-admin tokens the service will accept.
var signer *jwtx.Signer

// signingKeyPath is the host-side PEM the container mounts at /signing.pem.
var signingKeyPath string

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Directory Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	if err := generateSigningKey(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate signing key: %v\n", err)
		os.Exit(1)
	}

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Directory Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	_ = os.RemoveAll(filepath.Dir(signingKeyPath))
	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/directory/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func generateSigningKey() error {
	s, err := jwtx.NewEphemeralSigner(testSigningKeyID)
	if err != nil {
		return err
	}
	signer = s

	pemKey, err := s.EncodePEM()
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "directory-e2e")
	if err != nil {
		return err
	}
	signingKeyPath = filepath.Join(dir, "signing.pem")
	return os.WriteFile(signingKeyPath, pemKey, 0o644)
}

// setupDirectoryContainer starts the directory service in a container with
// relaxed rate limits and returns the base URL. Tests that exercise rate
// limiting should use setupContainerWithDefaultRateLimits instead.
func setupDirectoryContainer(t *testing.T) (string, func()) {
	return startContainer(t, map[string]string{
		// Tests make many rapid requests which would otherwise hit the
		// strict production limits
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupContainerWithDefaultRateLimits starts the service with production
// rate limits, for verifying that limiting actually bites.
func setupContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"DIRECTORY_ISSUER":           testIssuer,
		"DIRECTORY_SIGNING_KEY_FILE": "/signing.pem",
		"DIRECTORY_SIGNING_KEY_ID":   testSigningKeyID,
		"DIRECTORY_DATABASE_FILE":    "/tmp/directory.db",
		"DIRECTORY_PEPPER_FILE":      "/tmp/pepper",
		"BILLING_WEBHOOK_SECRET":     testWebhookSecret,
		"ENV":                        "test",
		"LOG_LEVEL":                  "info",
		"LOG_FORMAT":                 "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		Files: []testcontainers.ContainerFile{
			{
				HostFilePath:      signingKeyPath,
				ContainerFilePath: "/signing.pem",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// superAdminToken mints a platform-operator token with the shared key.
func superAdminToken(t *testing.T) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(
		"e2e-super-admin", "ops@campusreach.test", "super_admin", "", "",
		testIssuer, jwtx.DefaultAccessTokenTTL, time.Now().UTC(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, method, rawURL, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, rawURL, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func doForm(t *testing.T, rawURL string, form url.Values) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// postWebhook signs the payload with the shared secret and delivers it.
func postWebhook(t *testing.T, baseURL string, payload []byte) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/webhooks/billing", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(billing.SignatureHeader, billing.SignatureHeaderValue(payload, testWebhookSecret, time.Now()))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func unmarshal[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
