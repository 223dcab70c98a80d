package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/routes"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func TestHealthCheck(t *testing.T) {
	env, app := newApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, "connected", body["redis"])
	assert.Equal(t, "Pet Rent & Earn API", body["service"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])

	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	env.Redis.Close()

	status, body = doJSON(t, app, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "disconnected", body["database"])
	assert.Equal(t, "error", body["redis"])
}

func TestAPIInfoAndUnknownRoute(t *testing.T) {
	_, app := newApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api", nil, "")
	require.Equal(t, http.StatusOK, status)
	endpoints := body["endpoints"].(map[string]any)
	assert.Equal(t, "/api/pets", endpoints["pets"])

	status, body = doJSON(t, app, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	_, app := newApp(t)
	doJSON(t, app, http.MethodGet, "/api", nil, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "petrent_http_requests_total")
}

func TestRateLimitSkipsHealth(t *testing.T) {
	testutil.Setup(t)
	config.App.RateLimitPerMinute = 2
	app := routes.NewApp(config.App)

	for range 2 {
		status, _ := doJSON(t, app, http.MethodGet, "/api", nil, "")
		require.Equal(t, http.StatusOK, status)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	for range 3 {
		status, _ := doJSON(t, app, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, status)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	_, app := newApp(t)
	for _, path := range []string{"/api/bookings", "/api/notifications", "/api/transactions/wallet", "/api/analytics/earnings"} {
		status, _ := doJSON(t, app, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status, path)
		status, _ = doJSON(t, app, http.MethodGet, path, nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
}
