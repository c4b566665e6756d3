package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(srv, http.MethodGet, "/health/live", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "uptime")
}

func TestHandleReadinessAllChecksPass(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(_ context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(_ context.Context) error { return nil }},
	)

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestHandleReadinessFailingCheck(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(_ context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(_ context.Context) error { return errors.New("connection refused") }},
	)

	rec := doRequest(srv, http.MethodGet, "/health/ready", "", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"redis"`)
}

func TestHealthzAliasAnswersReadiness(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(_ context.Context) error { return errors.New("connection refused") }},
	)

	rec := doRequest(srv, http.MethodGet, "/healthz", "", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"failed_check":"postgres"`)
}

func TestHandleStartup(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(_ context.Context) error { return nil }},
	)

	rec := doRequest(srv, http.MethodGet, "/health/startup", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointExposed(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(srv, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
