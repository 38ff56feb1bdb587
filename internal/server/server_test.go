package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"riotlink/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, handler http.Handler, path string) (int, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestAlive(t *testing.T) {
	code, body := get(t, NewRouter(nil), "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bot alive", body)
}

func TestMetrics(t *testing.T) {
	metrics := common.NewMetrics()
	metrics.Verification("verified")
	metrics.RiotRequest(429)

	code, body := get(t, NewRouter(metrics), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `riotlink_verifications_total{outcome="verified"} 1`)
	assert.Contains(t, body, `riotlink_riot_requests_total{status="429"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	code, _ := get(t, NewRouter(nil), "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}
