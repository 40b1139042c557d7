package handler_test

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/dive-logbook/internal/handler"
)

// TestGetHealth_returns200WithOKStatus verifies that GET /healthz returns
// HTTP 200 and a JSON body of {"status":"ok"}.
func TestGetHealth_returns200WithOKStatus(t *testing.T) {
	env := newTestEnv(t, handler.Services{}, handler.Options{})

	resp, body := env.get(t, "/healthz")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Equal(t, "ok", got.Status)
}

func TestOpenAPI_served(t *testing.T) {
	env := newTestEnv(t, handler.Services{}, handler.Options{})

	resp, body := env.get(t, "/openapi.yaml")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "/bucketlist/{id}/delete:")
}

func TestMetrics_exposed(t *testing.T) {
	env := newTestEnv(t, handler.Services{}, handler.Options{})

	resp, body := env.get(t, "/metrics")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestStatic_served(t *testing.T) {
	env := newTestEnv(t, handler.Services{}, handler.Options{})

	resp, body := env.get(t, "/static/app.js")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/sites/search")
}

func TestDebugProfiler_onlyInDebug(t *testing.T) {
	off := newTestEnv(t, handler.Services{}, handler.Options{})
	resp, _ := off.get(t, "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	on := newTestEnv(t, handler.Services{}, handler.Options{Debug: true})
	resp, _ = on.get(t, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
