package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelink/slack-bridge/pkg/logger"
)

func newTestMetrics() *Metrics {
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewMetrics(true, true, log)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestObserveHTTPRequest(t *testing.T) {
	m := newTestMetrics()

	m.ObserveHTTPRequest(200, 50*time.Millisecond)
	m.ObserveHTTPRequest(200, 20*time.Millisecond)
	m.ObserveHTTPRequest(404, 10*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, "app_total_http_requests 3")
	assert.Contains(t, body, "app_http_requests_200 2")
	assert.Contains(t, body, "app_http_requests_404 1")
}

func TestIncSendOutcome(t *testing.T) {
	m := newTestMetrics()

	m.IncSendOutcome("sent")
	m.IncSendOutcome("sent")
	m.IncSendOutcome("not_found")

	body := scrape(t, m)
	assert.Contains(t, body, "app_total_send_attempts 3")
	assert.Contains(t, body, "app_send_attempts_sent 2")
	assert.Contains(t, body, "app_send_attempts_not_found 1")
}

func TestIncSlackRequest(t *testing.T) {
	m := newTestMetrics()

	m.IncSlackRequest("users.list")
	m.IncSlackRequest("users.list")
	m.IncSlackRequest("chat.postMessage")

	body := scrape(t, m)
	assert.Contains(t, body, `app_slack_api_requests{method="users.list"} 2`)
	assert.Contains(t, body, `app_slack_api_requests{method="chat.postMessage"} 1`)
}

func TestNilSafeRecorders(t *testing.T) {
	var m *Metrics
	// Recording on a nil/disabled Metrics must be a no-op, not a panic.
	m.ObserveHTTPRequest(200, time.Millisecond)
	m.IncSendOutcome("sent")
	m.IncSlackRequest("users.list")
}

func TestHTTPMiddleware(t *testing.T) {
	m := newTestMetrics()
	handler := m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body := scrape(t, m)
	assert.Contains(t, body, "app_http_requests_418 1")
}
