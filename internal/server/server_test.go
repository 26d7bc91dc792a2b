package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelink/slack-bridge/internal/config"
	"github.com/notelink/slack-bridge/internal/observer"
	"github.com/notelink/slack-bridge/pkg/logger"
)

// newFakeHost serves the minimum host API for a send: one block, pass-through
// reference resolution and empty settings.
func newFakeHost(t *testing.T) *httptest.Server {
	t.Helper()
	// Unregistered paths 404: settings read as unset and the readiness
	// probe treats any non-5xx answer as healthy.
	mux := http.NewServeMux()
	mux.HandleFunc("/api/blocks/abc123", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "Hello"})
	})
	mux.HandleFunc("/api/resolve-refs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": body["text"]})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newFakeSlack(t *testing.T, fail string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users.list", func(w http.ResponseWriter, r *http.Request) {
		if fail != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": fail})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"members": []map[string]any{
				{"id": "U123", "name": "jane", "real_name": "Jane Doe", "profile": map[string]any{
					"email": "jane@example.com", "display_name": "jane",
				}},
			},
			"response_metadata": map[string]any{"next_cursor": ""},
		})
	})
	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, r *http.Request) {
		if fail != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": fail})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":                true,
			"channels":          []map[string]any{{"id": "C999", "name": "general"}},
			"response_metadata": map[string]any{"next_cursor": ""},
		})
	})
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "U123", "ts": "123.456"})
	})
	mux.HandleFunc("/auth.test", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "user_id": "B1", "team": "t"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T, hostURL, slackURL string) *httptest.Server {
	t.Helper()
	cfg := &config.AppConfig{
		ServiceName:    "slack-bridge",
		Port:           8080,
		RequestTimeout: 5 * time.Second,
		IdleTimeout:    5 * time.Second,
		Slack: config.SlackConfig{
			BotToken:  "xoxb-test",
			APIURL:    slackURL,
			PageLimit: 200,
		},
		Host:       config.HostConfig{BaseURL: hostURL, Timeout: 5 * time.Second},
		Logging:    config.LoggingConfig{Level: "error", Format: "json"},
		Monitoring: config.MonitoringConfig{MetricsEnabled: true, HealthCheckTimeout: 5 * time.Second},
	}
	log := logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Output: io.Discard})

	s := New(cfg, log)
	server := httptest.NewServer(s.createRouter())
	t.Cleanup(server.Close)
	return server
}

func postSend(t *testing.T, serverURL string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(serverURL+"/v1/send", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSendEndpoint(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	resp := postSend(t, server.URL, map[string]any{"tag": "@jane", "block_uid": "abc123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ChannelID string `json:"channel_id"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "U123", body.ChannelID)
	assert.Equal(t, "123.456", body.Timestamp)
}

func TestSendEndpointUnknownTag(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	resp := postSend(t, server.URL, map[string]any{"tag": "@ghost", "block_uid": "abc123"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "Couldn't find Slack user or channel for @ghost")
}

func TestSendEndpointRejectedToken(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "not_authed")
	server := newTestServer(t, host.URL, slackSrv.URL)

	resp := postSend(t, server.URL, map[string]any{"tag": "@jane", "block_uid": "abc123"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "Not logged in to Slack")
}

func TestSendEndpointBadRequests(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	resp, err := http.Post(server.URL+"/v1/send", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postSend(t, server.URL, map[string]any{"tag": "@jane"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	resp, err := http.Get(server.URL + "/health/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/health/ready")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	// Generate one request so the counters exist.
	resp, err := http.Get(server.URL + "/health/live")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scrape, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(scrape), "app_total_http_requests")
}

func TestObserveEndpoint(t *testing.T) {
	host := newFakeHost(t)
	slackSrv := newFakeSlack(t, "")
	server := newTestServer(t, host.URL, slackSrv.URL)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/observe"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	events := []observer.Event{
		{Tag: "@jane", BlockUID: "abc123", ElementID: "el-1"},
		{Tag: "TODO", BlockUID: "abc123", ElementID: "el-2"},
	}
	require.NoError(t, conn.WriteJSON(events))

	var decisions []observer.Decision
	require.NoError(t, conn.ReadJSON(&decisions))
	require.Len(t, decisions, 2)
	assert.True(t, decisions[0].Mount)
	assert.False(t, decisions[1].Mount)
}
