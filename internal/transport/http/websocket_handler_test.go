package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/config"
	"energydash/internal/events"
	ws "energydash/internal/websocket"
	contractevents "energydash/pkg/contracts/events"
)

func newWSServer(t *testing.T, origins []string) (*ws.Hub, *httptest.Server) {
	t.Helper()
	hub := ws.NewHub(discardLogger(), nil, ws.Options{})
	hub.Start()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(NewWebSocketHandler(hub, config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, origins, discardLogger()))
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketReceivesReloadEvent(t *testing.T) {
	hub, srv := newWSServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	var welcome contractevents.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, contractevents.MessageTypeConnect, welcome.Type)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	evt := events.New(context.Background(), contractevents.MessageTypeDatasetReloaded, contractevents.DatasetReloaded{DurationMS: 12})
	require.NoError(t, hub.Publish(context.Background(), evt))

	var got contractevents.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, contractevents.MessageTypeDatasetReloaded, got.Type)
	assert.Equal(t, evt.ID, got.ID)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, srv := newWSServer(t, []string{"http://dashboard.local"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestWebSocketUpgradeFailureWritesProblem(t *testing.T) {
	hub := ws.NewHub(discardLogger(), nil, ws.Options{})
	h := NewWebSocketHandler(hub, config.WebSocketConfig{}, nil, discardLogger())

	tests := []struct {
		name       string
		method     string
		header     http.Header
		wantStatus int
	}{
		{name: "plain get", method: http.MethodGet, wantStatus: http.StatusBadRequest},
		{
			name:   "wrong method",
			method: http.MethodPost,
			header: http.Header{
				"Connection": []string{"Upgrade"},
				"Upgrade":    []string{"websocket"},
			},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/ws", nil)
			for k, v := range tt.header {
				req.Header[k] = v
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "WEBSOCKET_UPGRADE_FAILED", body["error_code"])
			assert.Equal(t, "/errors/websocket/upgrade-failed", body["type"])
			assert.Equal(t, "/ws", body["instance"])
		})
	}
}
