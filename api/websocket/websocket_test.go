package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/models"
)

func newTestServer(t *testing.T, cfg *config.WebSocketConfig) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(cfg)
	go hub.Run()
	t.Cleanup(hub.Stop)

	router := gin.New()
	router.GET("/ws", ServeWebSocket(hub))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestNewWebSocketSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.WebSocketConfig
		want func(t *testing.T, s *WebSocketSettings)
	}{
		{
			name: "nil config uses defaults",
			cfg:  nil,
			want: func(t *testing.T, s *WebSocketSettings) {
				assert.Equal(t, DefaultWebSocketSettings(), s)
			},
		},
		{
			name: "overrides",
			cfg:  &config.WebSocketConfig{MaxConnections: 5, ClientBuffer: 8, MaxMessageSize: 1024},
			want: func(t *testing.T, s *WebSocketSettings) {
				assert.Equal(t, 5, s.MaxConnections)
				assert.Equal(t, 8, s.ClientBuffer)
				assert.Equal(t, int64(1024), s.MaxMessageSize)
			},
		},
		{
			name: "ping interval below pong timeout",
			cfg:  &config.WebSocketConfig{PingInterval: time.Minute, PongTimeout: 10 * time.Second},
			want: func(t *testing.T, s *WebSocketSettings) {
				assert.Equal(t, 9*time.Second, s.PingInterval)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, NewWebSocketSettings(tt.cfg))
		})
	}
}

func TestHub_BroadcastToRun(t *testing.T) {
	hub, url := newTestServer(t, nil)

	r1 := dial(t, hub, url+"?run_id=r1", 1)
	all := dial(t, hub, url+"?run_id="+AllRuns, 2)
	r2 := dial(t, hub, url+"?run_id=r2", 3)

	hub.BroadcastToRun("r1", []byte(`{"type":"window","run_id":"r1"}`))

	assert.Equal(t, "r1", readMessage(t, r1)["run_id"])
	assert.Equal(t, "r1", readMessage(t, all)["run_id"])

	require.NoError(t, r2.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := r2.ReadMessage()
	assert.Error(t, err)
}

func TestClient_Subscribe(t *testing.T) {
	hub, url := newTestServer(t, nil)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "subscribe", RunID: "r9"}))
	msg := readMessage(t, conn)
	assert.Equal(t, string(MessageTypeSubscription), msg["type"])
	assert.Equal(t, "subscribed", msg["action"])
	assert.Equal(t, "r9", msg["run_id"])

	hub.BroadcastToRun("r9", []byte(`{"type":"run_completed","run_id":"r9"}`))
	assert.Equal(t, "run_completed", readMessage(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "unsubscribe"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "unsubscribed", msg["action"])
	assert.Equal(t, "r9", msg["run_id"])
}

func TestServeWebSocket_MaxConnections(t *testing.T) {
	hub, url := newTestServer(t, &config.WebSocketConfig{MaxConnections: 1})
	dial(t, hub, url, 1)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, url := newTestServer(t, nil)
	conn := dial(t, hub, url, 1)

	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestConvertEvent(t *testing.T) {
	report := &models.WindowReport{
		RunID:     "r1",
		WindowID:  3,
		LinesRead: 10,
		UniqueIPs: 4,
		Algorithms: []models.AlgorithmSnapshot{
			{Name: "Det", Cumulative: models.ConfusionCounts{TP: 2}, CumulativeMetrics: models.DerivedMetrics{F1: 0.5}},
		},
	}

	tests := []struct {
		name  string
		event *models.Event
		want  MessageType
	}{
		{"window closed", models.NewEvent(models.EventTypeWindowClosed, "r1", "closed").WithData(report), MessageTypeWindow},
		{"run completed", models.NewEvent(models.EventTypeRunCompleted, "r1", "done"), MessageTypeRunCompleted},
		{"escalation", models.NewEvent(models.EventTypeLabelEscalated, "r1", "esc"), MessageTypeEscalation},
		{"alert", models.NewEvent(models.EventTypeAlert, "r1", "alert"), MessageTypeAlert},
		{"window opened is skipped", models.NewEvent(models.EventTypeWindowOpened, "r1", "open"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ConvertEvent(tt.event)
			if tt.want == "" {
				assert.Nil(t, msg)
				return
			}
			require.NotNil(t, msg)
			assert.Equal(t, tt.want, msg.Type)
			assert.Equal(t, "r1", msg.RunID)
		})
	}

	msg := ConvertEvent(models.NewEvent(models.EventTypeWindowClosed, "r1", "closed").WithData(report))
	summary, ok := msg.Data.(WindowSummary)
	require.True(t, ok)
	assert.Equal(t, 3, summary.WindowID)
	require.Len(t, summary.Algorithms, 1)
	assert.Equal(t, int64(2), summary.Algorithms[0].Counts.TP)
	assert.Equal(t, 0.5, summary.Algorithms[0].Cumulative.F1)
}

func TestEventBridge_Forwards(t *testing.T) {
	hub, url := newTestServer(t, nil)
	conn := dial(t, hub, url+"?run_id=r1", 1)

	events := make(chan *models.Event, 1)
	bridge := NewEventBridge(hub, events)
	bridge.Start()
	defer bridge.Stop()

	events <- models.NewEvent(models.EventTypeRunFailed, "r1", "Run failed: malformed input").WithSeverity(models.SeverityCritical)

	msg := readMessage(t, conn)
	assert.Equal(t, string(MessageTypeRunFailed), msg["type"])
	assert.Equal(t, "critical", msg["severity"])
}
