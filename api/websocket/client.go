package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	runID string
}

type IncomingMessage struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn, runID string) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, hub.settings.ClientBuffer),
		runID: runID,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	settings := c.hub.settings
	c.conn.SetReadLimit(settings.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(settings.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	settings := c.hub.settings
	ticker := time.NewTicker(settings.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(settings.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		if msg.RunID != "" {
			c.hub.Subscribe(c, msg.RunID)
			logger.WithRun(msg.RunID).Info("Client subscribed to run")
			c.sendConfirmation("subscribed", msg.RunID)
		}
	case "unsubscribe":
		old := c.hub.Subscription(c)
		c.hub.Subscribe(c, "")
		c.sendConfirmation("unsubscribed", old)
	}
}

func (c *Client) sendConfirmation(action, runID string) {
	data, err := json.Marshal(SubscriptionUpdate{
		Type:      MessageTypeSubscription,
		Action:    action,
		RunID:     runID,
		Timestamp: time.Now(),
	})
	if err != nil {
		logger.Errorf("Failed to marshal confirmation: %v", err)
		return
	}
	if !c.hub.SendTo(c, data) {
		logger.Warn("Client send channel full, dropping confirmation")
	}
}

// ServeWebSocket upgrades the request. The run_id query parameter, or "*"
// for every run, sets the initial subscription.
func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  hub.settings.ReadBufferSize,
		WriteBufferSize: hub.settings.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(c *gin.Context) {
		if hub.ClientCount() >= hub.settings.MaxConnections {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, c.Query("run_id"))
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
