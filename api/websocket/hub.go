package websocket

import (
	"sync"

	"github.com/OldStager01/botnet-detectors-comparer/internal/logger"
	"github.com/OldStager01/botnet-detectors-comparer/pkg/config"
)

const defaultBroadcastBuffer = 256

// AllRuns subscribes a client to the events of every run.
const AllRuns = "*"

type outbound struct {
	runID string
	data  []byte
}

// Hub fans run events out to the websocket clients subscribed to that run.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	settings   *WebSocketSettings
}

func NewHub(cfg *config.WebSocketConfig) *Hub {
	broadcastBuffer := defaultBroadcastBuffer
	if cfg != nil && cfg.BroadcastBuffer > 0 {
		broadcastBuffer = cfg.BroadcastBuffer
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   NewWebSocketSettings(cfg),
	}
}

func (h *Hub) Settings() *WebSocketSettings {
	return h.settings
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Infof("WebSocket client connected (total: %d)", h.ClientCount())

		case client := <-h.unregister:
			h.remove(client)
			logger.Infof("WebSocket client disconnected (total: %d)", h.ClientCount())

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.runID != AllRuns && client.runID != msg.runID {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			delete(h.clients, client)
			close(client.send)
			logger.Warnf("WebSocket client too slow, disconnected from run %s", msg.runID)
		}
	}
}

// BroadcastToRun queues message for the clients subscribed to runID.
func (h *Hub) BroadcastToRun(runID string, message []byte) {
	select {
	case h.broadcast <- outbound{runID: runID, data: message}:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// SendTo queues message for one registered client without blocking.
func (h *Hub) SendTo(client *Client, message []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return false
	}
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Subscribe moves client to runID. An empty runID unsubscribes.
func (h *Hub) Subscribe(client *Client, runID string) {
	h.mu.Lock()
	client.runID = runID
	h.mu.Unlock()
}

func (h *Hub) Subscription(client *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.runID
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
