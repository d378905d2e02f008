// Package websocket fans activity events out to connected dashboard clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/telemetry"
)

const (
	eventBuffer  = 64
	writeTimeout = 5 * time.Second
)

// Event is one activity notification.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Hub owns the set of subscribed connections. Only Run mutates the set.
type Hub struct {
	subscribers map[*websocket.Conn]struct{}
	events      chan []byte
	joins       chan *websocket.Conn
	leaves      chan *websocket.Conn
	stopped     chan struct{}
	mu          sync.RWMutex
	log         *logger.Logger
	metrics     *telemetry.Metrics
}

// NewHub returns a hub; metrics may be nil.
func NewHub(log *logger.Logger, metrics *telemetry.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[*websocket.Conn]struct{}),
		events:      make(chan []byte, eventBuffer),
		joins:       make(chan *websocket.Conn),
		leaves:      make(chan *websocket.Conn),
		stopped:     make(chan struct{}),
		log:         log,
		metrics:     metrics,
	}
}

// Run serves joins, leaves and events until ctx is done, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			h.dropAll()
			return
		case conn := <-h.joins:
			h.add(conn)
			h.log.Info("Activity subscriber joined (%d connected)", h.ClientCount())
		case conn := <-h.leaves:
			if h.remove(conn) {
				h.log.Info("Activity subscriber left (%d connected)", h.ClientCount())
			}
		case payload := <-h.events:
			h.fanOut(payload)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.subscribers[conn] = struct{}{}
	h.mu.Unlock()
	h.reportCount()
}

// remove closes conn and reports whether it was subscribed.
func (h *Hub) remove(conn *websocket.Conn) bool {
	h.mu.Lock()
	_, ok := h.subscribers[conn]
	delete(h.subscribers, conn)
	h.mu.Unlock()
	conn.Close()
	if ok {
		h.reportCount()
	}
	return ok
}

func (h *Hub) dropAll() {
	h.mu.Lock()
	for conn := range h.subscribers {
		conn.Close()
	}
	clear(h.subscribers)
	h.mu.Unlock()
	h.reportCount()
}

// fanOut writes payload to every subscriber, evicting the ones that fail.
func (h *Hub) fanOut(payload []byte) {
	var failed []*websocket.Conn

	h.mu.RLock()
	for conn := range h.subscribers {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warning("Activity write to %s failed: %v", conn.RemoteAddr(), err)
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range failed {
		h.remove(conn)
	}
}

func (h *Hub) reportCount() {
	if h.metrics != nil {
		h.metrics.SetWebsocketClients(h.ClientCount())
	}
}

// Register subscribes conn. After Run has returned the connection is closed instead.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.joins <- conn:
	case <-h.stopped:
		conn.Close()
	}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.leaves <- conn:
	case <-h.stopped:
		conn.Close()
	}
}

// Publish queues ev for every subscriber. Events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("Encoding %s event: %v", ev.Type, err)
		return
	}

	select {
	case h.events <- payload:
	default:
		h.log.Warning("Activity queue full, dropping %s event", ev.Type)
	}
}

// ClientCount returns the number of subscribed connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
