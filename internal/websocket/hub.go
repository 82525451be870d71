package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"payment-notifier/internal/models"
)

var (
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_total",
		Help: "Current number of active WebSocket connections",
	})
	wsMessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_sent_total",
		Help: "Total number of messages sent via WebSocket",
	}, []string{"type"})
	broadcastLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "websocket_broadcast_latency_seconds",
		Help:    "Time spent fanning one event out to all connections",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(wsConnections, wsMessagesSent, broadcastLatency)
}

// Hub maintains the set of active clients and broadcasts payment events to
// them. Clients carry no identity beyond registry membership; every event
// goes to every client connected at the moment of broadcast.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc

	mu sync.RWMutex
}

// NewHub creates a new Hub and starts its goroutine
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		return
	}
	h.clients[c] = true
	wsConnections.Inc()
	log.Info().Str("conn_id", c.id).Int("clients", len(h.clients)).Msg("Client connected")
}

// removeClient is safe to call for a client that was already removed; the
// send channel is closed only on the transition out of the registry.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	wsConnections.Dec()
	log.Info().Str("conn_id", c.id).Int("clients", len(h.clients)).Msg("Client disconnected")
}

// Publish serializes the event once and offers it to every registered
// client. A client whose send buffer is full is treated as gone: it is
// dropped from the registry without affecting delivery to the others, and
// no error reaches the caller. Fire-and-forget, at most once per client.
func (h *Hub) Publish(event *models.Event) {
	start := time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling event")
		return
	}

	var failed []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
			wsMessagesSent.WithLabelValues(event.Type).Inc()
		default:
			failed = append(failed, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range failed {
		h.removeClient(c)
	}
	broadcastLatency.Observe(time.Since(start).Seconds())
}

// ClientCount reports the current registry size.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the hub and drops every remaining client.
func (h *Hub) Close() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		wsConnections.Dec()
	}
}
